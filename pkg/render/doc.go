// Package render converts rendered call-flow diagrams between output formats.
//
// The [nodelink] subpackage draws a Sankey graph as a Graphviz diagram and
// produces SVG in-process. [ToPDF] and [ToPNG] convert that SVG with the
// external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(fg, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
package render
