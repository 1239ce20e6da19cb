// Package nodelink renders Sankey call-flow graphs as node-link diagrams.
//
// # Usage
//
// Convert a final graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(res.Graph, nodelink.Options{Detailed: false})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Layout
//
// The generated DOT flows left to right (rankdir=LR). Every Sankey level is
// one Graphviz rank, edge pen width is proportional to edge value, and
// split labels such as "solver_1" are drawn dashed on a grey fill.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
