package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/LLNL/CallFlow-sub002/pkg/render"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

const (
	minPenWidth = 1.0
	maxPenWidth = 12.0
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds run time, instance count and level to node labels.
	// When false, only the node name is shown.
	Detailed bool
}

// ToDOT converts a Sankey graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Nodes on the same level share a rank, so flow reads left to right. Edge
// width scales with edge value. Split labels are drawn with dashed outlines
// and grey fill.
func ToDOT(fg *sankey.FinalGraph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#4682b4aa\", arrowsize=0.6];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	levels := map[int][]sankey.FinalNode{}
	for _, n := range fg.Nodes {
		levels[n.Level] = append(levels[n.Level], n)
	}
	for _, lvl := range sortedKeys(levels) {
		fmt.Fprintf(&buf, "  { rank=same;")
		for _, n := range levels[lvl] {
			fmt.Fprintf(&buf, " %q;", n.Label.String())
		}
		buf.WriteString(" }\n")
	}
	buf.WriteString("\n")

	for _, n := range fg.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Label.String(), strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	peak := 0.0
	for _, e := range fg.Edges {
		peak = max(peak, e.Value)
	}
	for _, e := range fg.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [penwidth=%.2f, tooltip=%q];\n",
			e.SourceLabel.String(), e.TargetLabel.String(), penWidth(e.Value, peak), strconv.FormatFloat(e.Value, 'g', 6, 64))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n sankey.FinalNode, detailed bool) string {
	name := n.Name
	if name == "" {
		name = n.Label.String()
	}
	if !detailed {
		return name
	}
	return fmt.Sprintf("%s\nlabel: %s\nlevel: %d\ntime: %.6g\ninstances: %d",
		name, n.Label, n.Level, n.RunTime, len(n.UniqueNodeIDs))
}

func fmtAttrs(n sankey.FinalNode, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Label.IsSplit() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

func penWidth(v, peak float64) float64 {
	if peak <= 0 {
		return minPenWidth
	}
	return minPenWidth + (maxPenWidth-minPenWidth)*v/peak
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
