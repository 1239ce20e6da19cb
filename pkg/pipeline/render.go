package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	cfio "github.com/LLNL/CallFlow-sub002/pkg/io"
	"github.com/LLNL/CallFlow-sub002/pkg/render/nodelink"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

// Render generates output artifacts in the requested formats.
// The DOT source is produced once and shared by the Graphviz formats.
func Render(ctx context.Context, res *sankey.Result, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	var dot string
	if opts.NeedsGraphviz() || slices.Contains(opts.Formats, FormatDOT) {
		dot = nodelink.ToDOT(res.Graph, nodelink.Options{Detailed: opts.Detailed})
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = cfio.WriteSankey(res, &buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.PNGScale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
