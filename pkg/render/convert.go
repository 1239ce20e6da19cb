package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
)

// rsvgBinary is the SVG converter looked up on PATH.
var rsvgBinary = "rsvg-convert"

// ErrConverterMissing is returned when PDF or PNG output is requested and
// rsvg-convert is not installed.
var ErrConverterMissing = stderrors.New("rsvg-convert not found (install librsvg: brew install librsvg, apt install librsvg2-bin)")

// ConverterAvailable reports whether PDF and PNG conversion can run.
func ConverterAvailable() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, convertArgs("pdf", 0))
}

// ToPNG converts SVG bytes to PNG. A scale of 2.0 doubles the resolution;
// zero or negative means 1.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, convertArgs("png", scale))
}

func convertArgs(format string, scale float64) []string {
	args := []string{"-f", format}
	if format == "png" {
		if scale <= 0 {
			scale = 1
		}
		args = append(args, "-z", strconv.FormatFloat(scale, 'f', 2, 64))
	}
	return args
}

func rsvgConvert(ctx context.Context, svg []byte, args []string) ([]byte, error) {
	if !ConverterAvailable() {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, ErrConverterMissing, "%s export", args[1])
	}

	cmd := exec.CommandContext(ctx, rsvgBinary, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", rsvgBinary, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out.Bytes(), nil
}
