package render

import (
	"context"
	stderrors "errors"
	"slices"
	"testing"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
)

func TestConvertArgs(t *testing.T) {
	tests := []struct {
		format string
		scale  float64
		want   []string
	}{
		{"pdf", 0, []string{"-f", "pdf"}},
		{"png", 2, []string{"-f", "png", "-z", "2.00"}},
		{"png", 0, []string{"-f", "png", "-z", "1.00"}},
		{"png", -3, []string{"-f", "png", "-z", "1.00"}},
	}
	for _, tt := range tests {
		if got := convertArgs(tt.format, tt.scale); !slices.Equal(got, tt.want) {
			t.Errorf("convertArgs(%q, %v) = %v, want %v", tt.format, tt.scale, got, tt.want)
		}
	}
}

func TestToPDF_MissingConverter(t *testing.T) {
	prev := rsvgBinary
	rsvgBinary = "callflow-no-such-converter"
	t.Cleanup(func() { rsvgBinary = prev })

	if ConverterAvailable() {
		t.Fatal("ConverterAvailable() = true for a missing binary")
	}
	_, err := ToPDF(context.Background(), []byte("<svg/>"))
	if !stderrors.Is(err, ErrConverterMissing) {
		t.Errorf("ToPDF() error = %v, want ErrConverterMissing", err)
	}
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidConfig {
		t.Errorf("GetCode() = %v, want %v", got, errors.ErrCodeInvalidConfig)
	}
}
