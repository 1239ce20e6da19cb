// Package pipeline runs the call-flow pipeline end to end: load a grouped
// calling-context tree, build its Sankey graph, and render artifacts.
//
// This package is shared by every entry point of the callflow command so
// that defaults and validation live in one place.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{
//	    Threshold: 0.01,
//	    Formats:   []string{"json", "svg"},
//	}
//	result, err := runner.ExecuteFile(ctx, "profile.json", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Options carry toml and json tags so the same struct is read from a
// callflow.toml file or a JSON request.
package pipeline

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/LLNL/CallFlow-sub002/pkg/errors"
	"github.com/LLNL/CallFlow-sub002/pkg/sankey"
)

const (
	// DefaultThreshold is the pruning cutoff as a fraction of the reference runtime.
	DefaultThreshold = sankey.DefaultThreshold

	// DefaultEdgeWeight is the default edge weighting mode.
	DefaultEdgeWeight = string(sankey.EdgeWeightSum)

	// DefaultPNGScale is the resolution multiplier for PNG output.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidEdgeWeights is the set of supported edge weighting modes.
var ValidEdgeWeights = map[string]bool{
	string(sankey.EdgeWeightSum):  true,
	string(sankey.EdgeWeightMean): true,
}

// Options contains all configuration for a pipeline run.
type Options struct {
	// Build options
	Threshold  float64 `toml:"threshold" json:"threshold,omitempty"`
	KeepAll    bool    `toml:"keep_all" json:"keep_all,omitempty"`
	EdgeWeight string  `toml:"edge_weight" json:"edge_weight,omitempty"`

	// Render options
	Formats  []string `toml:"formats" json:"formats,omitempty"`
	Detailed bool     `toml:"detailed" json:"detailed,omitempty"`
	PNGScale float64  `toml:"png_scale" json:"png_scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `toml:"-" json:"-"`

	validated bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEdgeWeight checks that an edge weighting mode is valid.
func ValidateEdgeWeight(mode string) error {
	if !ValidEdgeWeights[mode] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid edge_weight: %q (must be one of: sum, mean)", mode)
	}
	return nil
}

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild validates and sets defaults for building the Sankey graph.
func (o *Options) ValidateForBuild() error {
	if o.Threshold < 0 || o.Threshold > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid threshold: %v (must be within [0, 1])", o.Threshold)
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.EdgeWeight == "" {
		o.EdgeWeight = DefaultEdgeWeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateEdgeWeight(o.EdgeWeight)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.PNGScale < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid png_scale: %v", o.PNGScale)
	}
	return ValidateFormats(o.Formats)
}

// SankeyOptions returns the build options for [sankey.Build].
func (o *Options) SankeyOptions() sankey.Options {
	return sankey.Options{
		Threshold:  o.Threshold,
		KeepAll:    o.KeepAll,
		EdgeWeight: sankey.EdgeWeight(o.EdgeWeight),
		Logger:     o.Logger,
	}
}

// NeedsGraphviz reports whether any requested format is rendered through Graphviz.
func (o *Options) NeedsGraphviz() bool {
	for _, f := range o.Formats {
		if f == FormatSVG || f == FormatPNG || f == FormatPDF {
			return true
		}
	}
	return false
}

// String summarises the build options for logging.
func (o *Options) String() string {
	if o.KeepAll {
		return fmt.Sprintf("keep_all edge_weight=%s", o.EdgeWeight)
	}
	return fmt.Sprintf("threshold=%g edge_weight=%s", o.Threshold, o.EdgeWeight)
}
