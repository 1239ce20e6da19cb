package sankey

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// DefaultThreshold is the fraction of the reference runtime below which
// groups and edges are pruned.
const DefaultThreshold = 0.01

// EdgeWeight selects how contributing record times become an edge weight.
type EdgeWeight string

const (
	// EdgeWeightSum adds the times of all contributing records.
	EdgeWeightSum EdgeWeight = "sum"
	// EdgeWeightMean averages them, treating an empty set as zero.
	EdgeWeightMean EdgeWeight = "mean"
)

// Options configures a single [Build].
type Options struct {
	// Threshold is the pruning cutoff as a fraction of the reference
	// runtime. Zero selects DefaultThreshold.
	Threshold float64

	// KeepAll disables pruning entirely; Threshold is ignored.
	KeepAll bool

	// EdgeWeight defaults to EdgeWeightSum.
	EdgeWeight EdgeWeight

	// Logger receives stage progress at debug level and diagnostics at
	// warn level. Nil discards all output.
	Logger *log.Logger
}

// withDefaults returns a copy of o with defaults applied.
func (o Options) withDefaults() (Options, error) {
	if o.Threshold < 0 || o.Threshold > 1 {
		return o, fmt.Errorf("threshold %v outside [0, 1]", o.Threshold)
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.KeepAll {
		o.Threshold = 0
	}
	switch o.EdgeWeight {
	case "":
		o.EdgeWeight = EdgeWeightSum
	case EdgeWeightSum, EdgeWeightMean:
	default:
		return o, fmt.Errorf("edge weight %q (must be one of: sum, mean)", o.EdgeWeight)
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o, nil
}
