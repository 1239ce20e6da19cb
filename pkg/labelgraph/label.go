package labelgraph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Label identifies a condensed node: a semantic module or procedure id plus a
// split generation. Generation 0 is the original label; generations above 0
// are synthetic labels minted to break cycles.
//
// Label is comparable and is used directly as a map key.
type Label struct {
	Base string // semantic id as delivered by the tree builder (e.g. "7091")
	Gen  int    // split generation, 0 for original labels
}

// NewLabel returns the original (generation 0) label for base.
func NewLabel(base string) Label { return Label{Base: base} }

// IsSplit reports whether l was minted to break a cycle.
func (l Label) IsSplit() bool { return l.Gen > 0 }

// Origin returns the generation 0 label l was split from.
func (l Label) Origin() Label { return Label{Base: l.Base} }

// IsZero reports whether l is the zero Label.
func (l Label) IsZero() bool { return l.Base == "" && l.Gen == 0 }

// String renders l as "base" or "base_gen".
func (l Label) String() string {
	if l.Gen == 0 {
		return l.Base
	}
	return l.Base + "_" + strconv.Itoa(l.Gen)
}

// ParseLabel is the inverse of [Label.String]. A trailing "_N" with N > 0 is
// read as the generation; any other suffix is part of the base.
func ParseLabel(s string) (Label, error) {
	if s == "" {
		return Label{}, fmt.Errorf("empty label")
	}
	i := strings.LastIndexByte(s, '_')
	if i <= 0 || i == len(s)-1 {
		return Label{Base: s}, nil
	}
	gen, err := strconv.Atoi(s[i+1:])
	if err != nil || gen <= 0 {
		return Label{Base: s}, nil
	}
	return Label{Base: s[:i], Gen: gen}, nil
}

// MarshalText implements encoding.TextMarshaler so labels can be JSON map keys.
func (l Label) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalJSON accepts both string and numeric labels; tree builders emit
// module ids either way.
func (l *Label) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return l.UnmarshalText([]byte(s))
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("label must be a string or number: %s", b)
	}
	return l.UnmarshalText([]byte(n.String()))
}

// Compare orders labels by base (numerically when both bases are integers)
// and then by generation. It is suitable for slices.SortFunc.
func Compare(a, b Label) int {
	if a.Base != b.Base {
		ai, aerr := strconv.Atoi(a.Base)
		bi, berr := strconv.Atoi(b.Base)
		switch {
		case aerr == nil && berr == nil && ai != bi:
			if ai < bi {
				return -1
			}
			return 1
		case aerr == nil && berr == nil:
			return strings.Compare(a.Base, b.Base)
		case aerr == nil:
			return -1
		case berr == nil:
			return 1
		}
		return strings.Compare(a.Base, b.Base)
	}
	return a.Gen - b.Gen
}
