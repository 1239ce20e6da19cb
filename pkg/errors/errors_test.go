package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"formatted", New(ErrCodeInvalidInput, "level %d has no groups", 0), "INVALID_INPUT: level 0 has no groups"},
		{"with cause", Wrap(ErrCodeInvalidFormat, errors.New("unexpected EOF"), "decode dataset"), "INVALID_FORMAT: decode dataset: unexpected EOF"},
		{"consolidation", New(ErrCodeInternal, "label graph has a cycle"), "INTERNAL_ERROR: label graph has a cycle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeFileNotFound, fs.ErrNotExist, "open %s", "run.json")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is(err, fs.ErrNotExist) = false, want true")
	}
	if errors.Unwrap(err) != fs.ErrNotExist {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), fs.ErrNotExist)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", New(ErrCodeDanglingParent, "parent 7"), ErrCodeDanglingParent},
		{"through fmt wrap", fmt.Errorf("load: %w", New(ErrCodeFileNotFound, "run.json")), ErrCodeFileNotFound},
		{"outermost code wins", Wrap(ErrCodeInvalidFormat, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeInvalidFormat},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestDiagnostics(t *testing.T) {
	ds := Diagnostics{
		{Code: ErrCodeDanglingParent, Stage: "builder", Message: "parent 7 not found"},
		{Code: ErrCodeDanglingParent, Stage: "builder", Message: "parent 9 not found"},
		{Code: ErrCodeRuntimeMismatch, Stage: "conservation", Message: "off by 0.5"},
	}

	if got := ds.Count(ErrCodeDanglingParent); got != 2 {
		t.Errorf("Count(DANGLING_PARENT) = %d, want 2", got)
	}
	if ds.Has(ErrCodeEmptyAggregation) {
		t.Error("Has(EMPTY_AGGREGATION) = true, want false")
	}

	expected := "DANGLING_PARENT: builder: parent 7 not found"
	if ds[0].Error() != expected {
		t.Errorf("Error() = %v, want %v", ds[0].Error(), expected)
	}
}
