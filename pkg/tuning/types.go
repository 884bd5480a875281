// Package tuning provides the Scala (.scl) tuning codec and n-TET approximation engine
package tuning

import (
	"errors"
	"fmt"
)

// Cents per octave
const (
	Octave = 1200.0

	// NoMatch is the source index recorded when the scale has no pitches
	NoMatch = -1
)

// Sentinel errors matched with errors.Is
var (
	ErrFormat     = errors.New("invalid .scl format")
	ErrValidation = errors.New("invalid argument")
)

// Scale is an ordered list of pitches in cents. A decoded scale starts at 0
// and ends at 1200.
type Scale []float64

// Clone returns an independent copy of the scale
func (s Scale) Clone() Scale {
	if s == nil {
		return nil
	}
	out := make(Scale, len(s))
	copy(out, s)
	return out
}

// Equal reports whether two scales hold the same pitches in the same order
func (s Scale) Equal(other Scale) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Mapping holds the result of approximating a scale on an n-TET grid.
// Pitches[k] is the scale pitch chosen for grid position k and Indices[k]
// its index in the scale (or NoMatch).
type Mapping struct {
	Pitches []float64
	Indices []int
}

// Len returns the number of grid positions
func (m Mapping) Len() int {
	return len(m.Pitches)
}

// Clone returns an independent copy of the mapping
func (m Mapping) Clone() Mapping {
	out := Mapping{
		Pitches: make([]float64, len(m.Pitches)),
		Indices: make([]int, len(m.Indices)),
	}
	copy(out.Pitches, m.Pitches)
	copy(out.Indices, m.Indices)
	return out
}

// FormatError reports malformed tuning file text
type FormatError struct {
	Line int // 1-based line in the input, 0 when not tied to a line
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", ErrFormat, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrFormat, e.Msg)
}

// Is lets errors.Is match ErrFormat
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ValidationError reports a rejected user input such as a grid size or an
// out-of-range index
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", ErrValidation, e.Field, e.Value, e.Msg)
}

// Is lets errors.Is match ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func indexError(field string, index, length int) *ValidationError {
	return &ValidationError{
		Field: field,
		Value: fmt.Sprint(index),
		Msg:   fmt.Sprintf("out of range [0, %d)", length),
	}
}
