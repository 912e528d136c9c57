// Package frame provides a minimal tabular data container for model inputs.
//
// A Frame holds named float64 columns of equal length (rows = entities,
// columns = features). It is the construction-time input of a model and is
// snapshotted into the fitted artifact's fit_data group so the exact training
// data can be reconstructed on load.
package frame

import (
	"fmt"
	"math"
)

// Frame is an ordered collection of named float64 columns of equal length.
// Column order is insertion order and is preserved through serialization.
type Frame struct {
	names []string
	cols  map[string][]float64
	rows  int
}

// New creates an empty Frame.
func New() *Frame {
	return &Frame{
		cols: make(map[string][]float64),
	}
}

// FromColumns creates a Frame from ordered column names and values.
// All columns must have the same length.
func FromColumns(names []string, values [][]float64) (*Frame, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("frame: %d names for %d columns", len(names), len(values))
	}
	f := New()
	for i, name := range names {
		if err := f.AddColumn(name, values[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AddColumn appends a named column. The column length must match the
// existing row count (ignored for the first column), and the name must be
// unique within the frame.
func (f *Frame) AddColumn(name string, values []float64) error {
	if _, ok := f.cols[name]; ok {
		return fmt.Errorf("frame: duplicate column %q", name)
	}
	if len(f.names) > 0 && len(values) != f.rows {
		return fmt.Errorf("frame: column %q has %d rows, want %d", name, len(values), f.rows)
	}
	owned := make([]float64, len(values))
	copy(owned, values)
	f.names = append(f.names, name)
	f.cols[name] = owned
	f.rows = len(owned)
	return nil
}

// Column returns the values of a named column. The returned slice is owned
// by the frame and must not be mutated by the caller.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.cols[name]
	return col, ok
}

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.names) }

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	c := New()
	for _, name := range f.names {
		// AddColumn copies the values.
		_ = c.AddColumn(name, f.cols[name])
	}
	return c
}

// Equal reports whether two frames have the same columns, order and values.
// NaN values compare equal to NaN at the same position.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || len(f.names) != len(other.names) || f.rows != other.rows {
		return false
	}
	for i, name := range f.names {
		if other.names[i] != name {
			return false
		}
		a, b := f.cols[name], other.cols[name]
		for j := range a {
			if a[j] != b[j] && !(math.IsNaN(a[j]) && math.IsNaN(b[j])) {
				return false
			}
		}
	}
	return true
}
