package frame

import "fmt"

// Snapshot is the serialized form of a Frame. It is what the artifact's
// fit_data section stores, so field names are part of the on-disk contract.
type Snapshot struct {
	Names  []string    `json:"names"`
	Values [][]float64 `json:"values"`
	Rows   int         `json:"rows"`
}

// Snapshot returns a serializable snapshot of the frame. Values are copied.
func (f *Frame) Snapshot() Snapshot {
	s := Snapshot{
		Names:  f.Columns(),
		Values: make([][]float64, 0, len(f.names)),
		Rows:   f.rows,
	}
	for _, name := range f.names {
		col := make([]float64, f.rows)
		copy(col, f.cols[name])
		s.Values = append(s.Values, col)
	}
	return s
}

// FromSnapshot reconstructs a Frame from its serialized form.
func FromSnapshot(s Snapshot) (*Frame, error) {
	f, err := FromColumns(s.Names, s.Values)
	if err != nil {
		return nil, err
	}
	if len(s.Names) == 0 && s.Rows > 0 {
		return nil, fmt.Errorf("frame: snapshot claims %d rows but has no columns", s.Rows)
	}
	return f, nil
}
