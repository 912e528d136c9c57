// Package trace holds inference results: the posterior draws produced by a
// fit, the InferenceData container that bundles them with the training data
// snapshot and identity metadata, and posterior summaries.
package trace

import (
	"fmt"
	"math"

	gojson "github.com/goccy/go-json"
)

// Variable is one posterior variable with dims (chain, draw, element).
// Scalar variables have Size 1. Values are laid out chain-major:
// index = (chain*Draws + draw)*Size + element.
type Variable struct {
	Chains int       `json:"chains"`
	Draws  int       `json:"draws"`
	Size   int       `json:"size"`
	Values []float64 `json:"values"`
}

// At returns the value of element k at (chain, draw).
func (v *Variable) At(chain, draw, k int) float64 {
	return v.Values[(chain*v.Draws+draw)*v.Size+k]
}

// Chain returns the flattened draws of one chain.
func (v *Variable) Chain(chain int) []float64 {
	start := chain * v.Draws * v.Size
	return v.Values[start : start+v.Draws*v.Size]
}

func (v *Variable) copy() *Variable {
	vals := make([]float64, len(v.Values))
	copy(vals, v.Values)
	return &Variable{Chains: v.Chains, Draws: v.Draws, Size: v.Size, Values: vals}
}

// Posterior is an ordered collection of named posterior variables sharing
// the same chain and draw dimensions. A MAP fit is represented as a
// one-chain, one-draw posterior so downstream code is uniform.
type Posterior struct {
	names []string
	vars  map[string]*Variable
}

// NewPosterior creates an empty posterior.
func NewPosterior() *Posterior {
	return &Posterior{vars: make(map[string]*Variable)}
}

// Add registers a variable. chains and draws must match any previously added
// variable, values must have length chains*draws*size, and names must be
// unique. Values are copied.
func (p *Posterior) Add(name string, chains, draws, size int, values []float64) error {
	if _, ok := p.vars[name]; ok {
		return fmt.Errorf("trace: duplicate posterior variable %q", name)
	}
	if chains < 1 || draws < 1 || size < 1 {
		return fmt.Errorf("trace: variable %q has invalid dims (%d, %d, %d)", name, chains, draws, size)
	}
	if len(values) != chains*draws*size {
		return fmt.Errorf("trace: variable %q has %d values, want %d", name, len(values), chains*draws*size)
	}
	if len(p.names) > 0 {
		first := p.vars[p.names[0]]
		if first.Chains != chains || first.Draws != draws {
			return fmt.Errorf("trace: variable %q dims (%d, %d) do not match posterior dims (%d, %d)",
				name, chains, draws, first.Chains, first.Draws)
		}
	}
	owned := make([]float64, len(values))
	copy(owned, values)
	p.names = append(p.names, name)
	p.vars[name] = &Variable{Chains: chains, Draws: draws, Size: size, Values: owned}
	return nil
}

// Names returns the variable names in registration order.
func (p *Posterior) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Var returns a variable by name. The returned variable is owned by the
// posterior and must not be mutated.
func (p *Posterior) Var(name string) (*Variable, bool) {
	v, ok := p.vars[name]
	return v, ok
}

// Chains returns the chain dimension (0 for an empty posterior).
func (p *Posterior) Chains() int {
	if len(p.names) == 0 {
		return 0
	}
	return p.vars[p.names[0]].Chains
}

// Draws returns the draw dimension (0 for an empty posterior).
func (p *Posterior) Draws() int {
	if len(p.names) == 0 {
		return 0
	}
	return p.vars[p.names[0]].Draws
}

// Thin returns a new posterior retaining every keepEvery-th draw along the
// draw dimension, chains unchanged. The receiver is not mutated.
func (p *Posterior) Thin(keepEvery int) (*Posterior, error) {
	if keepEvery < 1 {
		return nil, fmt.Errorf("trace: keepEvery must be at least 1, got %d", keepEvery)
	}
	out := NewPosterior()
	for _, name := range p.names {
		v := p.vars[name]
		kept := (v.Draws + keepEvery - 1) / keepEvery
		values := make([]float64, 0, v.Chains*kept*v.Size)
		for c := 0; c < v.Chains; c++ {
			for d := 0; d < v.Draws; d += keepEvery {
				base := (c*v.Draws + d) * v.Size
				values = append(values, v.Values[base:base+v.Size]...)
			}
		}
		if err := out.Add(name, v.Chains, kept, v.Size, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Copy returns a deep copy.
func (p *Posterior) Copy() *Posterior {
	out := NewPosterior()
	out.names = append(out.names, p.names...)
	for name, v := range p.vars {
		out.vars[name] = v.copy()
	}
	return out
}

// Equal reports whether two posteriors hold the same variables, order, dims
// and values. NaN compares equal to NaN at the same position.
func (p *Posterior) Equal(other *Posterior) bool {
	if other == nil || len(p.names) != len(other.names) {
		return false
	}
	for i, name := range p.names {
		if other.names[i] != name {
			return false
		}
		a, b := p.vars[name], other.vars[name]
		if a.Chains != b.Chains || a.Draws != b.Draws || a.Size != b.Size {
			return false
		}
		for j := range a.Values {
			if a.Values[j] != b.Values[j] && !(math.IsNaN(a.Values[j]) && math.IsNaN(b.Values[j])) {
				return false
			}
		}
	}
	return true
}

// posteriorJSON is the serialized form of a Posterior.
type posteriorJSON struct {
	Names []string             `json:"names"`
	Vars  map[string]*Variable `json:"vars"`
}

// MarshalJSON implements json.Marshaler.
func (p *Posterior) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(posteriorJSON{Names: p.names, Vars: p.vars})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Posterior) UnmarshalJSON(data []byte) error {
	var pj posteriorJSON
	if err := gojson.Unmarshal(data, &pj); err != nil {
		return err
	}
	restored := NewPosterior()
	for _, name := range pj.Names {
		v, ok := pj.Vars[name]
		if !ok {
			return fmt.Errorf("trace: posterior variable %q listed but missing", name)
		}
		if err := restored.Add(name, v.Chains, v.Draws, v.Size, v.Values); err != nil {
			return err
		}
	}
	*p = *restored
	return nil
}
