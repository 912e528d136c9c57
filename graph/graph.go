// Package graph implements the model graph a definition compiles into: an
// ordered set of named free random variables with priors, plus observed
// likelihood nodes. The graph exposes the joint log density over the free
// parameter vector, which is all the samplers need.
package graph

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/hupe1980/bayesgo/prior"
)

// Params is a read-only view of the free parameter vector, addressable by
// variable name, handed to likelihood functions.
type Params struct {
	m map[string][]float64
}

// Get returns the values of a free variable (length 1 for scalars).
func (p Params) Get(name string) []float64 { return p.m[name] }

// Scalar returns the single value of a scalar free variable.
func (p Params) Scalar(name string) float64 {
	v := p.m[name]
	if len(v) != 1 {
		panic(fmt.Sprintf("graph: %q is not a scalar variable", name))
	}
	return v[0]
}

// LogLikFunc computes the log likelihood contribution of an observed node
// given the current free parameters. It must return -Inf (not NaN) for
// invalid parameter regions; NaN is treated as -Inf by the graph.
type LogLikFunc func(p Params) float64

type node struct {
	name     string
	repr     string
	prior    *prior.Prior // free nodes only
	loglik   LogLikFunc   // observed nodes only
	observed []float64
	offset   int // position in the free parameter vector
}

// VarInfo is the (name, distribution string) pair of one registered variable,
// in registration order. It backs the model's multi-line representation.
type VarInfo struct {
	Name string
	Dist string
}

// Model is an ordered collection of random variables. It is built once by a
// model definition and is not safe for concurrent mutation.
type Model struct {
	nodes []*node
	free  []*node
	dim   int
}

// New creates an empty model graph.
func New() *Model {
	return &Model{}
}

// RV registers a free random variable with the given prior. Registration
// order is preserved. Names must be unique within the graph.
func (m *Model) RV(name string, p *prior.Prior) error {
	if p == nil {
		return fmt.Errorf("graph: nil prior for %q", name)
	}
	if err := m.checkName(name); err != nil {
		return err
	}
	n := &node{
		name:   name,
		repr:   p.String(),
		prior:  p,
		offset: m.dim,
	}
	m.nodes = append(m.nodes, n)
	m.free = append(m.free, n)
	m.dim += p.Size()
	return nil
}

// Observed registers an observed likelihood node. repr is the human-readable
// distribution string (e.g. "Normal(x, 1)") used by the model representation;
// loglik computes the node's log likelihood for the current free parameters.
func (m *Model) Observed(name, repr string, observed []float64, loglik LogLikFunc) error {
	if loglik == nil {
		return fmt.Errorf("graph: nil likelihood for %q", name)
	}
	if err := m.checkName(name); err != nil {
		return err
	}
	obs := make([]float64, len(observed))
	copy(obs, observed)
	m.nodes = append(m.nodes, &node{
		name:     name,
		repr:     repr,
		loglik:   loglik,
		observed: obs,
	})
	return nil
}

func (m *Model) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("graph: empty variable name")
	}
	for _, n := range m.nodes {
		if n.name == name {
			return fmt.Errorf("graph: variable %q already registered", name)
		}
	}
	return nil
}

// Vars returns all registered variables in registration order.
func (m *Model) Vars() []VarInfo {
	out := make([]VarInfo, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = VarInfo{Name: n.name, Dist: n.repr}
	}
	return out
}

// FreeVar describes one free variable's slot in the parameter vector.
type FreeVar struct {
	Name string
	Size int
}

// FreeVars returns the free variables in registration order.
func (m *Model) FreeVars() []FreeVar {
	out := make([]FreeVar, len(m.free))
	for i, n := range m.free {
		out[i] = FreeVar{Name: n.name, Size: n.prior.Size()}
	}
	return out
}

// Dim returns the total dimensionality of the free parameter vector.
func (m *Model) Dim() int { return m.dim }

// params builds the by-name view over a flat parameter vector.
func (m *Model) params(x []float64) Params {
	v := make(map[string][]float64, len(m.free))
	for _, n := range m.free {
		v[n.name] = x[n.offset : n.offset+n.prior.Size()]
	}
	return Params{m: v}
}

// LogProb evaluates the joint log density (priors plus likelihoods) at the
// flat parameter vector x. NaN contributions are mapped to -Inf so samplers
// can treat them as rejections.
func (m *Model) LogProb(x []float64) float64 {
	if len(x) != m.dim {
		panic(fmt.Sprintf("graph: parameter vector has length %d, want %d", len(x), m.dim))
	}
	p := m.params(x)

	total := 0.0
	for _, n := range m.free {
		for _, xi := range x[n.offset : n.offset+n.prior.Size()] {
			lp := n.prior.LogProb(xi)
			if math.IsInf(lp, -1) {
				return math.Inf(-1)
			}
			total += lp
		}
	}
	for _, n := range m.nodes {
		if n.loglik == nil {
			continue
		}
		ll := n.loglik(p)
		if math.IsNaN(ll) || math.IsInf(ll, -1) {
			return math.Inf(-1)
		}
		total += ll
	}
	if math.IsNaN(total) {
		return math.Inf(-1)
	}
	return total
}

// InitialPoint draws a starting parameter vector from the priors.
func (m *Model) InitialPoint(src rand.Source) []float64 {
	x := make([]float64, m.dim)
	for _, n := range m.free {
		for i := 0; i < n.prior.Size(); i++ {
			x[n.offset+i] = n.prior.Rand(src)
		}
	}
	return x
}

// MeanPoint returns the vector of prior means, used as a deterministic
// optimization start.
func (m *Model) MeanPoint() []float64 {
	x := make([]float64, m.dim)
	for _, n := range m.free {
		mean := n.prior.Mean()
		for i := 0; i < n.prior.Size(); i++ {
			x[n.offset+i] = mean
		}
	}
	return x
}

// ObservedData returns the observed values of a likelihood node.
func (m *Model) ObservedData(name string) ([]float64, bool) {
	for _, n := range m.nodes {
		if n.name == name && n.loglik != nil {
			return n.observed, true
		}
	}
	return nil, false
}
