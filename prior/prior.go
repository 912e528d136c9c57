// Package prior resolves declarative prior specifications into concrete
// distribution objects.
//
// A Spec names a distribution and its keyword arguments; Resolve looks the
// name up in an explicit registry and returns a Prior with a fixed
// dimensionality. Unknown names, invalid parameters and dimensionality
// mismatches are configuration errors reported at resolve time, before any
// sampling happens.
package prior

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// ErrDuplicatePrior is returned when the same prior object is passed twice.
var ErrDuplicatePrior = errors.New("Prior variables must be unique")

// ErrUnknownDistribution indicates a Spec naming a distribution that is not
// in the registry.
type ErrUnknownDistribution struct {
	Name string
}

func (e *ErrUnknownDistribution) Error() string {
	return fmt.Sprintf("Distribution %s does not exist", e.Name)
}

// ErrNDimMismatch indicates a resolved prior whose dimensionality differs
// from the expected one.
type ErrNDimMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrNDimMismatch) Error() string {
	return fmt.Sprintf("prior must have %d ndims, but it has %d ndims", e.Expected, e.Actual)
}

// Spec is a declarative prior specification: a distribution name plus keyword
// arguments. It is the JSON-serializable unit of model configuration.
type Spec struct {
	Dist   string             `json:"dist"`
	Kwargs map[string]float64 `json:"kwargs,omitempty"`
	Shape  []int              `json:"shape,omitempty"`
}

// Prior is a resolved, named random-variable specification with a fixed
// dimensionality. Scalar priors have NDim 0.
type Prior struct {
	dist  string
	args  []float64
	shape []int
	build buildFunc
}

// NDim returns the dimensionality of the prior (0 for scalar).
func (p *Prior) NDim() int { return len(p.shape) }

// Shape returns the declared shape (nil for scalar).
func (p *Prior) Shape() []int { return p.shape }

// Size returns the total number of elements (1 for scalar).
func (p *Prior) Size() int {
	n := 1
	for _, d := range p.shape {
		n *= d
	}
	return n
}

// DistName returns the distribution name, e.g. "Normal".
func (p *Prior) DistName() string { return p.dist }

// String renders the prior as "Name(arg, arg)" with arguments in the
// distribution's declared parameter order.
func (p *Prior) String() string {
	var sb strings.Builder
	sb.WriteString(p.dist)
	sb.WriteByte('(')
	for i, a := range p.args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(a, 'g', -1, 64))
	}
	sb.WriteByte(')')
	return sb.String()
}

// LogProb returns the log density of the prior at x (per element).
func (p *Prior) LogProb(x float64) float64 {
	return p.build(nil).LogProb(x)
}

// Rand draws one value from the prior using the given source.
func (p *Prior) Rand(src rand.Source) float64 {
	return p.build(src).Rand()
}

// Mean returns the mean of the prior distribution.
func (p *Prior) Mean() float64 {
	return p.build(nil).Mean()
}

// Resolve turns a Spec into a scalar Prior. It fails if the distribution name
// is unknown, a keyword argument is invalid, or the spec's shape implies a
// non-zero dimensionality.
func Resolve(spec Spec) (*Prior, error) {
	return ResolveNDim(spec, 0)
}

// ResolveNDim is Resolve with an explicit expected dimensionality.
func ResolveNDim(spec Spec, ndim int) (*Prior, error) {
	entry, ok := registry[spec.Dist]
	if !ok {
		return nil, &ErrUnknownDistribution{Name: spec.Dist}
	}

	args := make([]float64, len(entry.params))
	copy(args, entry.defaults)
	for key, val := range spec.Kwargs {
		i := entry.paramIndex(key)
		if i < 0 {
			return nil, fmt.Errorf("Distribution %s has no parameter %q", spec.Dist, key)
		}
		args[i] = val
	}
	for i, a := range args {
		if math.IsNaN(a) {
			return nil, fmt.Errorf("Distribution %s requires parameter %q", spec.Dist, entry.params[i])
		}
	}

	build, err := entry.validate(args)
	if err != nil {
		return nil, fmt.Errorf("Distribution %s: %w", spec.Dist, err)
	}

	p := &Prior{
		dist:  spec.Dist,
		args:  args,
		shape: append([]int(nil), spec.Shape...),
		build: build,
	}
	if err := CheckNDim(p, ndim); err != nil {
		return nil, err
	}
	return p, nil
}

// CheckNDim fails when the prior's dimensionality differs from ndim.
func CheckNDim(p *Prior, ndim int) error {
	if p.NDim() != ndim {
		return &ErrNDimMismatch{Expected: ndim, Actual: p.NDim()}
	}
	return nil
}

// ProcessPriors validates that all given priors refer to distinct objects
// (identity, not value, equality) and returns them unchanged.
func ProcessPriors(priors ...*Prior) ([]*Prior, error) {
	seen := make(map[*Prior]struct{}, len(priors))
	for _, p := range priors {
		if _, ok := seen[p]; ok {
			return nil, ErrDuplicatePrior
		}
		seen[p] = struct{}{}
	}
	return priors, nil
}
