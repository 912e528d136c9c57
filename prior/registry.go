package prior

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Dist is the behavior the resolver needs from a concrete distribution.
// All gonum distuv distributions satisfy it.
type Dist interface {
	LogProb(x float64) float64
	Rand() float64
	Mean() float64
}

// buildFunc constructs a distribution bound to a random source. A nil source
// is valid for density evaluation.
type buildFunc func(src rand.Source) Dist

// required marks a parameter without a default.
var required = math.NaN()

// entry describes one registered distribution: its parameters in declared
// order, their defaults, and a validator that turns the final argument list
// into a buildFunc.
type entry struct {
	params   []string
	defaults []float64
	validate func(args []float64) (buildFunc, error)
}

func (e entry) paramIndex(name string) int {
	for i, p := range e.params {
		if p == name {
			return i
		}
	}
	return -1
}

// registry maps distribution names to factories. It is an explicit mapping
// so unknown names are a typed configuration error, not a reflection
// failure. Defaults follow the conventional parameterizations used by the
// CLV model formulas.
var registry = map[string]entry{
	"Normal": {
		params:   []string{"mu", "sigma"},
		defaults: []float64{0, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[1] <= 0 {
				return nil, fmt.Errorf("sigma must be positive, got %g", args[1])
			}
			return func(src rand.Source) Dist {
				return distuv.Normal{Mu: args[0], Sigma: args[1], Src: src}
			}, nil
		},
	},
	"HalfNormal": {
		params:   []string{"loc", "sigma"},
		defaults: []float64{0, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[1] <= 0 {
				return nil, fmt.Errorf("sigma must be positive, got %g", args[1])
			}
			return func(src rand.Source) Dist {
				return halfNormal{loc: args[0], sigma: args[1], src: src}
			}, nil
		},
	},
	"Gamma": {
		params:   []string{"alpha", "beta"},
		defaults: []float64{1, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[0] <= 0 || args[1] <= 0 {
				return nil, fmt.Errorf("alpha and beta must be positive, got %g, %g", args[0], args[1])
			}
			return func(src rand.Source) Dist {
				return distuv.Gamma{Alpha: args[0], Beta: args[1], Src: src}
			}, nil
		},
	},
	"Beta": {
		params:   []string{"alpha", "beta"},
		defaults: []float64{1, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[0] <= 0 || args[1] <= 0 {
				return nil, fmt.Errorf("alpha and beta must be positive, got %g, %g", args[0], args[1])
			}
			return func(src rand.Source) Dist {
				return distuv.Beta{Alpha: args[0], Beta: args[1], Src: src}
			}, nil
		},
	},
	"Exponential": {
		params:   []string{"lam"},
		defaults: []float64{1},
		validate: func(args []float64) (buildFunc, error) {
			if args[0] <= 0 {
				return nil, fmt.Errorf("lam must be positive, got %g", args[0])
			}
			return func(src rand.Source) Dist {
				return distuv.Exponential{Rate: args[0], Src: src}
			}, nil
		},
	},
	"Uniform": {
		params:   []string{"lower", "upper"},
		defaults: []float64{0, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[0] >= args[1] {
				return nil, fmt.Errorf("lower must be less than upper, got %g, %g", args[0], args[1])
			}
			return func(src rand.Source) Dist {
				return distuv.Uniform{Min: args[0], Max: args[1], Src: src}
			}, nil
		},
	},
	"LogNormal": {
		params:   []string{"mu", "sigma"},
		defaults: []float64{0, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[1] <= 0 {
				return nil, fmt.Errorf("sigma must be positive, got %g", args[1])
			}
			return func(src rand.Source) Dist {
				return distuv.LogNormal{Mu: args[0], Sigma: args[1], Src: src}
			}, nil
		},
	},
	"Weibull": {
		params:   []string{"alpha", "beta"},
		defaults: []float64{1, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[0] <= 0 || args[1] <= 0 {
				return nil, fmt.Errorf("alpha and beta must be positive, got %g, %g", args[0], args[1])
			}
			return func(src rand.Source) Dist {
				return distuv.Weibull{K: args[0], Lambda: args[1], Src: src}
			}, nil
		},
	},
	"StudentT": {
		params:   []string{"nu", "mu", "sigma"},
		defaults: []float64{required, 0, 1},
		validate: func(args []float64) (buildFunc, error) {
			if args[0] <= 0 {
				return nil, fmt.Errorf("nu must be positive, got %g", args[0])
			}
			if args[2] <= 0 {
				return nil, fmt.Errorf("sigma must be positive, got %g", args[2])
			}
			return func(src rand.Source) Dist {
				return distuv.StudentsT{Mu: args[1], Sigma: args[2], Nu: args[0], Src: src}
			}, nil
		},
	},
}

// Exists reports whether a distribution name is registered.
func Exists(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names returns all registered distribution names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// halfNormal is a location-shifted half-normal distribution. distuv has no
// half-normal, so it is implemented directly.
type halfNormal struct {
	loc   float64
	sigma float64
	src   rand.Source
}

func (h halfNormal) LogProb(x float64) float64 {
	if x < h.loc {
		return math.Inf(-1)
	}
	z := (x - h.loc) / h.sigma
	return 0.5*math.Log(2/math.Pi) - math.Log(h.sigma) - z*z/2
}

func (h halfNormal) Rand() float64 {
	n := distuv.Normal{Mu: 0, Sigma: h.sigma, Src: h.src}
	return h.loc + math.Abs(n.Rand())
}

func (h halfNormal) Mean() float64 {
	return h.loc + h.sigma*math.Sqrt(2/math.Pi)
}
