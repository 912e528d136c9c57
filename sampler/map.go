package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/optimize"

	"github.com/hupe1980/bayesgo/graph"
	"github.com/hupe1980/bayesgo/trace"
)

// MAPOptions configure FindMAP.
type MAPOptions struct {
	// Seed seeds the fallback initial-point search. 0 picks a random seed.
	Seed uint64

	// MaxIterations bounds the optimizer. 0 means no explicit bound.
	MaxIterations int
}

// FindMAP locates the maximum a posteriori point of the model graph and
// returns it wrapped as a one-chain, one-draw posterior, so downstream code
// handles MCMC and MAP results uniformly.
func FindMAP(ctx context.Context, m *graph.Model, optFns ...func(o *MAPOptions)) (*trace.Posterior, error) {
	opts := MAPOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if m.Dim() == 0 {
		return nil, fmt.Errorf("sampler: model has no free variables")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Start from the prior means; fall back to prior draws when the joint
	// density is degenerate there (e.g. a mean on a support bound).
	x0 := m.MeanPoint()
	if lp := m.LogProb(x0); math.IsInf(lp, -1) || math.IsNaN(lp) {
		rng := rand.New(rand.NewPCG(opts.Seed, 0))
		var err error
		x0, _, err = initialState(m, rng)
		if err != nil {
			return nil, err
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			lp := m.LogProb(x)
			if math.IsNaN(lp) {
				return math.Inf(1)
			}
			return -lp
		},
	}
	settings := &optimize.Settings{}
	if opts.MaxIterations > 0 {
		settings.MajorIterations = opts.MaxIterations
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("sampler: MAP optimization failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	point := result.X
	if math.IsInf(result.F, 1) {
		return nil, fmt.Errorf("sampler: MAP optimization did not find a finite optimum")
	}
	return assemblePosterior(m, [][][]float64{{point}})
}
