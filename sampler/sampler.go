// Package sampler runs inference on a model graph: full posterior sampling
// with an adaptive random-walk Metropolis kernel (chains run in parallel),
// and MAP point estimation via derivative-free optimization.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/bayesgo/graph"
	"github.com/hupe1980/bayesgo/trace"
)

// Options configure Sample.
type Options struct {
	// Chains is the number of independent chains. Default: 4.
	Chains int

	// Draws is the number of posterior draws kept per chain. Default: 1000.
	Draws int

	// Tune is the number of warmup iterations discarded per chain, during
	// which the proposal scale adapts. Default: 1000.
	Tune int

	// Seed seeds the chain RNGs deterministically. 0 picks a random seed.
	Seed uint64

	// TargetAccept is the acceptance rate the warmup adaptation aims for.
	// Default: 0.3, a reasonable target for full-vector random-walk proposals.
	TargetAccept float64

	// Logger, if set, receives throttled progress events.
	Logger *slog.Logger
}

const (
	defaultChains = 4
	defaultDraws  = 1000
	defaultTune   = 1000

	// ctxCheckInterval is how many iterations pass between context checks.
	ctxCheckInterval = 128
)

func applyOptions(optFns []func(o *Options)) (Options, error) {
	opts := Options{
		Chains:       defaultChains,
		Draws:        defaultDraws,
		Tune:         defaultTune,
		TargetAccept: 0.3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Chains < 1 {
		return opts, fmt.Errorf("sampler: chains must be at least 1, got %d", opts.Chains)
	}
	if opts.Draws < 1 {
		return opts, fmt.Errorf("sampler: draws must be at least 1, got %d", opts.Draws)
	}
	if opts.Tune < 0 {
		return opts, fmt.Errorf("sampler: tune must not be negative, got %d", opts.Tune)
	}
	if opts.TargetAccept <= 0 || opts.TargetAccept >= 1 {
		return opts, fmt.Errorf("sampler: target accept must be in (0, 1), got %g", opts.TargetAccept)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	return opts, nil
}

// Sample draws from the posterior of the model graph. It blocks until all
// chains complete and returns a posterior with dims (chains, draws). On
// context cancellation the context error is returned and no partial
// posterior is exposed.
func Sample(ctx context.Context, m *graph.Model, optFns ...func(o *Options)) (*trace.Posterior, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}
	if m.Dim() == 0 {
		return nil, fmt.Errorf("sampler: model has no free variables")
	}

	// One progress limiter shared by all chains keeps log volume bounded
	// regardless of chain count.
	var progress *rate.Limiter
	if opts.Logger != nil {
		progress = rate.NewLimiter(rate.Every(time.Second), 1)
	}

	chains := make([][][]float64, opts.Chains)
	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < opts.Chains; c++ {
		g.Go(func() error {
			draws, err := runChain(gctx, m, opts, c, progress)
			if err != nil {
				return err
			}
			chains[c] = draws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assemblePosterior(m, chains)
}

// runChain runs tune+draws iterations of adaptive random-walk Metropolis.
func runChain(ctx context.Context, m *graph.Model, opts Options, chain int, progress *rate.Limiter) ([][]float64, error) {
	rng := rand.New(rand.NewPCG(opts.Seed, uint64(chain)+1))

	x, lp, err := initialState(m, rng)
	if err != nil {
		return nil, err
	}

	dim := m.Dim()
	scale := 0.1
	proposal := make([]float64, dim)
	draws := make([][]float64, 0, opts.Draws)

	var accepted, window int
	total := opts.Tune + opts.Draws
	for i := 0; i < total; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		for j := range proposal {
			proposal[j] = x[j] + scale*rng.NormFloat64()
		}
		lpNew := m.LogProb(proposal)
		if math.Log(rng.Float64()) < lpNew-lp {
			copy(x, proposal)
			lp = lpNew
			accepted++
		}
		window++

		tuning := i < opts.Tune
		if tuning && window == 50 {
			// Windowed scale adaptation toward the target acceptance rate.
			acceptRate := float64(accepted) / float64(window)
			if acceptRate > opts.TargetAccept {
				scale *= 1.1
			} else {
				scale /= 1.1
			}
			accepted, window = 0, 0
		}

		if !tuning {
			draw := make([]float64, dim)
			copy(draw, x)
			draws = append(draws, draw)
		}

		if progress != nil && progress.Allow() {
			opts.Logger.DebugContext(ctx, "sampling progress",
				"chain", chain,
				"iteration", i+1,
				"total", total,
				"scale", scale,
			)
		}
	}
	return draws, nil
}

// initialState draws a starting point from the priors, retrying when the
// joint density is degenerate there.
func initialState(m *graph.Model, rng *rand.Rand) ([]float64, float64, error) {
	for attempt := 0; attempt < 100; attempt++ {
		x := m.InitialPoint(rng)
		lp := m.LogProb(x)
		if !math.IsInf(lp, -1) && !math.IsNaN(lp) {
			return x, lp, nil
		}
	}
	return nil, 0, fmt.Errorf("sampler: could not find a valid initial point after 100 attempts")
}

// assemblePosterior turns per-chain draw vectors into a named posterior
// following the graph's free-variable layout.
func assemblePosterior(m *graph.Model, chains [][][]float64) (*trace.Posterior, error) {
	numChains := len(chains)
	numDraws := len(chains[0])

	posterior := trace.NewPosterior()
	offset := 0
	for _, fv := range m.FreeVars() {
		values := make([]float64, 0, numChains*numDraws*fv.Size)
		for _, chain := range chains {
			for _, draw := range chain {
				values = append(values, draw[offset:offset+fv.Size]...)
			}
		}
		if err := posterior.Add(fv.Name, numChains, numDraws, fv.Size, values); err != nil {
			return nil, err
		}
		offset += fv.Size
	}
	return posterior, nil
}
