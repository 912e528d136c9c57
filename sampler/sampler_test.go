package sampler

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bayesgo/graph"
	"github.com/hupe1980/bayesgo/prior"
	"github.com/hupe1980/bayesgo/trace"
	"gonum.org/v1/gonum/stat/distuv"
)

// conjugateNormalGraph builds x ~ Normal(0, 1); y ~ Normal(x, 1) observed.
// The posterior of x is Normal(sum(y)/(n+1), 1/sqrt(n+1)), which gives the
// tests an analytic target.
func conjugateNormalGraph(t *testing.T, obs []float64) *graph.Model {
	t.Helper()

	xPrior, err := prior.Resolve(prior.Spec{Dist: "Normal"})
	require.NoError(t, err)

	m := graph.New()
	require.NoError(t, m.RV("x", xPrior))
	require.NoError(t, m.Observed("y", "Normal(x, 1)", obs, func(p graph.Params) float64 {
		lik := distuv.Normal{Mu: p.Scalar("x"), Sigma: 1}
		total := 0.0
		for _, yi := range obs {
			total += lik.LogProb(yi)
		}
		return total
	}))
	return m
}

func sampleOpts(chains, draws, tune int, seed uint64) func(o *Options) {
	return func(o *Options) {
		o.Chains = chains
		o.Draws = draws
		o.Tune = tune
		o.Seed = seed
	}
}

func TestSample(t *testing.T) {
	t.Run("Dims", func(t *testing.T) {
		m := conjugateNormalGraph(t, []float64{0.5, -0.5, 1.0})

		posterior, err := Sample(context.Background(), m, sampleOpts(2, 10, 5, 123))
		require.NoError(t, err)
		assert.Equal(t, 2, posterior.Chains())
		assert.Equal(t, 10, posterior.Draws())
		assert.Equal(t, []string{"x"}, posterior.Names())
	})

	t.Run("DeterministicWithSeed", func(t *testing.T) {
		m := conjugateNormalGraph(t, []float64{1, 2})

		a, err := Sample(context.Background(), m, sampleOpts(2, 20, 10, 42))
		require.NoError(t, err)
		b, err := Sample(context.Background(), m, sampleOpts(2, 20, 10, 42))
		require.NoError(t, err)
		assert.True(t, a.Equal(b))

		c, err := Sample(context.Background(), m, sampleOpts(2, 20, 10, 43))
		require.NoError(t, err)
		assert.False(t, a.Equal(c))
	})

	t.Run("RecoversPosteriorMean", func(t *testing.T) {
		obs := []float64{1.2, 0.8, 1.1, 0.9, 1.0, 1.3, 0.7, 1.0}
		m := conjugateNormalGraph(t, obs)

		posterior, err := Sample(context.Background(), m, sampleOpts(4, 1500, 500, 7))
		require.NoError(t, err)

		var sum float64
		for _, y := range obs {
			sum += y
		}
		analyticMean := sum / float64(len(obs)+1)

		summ, err := trace.Summarize(posterior)
		require.NoError(t, err)
		row, ok := summ.Row("x")
		require.True(t, ok)
		assert.InDelta(t, analyticMean, row.Mean, 0.1)
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		m := conjugateNormalGraph(t, []float64{0})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Sample(ctx, m, sampleOpts(2, 5000, 1000, 1))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("OptionValidation", func(t *testing.T) {
		m := conjugateNormalGraph(t, []float64{0})

		_, err := Sample(context.Background(), m, func(o *Options) { o.Chains = 0 })
		require.Error(t, err)
		_, err = Sample(context.Background(), m, func(o *Options) { o.Draws = 0 })
		require.Error(t, err)
	})

	t.Run("NoFreeVariables", func(t *testing.T) {
		_, err := Sample(context.Background(), graph.New(), sampleOpts(1, 1, 0, 1))
		require.Error(t, err)
	})

	t.Run("ProgressLogging", func(t *testing.T) {
		m := conjugateNormalGraph(t, []float64{0.5})

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		_, err := Sample(context.Background(), m, func(o *Options) {
			o.Chains = 1
			o.Draws = 50
			o.Tune = 10
			o.Seed = 5
			o.Logger = logger
		})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "sampling progress")
	})
}

func TestFindMAP(t *testing.T) {
	t.Run("PointShape", func(t *testing.T) {
		m := conjugateNormalGraph(t, []float64{1, 1, 1})

		posterior, err := FindMAP(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, 1, posterior.Chains())
		assert.Equal(t, 1, posterior.Draws())
	})

	t.Run("FindsAnalyticOptimum", func(t *testing.T) {
		obs := []float64{2, 2, 2, 2}
		m := conjugateNormalGraph(t, obs)

		posterior, err := FindMAP(context.Background(), m)
		require.NoError(t, err)

		// MAP of the conjugate model: sum(y) / (n + 1).
		v, ok := posterior.Var("x")
		require.True(t, ok)
		assert.InDelta(t, 8.0/5.0, v.At(0, 0, 0), 1e-3)
	})

	t.Run("ConstrainedSupportStart", func(t *testing.T) {
		// HalfNormal prior mean is strictly inside the support, so the
		// optimizer start is valid without fallback draws.
		s, err := prior.Resolve(prior.Spec{Dist: "HalfNormal"})
		require.NoError(t, err)

		obs := []float64{0.5, 1.5, 1.0}
		m := graph.New()
		require.NoError(t, m.RV("sigma", s))
		require.NoError(t, m.Observed("y", "Normal(0, sigma)", obs, func(p graph.Params) float64 {
			sigma := p.Scalar("sigma")
			if sigma <= 0 {
				return math.Inf(-1)
			}
			lik := distuv.Normal{Mu: 0, Sigma: sigma}
			total := 0.0
			for _, yi := range obs {
				total += lik.LogProb(yi)
			}
			return total
		}))

		posterior, err := FindMAP(context.Background(), m)
		require.NoError(t, err)
		v, ok := posterior.Var("sigma")
		require.True(t, ok)
		assert.Greater(t, v.At(0, 0, 0), 0.0)
	})
}
