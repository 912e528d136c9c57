package bayesgo

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/bayesgo/blobstore"
	"github.com/hupe1980/bayesgo/frame"
	"github.com/hupe1980/bayesgo/graph"
	"github.com/hupe1980/bayesgo/prior"
	"github.com/hupe1980/bayesgo/registry"
	"github.com/hupe1980/bayesgo/trace"
)

// testDefinition is a minimal model family: a latent location x with a
// configurable prior and normally distributed observations y around it.
type testDefinition struct {
	modelType string
}

func newTestDefinition() *testDefinition {
	return &testDefinition{modelType: "CLVModelTest"}
}

func (d *testDefinition) ModelType() string {
	return d.modelType
}

func (d *testDefinition) DefaultConfig() Config {
	return Config{
		"x": {Dist: "Normal", Kwargs: map[string]float64{"mu": 0, "sigma": 1}},
	}
}

func (d *testDefinition) BuildModel(data *frame.Frame, cfg Config, g *graph.Model) error {
	xPrior, err := prior.Resolve(cfg["x"])
	if err != nil {
		return err
	}
	if err := g.RV("x", xPrior); err != nil {
		return err
	}

	obs, _ := data.Column("y")
	return g.Observed("y", "Normal(x, 1)", obs, func(p graph.Params) float64 {
		lik := distuv.Normal{Mu: p.Scalar("x"), Sigma: 1}
		total := 0.0
		for _, yi := range obs {
			total += lik.LogProb(yi)
		}
		return total
	})
}

func testData(t *testing.T, obs []float64) *frame.Frame {
	t.Helper()
	f := frame.New()
	require.NoError(t, f.AddColumn("y", obs))
	return f
}

func fastSampler() SamplerConfig {
	return SamplerConfig{
		Chains:       2,
		Draws:        50,
		Tune:         50,
		TargetAccept: 0.3,
		Seed:         42,
	}
}

func TestModelString(t *testing.T) {
	model, err := New(newTestDefinition(), testData(t, []float64{1, 2}))
	require.NoError(t, err)

	assert.Equal(t, "CLVModelTest\nx ~ Normal(0, 1)\ny ~ Normal(x, 1)", model.String())
}

func TestModelID(t *testing.T) {
	data := testData(t, []float64{1, 2})

	a, err := New(newTestDefinition(), data)
	require.NoError(t, err)
	b, err := New(newTestDefinition(), testData(t, []float64{3, 4, 5}))
	require.NoError(t, err)

	idA, err := a.ID()
	require.NoError(t, err)
	idB, err := b.ID()
	require.NoError(t, err)

	// Identity depends on type and priors, not on data.
	assert.Equal(t, idA, idB)

	c, err := New(newTestDefinition(), data, WithConfig(Config{
		"x": {Dist: "Normal", Kwargs: map[string]float64{"mu": 5, "sigma": 2}},
	}))
	require.NoError(t, err)
	idC, err := c.ID()
	require.NoError(t, err)
	assert.NotEqual(t, idA, idC)
}

func TestDefaultSamplerConfig(t *testing.T) {
	model, err := New(newTestDefinition(), testData(t, []float64{1}))
	require.NoError(t, err)
	assert.Equal(t, DefaultSamplerConfig(), model.SamplerConfig())

	custom := SamplerConfig{Chains: 2, Draws: 10, Tune: 5, TargetAccept: 0.5}
	model, err = New(newTestDefinition(), testData(t, []float64{1}), WithSamplerConfig(custom))
	require.NoError(t, err)
	assert.Equal(t, custom, model.SamplerConfig())
}

func TestConfigMerge(t *testing.T) {
	model, err := New(newTestDefinition(), testData(t, []float64{1}), WithConfig(Config{
		"x": {Dist: "StudentT", Kwargs: map[string]float64{"nu": 4}},
	}))
	require.NoError(t, err)

	assert.Equal(t, "StudentT", model.Config()["x"].Dist)
}

func TestFit(t *testing.T) {
	ctx := context.Background()

	t.Run("MCMC", func(t *testing.T) {
		model, err := New(newTestDefinition(), testData(t, []float64{1, 2}),
			WithSamplerConfig(fastSampler()))
		require.NoError(t, err)

		idata, err := model.Fit(ctx, FitMCMC)
		require.NoError(t, err)
		assert.Equal(t, 2, idata.Posterior.Chains())
		assert.Equal(t, 50, idata.Posterior.Draws())

		got, err := model.FitResult()
		require.NoError(t, err)
		assert.Same(t, idata, got)

		method, _ := idata.Attr(trace.AttrFitMethod)
		assert.Equal(t, "mcmc", method)
		modelType, _ := idata.Attr(trace.AttrModelType)
		assert.Equal(t, "CLVModelTest", modelType)
		version, _ := idata.Attr(trace.AttrVersion)
		assert.Equal(t, Version, version)

		id, _ := idata.Attr(trace.AttrID)
		wantID, err := model.ID()
		require.NoError(t, err)
		assert.Equal(t, wantID, id)
	})

	t.Run("MAP", func(t *testing.T) {
		model, err := New(newTestDefinition(), testData(t, []float64{1, 1}))
		require.NoError(t, err)

		idata, err := model.Fit(ctx, FitMAP)
		require.NoError(t, err)
		assert.Equal(t, 1, idata.Posterior.Chains())
		assert.Equal(t, 1, idata.Posterior.Draws())

		// Posterior mode of the conjugate model is sum(y)/(n+1).
		v, ok := idata.Posterior.Var("x")
		require.True(t, ok)
		assert.InDelta(t, 2.0/3.0, v.At(0, 0, 0), 1e-3)
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		model, err := New(newTestDefinition(), testData(t, []float64{1}))
		require.NoError(t, err)

		_, err = model.Fit(ctx, "wrong")
		require.Error(t, err)
		assert.Equal(t, "Fit method options are ['mcmc', 'map'], got: wrong", err.Error())
	})
}

func TestFitResultNotFitted(t *testing.T) {
	model, err := New(newTestDefinition(), testData(t, []float64{1}))
	require.NoError(t, err)

	_, err = model.FitResult()
	require.ErrorIs(t, err, ErrNotFitted)
	assert.Equal(t, "The model hasn't been fit yet", err.Error())

	_, err = model.FitSummary()
	require.ErrorIs(t, err, ErrNotFitted)
}

func TestSetFitResultWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, nil))

	model, err := New(newTestDefinition(), testData(t, []float64{1, 2}),
		WithSamplerConfig(fastSampler()), WithLogger(logger))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = model.Fit(ctx, FitMCMC)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Overriding pre-existing fit_result")

	_, err = model.Fit(ctx, FitMCMC)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Overriding pre-existing fit_result")
}

func TestFitSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("MCMC", func(t *testing.T) {
		model, err := New(newTestDefinition(), testData(t, []float64{1, 2}),
			WithSamplerConfig(fastSampler()))
		require.NoError(t, err)

		_, err = model.Fit(ctx, FitMCMC)
		require.NoError(t, err)

		out, err := model.FitSummary()
		require.NoError(t, err)

		summary, ok := out.(*trace.Summary)
		require.True(t, ok)
		row, ok := summary.Row("x")
		require.True(t, ok)
		assert.Greater(t, row.SD, 0.0)
	})

	t.Run("MAP", func(t *testing.T) {
		model, err := New(newTestDefinition(), testData(t, []float64{1, 1}))
		require.NoError(t, err)

		_, err = model.Fit(ctx, FitMAP)
		require.NoError(t, err)

		out, err := model.FitSummary()
		require.NoError(t, err)

		series, ok := out.(*trace.Series)
		require.True(t, ok)
		assert.Equal(t, "value", series.Name)
		v, ok := series.Value("x")
		require.True(t, ok)
		assert.InDelta(t, 2.0/3.0, v, 1e-3)
	})
}

func TestThinFitResult(t *testing.T) {
	model, err := New(newTestDefinition(), testData(t, []float64{1, 2}),
		WithSamplerConfig(SamplerConfig{Chains: 2, Draws: 100, Tune: 20, TargetAccept: 0.3, Seed: 7}))
	require.NoError(t, err)

	_, err = model.Fit(context.Background(), FitMCMC)
	require.NoError(t, err)

	thinned, err := model.ThinFitResult(20)
	require.NoError(t, err)

	got, err := thinned.FitResult()
	require.NoError(t, err)
	assert.Equal(t, 2, got.Posterior.Chains())
	assert.Equal(t, 5, got.Posterior.Draws())

	// Original is untouched.
	orig, err := model.FitResult()
	require.NoError(t, err)
	assert.Equal(t, 100, orig.Posterior.Draws())

	_, err = model.ThinFitResult(0)
	require.Error(t, err)

	unfit, err := New(newTestDefinition(), testData(t, []float64{1}))
	require.NoError(t, err)
	_, err = unfit.ThinFitResult(2)
	require.ErrorIs(t, err, ErrNotFitted)
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "model.bayes")

	model, err := New(newTestDefinition(), testData(t, []float64{1, 2, 3}),
		WithSamplerConfig(fastSampler()))
	require.NoError(t, err)

	t.Run("SaveUnfit", func(t *testing.T) {
		require.ErrorIs(t, model.Save(path), ErrNotFitted)
	})

	idata, err := model.Fit(ctx, FitMCMC)
	require.NoError(t, err)
	require.NoError(t, model.Save(path))

	t.Run("RoundTrip", func(t *testing.T) {
		loaded, err := Load(path, newTestDefinition())
		require.NoError(t, err)

		loadedIdata, err := loaded.FitResult()
		require.NoError(t, err)
		assert.True(t, idata.Equal(loadedIdata))
		assert.True(t, model.Data().Equal(loaded.Data()))
		assert.Equal(t, model.SamplerConfig(), loaded.SamplerConfig())

		wantID, err := model.ID()
		require.NoError(t, err)
		gotID, err := loaded.ID()
		require.NoError(t, err)
		assert.Equal(t, wantID, gotID)
	})

	t.Run("WrongDefinition", func(t *testing.T) {
		other := &testDefinition{modelType: "OtherModelTest"}

		_, err := Load(path, other)
		require.Error(t, err)
		var incompat *ErrIncompatibleArtifact
		require.ErrorAs(t, err, &incompat)
		assert.Equal(t, "Inference data not compatible with OtherModelTest", err.Error())
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.bayes"), newTestDefinition())
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSaveToLoadFrom(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg := registry.NewMemory()

	model, err := New(newTestDefinition(), testData(t, []float64{1, 2}),
		WithSamplerConfig(fastSampler()), WithRegistry(reg))
	require.NoError(t, err)

	idata, err := model.Fit(ctx, FitMCMC)
	require.NoError(t, err)
	require.NoError(t, model.SaveTo(ctx, store, "models/test.bayes"))

	t.Run("Registered", func(t *testing.T) {
		id, err := model.ID()
		require.NoError(t, err)

		entry, err := reg.Lookup(ctx, "CLVModelTest", id)
		require.NoError(t, err)
		assert.Equal(t, "models/test.bayes", entry.Location)
		assert.Equal(t, "mcmc", entry.FitMethod)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		loaded, err := LoadFrom(ctx, store, "models/test.bayes", newTestDefinition())
		require.NoError(t, err)

		loadedIdata, err := loaded.FitResult()
		require.NoError(t, err)
		assert.True(t, idata.Equal(loadedIdata))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadFrom(ctx, store, "models/nope.bayes", newTestDefinition())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Corrupt", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "models/bad.bayes", []byte("not an artifact")))

		_, err := LoadFrom(ctx, store, "models/bad.bayes", newTestDefinition())
		require.ErrorIs(t, err, ErrCorruptArtifact)
	})
}
