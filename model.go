package bayesgo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/bayesgo/artifact"
	"github.com/hupe1980/bayesgo/codec"
	"github.com/hupe1980/bayesgo/frame"
	"github.com/hupe1980/bayesgo/graph"
	"github.com/hupe1980/bayesgo/sampler"
	"github.com/hupe1980/bayesgo/trace"
)

// FitMethod selects the inference algorithm.
type FitMethod string

const (
	// FitMCMC runs full MCMC sampling and yields a posterior distribution.
	FitMCMC FitMethod = "mcmc"

	// FitMAP finds the maximum a posteriori point estimate. The result is
	// stored as a single-chain, single-draw posterior.
	FitMAP FitMethod = "map"
)

// SamplerConfig holds the MCMC settings stored alongside a fit result.
type SamplerConfig struct {
	Chains       int     `json:"chains"`
	Draws        int     `json:"draws"`
	Tune         int     `json:"tune"`
	TargetAccept float64 `json:"target_accept"`
	Seed         uint64  `json:"seed,omitempty"`
}

// DefaultSamplerConfig returns the sampler settings used when none are given.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Chains:       4,
		Draws:        1000,
		Tune:         1000,
		TargetAccept: 0.3,
	}
}

// Definition describes a model family. Implementations declare the default
// priors and build the probabilistic graph for a given data set.
type Definition interface {
	// ModelType is the family name (e.g. "BetaGeoModel"). It is stored with
	// saved artifacts and checked on load.
	ModelType() string

	// DefaultConfig returns the default prior specification for each
	// parameter. User config entries override these per parameter.
	DefaultConfig() Config

	// BuildModel registers the family's random variables and likelihoods on
	// the graph, using the resolved priors from cfg.
	BuildModel(data *frame.Frame, cfg Config, g *graph.Model) error
}

// Model ties a Definition to a data set and manages the fit lifecycle:
// building the graph, fitting, summarizing, and persistence.
//
// A Model is not safe for concurrent mutation. Fit, SetFitResult and Save
// must not be called concurrently.
type Model struct {
	def           Definition
	data          *frame.Frame
	config        Config
	samplerConfig SamplerConfig
	codec         codec.Codec
	compression   artifact.Compression
	logger        *Logger
	metrics       MetricsCollector
	opts          options

	graph *graph.Model
	idata *trace.InferenceData
}

// New creates a Model for the given definition and data. The data frame is
// copied, later mutation of the caller's frame does not affect the model.
func New(def Definition, data *frame.Frame, optFns ...Option) (*Model, error) {
	opts := options{
		codec:            codec.Default,
		compression:      artifact.CompressionZSTD,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if def == nil {
		return nil, fmt.Errorf("definition must not be nil")
	}
	if data == nil {
		data = frame.New()
	}

	samplerConfig := DefaultSamplerConfig()
	if opts.samplerConfig != nil {
		samplerConfig = *opts.samplerConfig
	}

	return &Model{
		def:           def,
		data:          data.Copy(),
		config:        mergeConfig(def.DefaultConfig(), opts.config),
		samplerConfig: samplerConfig,
		codec:         opts.codec,
		compression:   opts.compression,
		logger:        opts.logger,
		metrics:       opts.metricsCollector,
		opts:          opts,
	}, nil
}

// Config returns the resolved prior configuration (defaults overlaid with
// user overrides).
func (m *Model) Config() Config {
	return m.config
}

// SamplerConfig returns the sampler settings the model fits with.
func (m *Model) SamplerConfig() SamplerConfig {
	return m.samplerConfig
}

// Data returns the model's data frame.
func (m *Model) Data() *frame.Frame {
	return m.data
}

// ID returns the model's identity fingerprint, derived from the model type
// and the canonical prior configuration.
func (m *Model) ID() (string, error) {
	return computeID(m.def.ModelType(), m.config)
}

// Build constructs the probabilistic graph. It is called automatically by
// Fit, calling it directly is only needed to inspect the graph or render the
// model's string form before fitting. Build is idempotent.
func (m *Model) Build() error {
	if m.graph != nil {
		return nil
	}

	g := graph.New()
	if err := m.def.BuildModel(m.data, m.config, g); err != nil {
		return fmt.Errorf("failed to build model %s: %w", m.def.ModelType(), err)
	}
	m.graph = g
	return nil
}

// String renders the model type and each variable with its distribution,
// one per line.
func (m *Model) String() string {
	var sb strings.Builder
	sb.WriteString(m.def.ModelType())

	if err := m.Build(); err != nil {
		return sb.String()
	}
	for _, v := range m.graph.Vars() {
		sb.WriteString("\n")
		sb.WriteString(v.Name)
		sb.WriteString(" ~ ")
		sb.WriteString(v.Dist)
	}
	return sb.String()
}

// Fit runs inference and stores the result on the model. The returned
// InferenceData is the same value later available via FitResult.
func (m *Model) Fit(ctx context.Context, method FitMethod, optFns ...Option) (*trace.InferenceData, error) {
	start := time.Now()
	idata, err := m.fit(ctx, method, optFns)
	m.metrics.RecordFit(string(method), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return idata, nil
}

func (m *Model) fit(ctx context.Context, method FitMethod, optFns []Option) (*trace.InferenceData, error) {
	if method != FitMCMC && method != FitMAP {
		return nil, &ErrUnknownFitMethod{Method: method}
	}

	opts := m.opts
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.samplerConfig != nil {
		m.samplerConfig = *opts.samplerConfig
	}

	if err := m.Build(); err != nil {
		return nil, err
	}

	id, err := m.ID()
	if err != nil {
		return nil, err
	}

	logger := m.logger.WithModel(m.def.ModelType(), id)
	logger.InfoContext(ctx, "fitting model", "method", string(method))

	var posterior *trace.Posterior
	switch method {
	case FitMCMC:
		posterior, err = sampler.Sample(ctx, m.graph, func(o *sampler.Options) {
			o.Chains = m.samplerConfig.Chains
			o.Draws = m.samplerConfig.Draws
			o.Tune = m.samplerConfig.Tune
			o.TargetAccept = m.samplerConfig.TargetAccept
			o.Seed = m.samplerConfig.Seed
			o.Logger = logger.Logger
		})
	case FitMAP:
		posterior, err = sampler.FindMAP(ctx, m.graph, func(o *sampler.MAPOptions) {
			o.Seed = m.samplerConfig.Seed
		})
	}
	if err != nil {
		return nil, fmt.Errorf("fit failed: %w", err)
	}

	idata := trace.NewInferenceData(posterior, m.data)
	if err := m.stampAttrs(idata, method, id); err != nil {
		return nil, err
	}

	m.SetFitResult(idata)
	logger.InfoContext(ctx, "fit complete",
		"chains", posterior.Chains(),
		"draws", posterior.Draws(),
	)
	return idata, nil
}

func (m *Model) stampAttrs(idata *trace.InferenceData, method FitMethod, id string) error {
	cfgJSON, err := canonicalConfig(m.config)
	if err != nil {
		return err
	}
	samplerJSON, err := m.codec.Marshal(m.samplerConfig)
	if err != nil {
		return fmt.Errorf("failed to serialize sampler config: %w", err)
	}

	idata.SetAttr(trace.AttrID, id)
	idata.SetAttr(trace.AttrModelType, m.def.ModelType())
	idata.SetAttr(trace.AttrModelConfig, string(cfgJSON))
	idata.SetAttr(trace.AttrSamplerConfig, string(samplerJSON))
	idata.SetAttr(trace.AttrVersion, Version)
	idata.SetAttr(trace.AttrFitMethod, string(method))
	return nil
}

// FitResult returns the stored fit result.
// Returns ErrNotFitted if the model has not been fit.
func (m *Model) FitResult() (*trace.InferenceData, error) {
	if m.idata == nil {
		return nil, ErrNotFitted
	}
	return m.idata, nil
}

// SetFitResult replaces the stored fit result. Replacing an existing result
// logs a warning.
func (m *Model) SetFitResult(idata *trace.InferenceData) {
	if m.idata != nil {
		m.logger.Warn("Overriding pre-existing fit_result")
	}
	m.idata = idata
}

// ResetFitResult clears the stored fit result.
func (m *Model) ResetFitResult() {
	m.idata = nil
}

// FitSummary summarizes the stored fit result. MCMC fits yield a *trace.Summary
// with posterior statistics and convergence diagnostics per variable. MAP fits
// yield a *trace.Series named "value" holding the point estimate.
func (m *Model) FitSummary(optFns ...func(o *trace.SummaryOptions)) (trace.SummaryOutput, error) {
	if m.idata == nil {
		return nil, ErrNotFitted
	}

	if method, _ := m.idata.Attr(trace.AttrFitMethod); method == string(FitMAP) {
		return trace.PointSummary(m.idata.Posterior)
	}
	return trace.Summarize(m.idata.Posterior, optFns...)
}

// ThinFitResult returns a copy of the model whose posterior keeps every
// keepEvery-th draw. The receiver is unchanged.
func (m *Model) ThinFitResult(keepEvery int) (*Model, error) {
	if m.idata == nil {
		return nil, ErrNotFitted
	}

	thinned := m.idata.Copy()
	posterior, err := thinned.Posterior.Thin(keepEvery)
	if err != nil {
		return nil, err
	}
	thinned.Posterior = posterior

	clone := *m
	clone.data = m.data.Copy()
	clone.idata = nil
	clone.SetFitResult(thinned)
	return &clone, nil
}
