package bayesgo

import (
	"github.com/hupe1980/bayesgo/artifact"
	"github.com/hupe1980/bayesgo/codec"
	"github.com/hupe1980/bayesgo/registry"
)

type options struct {
	config           Config
	samplerConfig    *SamplerConfig
	codec            codec.Codec
	compression      artifact.Compression
	logger           *Logger
	metricsCollector MetricsCollector
	registry         registry.Registry
}

// Option configures model constructor behavior.
type Option func(*options)

// WithConfig overrides prior specifications from the model's defaults.
// Override is per parameter: an entry replaces the default spec wholesale.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithSamplerConfig sets the MCMC sampler configuration. The configuration is
// stored with the fit result so a loaded model resumes with the same settings.
func WithSamplerConfig(cfg SamplerConfig) Option {
	return func(o *options) {
		o.samplerConfig = &cfg
	}
}

// WithCodec configures the codec used for artifact sections.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the block compression used for artifact sections.
func WithCompression(c artifact.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithLogger configures structured logging for fit and persistence
// operations. Defaults to a noop logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithMetricsCollector configures operational metrics collection.
// Defaults to NoopMetricsCollector.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(o *options) {
		if collector == nil {
			collector = NoopMetricsCollector{}
		}
		o.metricsCollector = collector
	}
}

// WithRegistry configures a model registry. When set, Save registers the
// fitted model's identity and artifact location.
func WithRegistry(r registry.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}
