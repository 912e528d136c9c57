package bayesgo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/bayesgo/artifact"
	"github.com/hupe1980/bayesgo/blobstore"
	"github.com/hupe1980/bayesgo/codec"
	"github.com/hupe1980/bayesgo/frame"
	"github.com/hupe1980/bayesgo/registry"
	"github.com/hupe1980/bayesgo/trace"
)

// Save writes the fit result to a local artifact file.
// Returns ErrNotFitted if the model has not been fit.
func (m *Model) Save(path string) error {
	start := time.Now()
	err := m.save(path)
	m.metrics.RecordSave(time.Since(start), err)
	return err
}

func (m *Model) save(path string) error {
	idata, err := m.FitResult()
	if err != nil {
		return err
	}

	if err := artifact.Save(path, idata, m.artifactOptions); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}

	m.logSaved(path)
	return m.register(context.Background(), path)
}

// SaveTo writes the fit result to a blob store under the given name.
// Returns ErrNotFitted if the model has not been fit.
func (m *Model) SaveTo(ctx context.Context, store blobstore.Store, name string) error {
	start := time.Now()
	err := m.saveTo(ctx, store, name)
	m.metrics.RecordSave(time.Since(start), err)
	return err
}

func (m *Model) saveTo(ctx context.Context, store blobstore.Store, name string) error {
	idata, err := m.FitResult()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := artifact.Encode(&buf, idata, m.artifactOptions); err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	m.logSaved(name)
	return m.register(ctx, name)
}

func (m *Model) artifactOptions(o *artifact.Options) {
	o.Codec = m.codec
	o.Compression = m.compression
}

func (m *Model) logSaved(location string) {
	id, _ := m.ID()
	m.logger.WithModel(m.def.ModelType(), id).Info("model saved", "location", location)
}

// register records the saved artifact in the configured registry, if any.
func (m *Model) register(ctx context.Context, location string) error {
	if m.opts.registry == nil {
		return nil
	}

	id, err := m.ID()
	if err != nil {
		return err
	}
	method, _ := m.idata.Attr(trace.AttrFitMethod)

	err = m.opts.registry.Register(ctx, registry.Entry{
		ID:        id,
		ModelType: m.def.ModelType(),
		Location:  location,
		FitMethod: method,
		FittedAt:  time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, registry.ErrAlreadyRegistered) {
		return fmt.Errorf("failed to register model: %w", err)
	}
	return nil
}

// Load reads an artifact file and reconstructs the fitted model.
//
// The model is rebuilt from the stored config and fit data, then its identity
// is checked against the stored one. A mismatch (e.g. loading with the wrong
// Definition) returns an ErrIncompatibleArtifact.
func Load(path string, def Definition, optFns ...Option) (*Model, error) {
	idata, err := artifact.Load(path)
	if err != nil {
		return nil, translateError(err)
	}
	return fromInferenceData(idata, def, optFns)
}

// LoadFrom reads an artifact from a blob store and reconstructs the fitted
// model. See Load for identity checking.
func LoadFrom(ctx context.Context, store blobstore.Store, name string, def Definition, optFns ...Option) (*Model, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, translateError(err)
	}
	idata, err := artifact.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, translateError(err)
	}
	return fromInferenceData(idata, def, optFns)
}

func fromInferenceData(idata *trace.InferenceData, def Definition, optFns []Option) (*Model, error) {
	cfgJSON, ok := idata.Attr(trace.AttrModelConfig)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s attribute", ErrCorruptArtifact, trace.AttrModelConfig)
	}
	cfg, err := parseConfig([]byte(cfgJSON))
	if err != nil {
		return nil, err
	}

	var samplerConfig *SamplerConfig
	if samplerJSON, ok := idata.Attr(trace.AttrSamplerConfig); ok {
		var sc SamplerConfig
		if err := codec.Default.Unmarshal([]byte(samplerJSON), &sc); err != nil {
			return nil, fmt.Errorf("failed to parse sampler config: %w", err)
		}
		samplerConfig = &sc
	}

	data := frame.New()
	if idata.FitData != nil {
		data = idata.FitData
	}

	loadOpts := make([]Option, 0, len(optFns)+2)
	loadOpts = append(loadOpts, WithConfig(cfg))
	if samplerConfig != nil {
		loadOpts = append(loadOpts, WithSamplerConfig(*samplerConfig))
	}
	loadOpts = append(loadOpts, optFns...)

	m, err := New(def, data, loadOpts...)
	if err != nil {
		return nil, err
	}

	id, err := m.ID()
	if err != nil {
		return nil, err
	}
	storedID, _ := idata.Attr(trace.AttrID)
	storedType, _ := idata.Attr(trace.AttrModelType)
	if id != storedID || def.ModelType() != storedType {
		return nil, &ErrIncompatibleArtifact{ModelType: def.ModelType()}
	}

	start := time.Now()
	err = m.Build()
	m.metrics.RecordLoad(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	m.SetFitResult(idata)
	m.logger.WithModel(def.ModelType(), id).Info("model loaded")
	return m, nil
}
