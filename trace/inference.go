package trace

import (
	"github.com/hupe1980/bayesgo/frame"
)

// Attribute keys stored in the artifact. They are the compatibility contract
// between a fitted artifact and the model type that can load it.
const (
	AttrID            = "id"
	AttrModelType     = "model_type"
	AttrModelConfig   = "model_config"
	AttrSamplerConfig = "sampler_config"
	AttrVersion       = "version"
	AttrFitMethod     = "fit_method"
)

// InferenceData bundles the posterior draws, a snapshot of the training data
// (the fit_data group) and identity metadata into the unit that is persisted
// and restored as a whole.
type InferenceData struct {
	Posterior *Posterior
	FitData   *frame.Frame
	Attrs     map[string]string
}

// NewInferenceData creates an InferenceData with an empty attribute map.
func NewInferenceData(posterior *Posterior, fitData *frame.Frame) *InferenceData {
	return &InferenceData{
		Posterior: posterior,
		FitData:   fitData,
		Attrs:     make(map[string]string),
	}
}

// SetAttr sets one metadata attribute.
func (id *InferenceData) SetAttr(key, value string) {
	if id.Attrs == nil {
		id.Attrs = make(map[string]string)
	}
	id.Attrs[key] = value
}

// Attr returns one metadata attribute.
func (id *InferenceData) Attr(key string) (string, bool) {
	v, ok := id.Attrs[key]
	return v, ok
}

// Copy returns a deep copy of the container.
func (id *InferenceData) Copy() *InferenceData {
	out := &InferenceData{
		Attrs: make(map[string]string, len(id.Attrs)),
	}
	if id.Posterior != nil {
		out.Posterior = id.Posterior.Copy()
	}
	if id.FitData != nil {
		out.FitData = id.FitData.Copy()
	}
	for k, v := range id.Attrs {
		out.Attrs[k] = v
	}
	return out
}

// Equal reports whether two containers hold the same posterior, data and
// attributes.
func (id *InferenceData) Equal(other *InferenceData) bool {
	if other == nil {
		return false
	}
	if (id.Posterior == nil) != (other.Posterior == nil) {
		return false
	}
	if id.Posterior != nil && !id.Posterior.Equal(other.Posterior) {
		return false
	}
	if (id.FitData == nil) != (other.FitData == nil) {
		return false
	}
	if id.FitData != nil && !id.FitData.Equal(other.FitData) {
		return false
	}
	if len(id.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range id.Attrs {
		if other.Attrs[k] != v {
			return false
		}
	}
	return true
}
