package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Posterior values are float64 and round-trip exactly through Go's JSON
// encoding (shortest-representation formatting), which is what the artifact
// format relies on. NaN and infinities are not representable and fail at
// encode time rather than silently corrupting an artifact.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used for newly written artifacts.
//
// Existing artifacts are unaffected by changes to this value: they record
// the codec that wrote them and are decoded with that codec.
var Default Codec = GoJSON{}
