package bayesgo

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hupe1980/bayesgo/codec"
	"github.com/hupe1980/bayesgo/prior"
)

// Config maps parameter names to prior specifications. It is the serializable
// description of a model's priors: two models with the same type and config
// have the same identity.
type Config map[string]prior.Spec

// mergeConfig overlays user entries on top of the model's defaults.
// Override is per parameter: a user entry replaces the default spec wholesale.
func mergeConfig(defaults, user Config) Config {
	merged := make(Config, len(defaults)+len(user))
	for name, spec := range defaults {
		merged[name] = spec
	}
	for name, spec := range user {
		merged[name] = spec
	}
	return merged
}

// canonicalConfig renders the config as JSON with sorted keys, so equal
// configs always serialize to identical bytes.
func canonicalConfig(c Config) ([]byte, error) {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := codec.Default.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := codec.Default.Marshal(c[name])
		if err != nil {
			return nil, fmt.Errorf("failed to serialize prior spec %q: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parseConfig decodes a config previously rendered by canonicalConfig.
func parseConfig(data []byte) (Config, error) {
	var c Config
	if err := codec.Default.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse model config: %w", err)
	}
	return c, nil
}
