package bayesgo

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// computeID derives the identity fingerprint of a model from its type and
// canonical config. Models with the same type and priors share an identity
// regardless of fit results or data.
func computeID(modelType string, cfg Config) (string, error) {
	canonical, err := canonicalConfig(cfg)
	if err != nil {
		return "", err
	}

	h := blake3.New()
	_, _ = h.Write([]byte(modelType))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(canonical)

	return hex.EncodeToString(h.Sum(nil)), nil
}
