package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsAreWireCompatible(t *testing.T) {
	payload := map[string][]float64{
		"x": {0.1, -2.5, 3},
	}

	a := MustMarshal(JSON{}, payload)
	b := MustMarshal(GoJSON{}, payload)
	assert.JSONEq(t, string(a), string(b))

	var decoded map[string][]float64
	require.NoError(t, JSON{}.Unmarshal(b, &decoded))
	assert.Equal(t, payload, decoded)
}
