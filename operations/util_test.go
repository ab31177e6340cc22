package operations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payloadFixture struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

func TestPayloadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	t.Run("JSON", func(t *testing.T) {
		fn := filepath.Join(dir, "payload.json")
		require.NoError(t, writePayload(fn, payloadFixture{Name: "detect", Value: 1.5}))

		out := payloadFixture{}
		require.NoError(t, readPayload(fn, &out))
		assert.Equal(t, "detect", out.Name)
		assert.Equal(t, 1.5, out.Value)
	})
	t.Run("YAML", func(t *testing.T) {
		fn := filepath.Join(dir, "payload.yaml")
		require.NoError(t, writePayload(fn, payloadFixture{Name: "detect", Value: 1.5}))

		out := payloadFixture{}
		require.NoError(t, readPayload(fn, &out))
		assert.Equal(t, "detect", out.Name)
		assert.Equal(t, 1.5, out.Value)
	})
	t.Run("MissingFile", func(t *testing.T) {
		out := payloadFixture{}
		assert.Error(t, readPayload(filepath.Join(dir, "DNE.json"), &out))
	})
	t.Run("MalformedContent", func(t *testing.T) {
		fn := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(fn, []byte("{not json"), 0644))

		out := payloadFixture{}
		assert.Error(t, readPayload(fn, &out))
	})
}

func TestFlagHelpers(t *testing.T) {
	assert.Equal(t, "path, file", joinFlagNames("path", "file"))

	merged := mergeFlags(baseFlags(), dbFlags())
	assert.Len(t, merged, len(baseFlags())+len(dbFlags()))
}

func TestParseFloatSlice(t *testing.T) {
	out, err := parseFloatSlice([]string{"0.5", "1", "2.25"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, 2.25}, out)

	_, err = parseFloatSlice([]string{"0.5", "wide"})
	assert.Error(t, err)
}
