package resolve

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greentic.software/resolver/internal/engine"
)

func resolvedFixture() *engine.ResolvedComponent {
	return &engine.ResolvedComponent{
		Summary: engine.ManifestSummary{
			Name:            "ns.weather",
			Version:         "1.2.0",
			DescribeVersion: "1.1.0",
			CachedPath:      "/cache/ns-weather-1.2.0",
			FileWasm:        "/cache/ns-weather-1.2.0/component.wasm",
			Hash:            "sha256:abc",
		},
		Capabilities: []string{"http"},
		Limits:       map[string]int64{"memory_mb": 64, "cpu_ms": 500},
	}
}

func TestEncodeSummary_JSON(t *testing.T) {
	data, size, err := encodeSummary("json", resolvedFixture())
	require.NoError(t, err)
	require.Positive(t, size)

	raw, err := io.ReadAll(data)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ns.weather", decoded["name"])
	assert.Equal(t, "1.2.0", decoded["version"])
	assert.Equal(t, "1.1.0", decoded["describe_version"])
	assert.Contains(t, decoded, "capabilities")
}

func TestEncodeSummary_Table(t *testing.T) {
	data, _, err := encodeSummary("table", resolvedFixture())
	require.NoError(t, err)

	raw, err := io.ReadAll(data)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, "ns.weather")
	assert.Contains(t, out, "1.2.0")
	assert.Contains(t, out, "cpu_ms=500, memory_mb=64", "limits are rendered sorted by key")
}

func TestEncodeSummary_YAML(t *testing.T) {
	data, _, err := encodeSummary("yaml", resolvedFixture())
	require.NoError(t, err)

	raw, err := io.ReadAll(data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: ns.weather")
}

func TestEncodeSummary_UnknownFormat(t *testing.T) {
	_, _, err := encodeSummary("xml", resolvedFixture())
	assert.ErrorContains(t, err, "unknown format")
}
