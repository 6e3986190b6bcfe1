package validate

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greentic.software/resolver/internal/engine"
	"greentic.software/resolver/internal/payload"
)

func validationsFixture() []*engine.Validation {
	return []*engine.Validation{
		{
			NodeID:  "fetch",
			Pointer: "/nodes/fetch/weather",
		},
		{
			NodeID:  "broken",
			Pointer: "/nodes/broken/weather",
			Errors: []payload.ValidationError{
				{
					InstancePointer: "/nodes/broken/weather/city",
					SchemaPointer:   "/required",
					Message:         "missing property 'city'",
				},
			},
		},
	}
}

func TestEncodeValidations_Table(t *testing.T) {
	data, _, err := encodeValidations("table", validationsFixture())
	require.NoError(t, err)

	raw, err := io.ReadAll(data)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, "/nodes/broken/weather/city")
	assert.Contains(t, out, "missing property 'city'")
}

func TestEncodeValidations_JSON(t *testing.T) {
	data, _, err := encodeValidations("json", validationsFixture())
	require.NoError(t, err)

	raw, err := io.ReadAll(data)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "fetch", decoded[0]["node_id"])
	assert.NotContains(t, decoded[0], "errors", "valid nodes omit the errors field")
	assert.Contains(t, decoded[1], "errors")
}

func TestEncodeValidations_UnknownFormat(t *testing.T) {
	_, _, err := encodeValidations("yaml", validationsFixture())
	assert.ErrorContains(t, err, "unknown format")
}
