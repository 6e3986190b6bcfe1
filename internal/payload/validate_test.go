package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherSchema = `{
	"type": "object",
	"required": ["city"],
	"properties": {
		"city": {"type": "string"},
		"units": {"type": "string", "enum": ["metric", "imperial"], "default": "metric"},
		"retries": {"type": "integer", "default": 3}
	}
}`

func Test_Validate_ValidPayload(t *testing.T) {
	schema := compile(t, weatherSchema)
	value, pointer, err := Extract([]byte(flowDoc), "fetch", "weather")
	require.NoError(t, err)

	assert.Nil(t, Validate(schema, value, pointer))
}

func Test_Validate_MissingRequiredField(t *testing.T) {
	schema := compile(t, `{
		"type": "object",
		"required": ["message"],
		"properties": {"message": {"type": "string"}}
	}`)

	violations := Validate(schema, map[string]any{}, "")
	require.Len(t, violations, 1, "an empty object must yield exactly one violation")
	assert.Equal(t, "/message", violations[0].InstancePointer)
	assert.Equal(t, "/required", violations[0].SchemaPointer)
	assert.Contains(t, violations[0].Message, "message")
}

func Test_Validate_CollectsEveryViolation(t *testing.T) {
	schema := compile(t, weatherSchema)
	value := map[string]any{
		"units":   "fahrenheit",
		"retries": "lots",
	}

	violations := Validate(schema, value, "/nodes/fetch/weather")
	require.Len(t, violations, 3)

	pointers := make([]string, 0, len(violations))
	for _, v := range violations {
		pointers = append(pointers, v.InstancePointer)
	}
	assert.Equal(t, []string{
		"/nodes/fetch/weather/city",
		"/nodes/fetch/weather/retries",
		"/nodes/fetch/weather/units",
	}, pointers, "all pointers address the source document, in deterministic order")
}

func Test_Validate_PointersArePrefixedWithExtractionPath(t *testing.T) {
	schema := compile(t, weatherSchema)

	violations := Validate(schema, map[string]any{"city": 42}, "/nodes/fetch/weather")
	require.Len(t, violations, 1)
	assert.Equal(t, "/nodes/fetch/weather/city", violations[0].InstancePointer)
}

func Test_Validate_NoPanicOnNonObjectPayload(t *testing.T) {
	schema := compile(t, weatherSchema)

	assert.NotPanics(t, func() {
		violations := Validate(schema, "not an object", "/nodes/fetch/weather")
		assert.NotEmpty(t, violations)
	})
}

func Test_Annotate_ProvenanceTags(t *testing.T) {
	schema := compile(t, weatherSchema)
	value := map[string]any{"city": "Berlin", "units": "imperial"}

	annotated, ok := Annotate(schema, value).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, Field{Value: "Berlin", Provenance: ProvenanceOverride}, annotated["city"])
	assert.Equal(t, Field{Value: "imperial", Provenance: ProvenanceOverride}, annotated["units"])
	// retries was not set, so its schema default is merged in
	retries, ok := annotated["retries"].(Field)
	require.True(t, ok)
	assert.Equal(t, ProvenanceDefault, retries.Provenance)
	assert.EqualValues(t, 3, toInt(t, retries.Value))
}

func Test_Annotate_UndeclaredFieldsAreOverrides(t *testing.T) {
	schema := compile(t, weatherSchema)
	value := map[string]any{"city": "Berlin", "extra": true}

	annotated, ok := Annotate(schema, value).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, Field{Value: true, Provenance: ProvenanceOverride}, annotated["extra"])
}

func Test_Annotate_NestedObjects(t *testing.T) {
	schema := compile(t, `{
		"type": "object",
		"properties": {
			"retry": {
				"type": "object",
				"properties": {
					"attempts": {"type": "integer", "default": 3},
					"backoff": {"type": "string"}
				}
			}
		}
	}`)
	value := map[string]any{"retry": map[string]any{"backoff": "linear"}}

	annotated, ok := Annotate(schema, value).(map[string]any)
	require.True(t, ok)
	retry, ok := annotated["retry"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, Field{Value: "linear", Provenance: ProvenanceOverride}, retry["backoff"])
	attempts, ok := retry["attempts"].(Field)
	require.True(t, ok)
	assert.Equal(t, ProvenanceDefault, attempts.Provenance)
}

func Test_Annotate_ObjectDefaultLeavesAreDefaults(t *testing.T) {
	schema := compile(t, `{
		"type": "object",
		"properties": {
			"retry": {
				"type": "object",
				"default": {"attempts": 3},
				"properties": {
					"attempts": {"type": "integer"}
				}
			},
			"city": {"type": "string"}
		}
	}`)
	value := map[string]any{"city": "Berlin"}

	annotated, ok := Annotate(schema, value).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, Field{Value: "Berlin", Provenance: ProvenanceOverride}, annotated["city"])

	// retry was filled from the schema default, so every leaf inside it
	// is a default as well, even though it is set within the default object.
	retry, ok := annotated["retry"].(map[string]any)
	require.True(t, ok)
	attempts, ok := retry["attempts"].(Field)
	require.True(t, ok)
	assert.Equal(t, ProvenanceDefault, attempts.Provenance)
	assert.EqualValues(t, 3, toInt(t, attempts.Value))
}

func Test_Merge_FillsDefaults(t *testing.T) {
	schema := compile(t, weatherSchema)

	merged, ok := Merge(schema, map[string]any{"city": "Berlin"}).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Berlin", merged["city"])
	assert.Equal(t, "metric", merged["units"])
	assert.EqualValues(t, 3, toInt(t, merged["retries"]))
}

func toInt(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		require.NoError(t, err)
		return i
	default:
		t.Fatalf("unexpected numeric type %T", v)
		return 0
	}
}
