package payload

import (
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Provenance tags where a configuration field's value came from.
type Provenance string

const (
	// ProvenanceDefault marks a value merged in from a schema-declared default.
	ProvenanceDefault Provenance = "default"
	// ProvenanceOverride marks a value explicitly set in the document.
	ProvenanceOverride Provenance = "override"
)

// Field is a leaf of the annotated configuration view.
type Field struct {
	Value      any        `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// Annotate merges schema-declared defaults into the validated value and
// returns a view in which every leaf field carries a provenance tag. The
// downstream transcript and diffing behavior depends on this contract:
// objects stay objects, everything else becomes a Field.
func Annotate(schema *jsonschema.Schema, value any) any {
	return annotate(schema, value, ProvenanceOverride)
}

func annotate(schema *jsonschema.Schema, value any, provenance Provenance) any {
	schema = deref(schema)

	object, isObject := value.(map[string]any)
	if !isObject || schema == nil {
		return Field{Value: value, Provenance: provenance}
	}

	annotated := make(map[string]any, len(object))
	for name, propSchema := range schema.Properties {
		propValue, set := object[name]
		switch {
		case set:
			annotated[name] = annotate(propSchema, propValue, provenance)
		case deref(propSchema) != nil && deref(propSchema).Default != nil:
			annotated[name] = annotate(propSchema, *deref(propSchema).Default, ProvenanceDefault)
		}
	}

	// Fields beyond the declared properties carry the same provenance as
	// their enclosing object.
	for name, propValue := range object {
		if _, declared := annotated[name]; declared {
			continue
		}
		if _, declaredProp := schema.Properties[name]; declaredProp {
			continue
		}
		annotated[name] = annotate(nil, propValue, provenance)
	}

	return annotated
}

// Merge returns the plain value with schema-declared defaults filled in,
// without provenance tags.
func Merge(schema *jsonschema.Schema, value any) any {
	schema = deref(schema)

	object, isObject := value.(map[string]any)
	if !isObject || schema == nil {
		return value
	}

	merged := make(map[string]any, len(object))
	for name, propValue := range object {
		if propSchema, declared := schema.Properties[name]; declared {
			merged[name] = Merge(propSchema, propValue)
		} else {
			merged[name] = propValue
		}
	}
	for name, propSchema := range schema.Properties {
		propSchema = deref(propSchema)
		if _, set := merged[name]; set || propSchema == nil || propSchema.Default == nil {
			continue
		}
		merged[name] = Merge(propSchema, *propSchema.Default)
	}

	return merged
}

// deref follows $ref so property and default lookups see the effective
// schema.
func deref(schema *jsonschema.Schema) *jsonschema.Schema {
	for schema != nil && schema.Ref != nil {
		schema = schema.Ref
	}
	return schema
}
