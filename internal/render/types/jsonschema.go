package types

import (
	"encoding/json"
	"io"

	"greentic.software/resolver/internal/render/jsonschema"
)

func NewSchemaRenderer() *SchemaRenderer {
	return &SchemaRenderer{}
}

// SchemaRenderer emits the extracted schema documentation as JSON.
type SchemaRenderer struct{}

func (r *SchemaRenderer) RenderSchema(w io.Writer, component string, doc *jsonschema.SchemaDoc) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

var _ DocRenderer = (*SchemaRenderer)(nil)
