package types

import (
	"io"

	"greentic.software/resolver/internal/render/jsonschema"
)

// DocRenderer defines the interface for rendering describe schema
// documentation.
type DocRenderer interface {
	// RenderSchema renders the documentation for one component's selected
	// describe schema.
	RenderSchema(w io.Writer, component string, doc *jsonschema.SchemaDoc) error
}
