package types

import (
	"fmt"
	"io"
	"strings"

	"greentic.software/resolver/internal/render/jsonschema"
)

// MarkdownRenderer renders documentation as Markdown.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) RenderSchema(w io.Writer, component string, doc *jsonschema.SchemaDoc) error {
	fmt.Fprintf(w, "# Component: `%s`\n\n", component)
	if doc.Title != "" {
		fmt.Fprintf(w, "**Title**: `%s`\n\n", doc.Title)
	}

	if doc.Description != "" {
		fmt.Fprintf(w, "%s\n\n", doc.Description)
	}

	if len(doc.Properties) > 0 {
		fmt.Fprintln(w, "## Fields")
		fmt.Fprintln(w, "| Field Name | Type | Required | Description |")
		fmt.Fprintln(w, "| :--- | :--- | :--- | :--- |")
		for _, p := range doc.Properties {
			req := "No"
			if p.Required {
				req = "**Yes**"
			}

			desc := p.Description
			if len(p.Enum) > 0 {
				desc += fmt.Sprintf(" (Enum: `%v`)", p.Enum)
			}
			if p.Default != nil {
				desc += fmt.Sprintf(" (Default: `%v`)", p.Default)
			}

			fmt.Fprintf(w, "| `%s` | %s | %s | %s |\n", p.Path, typeString(p), req, strings.ReplaceAll(desc, "\n", " "))
		}
		fmt.Fprintln(w)
	}

	return nil
}

var _ DocRenderer = (*MarkdownRenderer)(nil)
