package types

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"greentic.software/resolver/internal/render/jsonschema"
)

const (
	colorBold  = "\033[1m"
	colorReset = "\033[0m"
)

// TextRenderer renders documentation as ANSI-colored text for the terminal.
type TextRenderer struct{}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

func (r *TextRenderer) RenderSchema(w io.Writer, component string, doc *jsonschema.SchemaDoc) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	var title string
	if doc.Title != "" {
		title = colorBold + doc.Title + colorReset + fmt.Sprintf(" (%s)", component)
	} else {
		title = colorBold + component + colorReset
	}
	if doc.Description != "" {
		title += "\n" + doc.Description
	}
	tw.SetTitle(title)

	tw.AppendHeader(table.Row{"Field Name", "Type", "Required", "Description"})
	for _, p := range doc.Properties {
		tw.AppendRow(table.Row{colorBold + p.Path + colorReset, typeString(p), p.Required, describeProperty(p)})
	}

	tw.Render()
	return nil
}

func typeString(p jsonschema.PropertyDoc) string {
	if p.Type == "array" && p.ItemsType != "" {
		return "[]" + p.ItemsType
	}
	return p.Type
}

func describeProperty(p jsonschema.PropertyDoc) string {
	desc := p.Description
	if len(p.Enum) > 0 {
		desc = strings.TrimSpace(desc + "\nPossible values: " + fmt.Sprintf("%v", p.Enum))
	}
	if p.Default != nil {
		desc = strings.TrimSpace(desc + "\nDefault: " + fmt.Sprintf("%v", p.Default))
	}
	return desc
}

var _ DocRenderer = (*TextRenderer)(nil)
