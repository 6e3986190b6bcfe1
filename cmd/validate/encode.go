package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"greentic.software/resolver/internal/engine"
)

func encodeValidations(format string, validations []*engine.Validation) (io.Reader, int64, error) {
	switch format {
	case "table":
		return encodeValidationsTable(validations)
	case "json":
		return encodeValidationsJSON(validations)
	default:
		return nil, 0, fmt.Errorf("unknown format: %s", format)
	}
}

func encodeValidationsJSON(validations []*engine.Validation) (io.Reader, int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(validations); err != nil {
		return nil, 0, err
	}
	return &buf, int64(buf.Len()), nil
}

func encodeValidationsTable(validations []*engine.Validation) (io.Reader, int64, error) {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(table.Row{"NODE", "STATUS", "POINTER", "MESSAGE"})
	for _, validation := range validations {
		if validation.Valid() {
			t.AppendRow(table.Row{validation.NodeID, "ok", validation.Pointer, ""})
			continue
		}
		for _, violation := range validation.Errors {
			t.AppendRow(table.Row{validation.NodeID, "invalid", violation.InstancePointer, violation.Message})
		}
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return &buf, int64(buf.Len()), nil
}
