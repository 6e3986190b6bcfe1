package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"greentic.software/resolver/internal/engine"
)

func encodeSummary(format string, resolved *engine.ResolvedComponent) (io.Reader, int64, error) {
	switch format {
	case "table":
		return encodeSummaryTable(resolved)
	case "json":
		return encodeSummaryJSON(resolved)
	case "yaml":
		return encodeSummaryYAML(resolved)
	default:
		return nil, 0, fmt.Errorf("unknown format: %s", format)
	}
}

// summary is the serialized projection shared by the json and yaml
// encodings.
type summary struct {
	engine.ManifestSummary
	Capabilities []string         `json:"capabilities,omitempty"`
	Limits       map[string]int64 `json:"limits,omitempty"`
}

func encodeSummaryJSON(resolved *engine.ResolvedComponent) (io.Reader, int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary{
		ManifestSummary: resolved.Summary,
		Capabilities:    resolved.Capabilities,
		Limits:          resolved.Limits,
	}); err != nil {
		return nil, 0, err
	}
	return &buf, int64(buf.Len()), nil
}

func encodeSummaryYAML(resolved *engine.ResolvedComponent) (io.Reader, int64, error) {
	data, err := yaml.Marshal(summary{
		ManifestSummary: resolved.Summary,
		Capabilities:    resolved.Capabilities,
		Limits:          resolved.Limits,
	})
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

func encodeSummaryTable(resolved *engine.ResolvedComponent) (io.Reader, int64, error) {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendRow(table.Row{"NAME", resolved.Summary.Name})
	t.AppendRow(table.Row{"VERSION", resolved.Summary.Version})
	t.AppendRow(table.Row{"DESCRIBE", resolved.Summary.DescribeVersion})
	if resolved.Summary.SchemaID != "" {
		t.AppendRow(table.Row{"SCHEMA", resolved.Summary.SchemaID})
	}
	t.AppendRow(table.Row{"CACHED", resolved.Summary.CachedPath})
	if resolved.Summary.FileWasm != "" {
		t.AppendRow(table.Row{"WASM", resolved.Summary.FileWasm})
	}
	if resolved.Summary.Hash != "" {
		t.AppendRow(table.Row{"HASH", resolved.Summary.Hash})
	}
	if len(resolved.Capabilities) > 0 {
		t.AppendRow(table.Row{"CAPABILITIES", strings.Join(resolved.Capabilities, ", ")})
	}
	if len(resolved.Limits) > 0 {
		t.AppendRow(table.Row{"LIMITS", formatLimits(resolved.Limits)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return &buf, int64(buf.Len()), nil
}

func formatLimits(limits map[string]int64) string {
	keys := make([]string, 0, len(limits))
	for key := range limits {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+strconv.FormatInt(limits[key], 10))
	}
	return strings.Join(parts, ", ")
}
