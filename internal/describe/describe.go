// Package describe selects a component's authoritative describe entry and
// compiles its configuration schema.
package describe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"greentic.software/resolver/internal/manifest"
)

// ErrNoDescribeVersion is returned when a component manifest exposes no
// describe entries at all.
var ErrNoDescribeVersion = errors.New("component exposes no describe versions")

// SchemaCompileError reports a describe schema document that is
// structurally invalid.
type SchemaCompileError struct {
	ComponentID     string
	DescribeVersion string
	Err             error
}

func (e *SchemaCompileError) Error() string {
	return fmt.Sprintf("schema of %s describe %s did not compile: %v", e.ComponentID, e.DescribeVersion, e.Err)
}

func (e *SchemaCompileError) Unwrap() error { return e.Err }

// Select returns the describe entry with the strictly maximum semantic
// version under total ordering. Valid distinct entries cannot tie, so the
// selection is deterministic.
func Select(entries []manifest.DescribeEntry) (*manifest.DescribeEntry, error) {
	if len(entries) == 0 {
		return nil, ErrNoDescribeVersion
	}

	var best *manifest.DescribeEntry
	var bestVersion *semver.Version
	for i := range entries {
		entry := &entries[i]
		version, err := semver.NewVersion(entry.Version)
		if err != nil {
			return nil, fmt.Errorf("describe entry declares invalid version %q: %w", entry.Version, err)
		}
		if bestVersion == nil || version.GreaterThan(bestVersion) {
			best = entry
			bestVersion = version
		}
	}

	return best, nil
}

// SchemaID returns the $id a schema document declares for itself, or the
// empty string.
func SchemaID(raw json.RawMessage) string {
	var doc struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return doc.ID
}

type compiledKey struct {
	componentID     string
	describeVersion string
}

// Compiler compiles describe schemas under Draft-7 semantics and caches
// the compiled result keyed by (component id, describe version) so
// repeated validations against the same component avoid recompilation.
// It is an explicit cache object threaded through the pipeline, not
// process-global state.
type Compiler struct {
	compiled map[compiledKey]*jsonschema.Schema
}

func NewCompiler() *Compiler {
	return &Compiler{compiled: make(map[compiledKey]*jsonschema.Schema)}
}

// Compile returns the compiled schema for the given component's describe
// entry, reusing a previously compiled schema when possible.
func (c *Compiler) Compile(componentID string, entry *manifest.DescribeEntry) (*jsonschema.Schema, error) {
	key := compiledKey{componentID: componentID, describeVersion: entry.Version}
	if schema, ok := c.compiled[key]; ok {
		return schema, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(entry.Schema))
	if err != nil {
		return nil, &SchemaCompileError{ComponentID: componentID, DescribeVersion: entry.Version, Err: err}
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, &SchemaCompileError{ComponentID: componentID, DescribeVersion: entry.Version, Err: err}
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, &SchemaCompileError{ComponentID: componentID, DescribeVersion: entry.Version, Err: err}
	}

	slog.Debug("compiled describe schema", "realm", "describe", "component", componentID, "describeVersion", entry.Version)

	c.compiled[key] = schema
	return schema, nil
}
