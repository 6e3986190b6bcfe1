// Package payload extracts a node's configuration sub-document, validates
// it against a compiled describe schema, and builds the default/override
// annotated configuration view.
package payload

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"sigs.k8s.io/yaml"
)

// MissingPayloadError reports that the source document carries no value at
// the node's configuration pointer.
type MissingPayloadError struct {
	NodeID       string
	ComponentKey string
	Pointer      string
}

func (e *MissingPayloadError) Error() string {
	return fmt.Sprintf("document carries no configuration for node %q at %s", e.NodeID, e.Pointer)
}

// ValidationError is a single constraint violation. Instance pointers are
// absolute within the source document, i.e. they always start with the
// /nodes/{node}/{key} extraction path.
type ValidationError struct {
	InstancePointer string `json:"instance_pointer"`
	SchemaPointer   string `json:"schema_pointer"`
	Message         string `json:"message"`
}

// ValidationFailedError carries every violation found in one validation
// run, ordered by instance pointer.
type ValidationFailedError struct {
	Errors []ValidationError
}

func (e *ValidationFailedError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration is invalid: %s at %s", e.Errors[0].Message, e.Errors[0].InstancePointer)
	}
	return fmt.Sprintf("configuration is invalid with %d violations", len(e.Errors))
}

// Pointer builds a JSON pointer from path segments, escaping per RFC 6901.
func Pointer(segments ...string) string {
	var sb strings.Builder
	for _, segment := range segments {
		sb.WriteString("/")
		sb.WriteString(escapeSegment(segment))
	}
	return sb.String()
}

func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// Extract returns the value at /nodes/{nodeID}/{componentKey} within the
// source document together with that pointer. The document may be YAML or
// JSON; it is converted to JSON before traversal so all downstream
// pointers address the JSON form.
func Extract(doc []byte, nodeID, componentKey string) (any, string, error) {
	pointer := Pointer("nodes", nodeID, componentKey)
	missing := &MissingPayloadError{NodeID: nodeID, ComponentKey: componentKey, Pointer: pointer}

	root, err := decodeDocument(doc)
	if err != nil {
		return nil, pointer, err
	}

	rootMap, ok := root.(map[string]any)
	if !ok {
		return nil, pointer, missing
	}
	nodes, ok := rootMap["nodes"].(map[string]any)
	if !ok {
		return nil, pointer, missing
	}
	node, ok := nodes[nodeID].(map[string]any)
	if !ok {
		return nil, pointer, missing
	}
	value, ok := node[componentKey]
	if !ok {
		return nil, pointer, missing
	}

	return value, pointer, nil
}

// Nodes returns the identifiers of all nodes in the source document that
// carry a configuration under the given component key, in lexicographic
// order.
func Nodes(doc []byte, componentKey string) ([]string, error) {
	root, err := decodeDocument(doc)
	if err != nil {
		return nil, err
	}
	rootMap, ok := root.(map[string]any)
	if !ok {
		return nil, nil
	}
	nodes, ok := rootMap["nodes"].(map[string]any)
	if !ok {
		return nil, nil
	}

	var ids []string
	for id, node := range nodes {
		nodeMap, ok := node.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := nodeMap[componentKey]; ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func decodeDocument(doc []byte) (any, error) {
	jsonDoc, err := yaml.YAMLToJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("source document is neither valid YAML nor JSON: %w", err)
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonDoc))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source document: %w", err)
	}
	return value, nil
}

// Validate checks the extracted value against the compiled schema and
// collects every constraint violation, not just the first. Instance
// pointers are prefixed with pointerPrefix so they address the exact
// sub-path within the source document. A nil return means the value is
// valid.
func Validate(schema *jsonschema.Schema, value any, pointerPrefix string) []ValidationError {
	err := schema.Validate(value)
	if err == nil {
		return nil
	}

	var valErr *jsonschema.ValidationError
	if !errors.As(err, &valErr) {
		return []ValidationError{{InstancePointer: pointerPrefix, Message: err.Error()}}
	}

	printer := message.NewPrinter(language.English)
	var collected []ValidationError
	flatten(valErr, pointerPrefix, printer, &collected)

	// Deterministic document order: violations sorted by instance pointer,
	// then schema pointer.
	slices.SortStableFunc(collected, func(a, b ValidationError) int {
		if c := strings.Compare(a.InstancePointer, b.InstancePointer); c != 0 {
			return c
		}
		return strings.Compare(a.SchemaPointer, b.SchemaPointer)
	})
	return collected
}

// flatten walks the cause tree depth-first and emits one ValidationError
// per leaf. Required-property violations are expanded to one error per
// missing property so the instance pointer names the absent field itself.
func flatten(err *jsonschema.ValidationError, prefix string, printer *message.Printer, out *[]ValidationError) {
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			flatten(cause, prefix, printer, out)
		}
		return
	}

	instance := prefix + Pointer(err.InstanceLocation...)
	schemaPointer := Pointer(err.ErrorKind.KeywordPath()...)

	if required, ok := err.ErrorKind.(*kind.Required); ok {
		for _, missing := range required.Missing {
			*out = append(*out, ValidationError{
				InstancePointer: instance + Pointer(missing),
				SchemaPointer:   schemaPointer,
				Message:         fmt.Sprintf("missing required property %q", missing),
			})
		}
		return
	}

	*out = append(*out, ValidationError{
		InstancePointer: instance,
		SchemaPointer:   schemaPointer,
		Message:         err.ErrorKind.LocalizedString(printer),
	})
}
