package engine

import (
	"context"
	"fmt"

	slogctx "github.com/veqryn/slog-context"

	"greentic.software/resolver/internal/payload"
)

// Validation is the result of validating one node's configuration.
type Validation struct {
	NodeID  string                    `json:"node_id"`
	Pointer string                    `json:"pointer"`
	Errors  []payload.ValidationError `json:"errors,omitempty"`

	// Annotated is the default/override-annotated configuration view,
	// populated only when no violations were found.
	Annotated any `json:"annotated,omitempty"`
}

// Valid reports whether the node's configuration passed validation.
func (v *Validation) Valid() bool { return len(v.Errors) == 0 }

// ValidateNode extracts the node's configuration at
// /nodes/{nodeID}/{componentKey}, validates it against the resolved
// component's schema, and on success builds the annotated view. Violations
// are returned inside the Validation, not as an error; errors are reserved
// for extraction and document failures.
func (e *Engine) ValidateNode(ctx context.Context, resolved *ResolvedComponent, doc []byte, nodeID, componentKey string) (*Validation, error) {
	value, pointer, err := payload.Extract(doc, nodeID, componentKey)
	if err != nil {
		return nil, err
	}

	validation := &Validation{NodeID: nodeID, Pointer: pointer}
	validation.Errors = payload.Validate(resolved.Schema, value, pointer)
	if len(validation.Errors) > 0 {
		slogctx.FromCtx(ctx).Debug("node configuration is invalid",
			"realm", "engine", "node", nodeID, "component", resolved.Summary.Name, "violations", len(validation.Errors))
		return validation, nil
	}

	validation.Annotated = payload.Annotate(resolved.Schema, value)
	return validation, nil
}

// ValidateFlow validates every node of the flow document that carries a
// configuration under componentKey, in deterministic node order.
func (e *Engine) ValidateFlow(ctx context.Context, resolved *ResolvedComponent, doc []byte, componentKey string) ([]*Validation, error) {
	nodeIDs, err := payload.Nodes(doc, componentKey)
	if err != nil {
		return nil, err
	}
	if len(nodeIDs) == 0 {
		return nil, fmt.Errorf("flow document carries no node configured with component key %q", componentKey)
	}

	validations := make([]*Validation, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		validation, err := e.ValidateNode(ctx, resolved, doc, nodeID, componentKey)
		if err != nil {
			return nil, err
		}
		validations = append(validations, validation)
	}
	return validations, nil
}
