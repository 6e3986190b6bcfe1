// Package coordinate parses component coordinates used by the Greentic resolver.
package coordinate

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// AnyRequirement is the version requirement assumed when a coordinate does
// not carry an explicit one. It matches every released version.
const AnyRequirement = "*"

// Coordinate represents the parsed structure of a component coordinate.
//
// The format of a coordinate is:
//
//	<id>[@<version requirement>]
//
// The id is either a local path or a namespaced component name such as
// "ns.weather". The version requirement uses standard semantic version
// range syntax (exact, caret, tilde, wildcard).
type Coordinate struct {
	// ID is the component identifier without any version requirement.
	ID string

	// Requirement is the parsed version requirement. It is never nil;
	// a coordinate without an explicit requirement resolves to AnyRequirement.
	Requirement *semver.Constraints

	// RequirementRaw is the requirement exactly as it appeared in the input,
	// or AnyRequirement when the input had none.
	RequirementRaw string
}

func (c *Coordinate) String() string {
	if c.RequirementRaw == AnyRequirement {
		return c.ID
	}
	return c.ID + "@" + c.RequirementRaw
}

// ParseError reports a coordinate that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid coordinate %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid coordinate %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses an input string into a Coordinate.
//
// The input is split on the last "@" so that ids containing "@" earlier in
// the string keep working. An absent "@" yields the AnyRequirement
// constraint. OCI-style tag or digest grammars are not part of this
// parser's vocabulary; a segment like "sha256:..." fails as an invalid
// version requirement.
func Parse(input string) (*Coordinate, error) {
	id := input
	raw := AnyRequirement

	if idx := strings.LastIndex(input, "@"); idx != -1 {
		id = input[:idx]
		raw = input[idx+1:]
		if raw == "" {
			return nil, &ParseError{Input: input, Reason: "empty version requirement after '@'"}
		}
	}

	if id == "" {
		return nil, &ParseError{Input: input, Reason: "empty component id"}
	}

	constraints, err := semver.NewConstraint(raw)
	if err != nil {
		return nil, &ParseError{Input: input, Reason: fmt.Sprintf("version requirement %q is not a semantic version range", raw), Err: err}
	}

	return &Coordinate{
		ID:             id,
		Requirement:    constraints,
		RequirementRaw: raw,
	}, nil
}
