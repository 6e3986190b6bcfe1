// Package target maps a component id to a concrete location using an
// ordered fallback search over a local root directory.
package target

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// separators are the short-name separators in fixed priority order.
// The candidate list derived from them is evaluated in turn; dynamic or
// duck-typed lookups are deliberately not part of this resolver.
var separators = []string{".", ":", "/"}

// NotFoundError reports that every resolution candidate was exhausted.
type NotFoundError struct {
	ID         string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("component %q not found, tried %s", e.ID, strings.Join(e.Candidates, ", "))
}

// Candidates returns the ordered list of paths that Resolve evaluates for
// the given id under root. The exact path always comes first; short-name
// fallbacks follow in separator priority order. Root must be non-empty.
func Candidates(id, root string) []string {
	exact := filepath.Join(root, id)
	candidates := []string{exact}

	for _, sep := range separators {
		idx := strings.LastIndex(id, sep)
		if idx == -1 || idx == len(id)-1 {
			continue
		}
		short := filepath.Join(root, id[idx+len(sep):])
		if short == exact {
			continue
		}
		candidates = append(candidates, short)
	}

	return candidates
}

// Resolve maps id to a concrete location.
//
// With root set, the exact path <root>/<id> wins whenever it exists;
// short-name fallbacks are only evaluated after a failed exact lookup,
// never speculatively. When every candidate is missing, the exact path is
// returned together with a NotFoundError so the caller can surface the
// attempted locations.
//
// With root unset, the id is an opaque location handed directly to the
// artifact fetcher.
func Resolve(id, root string) (string, error) {
	if root == "" {
		return id, nil
	}

	candidates := Candidates(id, root)
	for i, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			if i > 0 {
				slog.Debug("resolved component via short-name fallback", "realm", "target", "id", id, "path", candidate)
			}
			return candidate, nil
		}
	}

	return candidates[0], &NotFoundError{ID: id, Candidates: candidates}
}
