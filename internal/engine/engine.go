// Package engine wires the resolution pipeline: coordinate parsing, target
// resolution, artifact fetching, caching, version gating, describe
// selection, and payload validation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/opencontainers/go-digest"
	"github.com/santhosh-tekuri/jsonschema/v6"
	slogctx "github.com/veqryn/slog-context"
	"golang.org/x/sync/singleflight"

	"greentic.software/resolver/internal/artifact"
	"greentic.software/resolver/internal/cache"
	"greentic.software/resolver/internal/coordinate"
	"greentic.software/resolver/internal/describe"
	"greentic.software/resolver/internal/manifest"
	"greentic.software/resolver/internal/target"
	"greentic.software/resolver/internal/workspace"
)

// ErrOfflineFetch is returned when a non-local coordinate would require a
// network fetch while the engine is offline and no stub is injected.
var ErrOfflineFetch = errors.New("offline: refusing to fetch non-local coordinate without a stub")

// PreparedComponent combines resolver and fetcher output with the parsed
// manifest. Instances live in an in-process cache for the duration of one
// invocation context.
type PreparedComponent struct {
	Manifest *manifest.Manifest

	// DescribeVersions lists the manifest's describe versions in
	// descending semantic-version order.
	DescribeVersions []string

	CachedPath string
	Digest     digest.Digest
}

// ManifestSummary is the caller-facing projection of a prepared manifest.
type ManifestSummary struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	DescribeVersion string `json:"describe_version"`
	SchemaID        string `json:"schema_id,omitempty"`
	CachedPath      string `json:"cached_path"`
	FileWasm        string `json:"file_wasm,omitempty"`
	Hash            string `json:"hash,omitempty"`
}

// ResolvedComponent is the validated, ready-to-use projection handed to
// callers.
type ResolvedComponent struct {
	Schema       *jsonschema.Schema
	Summary      ManifestSummary
	Capabilities []string
	Limits       map[string]int64
}

// Stub is a pre-built resolution result injected for deterministic testing
// and disconnected development. It bypasses the artifact fetcher entirely.
type Stub struct {
	Manifest   *manifest.Manifest
	CachedPath string
	Digest     digest.Digest
}

// preparedKey is the documented in-process cache key: the requested alias
// plus the concrete version, NOT the canonical manifest name. Two aliases
// of the same underlying component prepare independently.
type preparedKey struct {
	requestedName   string
	concreteVersion string
}

// Engine executes the resolution pipeline. Its caches are explicit and
// engine-local so the pipeline stays reentrant and independently testable.
type Engine struct {
	fetcher  *artifact.Fetcher
	cacheDir string
	offline  bool
	stubs    map[string]Stub

	mu       sync.Mutex
	prepared map[preparedKey]*PreparedComponent
	compiler *describe.Compiler

	// group coalesces concurrent resolutions of the same coordinate so no
	// duplicate network fetch runs.
	group singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher overrides the artifact fetcher.
func WithFetcher(f *artifact.Fetcher) Option {
	return func(e *Engine) { e.fetcher = f }
}

// WithCacheDir sets the artifact cache root.
func WithCacheDir(dir string) Option {
	return func(e *Engine) { e.cacheDir = dir }
}

// WithOffline disables all network fetches.
func WithOffline(offline bool) Option {
	return func(e *Engine) { e.offline = offline }
}

// WithStub injects a pre-built resolution result for the given component
// id.
func WithStub(id string, stub Stub) Option {
	return func(e *Engine) { e.stubs[id] = stub }
}

// New creates an Engine with empty caches.
func New(opts ...Option) *Engine {
	e := &Engine{
		fetcher:  &artifact.Fetcher{},
		stubs:    make(map[string]Stub),
		prepared: make(map[preparedKey]*PreparedComponent),
		compiler: describe.NewCompiler(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve runs the pipeline for one coordinate. root optionally points the
// target resolver at a local component directory.
func (e *Engine) Resolve(ctx context.Context, coordinateStr, root string) (*ResolvedComponent, error) {
	coord, err := coordinate.Parse(coordinateStr)
	if err != nil {
		return nil, err
	}

	prepared, err := e.prepare(ctx, coord, root)
	if err != nil {
		return nil, err
	}

	entry, err := describe.Select(prepared.Manifest.Describes)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", coord.ID, err)
	}

	e.mu.Lock()
	schema, err := e.compiler.Compile(prepared.Manifest.Name, entry)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	summary := ManifestSummary{
		Name:            prepared.Manifest.Name,
		Version:         prepared.Manifest.Version,
		DescribeVersion: entry.Version,
		SchemaID:        describe.SchemaID(entry.Schema),
		CachedPath:      prepared.CachedPath,
		FileWasm:        wasmPath(prepared),
	}
	if prepared.Digest != "" {
		summary.Hash = prepared.Digest.String()
	}

	return &ResolvedComponent{
		Schema:       schema,
		Summary:      summary,
		Capabilities: prepared.Manifest.Capabilities,
		Limits:       prepared.Manifest.Limits,
	}, nil
}

// prepare returns the PreparedComponent for a coordinate, consulting the
// alias-keyed in-process cache first and coalescing concurrent identical
// requests.
func (e *Engine) prepare(ctx context.Context, coord *coordinate.Coordinate, root string) (*PreparedComponent, error) {
	if prepared := e.cachedPrepared(coord); prepared != nil {
		slogctx.FromCtx(ctx).Debug("reusing prepared component", "realm", "engine", "coordinate", coord.String())
		return prepared, nil
	}

	result, err, _ := e.group.Do(coord.String()+"\x00"+root, func() (any, error) {
		if prepared := e.cachedPrepared(coord); prepared != nil {
			return prepared, nil
		}

		prepared, err := e.prepareUncached(ctx, coord, root)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.prepared[preparedKey{requestedName: coord.ID, concreteVersion: prepared.Manifest.Version}] = prepared
		e.mu.Unlock()

		return prepared, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*PreparedComponent), nil
}

// cachedPrepared scans the prepared cache for an entry under the requested
// alias whose concrete version satisfies the requirement, preferring the
// highest such version.
func (e *Engine) cachedPrepared(coord *coordinate.Coordinate) *PreparedComponent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var best *PreparedComponent
	var bestVersion *semver.Version
	for key, prepared := range e.prepared {
		if key.requestedName != coord.ID {
			continue
		}
		version, err := semver.NewVersion(key.concreteVersion)
		if err != nil || !coord.Requirement.Check(version) {
			continue
		}
		if bestVersion == nil || version.GreaterThan(bestVersion) {
			best = prepared
			bestVersion = version
		}
	}
	return best
}

func (e *Engine) prepareUncached(ctx context.Context, coord *coordinate.Coordinate, root string) (*PreparedComponent, error) {
	log := slogctx.FromCtx(ctx)

	if stub, ok := e.stubs[coord.ID]; ok {
		log.Debug("using stub resolution", "realm", "engine", "coordinate", coord.String())
		return e.fromStub(coord, stub)
	}

	location, notFound := target.Resolve(coord.ID, root)
	classified := artifact.Classify(location)

	if e.offline && classified.Kind != artifact.KindLocal {
		return nil, fmt.Errorf("coordinate %q resolves to %s location %q: %w", coord.String(), classified.Kind, location, ErrOfflineFetch)
	}

	entry, err := e.fetcher.Fetch(ctx, coord.ID, classified, e.cacheDir)
	if err != nil {
		if notFound != nil {
			return nil, fmt.Errorf("%w: %w", notFound, err)
		}
		return nil, err
	}

	m, err := manifest.Load(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("coordinate %q: %w", coord.String(), err)
	}

	if err := m.Gate(coord.Requirement, coord.RequirementRaw); err != nil {
		return nil, fmt.Errorf("coordinate %q: %w", coord.String(), err)
	}

	log.Info("prepared component", "realm", "engine", "coordinate", coord.String(), "name", m.Name, "version", m.Version, "path", entry.Path)

	return &PreparedComponent{
		Manifest:         m,
		DescribeVersions: describeVersions(m),
		CachedPath:       entry.Path,
		Digest:           entry.Digest,
	}, nil
}

func (e *Engine) fromStub(coord *coordinate.Coordinate, stub Stub) (*PreparedComponent, error) {
	if stub.Manifest == nil {
		return nil, fmt.Errorf("stub for %q carries no manifest", coord.ID)
	}
	if err := stub.Manifest.Gate(coord.Requirement, coord.RequirementRaw); err != nil {
		return nil, fmt.Errorf("coordinate %q: %w", coord.String(), err)
	}
	return &PreparedComponent{
		Manifest:         stub.Manifest,
		DescribeVersions: describeVersions(stub.Manifest),
		CachedPath:       stub.CachedPath,
		Digest:           stub.Digest,
	}, nil
}

// describeVersions lists the manifest's describe versions newest first.
// Entries that do not parse as semver sort after every parseable one, in
// reverse lexical order, so the result is deterministic either way.
func describeVersions(m *manifest.Manifest) []string {
	type entry struct {
		raw    string
		parsed *semver.Version
	}
	entries := make([]entry, 0, len(m.Describes))
	for _, describe := range m.Describes {
		parsed, _ := semver.NewVersion(describe.Version)
		entries = append(entries, entry{raw: describe.Version, parsed: parsed})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.parsed != nil && b.parsed != nil:
			return b.parsed.Compare(a.parsed)
		case a.parsed != nil:
			return -1
		case b.parsed != nil:
			return 1
		default:
			return strings.Compare(b.raw, a.raw)
		}
	})
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, e.raw)
	}
	return versions
}

func wasmPath(prepared *PreparedComponent) string {
	if prepared.Manifest.Wasm == "" || prepared.CachedPath == "" {
		return prepared.CachedPath
	}
	if cache.Exists(filepath.Join(prepared.CachedPath, prepared.Manifest.Wasm)) {
		return filepath.Join(prepared.CachedPath, prepared.Manifest.Wasm)
	}
	// pack archives keep the wasm inside the artifact itself
	return prepared.CachedPath
}

// RecordWorkspace upserts the resolution result into the workspace
// manifest under dir.
func (e *Engine) RecordWorkspace(dir, coordinateStr string, resolved *ResolvedComponent) error {
	path := filepath.Join(dir, workspace.ManifestFile)
	return workspace.Upsert(path, workspace.Record{
		Coordinate: coordinateStr,
		Entry: workspace.Entry{
			Name:     resolved.Summary.Name,
			Version:  resolved.Summary.Version,
			FileWasm: resolved.Summary.FileWasm,
			Hash:     resolved.Summary.Hash,
		},
	})
}
