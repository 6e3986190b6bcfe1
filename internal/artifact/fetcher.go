// Package artifact obtains component artifact bytes from a closed set of
// location kinds and materializes them in the artifact cache.
package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/opencontainers/go-digest"
	slogctx "github.com/veqryn/slog-context"

	"greentic.software/resolver/internal/cache"
)

// DefaultTimeout bounds a single artifact download when the caller does
// not supply its own deadline.
const DefaultTimeout = 30 * time.Second

// UnsupportedKindError reports a recognized location kind that this
// fetcher explicitly refuses to handle.
type UnsupportedKindError struct {
	Kind     Kind
	Location string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported artifact kind %s for location %q", e.Kind, e.Location)
}

// NetworkError reports a failed artifact download with whatever the remote
// side returned.
type NetworkError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %q failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %q failed with status %d: %s", e.URL, e.Status, e.Body)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Fetcher obtains artifact bytes for classified locations.
type Fetcher struct {
	// Client is the HTTP client used for remote downloads. Defaults to
	// http.DefaultClient.
	Client *http.Client

	// Timeout bounds a single download when the caller's context carries
	// no deadline of its own. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Fetch obtains the artifact behind the location and returns the cache
// entry describing where its bytes live.
//
// Local paths are read in place without copying; file URIs and HTTP
// downloads are materialized under cacheDir at a digest-derived slug via a
// temporary file and an atomic rename, so a failed or cancelled fetch
// never leaves a partial artifact at the final path. OCI references and
// distributor-internal handles fail with UnsupportedKindError, never
// silently.
func (f *Fetcher) Fetch(ctx context.Context, componentID string, loc Location, cacheDir string) (*cache.Entry, error) {
	switch loc.Kind {
	case KindLocal:
		return f.fetchLocal(loc.Raw)
	case KindFileURI:
		path, err := fileURIPath(loc.Raw)
		if err != nil {
			return nil, err
		}
		return f.copyLocal(componentID, path, cacheDir)
	case KindHTTP:
		return f.download(ctx, componentID, loc.Raw, cacheDir)
	case KindOCI, KindDistributor:
		return nil, &UnsupportedKindError{Kind: loc.Kind, Location: loc.Raw}
	default:
		return nil, &UnsupportedKindError{Kind: loc.Kind, Location: loc.Raw}
	}
}

func (f *Fetcher) fetchLocal(path string) (*cache.Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("local artifact %q is not readable: %w", path, err)
	}

	// Directory components stay in place; only files carry a content digest.
	if info.IsDir() {
		return &cache.Entry{Path: path}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local artifact %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	dgst, err := digest.FromReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to digest local artifact %q: %w", path, err)
	}

	return &cache.Entry{Path: path, Digest: dgst}, nil
}

func (f *Fetcher) copyLocal(componentID, path, cacheDir string) (*cache.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return writeToCache(componentID, file, cacheDir)
}

func (f *Fetcher) download(ctx context.Context, componentID, rawURL, cacheDir string) (*cache.Entry, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := f.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	slogctx.FromCtx(ctx).Debug("downloading component artifact", "url", rawURL, "component", componentID)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &NetworkError{URL: rawURL, Status: resp.StatusCode, Body: string(body)}
	}

	return writeToCache(componentID, resp.Body, cacheDir)
}

// writeToCache stages the content in a temporary location, derives the
// digest-based cache path from the written bytes, and renames the staged
// file into place.
func writeToCache(componentID string, content io.Reader, cacheDir string) (*cache.Entry, error) {
	staging := cache.Path(componentID, "staging", cacheDir, "") + ".partial"
	dgst, err := cache.Write(staging, content)
	if err != nil {
		return nil, err
	}

	final := cache.Path(componentID, "", cacheDir, dgst)
	if err := os.Rename(staging, final); err != nil {
		_ = os.Remove(staging)
		return nil, fmt.Errorf("failed to move artifact into cache at %q: %w", final, err)
	}

	return &cache.Entry{Slug: cache.Slug(componentID, "", dgst), Path: final, Digest: dgst}, nil
}

func fileURIPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid file URI %q: %w", rawURI, err)
	}
	if u.Path == "" {
		return "", fmt.Errorf("file URI %q carries no path", rawURI)
	}
	return u.Path, nil
}
