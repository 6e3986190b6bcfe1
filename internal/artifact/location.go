package artifact

import "strings"

// Kind enumerates the closed set of artifact location kinds. Adding a new
// supported kind is an additive variant, not a structural rewrite.
type Kind int

const (
	// KindLocal is a plain filesystem path, read directly without network.
	KindLocal Kind = iota
	// KindHTTP is an http(s) URL downloaded to a temporary file and moved
	// into place atomically.
	KindHTTP
	// KindFileURI is a file:// URI, materialized as a local copy.
	KindFileURI
	// KindOCI is an OCI registry reference. Recognized, never handled.
	KindOCI
	// KindDistributor is a distributor-internal handle. Recognized, never
	// handled.
	KindDistributor
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindHTTP:
		return "http"
	case KindFileURI:
		return "file"
	case KindOCI:
		return "oci"
	case KindDistributor:
		return "distributor"
	default:
		return "unknown"
	}
}

// Location is a classified artifact location.
type Location struct {
	Kind Kind
	Raw  string
}

// Classify tags a raw location string with its kind based on the URL
// scheme. Anything without a recognized scheme is a local path.
func Classify(raw string) Location {
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return Location{Kind: KindHTTP, Raw: raw}
	case strings.HasPrefix(raw, "file://"):
		return Location{Kind: KindFileURI, Raw: raw}
	case strings.HasPrefix(raw, "oci://"):
		return Location{Kind: KindOCI, Raw: raw}
	case strings.HasPrefix(raw, "dist://"):
		return Location{Kind: KindDistributor, Raw: raw}
	default:
		return Location{Kind: KindLocal, Raw: raw}
	}
}
