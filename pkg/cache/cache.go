// Package cache provides the caching layer shared by the CLI and the API.
//
// A [Cache] stores opaque byte payloads under hashed keys with a TTL.
// Backends: [FileCache] for CLI usage, [RedisCache] for multi-instance
// deployments, and [NullCache] to disable caching. A [Keyer] builds the
// keys for the cacheable pipeline stages (trace fetch, rendered artifacts,
// raw HTTP responses); [ScopedKeyer] prefixes them for tenant isolation.
package cache

import (
	"context"
	"time"
)

// TTLs for the cacheable pipeline stages.
const (
	// TTLTrace is how long fetched decision traces are cached. Traces are
	// session-scoped and regenerated upstream, so this stays short.
	TTLTrace = time.Hour

	// TTLArtifact is how long rendered artifacts (SVG, DOT) are cached.
	// Artifacts are pure functions of the graph, so this can be long.
	TTLArtifact = 24 * time.Hour

	// TTLHTTP is the default TTL for raw upstream HTTP responses.
	TTLHTTP = time.Hour
)

// Cache is the interface all cache backends implement.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TraceKeyOpts are the inputs that distinguish cached trace fetches.
type TraceKeyOpts struct {
	SessionID string
}

// ArtifactKeyOpts are the inputs that distinguish cached artifacts.
type ArtifactKeyOpts struct {
	Format string
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// HTTPKey generates a key for a raw upstream HTTP response.
	HTTPKey(namespace, key string) string

	// TraceKey generates a key for a fetched decision trace.
	TraceKey(query string, opts TraceKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact of a graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256 under stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return hashKey("http", namespace, key)
}

// TraceKey generates a key for decision trace caching.
func (k *DefaultKeyer) TraceKey(query string, opts TraceKeyOpts) string {
	return hashKey("trace", query, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
