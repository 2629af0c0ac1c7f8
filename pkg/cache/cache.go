// Package cache provides the analysis memoization layer.
//
// The engine itself is pure; caching wraps it from the outside. Keys
// are derived from the analysis inputs (root, family, content digest),
// so a cache entry is valid exactly as long as no scanned file changes.
// Backends: file-based for CLI usage, Redis for the serve deployment,
// and a null cache for tests and --no-cache runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Cache is the storage backend interface for memoized analysis results.
type Cache interface {
	// Get retrieves a value. The second result reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL (0 means no expiration).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Hash computes the SHA-256 hex digest of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// hashKey builds a namespaced cache key from arbitrary components.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(h[:]))
}

// AnalysisKey derives the cache key for one analysis run from the
// family and the per-file content digests. The digests are keyed by
// path and sorted, so the key is independent of scan order; the root
// path itself stays out of the key so a relocated tree still hits.
func AnalysisKey(family string, digests map[string]string) string {
	paths := make([]string, 0, len(digests))
	for p := range digests {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	flat := make([]string, 0, len(paths)*2)
	for _, p := range paths {
		flat = append(flat, p, digests[p])
	}
	return hashKey("analysis", family, flat)
}
