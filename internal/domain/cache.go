package domain

import (
	"context"
	"encoding/json"
)

// Cache namespaces. The (namespace, key) pair addresses exactly one
// cached response.
const (
	NamespaceSearch   = "search"
	NamespaceDetails  = "details"
	NamespaceEpisodes = "episodes"
	NamespaceUpdate   = "update"
)

// CacheRepo is the response cache consulted by the resolver and the
// backend client. Caching is best-effort: storage errors degrade to a
// miss on read and are dropped on write, which is why neither method
// returns an error. Callers must derive keys deterministically from
// the logical request so semantically equal requests hit the same
// entry.
type CacheRepo interface {
	Get(ctx context.Context, namespace, key string) (json.RawMessage, bool)
	Set(ctx context.Context, namespace, key string, value any)
	Stats() []NamespaceStats
}

// NamespaceStats is the cumulative hit/miss count for one namespace.
type NamespaceStats struct {
	Namespace string
	Hits      int
	Misses    int
}

// HitRate returns the hit fraction, 0 when nothing was looked up.
func (s NamespaceStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
