package ports

import "context"

// CacheKind selects which persisted cache a backend operation targets.
type CacheKind string

const (
	// DistanceKind holds pair key -> distance entries.
	DistanceKind CacheKind = "distance"
	// GeometryKind holds pair key -> encoded route geometry entries.
	GeometryKind CacheKind = "geometry"
)

// CacheBackend persists cache entries between runs. Values are opaque
// strings; typed encoding lives with the in-memory store.
type CacheBackend interface {
	// Load returns all persisted entries of one kind.
	Load(ctx context.Context, kind CacheKind) (map[string]string, error)
	// Save upserts the given entries of one kind.
	Save(ctx context.Context, kind CacheKind, entries map[string]string) error
}
