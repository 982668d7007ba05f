package cache

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"route-analyzer/internal/domain"
	"route-analyzer/internal/ports"
)

// DistanceCache maps canonical pair keys to distances in kilometers.
type DistanceCache struct {
	store *Store
}

func NewDistanceCache(backend ports.CacheBackend) *DistanceCache {
	return &DistanceCache{store: NewStore(ports.DistanceKind, backend)}
}

func (c *DistanceCache) Load(ctx context.Context)        { c.store.Load(ctx) }
func (c *DistanceCache) Flush(ctx context.Context) error { return c.store.Flush(ctx) }
func (c *DistanceCache) Len() int                        { return c.store.Len() }

func (c *DistanceCache) Get(key string) (float64, bool) {
	raw, ok := c.store.Get(key)
	if !ok {
		return 0, false
	}
	km, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// A corrupt entry is treated as a miss; the pair is recomputed
		// and the entry overwritten.
		log.Printf("cache=distance key=%s corrupt value %q", key, raw)
		return 0, false
	}
	return km, true
}

func (c *DistanceCache) Put(key string, km float64) {
	c.store.Put(key, strconv.FormatFloat(km, 'f', 2, 64))
}

// GeometryCache maps canonical pair keys to route geometries, persisted
// as JSON [lon, lat] sequences (the wire format of the routing service).
type GeometryCache struct {
	store *Store
}

func NewGeometryCache(backend ports.CacheBackend) *GeometryCache {
	return &GeometryCache{store: NewStore(ports.GeometryKind, backend)}
}

func (c *GeometryCache) Load(ctx context.Context)        { c.store.Load(ctx) }
func (c *GeometryCache) Flush(ctx context.Context) error { return c.store.Flush(ctx) }
func (c *GeometryCache) Len() int                        { return c.store.Len() }

func (c *GeometryCache) Get(key string) ([]domain.Coordinates, bool) {
	raw, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}

	var pairs [][]float64
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		log.Printf("cache=geometry key=%s corrupt value: %v", key, err)
		return nil, false
	}

	coords := make([]domain.Coordinates, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			log.Printf("cache=geometry key=%s truncated coordinate", key)
			return nil, false
		}
		coords = append(coords, domain.Coordinates{Lon: p[0], Lat: p[1]})
	}
	return coords, true
}

func (c *GeometryCache) Put(key string, coords []domain.Coordinates) {
	pairs := make([][]float64, 0, len(coords))
	for _, c := range coords {
		pairs = append(pairs, c.CoordsToList())
	}

	raw, err := json.Marshal(pairs)
	if err != nil {
		// Marshalling plain float slices cannot fail; guard anyway.
		log.Printf("cache=geometry key=%s encode failed: %v", key, err)
		return
	}
	c.store.Put(key, string(raw))
}
