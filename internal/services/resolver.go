package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"route-analyzer/internal/adapters/cache"
	"route-analyzer/internal/domain"
	"route-analyzer/internal/ports"
)

// RetryPolicy governs how the resolver reacts to routing failures.
type RetryPolicy struct {
	// MaxAttempts bounds retryable failures per pair.
	MaxAttempts int
	// RateLimitStep grows the rate-limit wait linearly with the attempt
	// number, capped at RateLimitCap.
	RateLimitStep time.Duration
	RateLimitCap  time.Duration
	// TransientBackoff is the fixed wait after an unexpected failure.
	TransientBackoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      5,
		RateLimitStep:    10 * time.Second,
		RateLimitCap:     30 * time.Second,
		TransientBackoff: 5 * time.Second,
	}
}

// Resolver wraps the routing collaborator with cache lookup, typed
// retry policy and cache population. No error escapes: every failure
// path resolves to a (value, false) result, and the run proceeds.
type Resolver struct {
	provider   ports.RouteProvider
	distances  *cache.DistanceCache
	geometries *cache.GeometryCache
	policy     RetryPolicy

	// sleep is context-aware and swappable in tests. Returns false when
	// the context ended before the wait did.
	sleep func(ctx context.Context, d time.Duration) bool
}

func NewResolver(
	provider ports.RouteProvider,
	distances *cache.DistanceCache,
	geometries *cache.GeometryCache,
	policy RetryPolicy,
) *Resolver {
	return &Resolver{
		provider:   provider,
		distances:  distances,
		geometries: geometries,
		policy:     policy,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ResolveDistance returns the distance in kilometers between two
// points, rounded to two decimals. A cache hit costs zero network
// calls. ok is false when the pair could not be resolved.
func (r *Resolver) ResolveDistance(ctx context.Context, a, b domain.Point) (km float64, ok bool) {
	key := domain.PairKey(a.Coord, b.Coord)
	if km, ok := r.distances.Get(key); ok {
		return km, true
	}

	result, ok := r.fetch(ctx, a, b)
	if !ok {
		return 0, false
	}

	km = math.Round(result.DistanceMeters/1000*100) / 100
	r.distances.Put(key, km)
	if len(result.Geometry) > 0 {
		// The same call carried the geometry; keep it so a later map
		// build costs nothing for this pair.
		r.geometries.Put(key, result.Geometry)
	}
	return km, true
}

// ResolveRoute returns the route geometry between two points. ok is
// false when the pair could not be resolved.
func (r *Resolver) ResolveRoute(ctx context.Context, a, b domain.Point) ([]domain.Coordinates, bool) {
	key := domain.PairKey(a.Coord, b.Coord)
	if coords, ok := r.geometries.Get(key); ok {
		return coords, true
	}

	result, ok := r.fetch(ctx, a, b)
	if !ok {
		return nil, false
	}

	km := math.Round(result.DistanceMeters/1000*100) / 100
	r.distances.Put(key, km)
	r.geometries.Put(key, result.Geometry)
	return result.Geometry, true
}

// fetch performs the external call under the retry policy. A no-route
// failure is permanent and returns immediately; rate limits back off
// with growing, capped waits; anything else waits a fixed interval.
func (r *Resolver) fetch(ctx context.Context, a, b domain.Point) (ports.RouteResult, bool) {
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		result, err := r.provider.Directions(ctx, a.Coord, b.Coord)
		if err == nil {
			return result, true
		}

		var re *ports.RouteError
		if !errors.As(err, &re) {
			re = &ports.RouteError{Kind: ports.RouteErrTransient, Message: err.Error()}
		}

		switch re.Kind {
		case ports.RouteErrNoRoute:
			log.Printf("pair=%s<->%s no route: %s", a.Name, b.Name, re.Message)
			return ports.RouteResult{}, false

		case ports.RouteErrRateLimited:
			wait := min(r.policy.RateLimitCap, time.Duration(attempt)*r.policy.RateLimitStep)
			log.Printf("pair=%s<->%s rate limited, waiting %s (attempt %d/%d)",
				a.Name, b.Name, wait, attempt, r.policy.MaxAttempts)
			if !r.sleep(ctx, wait) {
				return ports.RouteResult{}, false
			}

		default:
			log.Printf("pair=%s<->%s unexpected failure: %s (attempt %d/%d)",
				a.Name, b.Name, re.Message, attempt, r.policy.MaxAttempts)
			if !r.sleep(ctx, r.policy.TransientBackoff) {
				return ports.RouteResult{}, false
			}
		}
	}

	log.Printf("pair=%s<->%s giving up after %d attempts", a.Name, b.Name, r.policy.MaxAttempts)
	return ports.RouteResult{}, false
}
