package services

import (
	"context"
	"fmt"
	"log"

	"route-analyzer/internal/adapters/cache"
	"route-analyzer/internal/adapters/snapshot"
	"route-analyzer/internal/domain"
	"route-analyzer/internal/platform/obs"
	"route-analyzer/internal/platform/pool"
	"route-analyzer/internal/ports"
)

// Options configures one analyzer run.
type Options struct {
	SnapshotPath  string
	ArtifactPath  string
	MapPath       string
	Workers       int
	SnapshotEvery int
}

// Analyzer composes the scheduler, the bounded executor, the resolver
// and the persisters into the two top-level operations. The matrix is
// mutated only on the collector side of the pool, so pair application
// and periodic snapshots are naturally serialized.
type Analyzer struct {
	points     []domain.Point
	resolver   *Resolver
	distances  *cache.DistanceCache
	geometries *cache.GeometryCache
	renderer   ports.MapRenderer
	final      *snapshot.FinalWriter
	opts       Options
}

func NewAnalyzer(
	points []domain.Point,
	resolver *Resolver,
	distances *cache.DistanceCache,
	geometries *cache.GeometryCache,
	renderer ports.MapRenderer,
	opts Options,
) *Analyzer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.SnapshotEvery < 1 {
		opts.SnapshotEvery = 5
	}

	return &Analyzer{
		points:     points,
		resolver:   resolver,
		distances:  distances,
		geometries: geometries,
		renderer:   renderer,
		final:      snapshot.NewFinalWriter(),
		opts:       opts,
	}
}

type distanceResult struct {
	km float64
	ok bool
}

// BuildDistanceMatrix resolves every pending pair, persisting progress
// as it goes, and commits the final artifact. It returns the matrix and
// the artifact name actually used, which differs from the configured
// one when the target was locked.
func (a *Analyzer) BuildDistanceMatrix(ctx context.Context) (_ *domain.Matrix, artifact string, err error) {
	defer obs.Time(ctx, "build_distance_matrix")(&err)

	a.distances.Load(ctx)
	a.geometries.Load(ctx)

	matrix, err := a.loadOrInitMatrix()
	if err != nil {
		return nil, "", err
	}

	items, err := PendingPairs(a.points, matrix)
	if err != nil {
		return nil, "", fmt.Errorf("build distance matrix: %w", err)
	}

	total := len(items)
	log.Printf("run_id=%s pending=%d points=%d workers=%d",
		obs.RunID(ctx), total, len(a.points), a.opts.Workers)

	done := 0
	outcomes := pool.Run(items, a.opts.Workers, func(item WorkItem) distanceResult {
		km, ok := a.resolver.ResolveDistance(ctx, item.A, item.B)
		return distanceResult{km: km, ok: ok}
	})

	for o := range outcomes {
		if o.Err != nil {
			log.Printf("pair=%s<->%s worker failed: %v", o.Item.A.Name, o.Item.B.Name, o.Err)
			o.Result.ok = false
		}

		if o.Result.ok {
			if err := matrix.SetDistance(o.Item.A.Name, o.Item.B.Name, o.Result.km); err != nil {
				return nil, "", fmt.Errorf("build distance matrix: %w", err)
			}
			log.Printf("pair=%s<->%s km=%.2f", o.Item.A.Name, o.Item.B.Name, o.Result.km)
		} else {
			if err := matrix.SetUnresolved(o.Item.A.Name, o.Item.B.Name); err != nil {
				return nil, "", fmt.Errorf("build distance matrix: %w", err)
			}
			log.Printf("pair=%s<->%s unresolved", o.Item.A.Name, o.Item.B.Name)
		}

		done++
		if done%a.opts.SnapshotEvery == 0 {
			a.persistProgress(ctx, matrix, done, total)
		}
	}

	// One more unconditional snapshot so an interrupt between here and
	// the final commit loses nothing.
	a.persistProgress(ctx, matrix, done, total)

	used, err := a.final.Commit(a.opts.ArtifactPath, matrix)
	if err != nil {
		return matrix, "", fmt.Errorf("build distance matrix: %w", err)
	}
	if used != a.opts.ArtifactPath {
		log.Printf("artifact saved under alternate name %q (target locked)", used)
	}

	a.flushCaches(ctx)
	return matrix, used, nil
}

// BuildRouteMap renders every resolvable route onto the map. A pair
// whose geometry cannot be resolved is simply omitted; nothing fails
// the render.
func (a *Analyzer) BuildRouteMap(ctx context.Context) (err error) {
	defer obs.Time(ctx, "build_route_map")(&err)

	a.distances.Load(ctx)
	a.geometries.Load(ctx)

	for _, p := range a.points {
		a.renderer.AddMarker(p.Name, p.Coord)
	}

	items := AllPairs(a.points)
	total := len(items)
	log.Printf("run_id=%s routes=%d workers=%d", obs.RunID(ctx), total, a.opts.Workers)

	type routeResult struct {
		coords []domain.Coordinates
		ok     bool
	}

	done := 0
	outcomes := pool.Run(items, a.opts.Workers, func(item WorkItem) routeResult {
		coords, ok := a.resolver.ResolveRoute(ctx, item.A, item.B)
		return routeResult{coords: coords, ok: ok}
	})

	for o := range outcomes {
		done++
		if o.Err != nil {
			log.Printf("route=%s<->%s worker failed: %v", o.Item.A.Name, o.Item.B.Name, o.Err)
			continue
		}
		if !o.Result.ok {
			log.Printf("route=%s<->%s skipped (%d/%d)", o.Item.A.Name, o.Item.B.Name, done, total)
			continue
		}

		a.renderer.AddPolyline(o.Result.coords)
		log.Printf("route=%s<->%s added (%d/%d)", o.Item.A.Name, o.Item.B.Name, done, total)

		if done%a.opts.SnapshotEvery == 0 {
			a.flushCaches(ctx)
		}
	}

	if err := a.renderer.Save(a.opts.MapPath); err != nil {
		return fmt.Errorf("build route map: %w", err)
	}

	a.flushCaches(ctx)
	log.Printf("map saved path=%q", a.opts.MapPath)
	return nil
}

// loadOrInitMatrix builds the matrix for the registry and merges the
// partial snapshot when one exists. A corrupt snapshot is logged and
// the build starts over from the caches.
func (a *Analyzer) loadOrInitMatrix() (*domain.Matrix, error) {
	names := make([]string, 0, len(a.points))
	for _, p := range a.points {
		names = append(names, p.Name)
	}

	matrix, err := domain.NewMatrix(names)
	if err != nil {
		return nil, fmt.Errorf("init matrix: %w", err)
	}

	found, err := snapshot.Load(a.opts.SnapshotPath, matrix)
	if err != nil {
		log.Printf("partial snapshot unreadable, starting fresh: %v", err)
		matrix, err = domain.NewMatrix(names)
		if err != nil {
			return nil, fmt.Errorf("init matrix: %w", err)
		}
		return matrix, nil
	}
	if found {
		log.Printf("partial snapshot loaded path=%q", a.opts.SnapshotPath)
	}
	return matrix, nil
}

// persistProgress writes the snapshot and flushes the caches. Failures
// here are logged and absorbed: the in-memory state stays authoritative
// and the next flush retries.
func (a *Analyzer) persistProgress(ctx context.Context, m *domain.Matrix, done, total int) {
	if err := snapshot.Write(a.opts.SnapshotPath, m); err != nil {
		log.Printf("snapshot write failed: %v", err)
	} else {
		log.Printf("progress %d/%d saved", done, total)
	}
	a.flushCaches(ctx)
}

func (a *Analyzer) flushCaches(ctx context.Context) {
	if err := a.distances.Flush(ctx); err != nil {
		log.Printf("distance cache write failed: %v", err)
	}
	if err := a.geometries.Flush(ctx); err != nil {
		log.Printf("geometry cache write failed: %v", err)
	}
}
