package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-analyzer/internal/adapters/cache"
	"route-analyzer/internal/adapters/ors"
	"route-analyzer/internal/domain"
	"route-analyzer/internal/ports"
)

// fakeRenderer records what the orchestrator drew.
type fakeRenderer struct {
	mu        sync.Mutex
	markers   []string
	polylines int
	savedTo   string
}

func (f *fakeRenderer) AddMarker(name string, _ domain.Coordinates) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers = append(f.markers, name)
}

func (f *fakeRenderer) AddPolyline(_ []domain.Coordinates) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polylines++
}

func (f *fakeRenderer) Save(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedTo = path
	return nil
}

var _ ports.MapRenderer = (*fakeRenderer)(nil)

type fixture struct {
	analyzer *Analyzer
	provider *ors.MockRouteProvider
	renderer *fakeRenderer
	points   []domain.Point
	opts     Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	points := registry()

	provider := ors.NewMockRouteProvider()
	distances := cache.NewDistanceCache(nil)
	geometries := cache.NewGeometryCache(nil)
	renderer := &fakeRenderer{}

	resolver := NewResolver(provider, distances, geometries, testPolicy())
	resolver.sleep = func(context.Context, time.Duration) bool { return true }

	opts := Options{
		SnapshotPath:  filepath.Join(dir, "distance_matrix_partial.csv"),
		ArtifactPath:  filepath.Join(dir, "distance_matrix.csv"),
		MapPath:       filepath.Join(dir, "all_routes_map.html"),
		Workers:       3,
		SnapshotEvery: 2,
	}

	return &fixture{
		analyzer: NewAnalyzer(points, resolver, distances, geometries, renderer, opts),
		provider: provider,
		renderer: renderer,
		points:   points,
		opts:     opts,
	}
}

func (f *fixture) scriptAllPairs(meters float64) {
	for _, item := range AllPairs(f.points) {
		f.provider.Script(item.A.Coord, item.B.Coord, routeOK(meters))
	}
}

func TestBuildDistanceMatrixResolvesAllPairs(t *testing.T) {
	f := newFixture(t)
	f.scriptAllPairs(10000)

	matrix, artifact, err := f.analyzer.BuildDistanceMatrix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.opts.ArtifactPath, artifact)

	names := matrix.Names()
	for _, a := range names {
		for _, b := range names {
			cell, err := matrix.Cell(a, b)
			require.NoError(t, err)
			if a == b {
				assert.Equal(t, domain.CellSelf, cell.State)
				continue
			}
			assert.Equal(t, domain.CellResolved, cell.State)
			assert.Equal(t, 10.0, cell.Km)

			mirror, err := matrix.Cell(b, a)
			require.NoError(t, err)
			assert.Equal(t, cell, mirror)
		}
	}

	// Final snapshot and artifact are both on disk.
	_, err = os.Stat(f.opts.SnapshotPath)
	assert.NoError(t, err)
	_, err = os.Stat(artifact)
	assert.NoError(t, err)
}

func TestBuildDistanceMatrixIsolatesPermanentFailure(t *testing.T) {
	f := newFixture(t)
	items := AllPairs(f.points)
	for _, item := range items {
		if item.A.Name == "A" && item.B.Name == "C" {
			f.provider.Script(item.A.Coord, item.B.Coord, routeErr(ports.RouteErrNoRoute))
			continue
		}
		f.provider.Script(item.A.Coord, item.B.Coord, routeOK(5000))
	}

	matrix, _, err := f.analyzer.BuildDistanceMatrix(context.Background())
	require.NoError(t, err)

	ac, err := matrix.Cell("A", "C")
	require.NoError(t, err)
	ca, err := matrix.Cell("C", "A")
	require.NoError(t, err)
	assert.Equal(t, domain.CellUnresolved, ac.State)
	assert.Equal(t, domain.CellUnresolved, ca.State)

	// The failure did not prevent any other pair from resolving.
	for _, pair := range [][2]string{{"A", "B"}, {"B", "C"}} {
		cell, err := matrix.Cell(pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, domain.CellResolved, cell.State)
	}
}

func TestBuildDistanceMatrixResumeRetriesOnlyFailures(t *testing.T) {
	f := newFixture(t)
	items := AllPairs(f.points)
	for _, item := range items {
		if item.A.Name == "A" && item.B.Name == "C" {
			f.provider.Script(item.A.Coord, item.B.Coord,
				routeErr(ports.RouteErrNoRoute), routeOK(7000))
			continue
		}
		f.provider.Script(item.A.Coord, item.B.Coord, routeOK(5000))
	}

	ctx := context.Background()

	_, _, err := f.analyzer.BuildDistanceMatrix(ctx)
	require.NoError(t, err)
	callsAfterFirst := f.provider.TotalCalls()
	assert.Equal(t, 3, callsAfterFirst)

	// Resumed run re-queues only the failed pair.
	_, _, err = f.analyzer.BuildDistanceMatrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst+1, f.provider.TotalCalls())
}

func TestBuildDistanceMatrixSecondRunIsFreeFromCache(t *testing.T) {
	f := newFixture(t)
	f.scriptAllPairs(5000)
	ctx := context.Background()

	_, _, err := f.analyzer.BuildDistanceMatrix(ctx)
	require.NoError(t, err)
	calls := f.provider.TotalCalls()

	// Even with the snapshot gone, the cache answers every pair.
	require.NoError(t, os.Remove(f.opts.SnapshotPath))

	_, _, err = f.analyzer.BuildDistanceMatrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, f.provider.TotalCalls())
}

func TestBuildRouteMapOmitsFailedSegments(t *testing.T) {
	f := newFixture(t)
	items := AllPairs(f.points)
	for _, item := range items {
		if item.A.Name == "B" && item.B.Name == "C" {
			f.provider.Script(item.A.Coord, item.B.Coord, routeErr(ports.RouteErrNoRoute))
			continue
		}
		f.provider.Script(item.A.Coord, item.B.Coord, routeOK(5000))
	}

	require.NoError(t, f.analyzer.BuildRouteMap(context.Background()))

	assert.ElementsMatch(t, []string{"A", "B", "C"}, f.renderer.markers)
	assert.Equal(t, 2, f.renderer.polylines)
	assert.Equal(t, f.opts.MapPath, f.renderer.savedTo)
}

func TestBuildRouteMapReusesMatrixCalls(t *testing.T) {
	f := newFixture(t)
	f.scriptAllPairs(5000)
	ctx := context.Background()

	_, _, err := f.analyzer.BuildDistanceMatrix(ctx)
	require.NoError(t, err)
	calls := f.provider.TotalCalls()

	// Geometry was cached alongside the distances.
	require.NoError(t, f.analyzer.BuildRouteMap(ctx))
	assert.Equal(t, calls, f.provider.TotalCalls())
}
