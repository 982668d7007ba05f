package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"route-analyzer/internal/adapters/cache"
	"route-analyzer/internal/adapters/ors"
	"route-analyzer/internal/adapters/render"
	"route-analyzer/internal/config"
	"route-analyzer/internal/platform/db"
	"route-analyzer/internal/platform/obs"
	"route-analyzer/internal/ports"
	"route-analyzer/internal/services"
)

// main is the application composition root. It wires concrete adapters
// (cache backend, ORS, Leaflet renderer) behind ports and runs the
// selected build.
func main() {
	mode := flag.String("mode", "both", `run mode: "map", "matrix" or "both"`)
	clean := flag.Bool("clean", false, "delete snapshot, cache and output artifacts before running")
	flag.Parse()

	switch *mode {
	case "map", "matrix", "both":
	default:
		log.Fatalf("invalid -mode %q (want map, matrix or both)", *mode)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	pointsPath := config.Get("POINTS_PATH", "data/points.yaml")
	cachePath := config.Get("CACHE_DB_PATH", "data/cache.db")
	snapshotPath := config.Get("SNAPSHOT_PATH", "distance_matrix_partial.csv")
	artifactPath := config.Get("ARTIFACT_PATH", "distance_matrix.csv")
	mapPath := config.Get("MAP_PATH", "all_routes_map.html")
	workers := config.GetInt("WORKERS", 4)
	snapshotEvery := config.GetInt("SNAPSHOT_EVERY", 5)

	if *clean {
		removeArtifacts(snapshotPath, artifactPath, mapPath, cachePath)
	}

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	points, err := config.LoadPoints(pointsPath)
	if err != nil {
		log.Fatal(err)
	}

	backend, closeBackend, err := openBackend(cachePath)
	if err != nil {
		log.Fatal(err)
	}
	defer closeBackend()

	provider, err := ors.NewORSProvider(orsKey)
	if err != nil {
		log.Fatal(err)
	}

	distances := cache.NewDistanceCache(backend)
	geometries := cache.NewGeometryCache(backend)
	resolver := services.NewResolver(provider, distances, geometries, services.DefaultRetryPolicy())

	// The map centers on the first registry point (the depot, by
	// convention).
	renderer := render.NewLeafletMap(points[0].Coord, 14)

	analyzer := services.NewAnalyzer(points, resolver, distances, geometries, renderer, services.Options{
		SnapshotPath:  snapshotPath,
		ArtifactPath:  artifactPath,
		MapPath:       mapPath,
		Workers:       workers,
		SnapshotEvery: snapshotEvery,
	})

	ctx := obs.WithRunID(context.Background())
	log.Printf("run_id=%s mode=%s points=%d", obs.RunID(ctx), *mode, len(points))

	if *mode == "map" || *mode == "both" {
		if err := analyzer.BuildRouteMap(ctx); err != nil {
			log.Fatal(err)
		}
	}

	if *mode == "matrix" || *mode == "both" {
		_, artifact, err := analyzer.BuildDistanceMatrix(ctx)
		if err != nil {
			log.Fatal(err)
		}
		if artifact != artifactPath {
			log.Printf("warning: canonical target was locked, matrix saved as %q", artifact)
		} else {
			log.Printf("final matrix saved path=%q", artifact)
		}
	}

	log.Printf("run_id=%s done", obs.RunID(ctx))
}

// openBackend picks the cache persistence backend from the environment:
// Redis when REDIS_ADDR is set, Postgres when DATABASE_URL is set,
// local SQLite otherwise.
func openBackend(sqlitePath string) (ports.CacheBackend, func(), error) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		return cache.NewRedisBackend(client), func() { _ = client.Close() }, nil
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		pg, err := db.OpenPostgres(url)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewPostgresBackend(pg), func() { _ = pg.Close() }, nil
	}

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return nil, nil, err
	}
	lite, err := db.OpenSqlite(sqlitePath)
	if err != nil {
		return nil, nil, err
	}

	backend := cache.NewSqliteBackend(lite)
	if err := backend.InitSchema(context.Background()); err != nil {
		_ = lite.Close()
		return nil, nil, err
	}
	return backend, func() { _ = lite.Close() }, nil
}

func removeArtifacts(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("clean: %v", err)
			}
			continue
		}
		log.Printf("removed file: %s", path)
	}
}
