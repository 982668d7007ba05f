package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePoints(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPointsPreservesOrder(t *testing.T) {
	path := writePoints(t, `
points:
  - name: Depot
    lat: 55.7558
    lon: 37.6173
  - name: North Shop
    lat: 55.76
    lon: 37.62
  - name: South Shop
    lat: 55.70
    lon: 37.60
`)

	points, err := LoadPoints(path)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "Depot", points[0].Name)
	assert.Equal(t, "North Shop", points[1].Name)
	assert.Equal(t, "South Shop", points[2].Name)
	assert.Equal(t, 37.6173, points[0].Coord.Lon)
	assert.Equal(t, 55.7558, points[0].Coord.Lat)
}

func TestLoadPointsRejectsDuplicates(t *testing.T) {
	path := writePoints(t, `
points:
  - name: Depot
    lat: 1
    lon: 2
  - name: Depot
    lat: 3
    lon: 4
`)

	_, err := LoadPoints(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadPointsRejectsBadCoordinates(t *testing.T) {
	path := writePoints(t, `
points:
  - name: Depot
    lat: 123.0
    lon: 2
`)

	_, err := LoadPoints(path)
	require.Error(t, err)
}

func TestLoadPointsMissingFile(t *testing.T) {
	_, err := LoadPoints(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadPointsEmptyRegistry(t *testing.T) {
	path := writePoints(t, "points: []\n")

	_, err := LoadPoints(path)
	require.Error(t, err)
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("ROUTE_ANALYZER_TEST_KEY", "")
	assert.Equal(t, "default", Get("ROUTE_ANALYZER_TEST_KEY", "default"))

	t.Setenv("ROUTE_ANALYZER_TEST_KEY", "value")
	assert.Equal(t, "value", Get("ROUTE_ANALYZER_TEST_KEY", "default"))
}

func TestGetIntFallsBack(t *testing.T) {
	t.Setenv("ROUTE_ANALYZER_TEST_INT", "not-a-number")
	assert.Equal(t, 7, GetInt("ROUTE_ANALYZER_TEST_INT", 7))

	t.Setenv("ROUTE_ANALYZER_TEST_INT", "12")
	assert.Equal(t, 12, GetInt("ROUTE_ANALYZER_TEST_INT", 7))
}
