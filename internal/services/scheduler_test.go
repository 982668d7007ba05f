package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-analyzer/internal/domain"
)

func registry() []domain.Point {
	return []domain.Point{
		{Name: "A", Coord: domain.Coordinates{Lon: 1, Lat: 1}},
		{Name: "B", Coord: domain.Coordinates{Lon: 2, Lat: 2}},
		{Name: "C", Coord: domain.Coordinates{Lon: 3, Lat: 3}},
	}
}

func pairNames(items []WorkItem) [][2]string {
	out := make([][2]string, 0, len(items))
	for _, it := range items {
		out = append(out, [2]string{it.A.Name, it.B.Name})
	}
	return out
}

func TestPendingPairsEmptyMatrixListsAll(t *testing.T) {
	points := registry()
	m, err := domain.NewMatrix([]string{"A", "B", "C"})
	require.NoError(t, err)

	items, err := PendingPairs(points, m)
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"A", "B"}, {"A", "C"}, {"B", "C"}}, pairNames(items))
}

func TestPendingPairsSkipsResolvedRequeuesUnresolved(t *testing.T) {
	points := registry()
	m, err := domain.NewMatrix([]string{"A", "B", "C"})
	require.NoError(t, err)

	require.NoError(t, m.SetDistance("A", "B", 10))
	require.NoError(t, m.SetUnresolved("A", "C"))

	items, err := PendingPairs(points, m)
	require.NoError(t, err)

	// Resolved (A,B) is skipped; the prior failure (A,C) is retried.
	assert.Equal(t, [][2]string{{"A", "C"}, {"B", "C"}}, pairNames(items))
}

func TestPendingPairsUnknownNameFails(t *testing.T) {
	m, err := domain.NewMatrix([]string{"A", "B"})
	require.NoError(t, err)

	_, err = PendingPairs(registry(), m)
	require.Error(t, err)
}

func TestAllPairsCount(t *testing.T) {
	items := AllPairs(registry())
	assert.Len(t, items, 3)
}
