package services

import (
	"fmt"

	"route-analyzer/internal/domain"
)

// WorkItem is one unresolved unordered pair, consumed exactly once by
// the executor.
type WorkItem struct {
	A, B domain.Point
}

// PendingPairs enumerates the unordered pairs (i, j), i < j, whose
// matrix cell still needs work, in the lexicographic pair order of the
// input list. Cells resolved by a previous run are skipped; cells the
// previous run failed on (unresolved sentinel) are re-queued, so a
// resumed run retries failures but never successes.
func PendingPairs(points []domain.Point, m *domain.Matrix) ([]WorkItem, error) {
	var items []WorkItem
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			cell, err := m.Cell(points[i].Name, points[j].Name)
			if err != nil {
				return nil, fmt.Errorf("pending pairs: %w", err)
			}
			if cell.State == domain.CellResolved {
				continue
			}
			items = append(items, WorkItem{A: points[i], B: points[j]})
		}
	}
	return items, nil
}

// AllPairs enumerates every unordered pair in the same order.
func AllPairs(points []domain.Point) []WorkItem {
	var items []WorkItem
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			items = append(items, WorkItem{A: points[i], B: points[j]})
		}
	}
	return items
}
