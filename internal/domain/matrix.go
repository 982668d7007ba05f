package domain

import (
	"fmt"
	"sync"
)

// CellState identifies what a matrix cell currently holds.
type CellState int

const (
	// CellEmpty marks a pair that has never been attempted.
	CellEmpty CellState = iota
	// CellSelf marks the diagonal.
	CellSelf
	// CellResolved marks a pair with a computed distance.
	CellResolved
	// CellUnresolved marks a pair that failed permanently or exhausted
	// its retries. Unresolved pairs are re-queued on resume.
	CellUnresolved
)

// Cell is a single matrix entry. Km is meaningful only when State is
// CellResolved.
type Cell struct {
	State CellState
	Km    float64
}

// Matrix is a symmetric distance table indexed by point name on both
// axes. Writes always cover a cell and its mirror under one lock, so a
// concurrent reader (the snapshot writer) never observes half a pair.
type Matrix struct {
	mu    sync.RWMutex
	names []string
	index map[string]int
	cells [][]Cell
}

// NewMatrix builds an empty matrix for the given axis order. The
// diagonal is initialized to the self sentinel.
func NewMatrix(names []string) (*Matrix, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("new matrix: empty point name at index %d", i)
		}
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("new matrix: duplicate point name %q", name)
		}
		index[name] = i
	}

	cells := make([][]Cell, len(names))
	for i := range cells {
		cells[i] = make([]Cell, len(names))
		cells[i][i] = Cell{State: CellSelf}
	}

	return &Matrix{
		names: append([]string(nil), names...),
		index: index,
		cells: cells,
	}, nil
}

// Names returns the axis order.
func (m *Matrix) Names() []string {
	return append([]string(nil), m.names...)
}

// Cell returns the entry for the given pair of point names.
func (m *Matrix) Cell(a, b string) (Cell, error) {
	i, j, err := m.locate(a, b)
	if err != nil {
		return Cell{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cells[i][j], nil
}

// SetDistance records a resolved distance for the pair and its mirror.
func (m *Matrix) SetDistance(a, b string, km float64) error {
	return m.setPair(a, b, Cell{State: CellResolved, Km: km})
}

// SetUnresolved marks the pair and its mirror as unresolved.
func (m *Matrix) SetUnresolved(a, b string) error {
	return m.setPair(a, b, Cell{State: CellUnresolved})
}

func (m *Matrix) setPair(a, b string, c Cell) error {
	i, j, err := m.locate(a, b)
	if err != nil {
		return err
	}
	if i == j {
		return fmt.Errorf("matrix: cannot set diagonal cell %q", a)
	}

	m.mu.Lock()
	m.cells[i][j] = c
	m.cells[j][i] = c
	m.mu.Unlock()
	return nil
}

func (m *Matrix) locate(a, b string) (int, int, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, 0, fmt.Errorf("matrix: unknown point %q", a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, 0, fmt.Errorf("matrix: unknown point %q", b)
	}
	return i, j, nil
}

// Snapshot returns a deep copy of the cells in axis order, taken under
// the write lock so it reflects only fully applied pairs.
func (m *Matrix) Snapshot() [][]Cell {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]Cell, len(m.cells))
	for i, row := range m.cells {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}
