// Package snapshot persists the distance matrix: resumable partial
// snapshots during a build and the durable final artifact at the end.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"route-analyzer/internal/domain"
)

// Matrix cell sentinels as written to disk.
const (
	SelfSentinel       = "X"
	UnresolvedSentinel = "-"
)

func encodeCell(c domain.Cell) string {
	switch c.State {
	case domain.CellSelf:
		return SelfSentinel
	case domain.CellResolved:
		return strconv.FormatFloat(c.Km, 'f', 2, 64)
	case domain.CellUnresolved:
		return UnresolvedSentinel
	default:
		return ""
	}
}

func writeMatrix(w io.Writer, m *domain.Matrix) error {
	names := m.Names()
	cells := m.Snapshot()

	cw := csv.NewWriter(w)

	header := append([]string{""}, names...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, name := range names {
		row := make([]string, 0, 1+len(names))
		row = append(row, name)
		for j := range names {
			row = append(row, encodeCell(cells[i][j]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Write saves a partial snapshot of the matrix. The file is written to
// a temporary sibling and renamed so an interrupted write never leaves
// a truncated snapshot behind.
func Write(path string, m *domain.Matrix) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("snapshot: create %q: %w", tmp, err)
	}

	if err := writeMatrix(f, m); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: close %q: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: rename to %q: %w", path, err)
	}
	return nil
}

// Load merges a previously saved snapshot into the matrix, keyed by row
// and column name so rows from a changed registry still apply where the
// names match. Unknown names are skipped. Returns false when no
// snapshot exists.
func Load(path string, m *domain.Matrix) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load snapshot: open %q: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return false, fmt.Errorf("load snapshot: parse %q: %w", path, err)
	}
	if len(records) < 2 {
		return false, nil
	}

	known := make(map[string]struct{})
	for _, name := range m.Names() {
		known[name] = struct{}{}
	}

	header := records[0]
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		rowName := row[0]
		if _, ok := known[rowName]; !ok {
			continue
		}

		for col := 1; col < len(row) && col < len(header); col++ {
			colName := header[col]
			if _, ok := known[colName]; !ok || colName == rowName {
				continue
			}

			switch value := row[col]; value {
			case "", SelfSentinel:
				// pending or diagonal: nothing to apply
			case UnresolvedSentinel:
				if err := m.SetUnresolved(rowName, colName); err != nil {
					return false, fmt.Errorf("load snapshot: %w", err)
				}
			default:
				km, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return false, fmt.Errorf(
						"load snapshot: cell (%q,%q) holds %q: %w",
						rowName, colName, value, err,
					)
				}
				if err := m.SetDistance(rowName, colName, km); err != nil {
					return false, fmt.Errorf("load snapshot: %w", err)
				}
			}
		}
	}

	return true, nil
}

// suffixed derives the fallback artifact name: matrix.csv -> matrix_1.csv.
func suffixed(path string, n int) string {
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}
