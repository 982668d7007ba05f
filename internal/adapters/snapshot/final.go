package snapshot

import (
	"fmt"
	"io"
	"log"
	"os"

	"route-analyzer/internal/domain"
)

// FinalWriter commits the durable matrix artifact. When the target is
// held open by another process (a spreadsheet viewer, typically) the
// write is retried under an incrementing suffix instead of waiting on
// or clobbering the locked file.
type FinalWriter struct {
	// MaxAttempts bounds how many alternate names are tried, the
	// canonical name included.
	MaxAttempts int

	// open is swappable in tests; defaults to exclusive-intent
	// os.OpenFile.
	open func(path string) (io.WriteCloser, error)
}

const defaultMaxAttempts = 10

func NewFinalWriter() *FinalWriter {
	return &FinalWriter{
		MaxAttempts: defaultMaxAttempts,
		open:        openForWrite,
	}
}

func openForWrite(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
}

// Commit writes the matrix to path, falling back to path_1, path_2, …
// when the target cannot be opened. It returns the name actually used;
// the caller surfaces a warning when that differs from the canonical
// one. Exhausting all attempts is the only persistence failure this
// package reports upward.
func (w *FinalWriter) Commit(path string, m *domain.Matrix) (string, error) {
	attempts := w.MaxAttempts
	if attempts < 1 {
		attempts = defaultMaxAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		target := path
		if i > 0 {
			target = suffixed(path, i)
		}

		f, err := w.open(target)
		if err != nil {
			lastErr = err
			log.Printf("final artifact target=%q unavailable: %v", target, err)
			continue
		}

		if err := writeMatrix(f, m); err != nil {
			f.Close()
			return "", fmt.Errorf("commit final artifact %q: %w", target, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("commit final artifact: close %q: %w", target, err)
		}
		return target, nil
	}

	return "", fmt.Errorf("commit final artifact: all %d names unavailable: %w", attempts, lastErr)
}
