package pool

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs a work item with what its worker produced. Err is set
// only when the worker panicked; ordinary failures are expected to be
// encoded in R by the worker itself.
type Outcome[T, R any] struct {
	Item   T
	Result R
	Err    error
}

// Run executes fn over items with at most workers goroutines in flight
// and streams outcomes in completion order. A panic in fn is recovered
// and reported as that item's Err; it never aborts sibling items. The
// returned channel is closed after the last outcome.
func Run[T, R any](items []T, workers int, fn func(T) R) <-chan Outcome[T, R] {
	if workers < 1 {
		workers = 1
	}

	out := make(chan Outcome[T, R], len(items))

	var g errgroup.Group
	g.SetLimit(workers)

	go func() {
		for _, item := range items {
			item := item
			g.Go(func() error {
				out <- run(item, fn)
				// Worker errors are carried in the outcome, never
				// returned to the group: one failure must not cancel
				// the batch.
				return nil
			})
		}
		_ = g.Wait()
		close(out)
	}()

	return out
}

func run[T, R any](item T, fn func(T) R) (o Outcome[T, R]) {
	o.Item = item
	defer func() {
		if r := recover(); r != nil {
			o.Err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	o.Result = fn(item)
	return o
}
