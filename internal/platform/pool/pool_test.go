package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunProcessesAllItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got := make(map[int]int)
	for o := range Run(items, 3, func(n int) int { return n * 2 }) {
		require.NoError(t, o.Err)
		got[o.Item] = o.Result
	}

	assert.Equal(t, map[int]int{1: 2, 2: 4, 3: 6, 4: 8, 5: 10}, got)
}

func TestRunNeverExceedsWorkerBound(t *testing.T) {
	const workers = 3
	items := make([]int, 50)

	var inFlight, peak int64
	var mu sync.Mutex

	results := Run(items, workers, func(int) struct{} {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return struct{}{}
	})

	count := 0
	for range results {
		count++
	}

	assert.Equal(t, len(items), count)
	assert.LessOrEqual(t, peak, int64(workers))
}

func TestRunIsolatesPanics(t *testing.T) {
	items := []int{1, 2, 3}

	panicked := 0
	succeeded := 0
	for o := range Run(items, 2, func(n int) int {
		if n == 2 {
			panic("boom")
		}
		return n
	}) {
		if o.Err != nil {
			panicked++
			assert.Equal(t, 2, o.Item)
		} else {
			succeeded++
		}
	}

	assert.Equal(t, 1, panicked)
	assert.Equal(t, 2, succeeded)
}

func TestRunEmptyInput(t *testing.T) {
	count := 0
	for range Run(nil, 4, func(n int) int { return n }) {
		count++
	}
	assert.Zero(t, count)
}
