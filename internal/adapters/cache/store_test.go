package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"route-analyzer/internal/ports"
)

// fakeBackend records Save calls and can be scripted to fail.
type fakeBackend struct {
	entries  map[ports.CacheKind]map[string]string
	loadErr  error
	saveErr  error
	saveCnt  int
	lastSave map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: map[ports.CacheKind]map[string]string{}}
}

func (f *fakeBackend) Load(_ context.Context, kind ports.CacheKind) (map[string]string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[string]string, len(f.entries[kind]))
	for k, v := range f.entries[kind] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBackend) Save(_ context.Context, kind ports.CacheKind, entries map[string]string) error {
	f.saveCnt++
	f.lastSave = entries
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.entries[kind] == nil {
		f.entries[kind] = map[string]string{}
	}
	for k, v := range entries {
		f.entries[kind][k] = v
	}
	return nil
}

var _ ports.CacheBackend = (*fakeBackend)(nil)

func TestStoreLoadMergesPersistedEntries(t *testing.T) {
	backend := newFakeBackend()
	backend.entries[ports.DistanceKind] = map[string]string{"k1": "12.50"}

	s := NewStore(ports.DistanceKind, backend)
	s.Load(context.Background())

	v, ok := s.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "12.50", v)
}

func TestStoreLoadFailureYieldsEmptyStore(t *testing.T) {
	backend := newFakeBackend()
	backend.loadErr = errors.New("disk gone")

	s := NewStore(ports.DistanceKind, backend)
	s.Load(context.Background())

	assert.Equal(t, 0, s.Len())
	_, ok := s.Get("k1")
	assert.False(t, ok)
}

func TestStoreFlushWritesOnlyDirtyEntries(t *testing.T) {
	backend := newFakeBackend()
	backend.entries[ports.DistanceKind] = map[string]string{"old": "1.00"}

	s := NewStore(ports.DistanceKind, backend)
	s.Load(context.Background())
	s.Put("new", "2.00")

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, map[string]string{"new": "2.00"}, backend.lastSave)

	// Nothing dirty left; second flush is a no-op.
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, backend.saveCnt)
}

func TestStoreFlushFailureKeepsDirtySet(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(ports.DistanceKind, backend)
	s.Put("k", "3.00")

	backend.saveErr = errors.New("io error")
	require.Error(t, s.Flush(context.Background()))

	// In-memory value stays authoritative and is retried next time.
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "3.00", v)

	backend.saveErr = nil
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, map[string]string{"k": "3.00"}, backend.entries[ports.DistanceKind])
}

func TestStoreNilBackendIsMemoryOnly(t *testing.T) {
	s := NewStore(ports.DistanceKind, nil)
	s.Load(context.Background())
	s.Put("k", "1.00")
	require.NoError(t, s.Flush(context.Background()))

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "1.00", v)
}
