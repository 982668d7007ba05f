package cache

import (
	"context"
	"log"
	"sync"

	"route-analyzer/internal/ports"
)

// Store is the in-memory pair cache shared by all workers. A single
// mutex serializes every access; the persisted backend is only touched
// by Load and Flush. After a failed Flush the in-memory state remains
// authoritative and the dirty entries are retried on the next Flush.
type Store struct {
	mu      sync.Mutex
	kind    ports.CacheKind
	backend ports.CacheBackend
	entries map[string]string
	dirty   map[string]struct{}
}

func NewStore(kind ports.CacheKind, backend ports.CacheBackend) *Store {
	return &Store{
		kind:    kind,
		backend: backend,
		entries: make(map[string]string),
		dirty:   make(map[string]struct{}),
	}
}

// Load replaces the in-memory entries with the persisted ones. A
// missing or unreadable backend yields an empty store with a logged
// warning; it never fails the run.
func (s *Store) Load(ctx context.Context) {
	if s.backend == nil {
		return
	}

	persisted, err := s.backend.Load(ctx, s.kind)
	if err != nil {
		log.Printf("cache=%s load failed, starting empty: %v", s.kind, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range persisted {
		s.entries[k] = v
	}
}

// Get returns the cached value for key, if present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Put records a value and marks it for the next Flush.
func (s *Store) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	s.dirty[key] = struct{}{}
}

// Len returns the number of in-memory entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Flush persists entries written since the last successful Flush.
// On failure the dirty set is kept so nothing is lost; the caller
// decides whether to log (flush failures are never fatal).
func (s *Store) Flush(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	s.mu.Lock()
	if len(s.dirty) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := make(map[string]string, len(s.dirty))
	for k := range s.dirty {
		pending[k] = s.entries[k]
	}
	s.mu.Unlock()

	// Backend I/O happens outside the lock so workers are not blocked
	// on a slow flush.
	if err := s.backend.Save(ctx, s.kind, pending); err != nil {
		return err
	}

	s.mu.Lock()
	for k := range pending {
		delete(s.dirty, k)
	}
	s.mu.Unlock()
	return nil
}
