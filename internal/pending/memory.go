package pending

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store backed by a mutex-guarded map.
// Entries expire after the configured TTL; expired entries are swept
// lazily on Put and by the optional background sweeper.
type MemoryStore struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	verifier  string
	createdAt time.Time
}

// MemoryOption configures the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a MemoryStore with the given entry TTL.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Put inserts an entry, overwriting any prior entry for the same state.
// Expired entries are swept opportunistically to bound memory growth
// from abandoned flows.
func (s *MemoryStore) Put(ctx context.Context, state, verifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.entries[state] = memoryEntry{verifier: verifier, createdAt: s.now()}
	return nil
}

// Take atomically looks up and removes the verifier for a state token.
func (s *MemoryStore) Take(ctx context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[state]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, state)

	if s.now().Sub(entry.createdAt) > s.ttl {
		return "", ErrNotFound
	}
	return entry.verifier, nil
}

// StartSweeper runs a periodic sweep until Close is called. The sweep
// holds the lock only while deleting already-expired entries.
func (s *MemoryStore) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.sweepLocked()
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for state, entry := range s.entries {
		if entry.createdAt.Before(cutoff) {
			delete(s.entries, state)
		}
	}
}
