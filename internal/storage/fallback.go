package storage

import (
	"context"
	"log/slog"
	"sync"
)

// FallbackStore serves from primary until it reports ErrStorageUnavailable,
// then keeps the rest of the session in memory. It never switches back.
type FallbackStore struct {
	primary Store

	mu       sync.Mutex
	degraded bool
	memory   *MemoryStore
}

func NewFallbackStore(primary Store) *FallbackStore {
	return &FallbackStore{
		primary: primary,
		memory:  NewMemoryStore(),
	}
}

func (s *FallbackStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *FallbackStore) active() Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return s.memory
	}
	return s.primary
}

func (s *FallbackStore) degrade(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return
	}
	s.degraded = true
	slog.Default().Warn("storage unavailable, keeping changes in memory for this session",
		slog.Any("error", err),
	)
}

func (s *FallbackStore) Get(ctx context.Context, key string) (string, bool, error) {
	store := s.active()
	value, ok, err := store.Get(ctx, key)
	if err != nil && store != Store(s.memory) && IsUnavailable(err) {
		s.degrade(err)
		return s.memory.Get(ctx, key)
	}
	return value, ok, err
}

func (s *FallbackStore) Set(ctx context.Context, key string, value string) error {
	store := s.active()
	err := store.Set(ctx, key, value)
	if err != nil && store != Store(s.memory) && IsUnavailable(err) {
		s.degrade(err)
		return s.memory.Set(ctx, key, value)
	}
	return err
}

func (s *FallbackStore) Remove(ctx context.Context, key string) error {
	store := s.active()
	err := store.Remove(ctx, key)
	if err != nil && store != Store(s.memory) && IsUnavailable(err) {
		s.degrade(err)
		return s.memory.Remove(ctx, key)
	}
	return err
}
