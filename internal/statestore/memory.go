package statestore

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStore lives for the process only; used by tests and --state-backend=memory.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if x, found := s.cache.Get(key); found {
		if v, ok := x.(string); ok && v != "" {
			return v, nil
		}
	}
	return "", ErrNotFound
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
