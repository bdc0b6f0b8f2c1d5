package vault

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	refs map[string]Ref
}

// NewMemory creates a concurrency-safe in-memory vault store useful for unit
// tests and storeless development runs.
func NewMemory() Store {
	return &memoryStore{refs: make(map[string]Ref)}
}

func (s *memoryStore) Get(_ context.Context, shopperKey string) (Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[shopperKey]
	if !ok {
		return Ref{}, ErrNoVaultedCard
	}
	return ref, nil
}

func (s *memoryStore) Put(_ context.Context, shopperKey string, ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[shopperKey] = ref
	return nil
}

func (s *memoryStore) Delete(_ context.Context, shopperKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refs, shopperKey)
	return nil
}
