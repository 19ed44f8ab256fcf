package memory

import (
	"context"
	"sync"
)

// NameStore keeps session display names in memory.
type NameStore struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewNameStore() *NameStore {
	return &NameStore{names: make(map[string]string)}
}

func (s *NameStore) GetName(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[sessionID], nil
}

func (s *NameStore) SetName(_ context.Context, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[sessionID] = name
	return nil
}

func (s *NameStore) DeleteName(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, sessionID)
	return nil
}
