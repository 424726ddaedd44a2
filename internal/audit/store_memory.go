package audit

import (
	"context"
	"sync"

	id "inheritx/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.RegistryID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.RegistryID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RegistryID] = append(s.events[event.RegistryID], event)
	return nil
}

// ListByRegistry returns events in append order.
func (s *InMemoryStore) ListByRegistry(_ context.Context, registryID id.RegistryID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[registryID]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.RegistryID][]Event)
}
