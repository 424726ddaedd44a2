package store

import (
	"context"
	"sync"

	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	"inheritx/pkg/platform/sentinel"
)

// InMemoryStore keeps registries in a map behind one mutex. Callers only
// ever see clones.
type InMemoryStore struct {
	mu         sync.Mutex
	registries map[id.RegistryID]*models.Registry
	cfg        config
}

func NewInMemory(opts ...Option) *InMemoryStore {
	return &InMemoryStore{
		registries: make(map[id.RegistryID]*models.Registry),
		cfg:        newConfig(opts),
	}
}

func (s *InMemoryStore) Create(_ context.Context, reg *models.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registries[reg.ID]; ok {
		return sentinel.ErrConflict
	}
	s.registries[reg.ID] = reg.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, registryID id.RegistryID) (*models.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registries[registryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return reg.Clone(), nil
}

func (s *InMemoryStore) Execute(ctx context.Context, registryID id.RegistryID, validate func(*models.Registry) error, mutate func(*models.Registry)) (*models.Registry, error) {
	ctx, cancel := s.cfg.withTimeout(ctx)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check again after acquiring the lock
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, ok := s.registries[registryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.registries[registryID] = working
	return working.Clone(), nil
}
