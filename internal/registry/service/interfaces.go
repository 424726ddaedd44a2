package service

import (
	"context"

	"inheritx/internal/audit"
	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher,AuditLog

// Store persists the registry aggregate.
//
// Execute is the serialization boundary: implementations hold a
// registry-wide lock (mutex, FOR UPDATE or WATCH) across validate and mutate,
// and persist the mutation only when validate returns nil. Errors returned by
// validate must be passed back unchanged.
type Store interface {
	Create(ctx context.Context, reg *models.Registry) error
	FindByID(ctx context.Context, registryID id.RegistryID) (*models.Registry, error)
	Execute(ctx context.Context, registryID id.RegistryID, validate func(*models.Registry) error, mutate func(*models.Registry)) (*models.Registry, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// AuditLog reads back the audit trail for a registry.
type AuditLog interface {
	ListByRegistry(ctx context.Context, registryID id.RegistryID) ([]audit.Event, error)
}
