// Package registry assembles the inheritance registry: an opened service bound
// to one registry instance, and the HTTP handler in front of it.
package registry

import (
	"context"
	"log/slog"

	"inheritx/internal/platform/middleware"
	"inheritx/internal/registry/handler"
	"inheritx/internal/registry/service"
	id "inheritx/pkg/domain"
)

// Config names the registry instance and its collaborators.
type Config struct {
	RegistryID id.RegistryID
	Owner      id.Address
	Store      service.Store
	Validator  middleware.JWTValidator
	Logger     *slog.Logger
}

// Module bundles the registry service and its HTTP handler.
type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

// New opens (or creates) the registry and returns it ready to serve.
// Reopening with a different owner fails with service.ErrOwnerMismatch.
func New(ctx context.Context, cfg Config, opts ...service.Option) (*Module, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	svc := service.New(cfg.RegistryID, cfg.Store, append([]service.Option{service.WithLogger(logger)}, opts...)...)
	if _, err := svc.Open(ctx, cfg.Owner); err != nil {
		return nil, err
	}
	return &Module{
		Service: svc,
		Handler: handler.New(svc, logger, cfg.Validator),
	}, nil
}
