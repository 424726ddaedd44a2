package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	registrymetrics "inheritx/internal/registry/metrics"
	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	dErrors "inheritx/pkg/domain-errors"
	"inheritx/pkg/platform/sentinel"
	"inheritx/pkg/requestcontext"
)

const tracerName = "inheritx/internal/registry/service"

var (
	ErrRegistryNotFound = dErrors.New(dErrors.CodeNotFound, "registry not found")
	ErrOwnerMismatch    = dErrors.New(dErrors.CodeConflict, "registry already exists with a different owner")
)

// Service exposes the registry operations over a Store. It owns no registry
// state itself; every mutation runs inside Store.Execute so the access guard,
// the finality gate and the ledger checks see one consistent snapshot.
//
// Rejections are returned to the caller unchanged and are not logged here.
type Service struct {
	registryID     id.RegistryID
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	auditLog       AuditLog
	auditEmitter   *auditEmitter
	metrics        *registrymetrics.Metrics
	tracer         trace.Tracer
}

// New constructs a Service bound to one registry.
func New(registryID id.RegistryID, store Store, opts ...Option) *Service {
	s := &Service{registryID: registryID, store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	s.auditEmitter = newAuditEmitter(registryID, s.logger, s.auditPublisher, s.metrics)
	return s
}

func (s *Service) RegistryID() id.RegistryID {
	return s.registryID
}

// Open creates the registry with owner if it does not exist yet. An existing
// registry is returned as long as its owner matches; ownership never changes.
func (s *Service) Open(ctx context.Context, owner id.Address) (*models.Registry, error) {
	var reg *models.Registry
	err := s.observe(ctx, "Open", func(ctx context.Context) error {
		existing, err := s.store.FindByID(ctx, s.registryID)
		switch {
		case err == nil:
			reg = existing
		case errors.Is(err, sentinel.ErrNotFound):
			reg, err = s.create(ctx, owner)
			if err != nil {
				return err
			}
		default:
			return wrapStoreErr(err)
		}
		if reg.Owner != owner {
			return ErrOwnerMismatch
		}
		s.recordState(reg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *Service) create(ctx context.Context, owner id.Address) (*models.Registry, error) {
	reg, err := models.NewRegistry(s.registryID, owner, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.Create(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a creation race; whoever won decides the owner.
			existing, findErr := s.store.FindByID(ctx, s.registryID)
			if findErr != nil {
				return nil, wrapStoreErr(findErr)
			}
			return existing, nil
		}
		return nil, wrapStoreErr(err)
	}
	s.logger.InfoContext(ctx, "registry created",
		"registry_id", s.registryID.String(),
		"owner", owner.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return reg, nil
}

// execute runs validate+mutate atomically against the stored registry.
func (s *Service) execute(ctx context.Context, validate func(*models.Registry) error, mutate func(*models.Registry)) (*models.Registry, error) {
	reg, err := s.store.Execute(ctx, s.registryID, validate, mutate)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	s.recordState(reg)
	return reg, nil
}

func (s *Service) load(ctx context.Context) (*models.Registry, error) {
	reg, err := s.store.FindByID(ctx, s.registryID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return reg, nil
}

// observe wraps one operation in a span and records its outcome.
func (s *Service) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+operation,
		trace.WithAttributes(attribute.String("registry.id", s.registryID.String())),
	)
	defer span.End()

	err := fn(ctx)
	outcome := registrymetrics.OutcomeSuccess
	if err != nil {
		outcome = registrymetrics.OutcomeError
		if kind := models.ErrorKind(err); kind != "" {
			outcome = registrymetrics.OutcomeRejected
			span.SetAttributes(attribute.String("registry.error_kind", kind))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, outcome, start)
	}
	return err
}

func (s *Service) recordState(reg *models.Registry) {
	if s.metrics != nil {
		s.metrics.SetState(len(reg.Beneficiaries), reg.DeathConfirmed)
	}
}

// wrapStoreErr passes domain errors through and translates store sentinels.
func wrapStoreErr(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return ErrRegistryNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registry operation aborted")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "registry store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "registry store failure")
	}
}
