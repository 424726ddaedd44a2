package service

import (
	"context"
	"log/slog"

	"inheritx/internal/audit"
	registrymetrics "inheritx/internal/registry/metrics"
	id "inheritx/pkg/domain"
	"inheritx/pkg/requestcontext"
)

// auditEmitter records committed mutations. The mutation has already been
// persisted when it runs, so a publish failure is logged and counted but
// never reported to the caller.
type auditEmitter struct {
	registryID id.RegistryID
	logger     *slog.Logger
	publisher  AuditPublisher
	metrics    *registrymetrics.Metrics
}

func newAuditEmitter(registryID id.RegistryID, logger *slog.Logger, publisher AuditPublisher, m *registrymetrics.Metrics) *auditEmitter {
	return &auditEmitter{registryID: registryID, logger: logger, publisher: publisher, metrics: m}
}

func (e *auditEmitter) emit(ctx context.Context, action audit.AuditEvent, actor id.Address, subject, detail string) {
	requestID := requestcontext.RequestID(ctx)
	e.logger.InfoContext(ctx, string(action),
		"registry_id", e.registryID.String(),
		"actor", actor.String(),
		"subject", subject,
		"detail", detail,
		"request_id", requestID,
		"token_id", requestcontext.TokenID(ctx),
	)
	if e.publisher == nil {
		return
	}

	event := audit.Event{
		Category:   action.Category(),
		Timestamp:  requestcontext.Now(ctx),
		RegistryID: e.registryID,
		Actor:      actor,
		Action:     string(action),
		Subject:    subject,
		Detail:     detail,
		RequestID:  requestID,
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action),
			"registry_id", e.registryID.String(),
			"request_id", requestID,
			"error", err,
		)
		if e.metrics != nil {
			e.metrics.IncrementAuditEmitFailure()
		}
	}
}
