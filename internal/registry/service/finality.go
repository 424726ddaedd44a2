package service

import (
	"context"

	"inheritx/internal/audit"
	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	"inheritx/pkg/requestcontext"
)

// ConfirmDeath flips the finality gate and returns the final snapshot.
// It is not idempotent: a second call fails with ErrAlreadyConfirmed and
// callers must not retry it blindly.
func (s *Service) ConfirmDeath(ctx context.Context, caller id.Address) (*models.Snapshot, error) {
	var snapshot *models.Snapshot
	err := s.observe(ctx, "ConfirmDeath", func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		reg, err := s.execute(ctx,
			func(r *models.Registry) error {
				return r.CanConfirmDeath(caller)
			},
			func(r *models.Registry) {
				r.ApplyConfirmDeath(now)
			},
		)
		if err != nil {
			return err
		}
		snapshot = models.NewSnapshot(reg)
		s.auditEmitter.emit(ctx, audit.EventDeathConfirmed, caller, "", "digest="+snapshot.Digest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) IsDeathConfirmed(ctx context.Context) (bool, error) {
	var confirmed bool
	err := s.observe(ctx, "IsDeathConfirmed", func(ctx context.Context) error {
		reg, err := s.load(ctx)
		if err != nil {
			return err
		}
		confirmed = reg.DeathConfirmed
		return nil
	})
	return confirmed, err
}
