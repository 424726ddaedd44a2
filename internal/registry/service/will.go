package service

import (
	"context"

	"inheritx/internal/audit"
	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	"inheritx/pkg/requestcontext"
)

// SetEncryptedWill overwrites the will pointer. The pointer is opaque; only
// blank values are rejected.
func (s *Service) SetEncryptedWill(ctx context.Context, caller id.Address, pointer string) error {
	return s.observe(ctx, "SetEncryptedWill", func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		_, err := s.execute(ctx,
			func(r *models.Registry) error {
				return r.CanSetWillPointer(caller, pointer)
			},
			func(r *models.Registry) {
				r.ApplySetWillPointer(pointer, now)
			},
		)
		if err != nil {
			return err
		}
		s.auditEmitter.emit(ctx, audit.EventWillPointerSet, caller, "", pointer)
		return nil
	})
}

// GetEncryptedWill returns the current pointer, or "" if none was set.
func (s *Service) GetEncryptedWill(ctx context.Context) (string, error) {
	var pointer string
	err := s.observe(ctx, "GetEncryptedWill", func(ctx context.Context) error {
		reg, err := s.load(ctx)
		if err != nil {
			return err
		}
		pointer = reg.WillPointer
		return nil
	})
	return pointer, err
}
