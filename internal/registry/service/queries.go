package service

import (
	"context"

	"github.com/holiman/uint256"

	"inheritx/internal/audit"
	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
)

// GetBeneficiaryStatus reports whether a record exists for recipient. It
// says nothing about verification; use GetBeneficiary for that.
func (s *Service) GetBeneficiaryStatus(ctx context.Context, recipient id.Address) (bool, error) {
	var exists bool
	err := s.observe(ctx, "GetBeneficiaryStatus", func(ctx context.Context) error {
		reg, err := s.load(ctx)
		if err != nil {
			return err
		}
		exists = reg.HasBeneficiary(recipient)
		return nil
	})
	return exists, err
}

func (s *Service) GetBeneficiaryType(ctx context.Context, recipient id.Address) (models.Variant, error) {
	b, err := s.beneficiary(ctx, "GetBeneficiaryType", recipient)
	if err != nil {
		return 0, err
	}
	return b.Variant(), nil
}

// GetBeneficiaryShare returns models.Unset for non-token records.
func (s *Service) GetBeneficiaryShare(ctx context.Context, recipient id.Address) (uint256.Int, error) {
	b, err := s.beneficiary(ctx, "GetBeneficiaryShare", recipient)
	if err != nil {
		return models.Unset, err
	}
	return b.Share(), nil
}

// GetBeneficiaryTokenID returns models.Unset for token records.
func (s *Service) GetBeneficiaryTokenID(ctx context.Context, recipient id.Address) (uint256.Int, error) {
	b, err := s.beneficiary(ctx, "GetBeneficiaryTokenID", recipient)
	if err != nil {
		return models.Unset, err
	}
	return b.TokenID(), nil
}

// GetBeneficiaryAmount returns models.Unset for non multi-token records.
func (s *Service) GetBeneficiaryAmount(ctx context.Context, recipient id.Address) (uint256.Int, error) {
	b, err := s.beneficiary(ctx, "GetBeneficiaryAmount", recipient)
	if err != nil {
		return models.Unset, err
	}
	return b.Amount(), nil
}

// GetBeneficiary returns the full record including verification state.
func (s *Service) GetBeneficiary(ctx context.Context, recipient id.Address) (*models.Beneficiary, error) {
	return s.beneficiary(ctx, "GetBeneficiary", recipient)
}

func (s *Service) beneficiary(ctx context.Context, operation string, recipient id.Address) (*models.Beneficiary, error) {
	var b *models.Beneficiary
	err := s.observe(ctx, operation, func(ctx context.Context) error {
		reg, err := s.load(ctx)
		if err != nil {
			return err
		}
		b, err = reg.Beneficiary(recipient)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) ListBeneficiaries(ctx context.Context) ([]*models.Beneficiary, error) {
	var list []*models.Beneficiary
	err := s.observe(ctx, "ListBeneficiaries", func(ctx context.Context) error {
		reg, err := s.load(ctx)
		if err != nil {
			return err
		}
		list = reg.ListBeneficiaries()
		return nil
	})
	return list, err
}

// Snapshot reads the whole registry at once. After death confirmation the
// result is final.
func (s *Service) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var snapshot *models.Snapshot
	err := s.observe(ctx, "Snapshot", func(ctx context.Context) error {
		reg, err := s.load(ctx)
		if err != nil {
			return err
		}
		snapshot = models.NewSnapshot(reg)
		return nil
	})
	return snapshot, err
}

// AuditTrail lists committed mutations in order. Without an audit log it
// returns an empty trail.
func (s *Service) AuditTrail(ctx context.Context) ([]audit.Event, error) {
	if s.auditLog == nil {
		return []audit.Event{}, nil
	}
	var events []audit.Event
	err := s.observe(ctx, "AuditTrail", func(ctx context.Context) error {
		var err error
		events, err = s.auditLog.ListByRegistry(ctx, s.registryID)
		if err != nil {
			return wrapStoreErr(err)
		}
		return nil
	})
	return events, err
}
