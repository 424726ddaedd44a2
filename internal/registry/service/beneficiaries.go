package service

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"inheritx/internal/audit"
	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
	"inheritx/pkg/requestcontext"
)

// AddTokenBeneficiary registers recipient for a proportional share. A zero
// share is accepted; shares are not checked against any total.
func (s *Service) AddTokenBeneficiary(ctx context.Context, caller, recipient id.Address, share uint256.Int) (*models.Beneficiary, error) {
	b := models.NewTokenBeneficiary(recipient, share, requestcontext.Now(ctx))
	return s.addBeneficiary(ctx, "AddTokenBeneficiary", caller, b, "share="+share.Dec())
}

func (s *Service) AddNFTBeneficiary(ctx context.Context, caller, recipient id.Address, assetID uint256.Int) (*models.Beneficiary, error) {
	b := models.NewNFTBeneficiary(recipient, assetID, requestcontext.Now(ctx))
	return s.addBeneficiary(ctx, "AddNFTBeneficiary", caller, b, "asset_id="+assetID.Dec())
}

// AddMultiTokenBeneficiary rejects a zero amount with ErrInvalidAmount.
func (s *Service) AddMultiTokenBeneficiary(ctx context.Context, caller, recipient id.Address, assetID, amount uint256.Int) (*models.Beneficiary, error) {
	b := models.NewMultiTokenBeneficiary(recipient, assetID, amount, requestcontext.Now(ctx))
	return s.addBeneficiary(ctx, "AddMultiTokenBeneficiary", caller, b,
		fmt.Sprintf("asset_id=%s amount=%s", assetID.Dec(), amount.Dec()))
}

func (s *Service) addBeneficiary(ctx context.Context, operation string, caller id.Address, b *models.Beneficiary, detail string) (*models.Beneficiary, error) {
	err := s.observe(ctx, operation, func(ctx context.Context) error {
		_, err := s.execute(ctx,
			func(r *models.Registry) error {
				return r.CanAddBeneficiary(caller, b)
			},
			func(r *models.Registry) {
				r.ApplyAddBeneficiary(b, b.AddedAt)
			},
		)
		if err != nil {
			return err
		}
		s.auditEmitter.emit(ctx, audit.EventBeneficiaryAdded, caller, b.Recipient.String(),
			"variant="+b.Variant().String()+" "+detail)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// RemoveBeneficiary deletes the whole record, verification included.
func (s *Service) RemoveBeneficiary(ctx context.Context, caller, recipient id.Address) error {
	return s.observe(ctx, "RemoveBeneficiary", func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		_, err := s.execute(ctx,
			func(r *models.Registry) error {
				return r.CanRemoveBeneficiary(caller, recipient)
			},
			func(r *models.Registry) {
				r.ApplyRemoveBeneficiary(recipient, now)
			},
		)
		if err != nil {
			return err
		}
		s.auditEmitter.emit(ctx, audit.EventBeneficiaryRemoved, caller, recipient.String(), "")
		return nil
	})
}

// VerifyBeneficiary marks recipient verified. Verifying twice succeeds both
// times; only the first call emits an audit event.
func (s *Service) VerifyBeneficiary(ctx context.Context, caller, recipient id.Address) (*models.Beneficiary, error) {
	var verified *models.Beneficiary
	err := s.observe(ctx, "VerifyBeneficiary", func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		alreadyVerified := false
		reg, err := s.execute(ctx,
			func(r *models.Registry) error {
				if err := r.CanVerifyBeneficiary(caller, recipient); err != nil {
					return err
				}
				alreadyVerified = r.Beneficiaries[recipient].Verified
				return nil
			},
			func(r *models.Registry) {
				r.ApplyVerifyBeneficiary(recipient, now)
			},
		)
		if err != nil {
			return err
		}
		verified, err = reg.Beneficiary(recipient)
		if err != nil {
			return err
		}
		if !alreadyVerified {
			s.auditEmitter.emit(ctx, audit.EventBeneficiaryVerified, caller, recipient.String(), "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return verified, nil
}
