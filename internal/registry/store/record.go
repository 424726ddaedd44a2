package store

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"inheritx/internal/registry/models"
	id "inheritx/pkg/domain"
)

// registryRecord is the serialized form used by RedisStore.
type registryRecord struct {
	ID             string              `json:"id"`
	Owner          string              `json:"owner"`
	WillPointer    string              `json:"will_pointer"`
	DeathConfirmed bool                `json:"death_confirmed"`
	ConfirmedAt    *time.Time          `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Beneficiaries  []beneficiaryRecord `json:"beneficiaries"`
}

type beneficiaryRecord struct {
	Recipient  string         `json:"recipient"`
	Variant    models.Variant `json:"variant"`
	Share      string         `json:"share"`
	AssetID    string         `json:"asset_id"`
	Amount     string         `json:"amount"`
	Verified   bool           `json:"verified"`
	AddedAt    time.Time      `json:"added_at"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
}

func toRecord(reg *models.Registry) registryRecord {
	rec := registryRecord{
		ID:             reg.ID.String(),
		Owner:          reg.Owner.String(),
		WillPointer:    reg.WillPointer,
		DeathConfirmed: reg.DeathConfirmed,
		ConfirmedAt:    reg.ConfirmedAt,
		CreatedAt:      reg.CreatedAt,
		UpdatedAt:      reg.UpdatedAt,
		Beneficiaries:  make([]beneficiaryRecord, 0, len(reg.Beneficiaries)),
	}
	for _, b := range reg.ListBeneficiaries() {
		share, assetID, amount := b.Share(), b.TokenID(), b.Amount()
		rec.Beneficiaries = append(rec.Beneficiaries, beneficiaryRecord{
			Recipient:  b.Recipient.String(),
			Variant:    b.Variant(),
			Share:      share.Dec(),
			AssetID:    assetID.Dec(),
			Amount:     amount.Dec(),
			Verified:   b.Verified,
			AddedAt:    b.AddedAt,
			VerifiedAt: b.VerifiedAt,
		})
	}
	return rec
}

func fromRecord(rec registryRecord) (*models.Registry, error) {
	registryID, err := id.ParseRegistryID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("decode registry id: %w", err)
	}
	owner, err := id.ParseAddress(rec.Owner)
	if err != nil {
		return nil, fmt.Errorf("decode owner: %w", err)
	}
	reg := &models.Registry{
		ID:             registryID,
		Owner:          owner,
		Beneficiaries:  make(map[id.Address]*models.Beneficiary, len(rec.Beneficiaries)),
		WillPointer:    rec.WillPointer,
		DeathConfirmed: rec.DeathConfirmed,
		ConfirmedAt:    rec.ConfirmedAt,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
	for _, br := range rec.Beneficiaries {
		recipient, err := id.ParseAddress(br.Recipient)
		if err != nil {
			return nil, fmt.Errorf("decode recipient: %w", err)
		}
		b, err := buildBeneficiary(recipient, br.Variant, br.Share, br.AssetID, br.Amount)
		if err != nil {
			return nil, err
		}
		b.Verified = br.Verified
		b.AddedAt = br.AddedAt
		b.VerifiedAt = br.VerifiedAt
		reg.Beneficiaries[recipient] = b
	}
	return reg, nil
}

// buildBeneficiary reassembles a record from its flat columns. Columns that
// do not apply to the variant are ignored.
func buildBeneficiary(recipient id.Address, variant models.Variant, share, assetID, amount string) (*models.Beneficiary, error) {
	parse := func(field, v string) (uint256.Int, error) {
		if v == "" {
			return models.Unset, nil
		}
		n, err := uint256.FromDecimal(v)
		if err != nil {
			return models.Unset, fmt.Errorf("decode %s: %w", field, err)
		}
		return *n, nil
	}
	switch variant {
	case models.VariantToken:
		s, err := parse("share", share)
		if err != nil {
			return nil, err
		}
		return &models.Beneficiary{Recipient: recipient, Allocation: models.TokenAllocation{Share: s}}, nil
	case models.VariantNFT:
		a, err := parse("asset_id", assetID)
		if err != nil {
			return nil, err
		}
		return &models.Beneficiary{Recipient: recipient, Allocation: models.NFTAllocation{AssetID: a}}, nil
	case models.VariantMultiToken:
		a, err := parse("asset_id", assetID)
		if err != nil {
			return nil, err
		}
		n, err := parse("amount", amount)
		if err != nil {
			return nil, err
		}
		return &models.Beneficiary{Recipient: recipient, Allocation: models.MultiTokenAllocation{AssetID: a, Amount: n}}, nil
	default:
		return nil, fmt.Errorf("decode beneficiary: unknown variant %d", variant)
	}
}

// sameBeneficiary reports whether two records would persist identically.
func sameBeneficiary(a, b *models.Beneficiary) bool {
	if a.Variant() != b.Variant() || a.Verified != b.Verified || !a.AddedAt.Equal(b.AddedAt) {
		return false
	}
	as, bs := a.Share(), b.Share()
	at, bt := a.TokenID(), b.TokenID()
	aa, ba := a.Amount(), b.Amount()
	return as.Eq(&bs) && at.Eq(&bt) && aa.Eq(&ba)
}
