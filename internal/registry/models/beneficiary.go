package models

import (
	"time"

	"github.com/holiman/uint256"

	id "inheritx/pkg/domain"
)

// Unset is what a variant-inapplicable accessor returns. Callers dispatch on
// Variant first and never read Unset as an allocation.
var Unset uint256.Int

// Allocation is the variant-specific part of a beneficiary record. It is a
// closed sum type: TokenAllocation, NFTAllocation or MultiTokenAllocation.
type Allocation interface {
	Variant() Variant
	allocation()
}

// TokenAllocation is a proportional share. Units are caller-defined and never
// normalized against a total.
type TokenAllocation struct {
	Share uint256.Int
}

// NFTAllocation is a single identified non-fungible asset.
type NFTAllocation struct {
	AssetID uint256.Int
}

// MultiTokenAllocation is a positive quantity of an identified semi-fungible asset.
type MultiTokenAllocation struct {
	AssetID uint256.Int
	Amount  uint256.Int
}

func (TokenAllocation) Variant() Variant      { return VariantToken }
func (NFTAllocation) Variant() Variant        { return VariantNFT }
func (MultiTokenAllocation) Variant() Variant { return VariantMultiToken }

func (TokenAllocation) allocation()      {}
func (NFTAllocation) allocation()        {}
func (MultiTokenAllocation) allocation() {}

// Beneficiary is one ledger record, keyed by Recipient.
//
// Invariants:
//   - Recipient is never the zero address
//   - Allocation (and therefore the variant) is write-once
//   - Verified only moves false -> true; removal discards the whole record
type Beneficiary struct {
	Recipient  id.Address
	Allocation Allocation
	Verified   bool
	AddedAt    time.Time
	VerifiedAt *time.Time
}

func NewTokenBeneficiary(recipient id.Address, share uint256.Int, now time.Time) *Beneficiary {
	return &Beneficiary{Recipient: recipient, Allocation: TokenAllocation{Share: share}, AddedAt: now}
}

func NewNFTBeneficiary(recipient id.Address, assetID uint256.Int, now time.Time) *Beneficiary {
	return &Beneficiary{Recipient: recipient, Allocation: NFTAllocation{AssetID: assetID}, AddedAt: now}
}

func NewMultiTokenBeneficiary(recipient id.Address, assetID, amount uint256.Int, now time.Time) *Beneficiary {
	return &Beneficiary{
		Recipient:  recipient,
		Allocation: MultiTokenAllocation{AssetID: assetID, Amount: amount},
		AddedAt:    now,
	}
}

// Validate checks the record-level invariants. A zero token share is allowed;
// a zero multi-token amount is not.
func (b *Beneficiary) Validate() error {
	if b.Recipient.IsZero() {
		return ErrInvalidRecipient
	}
	switch a := b.Allocation.(type) {
	case TokenAllocation, NFTAllocation:
		return nil
	case MultiTokenAllocation:
		if a.Amount.IsZero() {
			return ErrInvalidAmount
		}
		return nil
	default:
		return errMissingAllocation
	}
}

func (b *Beneficiary) Variant() Variant {
	return b.Allocation.Variant()
}

// Share returns the token share, or Unset for non-token records.
func (b *Beneficiary) Share() uint256.Int {
	if a, ok := b.Allocation.(TokenAllocation); ok {
		return a.Share
	}
	return Unset
}

// TokenID returns the asset ID for NFT and multi-token records, or Unset.
func (b *Beneficiary) TokenID() uint256.Int {
	switch a := b.Allocation.(type) {
	case NFTAllocation:
		return a.AssetID
	case MultiTokenAllocation:
		return a.AssetID
	default:
		return Unset
	}
}

// Amount returns the multi-token quantity, or Unset for other records.
func (b *Beneficiary) Amount() uint256.Int {
	if a, ok := b.Allocation.(MultiTokenAllocation); ok {
		return a.Amount
	}
	return Unset
}

// Clone returns a deep copy safe to hand to callers.
func (b *Beneficiary) Clone() *Beneficiary {
	c := *b
	if b.VerifiedAt != nil {
		t := *b.VerifiedAt
		c.VerifiedAt = &t
	}
	return &c
}
