package models

import (
	"bytes"
	"sort"
	"strings"
	"time"

	id "inheritx/pkg/domain"
	dErrors "inheritx/pkg/domain-errors"
)

// Status is the finality gate state.
type Status string

const (
	StatusActive    Status = "active"
	StatusConfirmed Status = "confirmed"
)

var errMissingAllocation = dErrors.New(dErrors.CodeInvariantViolation, "beneficiary has no allocation")

// Registry is the aggregate root: one owner, a beneficiary ledger, the will
// pointer slot and the finality flag.
//
// Invariants:
//   - Owner is non-zero and immutable; there is no transfer operation
//   - Beneficiaries holds at most one record per recipient
//   - DeathConfirmed goes false -> true exactly once and is never cleared
//   - Once DeathConfirmed is true, neither the ledger nor WillPointer changes
//
// Every mutation is split into CanX (pure validation, check order:
// owner, frozen, input, existence) and ApplyX (unconditional state change).
// Stores run both inside one Execute call so the pair is atomic.
type Registry struct {
	ID             id.RegistryID
	Owner          id.Address
	Beneficiaries  map[id.Address]*Beneficiary
	WillPointer    string
	DeathConfirmed bool
	ConfirmedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewRegistry(registryID id.RegistryID, owner id.Address, now time.Time) (*Registry, error) {
	if registryID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registry id cannot be nil")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registry owner cannot be the zero address")
	}
	return &Registry{
		ID:            registryID,
		Owner:         owner,
		Beneficiaries: make(map[id.Address]*Beneficiary),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AuthorizeOwner is the access guard: a pure function of caller and owner.
func AuthorizeOwner(owner, caller id.Address) error {
	if caller.IsZero() || caller != owner {
		return ErrUnauthorized
	}
	return nil
}

func (r *Registry) Authorize(caller id.Address) error {
	return AuthorizeOwner(r.Owner, caller)
}

func (r *Registry) Status() Status {
	if r.DeathConfirmed {
		return StatusConfirmed
	}
	return StatusActive
}

// IsFrozen reports whether ledger and will mutations are closed.
func (r *Registry) IsFrozen() bool {
	return r.DeathConfirmed
}

// CanMutate checks the two gates shared by every ledger and will mutation.
func (r *Registry) CanMutate(caller id.Address) error {
	if err := r.Authorize(caller); err != nil {
		return err
	}
	if r.IsFrozen() {
		return ErrRegistryFrozen
	}
	return nil
}

func (r *Registry) CanAddBeneficiary(caller id.Address, b *Beneficiary) error {
	if err := r.CanMutate(caller); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if r.HasBeneficiary(b.Recipient) {
		return ErrDuplicateBeneficiary
	}
	return nil
}

func (r *Registry) ApplyAddBeneficiary(b *Beneficiary, now time.Time) {
	r.Beneficiaries[b.Recipient] = b.Clone()
	r.UpdatedAt = now
}

func (r *Registry) CanRemoveBeneficiary(caller, recipient id.Address) error {
	if err := r.CanMutate(caller); err != nil {
		return err
	}
	if !r.HasBeneficiary(recipient) {
		return ErrBeneficiaryNotFound
	}
	return nil
}

func (r *Registry) ApplyRemoveBeneficiary(recipient id.Address, now time.Time) {
	delete(r.Beneficiaries, recipient)
	r.UpdatedAt = now
}

func (r *Registry) CanVerifyBeneficiary(caller, recipient id.Address) error {
	if err := r.CanMutate(caller); err != nil {
		return err
	}
	if !r.HasBeneficiary(recipient) {
		return ErrBeneficiaryNotFound
	}
	return nil
}

// ApplyVerifyBeneficiary is idempotent: an already verified record keeps its
// original VerifiedAt.
func (r *Registry) ApplyVerifyBeneficiary(recipient id.Address, now time.Time) {
	b := r.Beneficiaries[recipient]
	if b.Verified {
		return
	}
	b.Verified = true
	b.VerifiedAt = &now
	r.UpdatedAt = now
}

func (r *Registry) CanSetWillPointer(caller id.Address, pointer string) error {
	if err := r.CanMutate(caller); err != nil {
		return err
	}
	if strings.TrimSpace(pointer) == "" {
		return ErrEmptyPointer
	}
	return nil
}

// ApplySetWillPointer overwrites the slot; no history is kept.
func (r *Registry) ApplySetWillPointer(pointer string, now time.Time) {
	r.WillPointer = pointer
	r.UpdatedAt = now
}

// CanConfirmDeath is not idempotent: a second confirmation is rejected.
func (r *Registry) CanConfirmDeath(caller id.Address) error {
	if err := r.Authorize(caller); err != nil {
		return err
	}
	if r.DeathConfirmed {
		return ErrAlreadyConfirmed
	}
	return nil
}

func (r *Registry) ApplyConfirmDeath(now time.Time) {
	r.DeathConfirmed = true
	r.ConfirmedAt = &now
	r.UpdatedAt = now
}

func (r *Registry) HasBeneficiary(recipient id.Address) bool {
	_, ok := r.Beneficiaries[recipient]
	return ok
}

// Beneficiary returns a copy of the record for recipient.
func (r *Registry) Beneficiary(recipient id.Address) (*Beneficiary, error) {
	b, ok := r.Beneficiaries[recipient]
	if !ok {
		return nil, ErrBeneficiaryNotFound
	}
	return b.Clone(), nil
}

// ListBeneficiaries returns copies of all records ordered by recipient bytes.
// The order carries no meaning beyond being stable.
func (r *Registry) ListBeneficiaries() []*Beneficiary {
	out := make([]*Beneficiary, 0, len(r.Beneficiaries))
	for _, b := range r.Beneficiaries {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Recipient.Bytes(), out[j].Recipient.Bytes()) < 0
	})
	return out
}

// Clone returns a deep copy; stores hand out clones so callers never alias
// stored state.
func (r *Registry) Clone() *Registry {
	c := *r
	c.Beneficiaries = make(map[id.Address]*Beneficiary, len(r.Beneficiaries))
	for k, b := range r.Beneficiaries {
		c.Beneficiaries[k] = b.Clone()
	}
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		c.ConfirmedAt = &t
	}
	return &c
}
