package models

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"

	id "inheritx/pkg/domain"
)

const digestDomain = "inheritx/registry/v1"

// Snapshot is a consistent read of the whole registry. Once Status is
// confirmed the snapshot is final: no later snapshot can differ.
type Snapshot struct {
	RegistryID    id.RegistryID
	Owner         id.Address
	WillPointer   string
	Status        Status
	ConfirmedAt   *time.Time
	Beneficiaries []*Beneficiary
	Digest        string
}

func NewSnapshot(r *Registry) *Snapshot {
	s := &Snapshot{
		RegistryID:    r.ID,
		Owner:         r.Owner,
		WillPointer:   r.WillPointer,
		Status:        r.Status(),
		Beneficiaries: r.ListBeneficiaries(),
	}
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		s.ConfirmedAt = &t
	}
	d := Digest(r)
	s.Digest = "0x" + hex.EncodeToString(d[:])
	return s
}

// Final reports whether the snapshot was taken after death confirmation.
func (s *Snapshot) Final() bool {
	return s.Status == StatusConfirmed
}

// Digest is the Keccak-256 of a canonical encoding of the allocation set:
// registry id, owner, will pointer, finality flag and every beneficiary in
// recipient order. Timestamps are excluded.
func Digest(r *Registry) [32]byte {
	h := sha3.NewLegacyKeccak256()
	var u32 [4]byte

	h.Write([]byte(digestDomain))
	rid := [16]byte(r.ID)
	h.Write(rid[:])
	h.Write(r.Owner.Bytes())

	binary.BigEndian.PutUint32(u32[:], uint32(len(r.WillPointer)))
	h.Write(u32[:])
	h.Write([]byte(r.WillPointer))
	h.Write([]byte{boolByte(r.DeathConfirmed)})

	list := r.ListBeneficiaries()
	binary.BigEndian.PutUint32(u32[:], uint32(len(list)))
	h.Write(u32[:])
	for _, b := range list {
		share, token, amount := b.Share(), b.TokenID(), b.Amount()
		shareBytes, tokenBytes, amountBytes := share.Bytes32(), token.Bytes32(), amount.Bytes32()
		h.Write(b.Recipient.Bytes())
		h.Write([]byte{byte(b.Variant())})
		h.Write(shareBytes[:])
		h.Write(tokenBytes[:])
		h.Write(amountBytes[:])
		h.Write([]byte{boolByte(b.Verified)})
	}

	var out [32]byte
	h.Sum(out[:0])
	return out
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
