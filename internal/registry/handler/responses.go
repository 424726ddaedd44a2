package handler

import (
	"time"

	"github.com/holiman/uint256"

	"inheritx/internal/audit"
	"inheritx/internal/registry/models"
)

type BeneficiaryResponse struct {
	Recipient  string     `json:"recipient"`
	Type       string     `json:"type"`
	Share      *string    `json:"share,omitempty"`
	AssetID    *string    `json:"asset_id,omitempty"`
	Amount     *string    `json:"amount,omitempty"`
	Verified   bool       `json:"verified"`
	AddedAt    time.Time  `json:"added_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func decimal(v uint256.Int) *string {
	s := v.Dec()
	return &s
}

func FromBeneficiary(b *models.Beneficiary) BeneficiaryResponse {
	resp := BeneficiaryResponse{
		Recipient:  b.Recipient.String(),
		Type:       b.Variant().String(),
		Verified:   b.Verified,
		AddedAt:    b.AddedAt,
		VerifiedAt: b.VerifiedAt,
	}
	switch a := b.Allocation.(type) {
	case models.TokenAllocation:
		resp.Share = decimal(a.Share)
	case models.NFTAllocation:
		resp.AssetID = decimal(a.AssetID)
	case models.MultiTokenAllocation:
		resp.AssetID = decimal(a.AssetID)
		resp.Amount = decimal(a.Amount)
	}
	return resp
}

func FromBeneficiaries(list []*models.Beneficiary) []BeneficiaryResponse {
	out := make([]BeneficiaryResponse, 0, len(list))
	for _, b := range list {
		out = append(out, FromBeneficiary(b))
	}
	return out
}

// StatusResponse reports record existence only; Verified lives on the detail.
type StatusResponse struct {
	Recipient string `json:"recipient"`
	Exists    bool   `json:"exists"`
}

type TypeResponse struct {
	Recipient string `json:"recipient"`
	Type      string `json:"type"`
}

// ValueResponse carries a single variant accessor result. Value is "0" when
// the accessor does not apply to the record's variant.
type ValueResponse struct {
	Recipient string `json:"recipient"`
	Value     string `json:"value"`
}

type WillResponse struct {
	Pointer string `json:"pointer"`
}

type DeathConfirmationResponse struct {
	Confirmed bool `json:"confirmed"`
}

type SnapshotResponse struct {
	RegistryID    string                `json:"registry_id"`
	Owner         string                `json:"owner"`
	WillPointer   string                `json:"will_pointer"`
	Status        string                `json:"status"`
	Final         bool                  `json:"final"`
	ConfirmedAt   *time.Time            `json:"confirmed_at,omitempty"`
	Beneficiaries []BeneficiaryResponse `json:"beneficiaries"`
	Digest        string                `json:"digest"`
}

func FromSnapshot(s *models.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		RegistryID:    s.RegistryID.String(),
		Owner:         s.Owner.String(),
		WillPointer:   s.WillPointer,
		Status:        string(s.Status),
		Final:         s.Final(),
		ConfirmedAt:   s.ConfirmedAt,
		Beneficiaries: FromBeneficiaries(s.Beneficiaries),
		Digest:        s.Digest,
	}
}

type AuditEventResponse struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Subject   string    `json:"subject,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func FromAuditEvents(events []audit.Event) []AuditEventResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			ID:        e.ID.String(),
			Category:  string(e.Category),
			Action:    e.Action,
			Actor:     e.Actor.String(),
			Subject:   e.Subject,
			Detail:    e.Detail,
			RequestID: e.RequestID,
			Timestamp: e.Timestamp,
		})
	}
	return out
}
