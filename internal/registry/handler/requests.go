package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/holiman/uint256"

	id "inheritx/pkg/domain"
	dErrors "inheritx/pkg/domain-errors"
)

// UintValue is a 256-bit unsigned field. It accepts a decimal string or a
// JSON number and remembers whether the field was present at all.
type UintValue struct {
	raw string
	set bool
}

func (u *UintValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		u.raw = strings.TrimSpace(s)
	} else {
		u.raw = string(data)
	}
	u.set = true
	return nil
}

func (u UintValue) parse(field string) (uint256.Int, error) {
	if !u.set {
		return uint256.Int{}, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	v, err := uint256.FromDecimal(u.raw)
	if err != nil {
		return uint256.Int{}, dErrors.New(dErrors.CodeValidation, field+" must be an unsigned 256-bit decimal integer")
	}
	return *v, nil
}

func parseRecipient(raw string) (id.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return id.Address{}, dErrors.New(dErrors.CodeValidation, "recipient is required")
	}
	return id.ParseAddress(raw)
}

// AddTokenRequest is the body for POST /beneficiaries/token.
type AddTokenRequest struct {
	Recipient string    `json:"recipient"`
	Share     UintValue `json:"share"`

	recipient id.Address
	share     uint256.Int
}

func (r *AddTokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.recipient, err = parseRecipient(r.Recipient); err != nil {
		return err
	}
	r.share, err = r.Share.parse("share")
	return err
}

// AddNFTRequest is the body for POST /beneficiaries/nft.
type AddNFTRequest struct {
	Recipient string    `json:"recipient"`
	AssetID   UintValue `json:"asset_id"`

	recipient id.Address
	assetID   uint256.Int
}

func (r *AddNFTRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.recipient, err = parseRecipient(r.Recipient); err != nil {
		return err
	}
	r.assetID, err = r.AssetID.parse("asset_id")
	return err
}

// AddMultiTokenRequest is the body for POST /beneficiaries/multi-token.
// A zero amount passes here and is rejected by the registry as invalid_amount.
type AddMultiTokenRequest struct {
	Recipient string    `json:"recipient"`
	AssetID   UintValue `json:"asset_id"`
	Amount    UintValue `json:"amount"`

	recipient id.Address
	assetID   uint256.Int
	amount    uint256.Int
}

func (r *AddMultiTokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.recipient, err = parseRecipient(r.Recipient); err != nil {
		return err
	}
	if r.assetID, err = r.AssetID.parse("asset_id"); err != nil {
		return err
	}
	r.amount, err = r.Amount.parse("amount")
	return err
}

// SetWillRequest is the body for PUT /will. Blank pointers are left for the
// registry to reject so the response carries the empty_pointer reason.
type SetWillRequest struct {
	Pointer *string `json:"pointer"`
}

func (r *SetWillRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Pointer == nil {
		return dErrors.New(dErrors.CodeValidation, "pointer is required")
	}
	if len(*r.Pointer) > 4096 {
		return dErrors.New(dErrors.CodeValidation, "pointer must be at most 4096 bytes")
	}
	return nil
}
