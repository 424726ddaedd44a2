package models

import (
	"errors"

	dErrors "inheritx/pkg/domain-errors"
)

// Rejections of a registry operation. Each leaves prior state untouched.
var (
	ErrUnauthorized         = dErrors.New(dErrors.CodeForbidden, "caller is not the registry owner")
	ErrInvalidRecipient     = dErrors.New(dErrors.CodeValidation, "recipient must be a non-zero address")
	ErrDuplicateBeneficiary = dErrors.New(dErrors.CodeConflict, "beneficiary already registered for recipient")
	ErrBeneficiaryNotFound  = dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	ErrInvalidAmount        = dErrors.New(dErrors.CodeValidation, "multi-token amount must be greater than zero")
	ErrEmptyPointer         = dErrors.New(dErrors.CodeValidation, "will pointer must not be blank")
	ErrRegistryFrozen       = dErrors.New(dErrors.CodeInvariantViolation, "registry is frozen after death confirmation")
	ErrAlreadyConfirmed     = dErrors.New(dErrors.CodeConflict, "death has already been confirmed")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidRecipient, "invalid_recipient"},
	{ErrDuplicateBeneficiary, "duplicate_beneficiary"},
	{ErrBeneficiaryNotFound, "beneficiary_not_found"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrEmptyPointer, "empty_pointer"},
	{ErrRegistryFrozen, "registry_frozen"},
	{ErrAlreadyConfirmed, "already_confirmed"},
}

// ErrorKind returns the stable machine-readable name of a registry rejection,
// or "" if err is not one.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}
