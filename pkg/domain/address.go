package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "inheritx/pkg/domain-errors"
)

// Address is an account identity on the ledger (20-byte, EVM style).
// Invariant: an Address obtained from ParseAddress is well formed; the zero
// value is the null identity and is never a valid beneficiary.
//
// Usage: construct via ParseAddress at trust boundaries. Mixed-case input must
// carry a valid EIP-55 checksum; all-lower and all-upper input is accepted as-is.
type Address common.Address

// ZeroAddress is the null identity.
var ZeroAddress Address

// ParseAddress validates and returns an Address from its hex form.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if !common.IsHexAddress(s) {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	addr := common.HexToAddress(s)
	body := s
	if has0xPrefix(body) {
		body = body[2:]
	}
	if isMixedCase(body) && addr.Hex()[2:] != body {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address checksum mismatch")
	}
	return Address(addr), nil
}

// MustParseAddress is ParseAddress for constants and tests; it panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAddress converts raw bytes read back from storage. Longer input is
// cropped from the left.
func BytesToAddress(b []byte) Address {
	return Address(common.BytesToAddress(b))
}

// IsZero reports whether a is the null identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the EIP-55 checksummed hex form.
func (a Address) String() string {
	return common.Address(a).Hex()
}

// Bytes returns the raw 20 bytes.
func (a Address) Bytes() []byte {
	return common.Address(a).Bytes()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
