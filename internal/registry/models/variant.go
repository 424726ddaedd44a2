package models

import (
	"fmt"
	"strings"
)

// Variant is the asset category of a beneficiary record. The numeric values
// match the ledger's enum ordering and are what persistence stores.
type Variant uint8

const (
	VariantToken Variant = iota
	VariantNFT
	VariantMultiToken
)

func (v Variant) String() string {
	switch v {
	case VariantToken:
		return "token"
	case VariantNFT:
		return "nft"
	case VariantMultiToken:
		return "multi_token"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// IsValid reports whether v is one of the three known variants.
func (v Variant) IsValid() bool {
	return v <= VariantMultiToken
}

// ParseVariant accepts the names produced by String.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "token":
		return VariantToken, nil
	case "nft":
		return VariantNFT, nil
	case "multi_token", "multitoken", "multi-token":
		return VariantMultiToken, nil
	default:
		return 0, fmt.Errorf("unknown beneficiary variant: %q", s)
	}
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("unknown beneficiary variant: %d", uint8(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
