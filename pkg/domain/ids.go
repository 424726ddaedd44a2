package domain

import (
	"github.com/google/uuid"

	dErrors "inheritx/pkg/domain-errors"
)

// RegistryID identifies one registry instance.
type RegistryID uuid.UUID

// registryNamespace seeds deterministic registry IDs derived from an owner.
var registryNamespace = uuid.MustParse("8b0c5a3e-6d1f-4e27-9c4a-2f7e1b9d0a65")

// NewRegistryID returns a random registry ID.
func NewRegistryID() RegistryID {
	return RegistryID(uuid.New())
}

// RegistryIDForOwner derives a stable registry ID from the owner address, so a
// deployment that does not configure an ID reopens the same registry.
func RegistryIDForOwner(owner Address) RegistryID {
	return RegistryID(uuid.NewSHA1(registryNamespace, owner.Bytes()))
}

// ParseRegistryID validates a registry ID at a trust boundary.
func ParseRegistryID(s string) (RegistryID, error) {
	if s == "" {
		return RegistryID{}, dErrors.New(dErrors.CodeInvalidInput, "registry id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return RegistryID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid registry id format")
	}
	if u == uuid.Nil {
		return RegistryID{}, dErrors.New(dErrors.CodeInvalidInput, "registry id cannot be nil")
	}
	return RegistryID(u), nil
}

func (id RegistryID) String() string {
	return uuid.UUID(id).String()
}

func (id RegistryID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id RegistryID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RegistryID) UnmarshalText(text []byte) error {
	parsed, err := ParseRegistryID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
