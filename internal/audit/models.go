package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "inheritx/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to who receives what, and the
	// finality transition. Downstream disbursement relies on these.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers changes that do not alter allocations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after a registry mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID
	Category   EventCategory
	Timestamp  time.Time
	RegistryID id.RegistryID
	Actor      id.Address
	Action     string
	// Subject is the beneficiary address for ledger events, empty otherwise.
	Subject   string
	Detail    string
	RequestID string
}

type AuditEvent string

const (
	EventBeneficiaryAdded    AuditEvent = "beneficiary_added"
	EventBeneficiaryRemoved  AuditEvent = "beneficiary_removed"
	EventBeneficiaryVerified AuditEvent = "beneficiary_verified"
	EventWillPointerSet      AuditEvent = "will_pointer_set"
	EventDeathConfirmed      AuditEvent = "death_confirmed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventBeneficiaryAdded:    CategoryCompliance,
	EventBeneficiaryRemoved:  CategoryCompliance,
	EventBeneficiaryVerified: CategoryCompliance,
	EventDeathConfirmed:      CategoryCompliance,
	EventWillPointerSet:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store is the append-only persistence port for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRegistry(ctx context.Context, registryID id.RegistryID) ([]Event, error)
}
