package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers movements of value: stakes, premiums, payouts.
	// These require durable storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers changes to who may act on the registry and
	// operations rejected for lack of authority.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity: flights, status reports,
	// votes, and ordinary domain rejections. These can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted after an operation is applied or rejected. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	// Subject is the entity acted on: an airline, flight key, passenger, or caller.
	Subject string
	Action  string
	// Sender is the identity that submitted the operation.
	Sender string
	// Caller is the facade the operation arrived through.
	Caller   string
	Decision string
	// Reason carries the error code for rejected operations.
	Reason    string
	Amount    string
	Height    uint64
	RequestID string
}

const (
	DecisionApplied  = "applied"
	DecisionRejected = "rejected"
)

type AuditEvent string

const (
	// Access control events
	EventOperatingStatusChanged AuditEvent = "operating_status_changed"
	EventCallerAuthorized       AuditEvent = "caller_authorized"
	EventCallerDeauthorized     AuditEvent = "caller_deauthorized"

	// Airline events
	EventAirlineRegistered AuditEvent = "airline_registered"
	EventAirlineVoteCast   AuditEvent = "airline_vote_cast"
	EventAirlineFunded     AuditEvent = "airline_funded"

	// Flight events
	EventFlightRegistered    AuditEvent = "flight_registered"
	EventFlightStatusUpdated AuditEvent = "flight_status_updated"

	// Insurance events
	EventInsurancePurchased AuditEvent = "insurance_purchased"
	EventPayoutCredited     AuditEvent = "payout_credited"
	EventPayoutWithdrawn    AuditEvent = "payout_withdrawn"

	// Rejections
	EventOperationRejected   AuditEvent = "operation_rejected"
	EventUnauthorizedAttempt AuditEvent = "unauthorized_attempt"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventAirlineRegistered:  CategoryCompliance,
	EventAirlineFunded:      CategoryCompliance,
	EventInsurancePurchased: CategoryCompliance,
	EventPayoutCredited:     CategoryCompliance,
	EventPayoutWithdrawn:    CategoryCompliance,

	EventOperatingStatusChanged: CategorySecurity,
	EventCallerAuthorized:       CategorySecurity,
	EventCallerDeauthorized:     CategorySecurity,
	EventUnauthorizedAttempt:    CategorySecurity,

	EventAirlineVoteCast:     CategoryOperations,
	EventFlightRegistered:    CategoryOperations,
	EventFlightStatusUpdated: CategoryOperations,
	EventOperationRejected:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists persisted events for a subject, oldest first.
type Reader interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
