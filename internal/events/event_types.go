package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/tourdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountCreated EventType = "account.created"
	EventAccountDeleted EventType = "account.deleted"
	EventTripCreated    EventType = "trip.created"
	EventTripCanceled   EventType = "trip.canceled"
	EventTripDeleted    EventType = "trip.deleted"
)

// AllEventTypes lists every type services publish.
var AllEventTypes = []EventType{
	EventAccountCreated,
	EventAccountDeleted,
	EventTripCreated,
	EventTripCanceled,
	EventTripDeleted,
}

// Actor identifies who caused an event. It is empty for self-service and
// bootstrap actions.
type Actor struct {
	AccountID string      `json:"account_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services after a commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, subjectID string, actor domain.Identity, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     Actor{AccountID: actor.SubjectID, Role: actor.Role},
		Timestamp: at,
		Payload:   payload,
	}
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	ProfileID string      `json:"profile_id,omitempty"`
}

// AccountDeletedPayload payload.
type AccountDeletedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// TripCreatedPayload payload.
type TripCreatedPayload struct {
	CustomerID string    `json:"customer_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// TripCanceledPayload payload.
type TripCanceledPayload struct {
	CustomerID string    `json:"customer_id"`
	CanceledAt time.Time `json:"canceled_at"`
}

// TripDeletedPayload payload.
type TripDeletedPayload struct {
	CustomerID string            `json:"customer_id"`
	Status     domain.TripStatus `json:"status"`
}
