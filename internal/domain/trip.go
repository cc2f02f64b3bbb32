package domain

import (
	"encoding/json"
	"time"

	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// TripStatus enumerates lifecycle states for trips.
type TripStatus string

const (
	TripStatusPlanned  TripStatus = "PLANNED"
	TripStatusCanceled TripStatus = "CANCELED"
)

// tripTransitions lists the status changes the lifecycle accepts.
// CANCELED is terminal.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusPlanned: {TripStatusCanceled},
}

// Valid reports whether s is a known status.
func (s TripStatus) Valid() bool {
	_, ok := tripTransitions[s]
	return ok || s == TripStatusCanceled
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s TripStatus) CanTransition(next TripStatus) bool {
	for _, allowed := range tripTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Trip is a customer booking managed by staff.
type Trip struct {
	ID          string
	CustomerID  string
	StartDate   time.Time
	EndDate     time.Time
	Destination json.RawMessage
	Status      TripStatus
	CanceledAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TripCustomer identifies who a trip belongs to.
type TripCustomer struct {
	ProfileID string
	AccountID string
	Name      string
	Email     string
}

// TripView is a trip with its owner's contact details.
type TripView struct {
	Trip
	Customer TripCustomer
}

// ValidateDateRange enforces that a trip starts strictly before it ends.
func ValidateDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.NewInvalidInput("start and end dates are required", nil)
	}
	if !start.Before(end) {
		return apperrors.NewInvalidInput("invalid trip date range", map[string]any{
			"start_date": start,
			"end_date":   end,
		})
	}
	return nil
}

// ValidateDestination requires a non-empty JSON document.
func ValidateDestination(dest json.RawMessage) error {
	if len(dest) == 0 || string(dest) == "null" || !json.Valid(dest) {
		return apperrors.NewInvalidInput("destination must be a JSON value", nil)
	}
	return nil
}

// Reschedule applies a partial date change. Omitted dates keep their current
// value and the resulting pair is validated as a whole.
func (t *Trip) Reschedule(start, end *time.Time) error {
	if start == nil && end == nil {
		return nil
	}
	nextStart, nextEnd := t.StartDate, t.EndDate
	if start != nil {
		nextStart = *start
	}
	if end != nil {
		nextEnd = *end
	}
	if err := ValidateDateRange(nextStart, nextEnd); err != nil {
		return err
	}
	t.StartDate, t.EndDate = nextStart, nextEnd
	return nil
}

// ApplyStatus handles a status supplied to the general update path. Cancellation
// is never accepted here because it must stamp CanceledAt through Cancel.
func (t *Trip) ApplyStatus(next TripStatus) error {
	if next == TripStatusCanceled {
		return apperrors.NewInvalidTransition("use the dedicated cancel operation", map[string]any{"status": next})
	}
	if !next.Valid() {
		return apperrors.NewInvalidInput("unknown trip status", map[string]any{"status": next})
	}
	if next == t.Status {
		return nil
	}
	if !t.Status.CanTransition(next) {
		return apperrors.NewInvalidTransition("status change not allowed", map[string]any{
			"from": t.Status,
			"to":   next,
		})
	}
	t.Status = next
	return nil
}

// Cancel moves a planned trip to CANCELED and stamps the cancellation time.
func (t *Trip) Cancel(now time.Time) error {
	if !t.Status.CanTransition(TripStatusCanceled) {
		return apperrors.NewInvalidTransition("trip cannot be canceled", map[string]any{
			"trip_id": t.ID,
			"status":  t.Status,
		})
	}
	t.Status = TripStatusCanceled
	canceledAt := now
	t.CanceledAt = &canceledAt
	return nil
}
