package dto

import (
	"encoding/json"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/spec-kit/tourdesk/internal/domain"
)

// CreateTripRequest payload for POST /trips. Dates accept YYYY-MM-DD or RFC 3339.
type CreateTripRequest struct {
	CustomerID  string          `json:"customer_id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Destination json.RawMessage `json:"destination"`
}

// UpdateTripRequest payload for PUT /trips/:id.
type UpdateTripRequest struct {
	StartDate   nullable.Nullable[string]            `json:"start_date,omitempty"`
	EndDate     nullable.Nullable[string]            `json:"end_date,omitempty"`
	Destination json.RawMessage                      `json:"destination,omitempty"`
	Status      nullable.Nullable[domain.TripStatus] `json:"status,omitempty"`
}

// TripListQuery captures query filters for GET /trips.
type TripListQuery struct {
	Status   *domain.TripStatus
	Page     int
	PageSize int
}

// TripResponse represents a trip.
type TripResponse struct {
	ID          string            `json:"id"`
	CustomerID  string            `json:"customer_id"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Destination json.RawMessage   `json:"destination"`
	Status      domain.TripStatus `json:"status"`
	CanceledAt  *time.Time        `json:"canceled_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TripCustomerResponse summarizes who a trip belongs to.
type TripCustomerResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// TripViewResponse is a trip with its customer embedded.
type TripViewResponse struct {
	TripResponse
	Customer TripCustomerResponse `json:"customer"`
}
