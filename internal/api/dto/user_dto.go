package dto

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/spec-kit/tourdesk/internal/domain"
)

// CreateStaffRequest payload for POST /users/staff.
type CreateStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Position string `json:"position"`
}

// CreateCustomerRequest payload for POST /users/customers.
type CreateCustomerRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Phone    string        `json:"phone"`
	Gender   domain.Gender `json:"gender"`
	Age      int           `json:"age"`
	Address  string        `json:"address"`
}

// UpdateAccountRequest payload for PUT /users/:id. Omitted fields are left
// unchanged; explicit nulls are rejected.
type UpdateAccountRequest struct {
	Name  nullable.Nullable[string] `json:"name,omitempty"`
	Email nullable.Nullable[string] `json:"email,omitempty"`
}

// UpdateCredentialsRequest payload for PUT /users/:id/credentials.
type UpdateCredentialsRequest struct {
	Email    nullable.Nullable[string] `json:"email,omitempty"`
	Password nullable.Nullable[string] `json:"password,omitempty"`
}

// AccountResponse is the public view of an account. The password hash never
// leaves the service.
type AccountResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AccountSummaryResponse is embedded in profile responses.
type AccountSummaryResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}
