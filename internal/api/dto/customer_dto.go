package dto

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/spec-kit/tourdesk/internal/domain"
)

// UpdateCustomerRequest payload for PUT /customers/:userId.
type UpdateCustomerRequest struct {
	Phone   nullable.Nullable[string]        `json:"phone,omitempty"`
	Gender  nullable.Nullable[domain.Gender] `json:"gender,omitempty"`
	Age     nullable.Nullable[int]           `json:"age,omitempty"`
	Address nullable.Nullable[string]        `json:"address,omitempty"`
}

// CustomerResponse represents a customer with its account.
type CustomerResponse struct {
	ID        string                 `json:"id"`
	Phone     string                 `json:"phone"`
	Gender    domain.Gender          `json:"gender"`
	Age       int                    `json:"age"`
	Address   string                 `json:"address"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Account   AccountSummaryResponse `json:"account"`
}
