package dto

import (
	"time"

	"github.com/oapi-codegen/nullable"
)

// UpdateStaffRequest payload for PUT /staff/:userId.
type UpdateStaffRequest struct {
	Position nullable.Nullable[string] `json:"position,omitempty"`
}

// StaffResponse represents a staff member with its account.
type StaffResponse struct {
	ID        string                 `json:"id"`
	Position  string                 `json:"position"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Account   AccountSummaryResponse `json:"account"`
}
