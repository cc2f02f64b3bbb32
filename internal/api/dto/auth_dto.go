package dto

import (
	"time"

	"github.com/spec-kit/tourdesk/internal/domain"
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest payload for public customer sign-up.
type RegisterRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Phone    string        `json:"phone"`
	Gender   domain.Gender `json:"gender"`
	Age      int           `json:"age"`
	Address  string        `json:"address"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}
