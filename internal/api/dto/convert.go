package dto

import (
	"strings"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/spec-kit/tourdesk/internal/domain"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// Optional unwraps a tri-state request field. An omitted field yields nil and
// an explicit null is rejected, since none of the updatable fields may be cleared.
func Optional[T any](field string, v nullable.Nullable[T]) (*T, error) {
	if !v.IsSpecified() {
		return nil, nil
	}
	if v.IsNull() {
		return nil, apperrors.NewInvalidInput(field+" cannot be null", map[string]any{"field": field})
	}
	value, err := v.Get()
	if err != nil {
		return nil, apperrors.NewInvalidInput("invalid "+field, map[string]any{"field": field})
	}
	return &value, nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperrors.NewInvalidInput(field+" is required", map[string]any{"field": field})
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewInvalidInput("invalid "+field, map[string]any{"field": field, "value": value})
}

// OptionalDate combines Optional and ParseDate.
func OptionalDate(field string, v nullable.Nullable[string]) (*time.Time, error) {
	raw, err := Optional(field, v)
	if err != nil || raw == nil {
		return nil, err
	}
	t, err := ParseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func summaryFromDomain(s domain.AccountSummary) AccountSummaryResponse {
	return AccountSummaryResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
	}
}

func StaffFromDomain(m *domain.StaffMember) StaffResponse {
	return StaffResponse{
		ID:        m.Profile.ID,
		Position:  m.Profile.Position,
		CreatedAt: m.Profile.CreatedAt,
		UpdatedAt: m.Profile.UpdatedAt,
		Account:   summaryFromDomain(m.Account),
	}
}

func CustomerFromDomain(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.Profile.ID,
		Phone:     c.Profile.Phone,
		Gender:    c.Profile.Gender,
		Age:       c.Profile.Age,
		Address:   c.Profile.Address,
		CreatedAt: c.Profile.CreatedAt,
		UpdatedAt: c.Profile.UpdatedAt,
		Account:   summaryFromDomain(c.Account),
	}
}

func TripFromDomain(t *domain.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		CustomerID:  t.CustomerID,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Destination: t.Destination,
		Status:      t.Status,
		CanceledAt:  t.CanceledAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func TripViewFromDomain(v *domain.TripView) TripViewResponse {
	return TripViewResponse{
		TripResponse: TripFromDomain(&v.Trip),
		Customer: TripCustomerResponse{
			ID:        v.Customer.ProfileID,
			AccountID: v.Customer.AccountID,
			Name:      v.Customer.Name,
			Email:     v.Customer.Email,
		},
	}
}
