package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourdesk/internal/domain"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

func TestOptional_TriState(t *testing.T) {
	var req UpdateCustomerRequest
	require.NoError(t, json.Unmarshal([]byte(`{"age":41,"phone":null}`), &req))

	age, err := Optional("age", req.Age)
	require.NoError(t, err)
	require.NotNil(t, age)
	assert.Equal(t, 41, *age)

	address, err := Optional("address", req.Address)
	require.NoError(t, err)
	assert.Nil(t, address)

	_, err = Optional("phone", req.Phone)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("start_date", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("start_date", "2025-01-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("start_date", "01/02/2025")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
	_, err = ParseDate("start_date", "")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestOptionalDate(t *testing.T) {
	var req UpdateTripRequest
	require.NoError(t, json.Unmarshal([]byte(`{"end_date":"2025-01-10"}`), &req))

	start, err := OptionalDate("start_date", req.StartDate)
	require.NoError(t, err)
	assert.Nil(t, start)

	end, err := OptionalDate("end_date", req.EndDate)
	require.NoError(t, err)
	require.NotNil(t, end)
	assert.Equal(t, 10, end.Day())
}

func TestTripViewFromDomain_FlattensTripAndNestsCustomer(t *testing.T) {
	view := &domain.TripView{
		Trip: domain.Trip{
			ID:          "trip-1",
			CustomerID:  "profile-1",
			StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
			Destination: json.RawMessage(`{"city":"Bali"}`),
			Status:      domain.TripStatusPlanned,
		},
		Customer: domain.TripCustomer{ProfileID: "profile-1", AccountID: "account-1", Name: "Alice", Email: "alice@x.com"},
	}

	raw, err := json.Marshal(TripViewFromDomain(view))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "trip-1", body["id"])
	assert.Equal(t, "profile-1", body["customer_id"])
	assert.Equal(t, map[string]any{
		"id":         "profile-1",
		"account_id": "account-1",
		"name":       "Alice",
		"email":      "alice@x.com",
	}, body["customer"])
}
