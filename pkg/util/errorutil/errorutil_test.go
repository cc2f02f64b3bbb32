package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStableStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewUnauthorized("x"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("x"), CodeForbidden, http.StatusForbidden},
		{NewNotFound("trip", nil), CodeNotFound, http.StatusNotFound},
		{NewConflict("x", nil), CodeConflict, http.StatusConflict},
		{NewInvalidInput("x", nil), CodeInvalidInput, http.StatusBadRequest},
		{NewInvalidTransition("x", nil), CodeInvalidTransition, http.StatusBadRequest},
		{NewRateLimited("x"), CodeRateLimited, http.StatusTooManyRequests},
		{NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		require.NotNil(t, de)
		assert.Equal(t, tc.code, de.Code)
		assert.Equal(t, tc.status, de.HTTPStatus)
		assert.True(t, Is(tc.err, tc.code))
	}
}

func TestToDomainError_WrappedAndUnclassified(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NewNotFound("customer", map[string]any{"id": "c1"}))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, "customer not found", ToDomainError(wrapped).Message)

	plain := errors.New("connection refused")
	de := ToDomainError(plain)
	assert.Equal(t, CodeInternal, de.Code)
	assert.ErrorIs(t, de, plain)

	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
	assert.Equal(t, "", CodeOf(nil))
	assert.False(t, Is(plain, CodeNotFound))
}
