package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourdesk/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	token, expires, err := tm.Issue("acc-1", domain.RoleStaff)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, 5*time.Second)

	identity, err := tm.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{SubjectID: "acc-1", Role: domain.RoleStaff}, identity)
}

func TestTokenManager_RejectsInvalidTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	other := NewTokenManager("other-secret", 15)

	foreign, _, err := other.Issue("acc-1", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = tm.Decode(foreign)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = tm.Decode("garbage")
	assert.ErrorIs(t, err, ErrInvalidSession)

	expired, _, err := tm.Issue("acc-1", domain.RoleAdmin)
	require.NoError(t, err)
	tm.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = tm.Decode(expired)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestTokenManager_RejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	claims := Claims{
		Role: domain.Role("ROOT"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
