package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// dummyPassword backs the digest compared when no account matches a login,
// so unknown emails spend the same bcrypt work as wrong passwords.
const dummyPassword = "tourdesk-unknown-account"

// PasswordHasher hashes and verifies passwords with a fixed bcrypt cost.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher builds a hasher. Out-of-range costs fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, err
	}
	return &PasswordHasher{cost: cost, dummy: dummy}, nil
}

// Hash returns a salted digest of the plaintext password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the digest.
func (h *PasswordHasher) Verify(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// VerifyMissing burns one comparison against the dummy digest and always fails.
func (h *PasswordHasher) VerifyMissing(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	return false
}

// Cost returns the configured work factor.
func (h *PasswordHasher) Cost() int {
	return h.cost
}
