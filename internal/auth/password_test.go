package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := hasher.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, hasher.Verify("s3cret!", hash))
	assert.False(t, hasher.Verify("wrong", hash))
	assert.False(t, hasher.Verify("s3cret!", "not-a-hash"))
	assert.False(t, hasher.VerifyMissing("s3cret!"))

	_, err = hasher.Hash("")
	assert.Error(t, err)
}

func TestPasswordHasher_CostFallback(t *testing.T) {
	hasher, err := NewPasswordHasher(1)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, hasher.Cost())
}
