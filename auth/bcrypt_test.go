package auth_test

import (
	"testing"

	"github.com/goliatone/go-provider-api/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hash, err := fastHasher.HashPassword("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)

	assert.NoError(t, fastHasher.ComparePasswordAndHash("Passw0rd!", hash))
	assert.True(t, auth.IsInvalidCredentialsError(fastHasher.ComparePasswordAndHash("nope", hash)))

	_, err = fastHasher.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)
}

func TestNewBcryptHasher_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, auth.DefaultPasswordCost, auth.NewBcryptHasher(0).Cost)
	assert.Equal(t, auth.DefaultPasswordCost, auth.NewBcryptHasher(99).Cost)
	assert.Equal(t, 10, auth.NewBcryptHasher(10).Cost)
}
