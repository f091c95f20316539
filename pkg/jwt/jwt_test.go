package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("user-1", AccessToken, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, IsTokenValid(token, secret, AccessToken))
}

func TestTokensAreUnique(t *testing.T) {
	a, err := GenerateToken("user-1", AccessToken, secret, time.Hour)
	require.NoError(t, err)
	b, err := GenerateToken("user-1", AccessToken, secret, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", AccessToken, secret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other")
	assert.Error(t, err)
	assert.False(t, IsTokenValid(token, "other", AccessToken))
}

func TestValidateRejectsExpired(t *testing.T) {
	token, err := GenerateToken("user-1", AccessToken, secret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, secret)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", secret)
	assert.Error(t, err)
}
