package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewJWTMaker("secret-key", time.Hour)

	token, err := maker.GenerateToken("ada", "user", "uid-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "uid-1", claims.UserUID)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestParseExpiredToken(t *testing.T) {
	maker := NewJWTMaker("secret-key", -time.Minute)

	token, err := maker.GenerateToken("ada", "user", "uid-1")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenWrongKey(t *testing.T) {
	maker := NewJWTMaker("secret-key", time.Hour)
	other := NewJWTMaker("another-key", time.Hour)

	token, err := maker.GenerateToken("ada", "admin", "uid-1")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseGarbageToken(t *testing.T) {
	maker := NewJWTMaker("secret-key", time.Hour)

	_, err := maker.ParseToken("not.a.token")
	assert.Error(t, err)
}
