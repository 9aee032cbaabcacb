package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseJWT(t *testing.T) {
	tokenStr, err := SignJWT("s3cret", "user-123", "tasker", 15)
	require.NoError(t, err)

	_, claims, err := ParseJWT("s3cret", tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "tasker", claims.Role)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tokenStr, err := SignJWT("s3cret", "user-123", "client", 15)
	require.NoError(t, err)

	_, _, err = ParseJWT("other", tokenStr)
	assert.Error(t, err)
}

func TestParseJWT_Expired(t *testing.T) {
	tokenStr, err := SignJWT("s3cret", "user-123", "client", -1)
	require.NoError(t, err)

	_, _, err = ParseJWT("s3cret", tokenStr)
	assert.Error(t, err)
}

func TestParseJWT_RejectsNonHMAC(t *testing.T) {
	// A token that claims alg "none" must not pass verification.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-123", Role: "admin"})
	tokenStr, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = ParseJWT("s3cret", tokenStr)
	assert.Error(t, err)
}
