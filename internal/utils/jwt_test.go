// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("unit-test-secret")

	userID := uuid.New()
	token, err := GenerateJWT(userID, "freight_ops", "middleman", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "freight_ops", claims.Username)
	assert.Equal(t, "middleman", claims.Role)
}

func TestJWTRejectsTamperedSecret(t *testing.T) {
	SetJWTSecret("unit-test-secret")
	token, err := GenerateJWT(uuid.New(), "ops", "supplier", 1)
	require.NoError(t, err)

	SetJWTSecret("different-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenSubject(t *testing.T) {
	SetJWTSecret("unit-test-secret")

	userID := uuid.New()
	token, err := GenerateRefreshToken(userID, 24)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)

	_, err = ValidateRefreshToken("garbage")
	assert.Error(t, err)
}
