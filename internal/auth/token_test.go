package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AkashMedishetty/ISSH-2026-sub004/internal/models"
)

func TestTokenRoundtrip(t *testing.T) {
	Init("test-signing-secret", time.Hour)

	token, err := GenerateToken("user-1", "delegate@example.test", models.UserRoleDelegate)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "delegate@example.test", claims.Email)
	assert.Equal(t, models.UserRoleDelegate, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestParseToken_Invalid(t *testing.T) {
	Init("test-signing-secret", time.Hour)

	_, err := ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	token, err := GenerateToken("user-2", "x@example.test", models.UserRoleAdmin)
	require.NoError(t, err)

	// Signed with a different key.
	Init("some-other-secret", time.Hour)
	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseToken_Expired(t *testing.T) {
	Init("test-signing-secret", time.Hour)

	claims := &Claims{
		UserID: "user-3",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-secret"))
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseToken_RejectsUnsignedToken(t *testing.T) {
	Init("test-signing-secret", time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-4"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
