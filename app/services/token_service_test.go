package services

import (
	"testing"
	"time"

	"github.com/samiwater/samiwater-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test-secret-key-0123456789abcdef0123456789abcdef"

func newTokenServiceUnderTest(t *testing.T, ttl time.Duration) TokenService {
	t.Helper()

	svc, err := NewTokenService(ttl, "samiwater-test", "samiwater-test-api", testSecretKey)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	t.Run("EmptySecretRejected", func(t *testing.T) {
		_, err := NewTokenService(time.Hour, "iss", "aud", "")
		require.Error(t, err)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTokenServiceUnderTest(t, time.Hour)

	t.Run("UserToken", func(t *testing.T) {
		customerID := utils.ToPtr(uint(42))

		token, err := svc.GenerateToken(customerID, "09131234567", RoleUser)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)

		assert.Equal(t, "09131234567", claims.Phone)
		assert.Equal(t, RoleUser, claims.Role)
		require.NotNil(t, claims.CustomerID)
		assert.Equal(t, uint(42), *claims.CustomerID)
		assert.NotEmpty(t, claims.TokenID)
		assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
	})

	t.Run("TokenWithoutCustomer", func(t *testing.T) {
		token, err := svc.GenerateToken(nil, "09120000000", RoleAdmin)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)

		assert.Equal(t, RoleAdmin, claims.Role)
		assert.Nil(t, claims.CustomerID)
	})

	t.Run("TokenIDsAreUnique", func(t *testing.T) {
		first, err := svc.GenerateToken(nil, "09131234567", RoleUser)
		require.NoError(t, err)
		second, err := svc.GenerateToken(nil, "09131234567", RoleUser)
		require.NoError(t, err)

		firstClaims, err := svc.ValidateToken(first)
		require.NoError(t, err)
		secondClaims, err := svc.ValidateToken(second)
		require.NoError(t, err)

		assert.NotEqual(t, firstClaims.TokenID, secondClaims.TokenID)
	})
}

func TestTokenValidationFailures(t *testing.T) {
	svc := newTokenServiceUnderTest(t, time.Hour)

	t.Run("ExpiredToken", func(t *testing.T) {
		shortLived := newTokenServiceUnderTest(t, -time.Minute)

		token, err := shortLived.GenerateToken(nil, "09131234567", RoleUser)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongSigningKey", func(t *testing.T) {
		other, err := NewTokenService(time.Hour, "samiwater-test", "samiwater-test-api",
			"another-secret-key-0123456789abcdef01234567")
		require.NoError(t, err)

		token, err := other.GenerateToken(nil, "09131234567", RoleUser)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
