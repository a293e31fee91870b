package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRoleResolver(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("492817"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("AdminPhoneResolvesToAdmin", func(t *testing.T) {
		resolver := NewRoleResolver("09120000000", string(hashed))

		assert.Equal(t, RoleAdmin, resolver.Resolve("09120000000"))
		assert.Equal(t, RoleUser, resolver.Resolve("09131234567"))
	})

	t.Run("NoAdminConfigured", func(t *testing.T) {
		resolver := NewRoleResolver("", "")

		assert.Equal(t, RoleUser, resolver.Resolve("09120000000"))
	})

	t.Run("PINRequiredOnlyForAdminWithHash", func(t *testing.T) {
		withPIN := NewRoleResolver("09120000000", string(hashed))
		assert.True(t, withPIN.RequiresPIN(RoleAdmin))
		assert.False(t, withPIN.RequiresPIN(RoleUser))

		withoutPIN := NewRoleResolver("09120000000", "")
		assert.False(t, withoutPIN.RequiresPIN(RoleAdmin))
	})

	t.Run("VerifyPIN", func(t *testing.T) {
		resolver := NewRoleResolver("09120000000", string(hashed))

		assert.NoError(t, resolver.VerifyPIN("492817"))
		assert.ErrorIs(t, resolver.VerifyPIN("000000"), ErrPINMismatch)
		assert.ErrorIs(t, resolver.VerifyPIN(""), ErrPINRequired)
	})
}
