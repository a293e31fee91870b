package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Role is the access level attached to an issued token
type Role string

// Supported roles
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Role service error constants
var (
	ErrPINRequired = errors.New("admin PIN is required")
	ErrPINMismatch = errors.New("admin PIN does not match")
)

// RoleResolver maps a verified phone number to a role and enforces the
// optional admin PIN step
type RoleResolver interface {
	Resolve(phone string) Role
	RequiresPIN(role Role) bool
	VerifyPIN(pin string) error
}

// RoleResolverImpl resolves roles against the configured admin phone
type RoleResolverImpl struct {
	adminPhone   string
	adminPINHash string
}

// NewRoleResolver creates a role resolver backed by static configuration.
// adminPINHash is a bcrypt hash; when empty, admin login skips the PIN step.
func NewRoleResolver(adminPhone, adminPINHash string) RoleResolver {
	return &RoleResolverImpl{
		adminPhone:   adminPhone,
		adminPINHash: adminPINHash,
	}
}

// Resolve returns the role for a phone number
func (r *RoleResolverImpl) Resolve(phone string) Role {
	if r.adminPhone != "" && phone == r.adminPhone {
		return RoleAdmin
	}
	return RoleUser
}

// RequiresPIN reports whether the role needs a second factor
func (r *RoleResolverImpl) RequiresPIN(role Role) bool {
	return role == RoleAdmin && r.adminPINHash != ""
}

// VerifyPIN checks a plaintext PIN against the configured bcrypt hash
func (r *RoleResolverImpl) VerifyPIN(pin string) error {
	if pin == "" {
		return ErrPINRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(r.adminPINHash), []byte(pin)); err != nil {
		return ErrPINMismatch
	}
	return nil
}
