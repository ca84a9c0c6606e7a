package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address, lower-cased and unique.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	// Empty for accounts created through Google sign-in until a password is set.
	PasswordHash string

	// GoogleID is the Google subject identifier for SSO accounts.
	GoogleID string

	// Role is the tenant-level role (admin, manager, viewer).
	Role Role

	// AdminID is the ID of the admin owning this user.
	// Equal to ID for self-registered admins.
	AdminID string

	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a self-registered admin account owning its own tenant.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().Unix()
	id := uuid.New().String()
	return &User{
		ID:           id,
		Name:         name,
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		AdminID:      id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// TenantAdminID returns the admin that owns the user, falling back to the
// user itself for accounts stored before the admin link existed.
func (u *User) TenantAdminID() string {
	if u.AdminID == "" {
		return u.ID
	}
	return u.AdminID
}
