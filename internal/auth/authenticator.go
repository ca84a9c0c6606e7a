// Package auth handles credential verification and session tokens.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new admin account owning its own tenant.
	// Returns ErrEmailExists if the email is taken.
	Register(ctx context.Context, email, name, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Any mismatch, including an unknown email or a password-less account,
	// returns ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error

	// HashCredential returns the stored form of a credential.
	HashCredential(credential string) (string, error)
}
