package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is the authoritative record of a user and their role.
type Account struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        Role
	CreatedAt   time.Time
}

// Directory is the authoritative source of accounts and roles.
// Implementations must return ErrUnavailable (possibly joined with the
// underlying cause) when the backend cannot be reached.
type Directory interface {
	// Authenticate returns the account matching the credentials.
	// Returns ErrInvalidCredentials if no account matches.
	Authenticate(ctx context.Context, email, password string) (*Account, error)

	// GetByID returns the account with the given id.
	// Returns ErrAccountNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// SetRole overwrites the account's role.
	// Returns ErrAccountNotFound if it does not exist.
	SetRole(ctx context.Context, id uuid.UUID, role Role) error
}
