package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/vipgate/pkg/account"
)

// Session is the authenticated account plus its role cached at issue or refresh time.
type Session struct {
	AccountID uuid.UUID
	Role      account.Role
	IssuedAt  time.Time
}

// New issues a session for the account, caching its current role.
func New(acc *account.Account) *Session {
	return &Session{
		AccountID: acc.ID,
		Role:      acc.Role,
		IssuedAt:  time.Now().UTC(),
	}
}

// IsAuthenticated reports whether s refers to an account.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AccountID != uuid.Nil
}

// HasRole reports whether the cached role includes role.
func (s *Session) HasRole(role account.Role) bool {
	return s.IsAuthenticated() && s.Role.Includes(role)
}

// Validate checks the fields a persisted session must carry.
func (s *Session) Validate() error {
	if !s.IsAuthenticated() || !s.Role.Valid() || s.IssuedAt.IsZero() {
		return ErrInvalidSession
	}
	return nil
}

// Clone returns an independent copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
