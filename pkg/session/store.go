package session

import "context"

// Store persists the current session.
type Store interface {
	// Save replaces the stored session. The write is visible to Load once Save returns.
	Save(ctx context.Context, s *Session) error

	// Load returns the stored session or ErrSessionNotFound.
	// Unreadable records are cleared and reported as ErrSessionNotFound.
	Load(ctx context.Context) (*Session, error)

	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
