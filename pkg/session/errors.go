package session

import "errors"

var (
	// ErrSessionNotFound indicates no session is stored, or the stored record was unreadable.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrInvalidSession indicates an attempt to save a session without an account or role.
	ErrInvalidSession = errors.New("session.invalid")

	// ErrMalformedSession indicates a persisted record that does not match the session layout.
	ErrMalformedSession = errors.New("session.malformed")
)
