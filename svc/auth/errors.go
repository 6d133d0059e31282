package auth

import "errors"

// Kind classifies an authentication failure.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindNetwork            Kind = "network"
	KindUnauthenticated    Kind = "unauthenticated"
	KindTooManyAttempts    Kind = "too_many_attempts"
)

// Error is an authentication failure of a given Kind, optionally wrapping its cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "auth." + string(e.Kind) + ": " + e.Err.Error()
	}
	return "auth." + string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrNetwork            = &Error{Kind: KindNetwork}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrTooManyAttempts    = &Error{Kind: KindTooManyAttempts}
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of an auth error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
