package account

import "errors"

var (
	// ErrAccountNotFound indicates no account exists for the given id or email.
	ErrAccountNotFound = errors.New("account.not_found")

	// ErrInvalidCredentials indicates the email/password pair did not match any account.
	ErrInvalidCredentials = errors.New("account.invalid_credentials")

	// ErrUnavailable indicates the directory backend could not be reached.
	ErrUnavailable = errors.New("account.directory_unavailable")

	// ErrInvalidRole indicates an unknown role name.
	ErrInvalidRole = errors.New("account.invalid_role")

	// ErrEmailAlreadyExists indicates an account with the same email is already registered.
	ErrEmailAlreadyExists = errors.New("account.email_already_exists")
)
