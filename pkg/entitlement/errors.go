package entitlement

import "errors"

var (
	// ErrDenied is returned by Guard when the decision is a redirect.
	ErrDenied = errors.New("entitlement.denied")

	// ErrUnknownCapability indicates a capability name that does not parse.
	ErrUnknownCapability = errors.New("entitlement.unknown_capability")
)
