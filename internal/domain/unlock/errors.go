package unlock

import "errors"

var (
	// ErrInvalidCode indicates the supplied admin code is wrong.
	ErrInvalidCode = errors.New("invalid admin code")
	// ErrMissingSession indicates an unlock was requested outside a session.
	ErrMissingSession = errors.New("session id required")
)
