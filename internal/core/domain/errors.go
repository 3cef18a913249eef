package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrCapacityExceeded = errors.New("harbour capacity exceeded")
	// ErrBerthMismatch means the stored harbour of a boat and the harbour
	// records disagree.
	ErrBerthMismatch = errors.New("boat berth does not match harbour")

	// ErrUnauthenticated covers a missing, malformed, invalid or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access forbidden")
)
