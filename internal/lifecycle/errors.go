package lifecycle

import "errors"

var (
	// ErrInvalidRegistration indicates a registration with an empty name or
	// nil callback.
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrDuplicateRegistration indicates a name that is already registered.
	ErrDuplicateRegistration = errors.New("duplicate registration")

	// ErrAlreadyRunning indicates Run was called more than once.
	ErrAlreadyRunning = errors.New("registry already running")
)
