package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request missing a required field or carrying an invalid value.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when registering an email that already exists.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when the requested user or record does not exist or is not visible.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when a password does not match or no identity was supplied.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUpstream wraps failures of the generative-AI provider.
	ErrUpstream = errors.New("upstream failure")
	// ErrStorageDisabled is returned by exports when no bucket is configured.
	ErrStorageDisabled = errors.New("storage service not configured")

	// ErrInvalidCredentials is joined with ErrNotFound or ErrUnauthorized on login failures.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
