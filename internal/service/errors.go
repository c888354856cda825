package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is; anything
// that matches none of them is an internal error.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrMisconfigured = errors.New("auth config invalid")
)

// Refinements of ErrUnauthorized.
var (
	ErrMissingToken       = fmt.Errorf("%w: missing token", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
)

var errUserExists = fmt.Errorf("%w: user with this email or username already exists", ErrConflict)

func invalidInput(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
