package shared

import "errors"

// Sentinel errors shared across domains. Services wrap them with context;
// the HTTP layer maps them to status codes with errors.Is.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConcurrencyConflict = errors.New("resource was modified concurrently")
	ErrUnauthorized        = errors.New("not authorized")
	ErrForbidden           = errors.New("forbidden")
)
