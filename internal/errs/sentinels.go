// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/service/repo layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is out of scope.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, rejected or expired credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates malformed input caught before any state change or network call.
	ErrValidation = errors.New("validation")

	// ErrMalformedResponse indicates a structurally invalid service reply.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")
)
