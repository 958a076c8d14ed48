// Package limiter throttles login attempts per (username, client IP).
package limiter

import (
	"context"
	"time"
)

// Limiter tracks failed logins and enforces temporary lockouts.
// The ipHash argument is a digest of the client address, never the raw IP.
type Limiter interface {
	// Allow reports whether a login attempt may proceed. When blocked,
	// the duration says how long until the next attempt is accepted.
	Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
	// Success clears the failure counter after a good login.
	Success(ctx context.Context, username string, ipHash []byte) error
	// Failure records a bad attempt and reports whether it tripped a block.
	Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error)
}
