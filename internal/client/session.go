package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pantrylab/pantry/internal/errs"
)

// Session holds the opaque bearer credential and normalizes authentication
// failures so every call site handles them the same way: the token is
// cleared, the invalidation callback fires once, and the original
// unauthorized error is re-raised. All other errors pass through untouched.
type Session struct {
	mu           sync.RWMutex
	token        string
	onInvalidate func() // schedules redirect-to-login; fired once per invalidation
	log          *zap.Logger
}

// NewSession constructs a session guard. onInvalidate may be nil.
func NewSession(onInvalidate func(), log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{onInvalidate: onInvalidate, log: log}
}

// SetToken installs the credential after a successful login.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Token returns the current credential, if any.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Logout clears the credential without firing the invalidation callback.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Do runs call with the current token. Without a token it fails fast and
// no network call is made. When call reports errs.ErrUnauthorized the
// session is invalidated before the error is returned; the guard never
// retries.
func (s *Session) Do(ctx context.Context, call func(ctx context.Context, token string) error) error {
	tok, ok := s.Token()
	if !ok {
		return fmt.Errorf("no session: %w", errs.ErrUnauthorized)
	}
	err := call(ctx, tok)
	if errors.Is(err, errs.ErrUnauthorized) {
		s.invalidate(tok)
	}
	return err
}

// invalidate clears the token and fires the callback, but only for the
// caller that observes the seen token still installed. Concurrent
// authentication failures collapse into a single invalidation.
func (s *Session) invalidate(seen string) {
	s.mu.Lock()
	fire := s.token != "" && s.token == seen
	if fire {
		s.token = ""
	}
	s.mu.Unlock()
	if fire {
		s.log.Info("session invalidated")
		if s.onInvalidate != nil {
			s.onInvalidate()
		}
	}
}
