// package session holds the single in-process credential set and the
// pending-authorization state for the login flow.
//
// The process is single-tenant by construction: one Session instance is
// created at startup and passed by handle to every request path. Multi-user
// support would key sessions by a user identifier instead.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackline/internal/shared"
	"golang.org/x/oauth2"
)

// Credentials is one credential set: the bearer token, the refresh token
// that renews it, and the absolute instant the bearer token expires.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Refresher renews an expired credential set at the provider's token
// endpoint. Implemented by [spotify.Authenticator].
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Session is the process-wide credential slot.
//
// It moves through three states: empty (no tokens yet), valid, and expired.
// Expired sessions transition back to valid through a refresh; empty only
// through a fresh login. Refreshes are serialized behind the mutex so
// concurrent requests observing an expired token trigger one refresh, not a
// last-writer-wins race.
type Session struct {
	mu        sync.Mutex
	creds     Credentials
	state     string // pending login nonce, single slot
	refresher Refresher
	logger    *log.Logger
	now       func() time.Time
}

// New creates an empty Session that refreshes through r.
func New(r Refresher, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Session{refresher: r, logger: logger, now: time.Now}
}

// BeginLogin issues a fresh state nonce for a login attempt.
//
// Single slot: a new login attempt silently invalidates an in-flight one.
func (s *Session) BeginLogin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = shared.GenerateID()
	return s.state
}

// CompleteLogin verifies the callback's state nonce against the pending one
// and consumes it. Returns [shared.ErrStateMismatch] when they differ.
func (s *Session) CompleteLogin(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" || state != s.state {
		return shared.ErrStateMismatch
	}
	s.state = ""
	return nil
}

// Apply installs a new token grant.
//
// A grant without a replacement refresh token keeps the existing one; a
// valid refresh token is never overwritten with an empty value.
func (s *Session) Apply(token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(token)
}

func (s *Session) apply(token *oauth2.Token) {
	s.creds.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.creds.RefreshToken = token.RefreshToken
	}
	s.creds.ExpiresAt = token.Expiry
}

// EnsureValid reports whether the session is currently usable, refreshing a
// stale credential set in place.
//
// Returns (false, nil) only when no access token has ever been set: the
// caller must send the user back to login. A token past its expiry triggers
// one synchronous refresh; on success the call still reports true. A failed
// refresh is fatal for the request and is returned as an error wrapping
// [shared.ErrRefreshFailed] with no retry.
//
// When the token is present and unexpired no network call is made.
func (s *Session) EnsureValid(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds.AccessToken == "" {
		s.logger.Debug("session is empty, login required")
		return false, nil
	}

	if s.now().Before(s.creds.ExpiresAt) {
		return true, nil
	}

	s.logger.Info("session expired, refreshing access token")

	if s.creds.RefreshToken == "" {
		return false, shared.ErrNoRefreshToken
	}

	token, err := s.refresher.Refresh(ctx, s.creds.RefreshToken)
	if err != nil {
		return false, err
	}

	s.apply(token)
	return true, nil
}

// AccessToken returns the current bearer token. Empty for an empty session.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.AccessToken
}

// Credentials returns a snapshot of the current credential set.
func (s *Session) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}
