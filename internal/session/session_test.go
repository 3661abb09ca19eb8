package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/trackline/internal/shared"
	"golang.org/x/oauth2"
)

// fakeRefresher counts refresh calls and returns a scripted result.
type fakeRefresher struct {
	calls int
	token *oauth2.Token
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("EnsureValid", func(t *testing.T) {
		t.Run("Empty Session", func(t *testing.T) {
			refresher := &fakeRefresher{}
			sess := New(refresher, nil)

			ok, err := sess.EnsureValid(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ok {
				t.Error("expected empty session to be invalid")
			}
			if refresher.calls != 0 {
				t.Errorf("expected no refresh attempt, got %d", refresher.calls)
			}
		})

		t.Run("Valid Token Makes No Network Call", func(t *testing.T) {
			refresher := &fakeRefresher{}
			sess := New(refresher, nil)
			sess.now = func() time.Time { return base }
			sess.Apply(&oauth2.Token{
				AccessToken:  "token",
				RefreshToken: "refresh",
				Expiry:       base.Add(time.Hour),
			})

			for i := 0; i < 2; i++ {
				ok, err := sess.EnsureValid(ctx)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if !ok {
					t.Error("expected session to be valid")
				}
			}

			if refresher.calls != 0 {
				t.Errorf("expected no refresh calls, got %d", refresher.calls)
			}
			if got := sess.Credentials().AccessToken; got != "token" {
				t.Errorf("expected credential to be untouched, got %s", got)
			}
		})

		t.Run("Expired Token Refreshes", func(t *testing.T) {
			refresher := &fakeRefresher{token: &oauth2.Token{
				AccessToken: "fresh",
				Expiry:      base.Add(2 * time.Hour),
			}}
			sess := New(refresher, nil)
			sess.now = func() time.Time { return base }
			sess.Apply(&oauth2.Token{
				AccessToken:  "stale",
				RefreshToken: "refresh",
				Expiry:       base.Add(-time.Minute),
			})

			before := sess.Credentials().ExpiresAt

			ok, err := sess.EnsureValid(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !ok {
				t.Error("expected session to be valid after refresh")
			}
			if refresher.calls != 1 {
				t.Errorf("expected one refresh call, got %d", refresher.calls)
			}

			creds := sess.Credentials()
			if creds.AccessToken != "fresh" {
				t.Errorf("expected refreshed access token, got %s", creds.AccessToken)
			}
			if !creds.ExpiresAt.After(before) {
				t.Error("expected ExpiresAt to strictly increase after refresh")
			}
			if creds.RefreshToken != "refresh" {
				t.Errorf("expected refresh token to be retained, got %q", creds.RefreshToken)
			}
		})

		t.Run("Refresh Failure Propagates", func(t *testing.T) {
			boom := errors.New("provider rejected refresh")
			refresher := &fakeRefresher{err: boom}
			sess := New(refresher, nil)
			sess.now = func() time.Time { return base }
			sess.Apply(&oauth2.Token{
				AccessToken:  "stale",
				RefreshToken: "refresh",
				Expiry:       base.Add(-time.Minute),
			})

			ok, err := sess.EnsureValid(ctx)
			if ok {
				t.Error("expected session to be invalid")
			}
			if !errors.Is(err, boom) {
				t.Errorf("expected refresh error to propagate, got %v", err)
			}
			if refresher.calls != 1 {
				t.Errorf("expected a single refresh attempt, got %d", refresher.calls)
			}
		})

		t.Run("Expired Without Refresh Token", func(t *testing.T) {
			sess := New(&fakeRefresher{}, nil)
			sess.now = func() time.Time { return base }
			sess.Apply(&oauth2.Token{
				AccessToken: "stale",
				Expiry:      base.Add(-time.Minute),
			})

			ok, err := sess.EnsureValid(ctx)
			if ok {
				t.Error("expected session to be invalid")
			}
			if !errors.Is(err, shared.ErrNoRefreshToken) {
				t.Errorf("expected ErrNoRefreshToken, got %v", err)
			}
		})
	})

	t.Run("Apply", func(t *testing.T) {
		t.Run("Keeps Refresh Token When Grant Omits One", func(t *testing.T) {
			sess := New(&fakeRefresher{}, nil)
			sess.Apply(&oauth2.Token{AccessToken: "a", RefreshToken: "keep-me", Expiry: base})
			sess.Apply(&oauth2.Token{AccessToken: "b", Expiry: base.Add(time.Hour)})

			creds := sess.Credentials()
			if creds.RefreshToken != "keep-me" {
				t.Errorf("expected refresh token to survive, got %q", creds.RefreshToken)
			}
			if creds.AccessToken != "b" {
				t.Errorf("expected new access token, got %q", creds.AccessToken)
			}
		})

		t.Run("Adopts Replacement Refresh Token", func(t *testing.T) {
			sess := New(&fakeRefresher{}, nil)
			sess.Apply(&oauth2.Token{AccessToken: "a", RefreshToken: "old", Expiry: base})
			sess.Apply(&oauth2.Token{AccessToken: "b", RefreshToken: "new", Expiry: base})

			if got := sess.Credentials().RefreshToken; got != "new" {
				t.Errorf("expected replacement refresh token, got %q", got)
			}
		})
	})

	t.Run("Login State", func(t *testing.T) {
		t.Run("Matching Nonce", func(t *testing.T) {
			sess := New(&fakeRefresher{}, nil)
			state := sess.BeginLogin()

			if err := sess.CompleteLogin(state); err != nil {
				t.Errorf("expected matching state to pass, got %v", err)
			}
		})

		t.Run("Mismatched Nonce", func(t *testing.T) {
			sess := New(&fakeRefresher{}, nil)
			sess.BeginLogin()

			if err := sess.CompleteLogin("wrong"); !errors.Is(err, shared.ErrStateMismatch) {
				t.Errorf("expected ErrStateMismatch, got %v", err)
			}
		})

		t.Run("Nonce Is Single Use", func(t *testing.T) {
			sess := New(&fakeRefresher{}, nil)
			state := sess.BeginLogin()

			if err := sess.CompleteLogin(state); err != nil {
				t.Fatalf("expected first completion to pass, got %v", err)
			}
			if err := sess.CompleteLogin(state); !errors.Is(err, shared.ErrStateMismatch) {
				t.Errorf("expected consumed nonce to be rejected, got %v", err)
			}
		})

		t.Run("New Login Invalidates In-Flight One", func(t *testing.T) {
			sess := New(&fakeRefresher{}, nil)
			first := sess.BeginLogin()
			second := sess.BeginLogin()

			if err := sess.CompleteLogin(first); !errors.Is(err, shared.ErrStateMismatch) {
				t.Errorf("expected stale nonce to be rejected, got %v", err)
			}
			if err := sess.CompleteLogin(second); err != nil {
				t.Errorf("expected current nonce to pass, got %v", err)
			}
		})
	})
}
