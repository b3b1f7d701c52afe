package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
	tu "github.com/desertthunder/libris/internal/testing"
)

func newTestProvider(t *testing.T) (*CognitoProvider, *tu.FakeCognito, *tu.MemoryTokenStore) {
	t.Helper()

	fake := tu.NewFakeCognito(t)
	store := &tu.MemoryTokenStore{}
	p, err := NewCognitoProvider(CognitoConfig{
		Region:     "eu-north-1",
		ClientID:   "test-client",
		Endpoint:   fake.Endpoint(),
		HTTPClient: fake.HTTPClient(),
	}, store, log.New(io.Discard))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return p, fake, store
}

func TestNewCognitoProvider(t *testing.T) {
	if _, err := NewCognitoProvider(CognitoConfig{Region: "eu-north-1"}, nil, nil); !errors.Is(err, shared.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig without client id, got %v", err)
	}
	if _, err := NewCognitoProvider(CognitoConfig{ClientID: "c"}, nil, nil); !errors.Is(err, shared.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig without region, got %v", err)
	}
}

func TestCognitoProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("SignUp and Confirm", func(t *testing.T) {
		p, fake, _ := newTestProvider(t)

		if err := p.SignUp(ctx, "alice", "alice@example.com", "correct-horse"); err != nil {
			t.Fatalf("failed to sign up: %v", err)
		}

		err := p.SignUp(ctx, "alice", "alice@example.com", "correct-horse")
		var idErr *IdentityError
		if !errors.As(err, &idErr) || idErr.Code != CodeUsernameExists {
			t.Fatalf("expected UsernameExists, got %v", err)
		}
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Error("identity errors should match ErrAuthFailed")
		}

		err = p.ConfirmSignUp(ctx, "alice", "000000")
		if !errors.As(err, &idErr) || idErr.Code != CodeCodeMismatch {
			t.Fatalf("expected CodeMismatch, got %v", err)
		}
		if idErr.Error() == "" {
			t.Error("expected a human-readable message")
		}

		if err := p.ConfirmSignUp(ctx, "alice", tu.ConfirmationCode); err != nil {
			t.Fatalf("failed to confirm: %v", err)
		}
		if !fake.Confirmed("alice") {
			t.Error("expected account to be confirmed")
		}
	})

	t.Run("SignUp Password Policy", func(t *testing.T) {
		p, _, _ := newTestProvider(t)

		err := p.SignUp(ctx, "bob", "bob@example.com", "short")
		var idErr *IdentityError
		if !errors.As(err, &idErr) || idErr.Code != CodeInvalidPassword {
			t.Fatalf("expected InvalidPassword, got %v", err)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		p, fake, store := newTestProvider(t)
		fake.AddUser("alice", "correct-horse", true)

		id, err := p.Authenticate(ctx, "alice", "correct-horse")
		if err != nil {
			t.Fatalf("failed to authenticate: %v", err)
		}
		if id.Username != "alice" || id.IDToken() == "" {
			t.Errorf("unexpected identity %+v", id)
		}
		if id.Token.RefreshToken == "" || id.Token.Expiry.IsZero() {
			t.Error("expected refresh token and expiry")
		}

		saved, err := store.Load()
		if err != nil || saved.IDToken != id.IDToken() {
			t.Errorf("expected session to be stored, got %+v, err %v", saved, err)
		}
	})

	t.Run("Authenticate Failures", func(t *testing.T) {
		p, fake, store := newTestProvider(t)
		fake.AddUser("alice", "correct-horse", true)
		fake.AddUser("carol", "correct-horse", false)

		_, err := p.Authenticate(ctx, "alice", "wrong")
		var idErr *IdentityError
		if !errors.As(err, &idErr) || idErr.Code != CodeNotAuthorized || idErr.Message != "Incorrect username or password." {
			t.Errorf("expected NotAuthorized with message, got %v", err)
		}

		_, err = p.Authenticate(ctx, "carol", "correct-horse")
		if !errors.As(err, &idErr) || !idErr.Unconfirmed() {
			t.Errorf("expected unconfirmed error, got %v", err)
		}

		if store.Saves != 0 {
			t.Errorf("failed sign-ins must not store sessions, got %d saves", store.Saves)
		}
	})

	t.Run("CurrentSession", func(t *testing.T) {
		t.Run("No Session", func(t *testing.T) {
			p, _, _ := newTestProvider(t)
			if _, err := p.CurrentSession(ctx); !errors.Is(err, shared.ErrNoSession) {
				t.Errorf("expected ErrNoSession, got %v", err)
			}
		})

		t.Run("Valid Session Is Reused", func(t *testing.T) {
			p, fake, _ := newTestProvider(t)
			fake.AddUser("alice", "correct-horse", true)

			first, err := p.Authenticate(ctx, "alice", "correct-horse")
			if err != nil {
				t.Fatalf("failed to authenticate: %v", err)
			}

			id, err := p.CurrentSession(ctx)
			if err != nil {
				t.Fatalf("failed to get session: %v", err)
			}
			if id.IDToken() != first.IDToken() {
				t.Error("expected stored token to be reused")
			}
			if fake.Calls("InitiateAuth") != 1 {
				t.Errorf("expected no refresh call, got %d InitiateAuth calls", fake.Calls("InitiateAuth"))
			}
		})

		t.Run("Expired Session Is Refreshed", func(t *testing.T) {
			p, fake, store := newTestProvider(t)
			fake.AddUser("alice", "correct-horse", true)
			fake.SetTokenTTL(-time.Minute)

			first, err := p.Authenticate(ctx, "alice", "correct-horse")
			if err != nil {
				t.Fatalf("failed to authenticate: %v", err)
			}

			fake.SetTokenTTL(time.Hour)
			id, err := p.CurrentSession(ctx)
			if err != nil {
				t.Fatalf("failed to refresh session: %v", err)
			}
			if id.IDToken() == first.IDToken() {
				t.Error("expected a new id token")
			}
			if id.Token.RefreshToken != first.Token.RefreshToken {
				t.Error("expected refresh token to be kept")
			}

			saved, _ := store.Load()
			if saved.IDToken != id.IDToken() {
				t.Error("expected refreshed session to be stored")
			}
		})

		t.Run("Rejected Refresh Clears Session", func(t *testing.T) {
			p, _, store := newTestProvider(t)
			store.Save(&models.Credentials{
				Username:     "alice",
				IDToken:      tu.IDToken(t, "alice", time.Now().Add(-time.Hour)),
				AccessToken:  "stale",
				RefreshToken: "revoked",
				Expiry:       time.Now().Add(-time.Hour),
			})

			if _, err := p.CurrentSession(ctx); !errors.Is(err, shared.ErrNoSession) {
				t.Errorf("expected ErrNoSession, got %v", err)
			}
			if _, err := store.Load(); !errors.Is(err, shared.ErrNoSession) {
				t.Error("expected stale session to be cleared")
			}
		})
	})

	t.Run("SignOut", func(t *testing.T) {
		p, fake, store := newTestProvider(t)
		fake.AddUser("alice", "correct-horse", true)

		if err := p.SignOut(ctx); err != nil {
			t.Fatalf("signing out with no session should succeed: %v", err)
		}

		if _, err := p.Authenticate(ctx, "alice", "correct-horse"); err != nil {
			t.Fatalf("failed to authenticate: %v", err)
		}
		if err := p.SignOut(ctx); err != nil {
			t.Fatalf("failed to sign out: %v", err)
		}
		if fake.Calls("GlobalSignOut") != 1 {
			t.Errorf("expected GlobalSignOut call, got %d", fake.Calls("GlobalSignOut"))
		}
		if _, err := store.Load(); !errors.Is(err, shared.ErrNoSession) {
			t.Error("expected session to be cleared")
		}
	})

	t.Run("SignOut Revocation Failure Still Clears", func(t *testing.T) {
		p, _, store := newTestProvider(t)
		store.Save(&models.Credentials{Username: "alice", IDToken: "id", AccessToken: "unknown"})

		if err := p.SignOut(ctx); err == nil {
			t.Error("expected revocation error to be returned")
		}
		if _, err := store.Load(); !errors.Is(err, shared.ErrNoSession) {
			t.Error("expected session to be cleared even when revocation fails")
		}
	})
}

func TestParseIDToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ParseIDToken(tu.IDToken(t, "Admin", exp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Username != "Admin" || claims.Email != "Admin@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if !claims.Expiry.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, claims.Expiry)
	}

	if _, err := ParseIDToken("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
