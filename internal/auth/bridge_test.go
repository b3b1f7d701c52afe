package auth

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/services"
	"github.com/desertthunder/libris/internal/shared"
	tu "github.com/desertthunder/libris/internal/testing"
	"golang.org/x/oauth2"
)

type stubProvider struct {
	signUpErr  error
	confirmErr error
	authErr    error
	sessionErr error
	signOutErr error

	identity *services.Identity
	current  *services.Identity

	signUps, confirms, auths, sessions, signOuts int
}

func identity(username, idToken string) *services.Identity {
	tok := (&oauth2.Token{AccessToken: "access-" + username}).WithExtra(map[string]any{"id_token": idToken})
	return &services.Identity{Username: username, Token: tok}
}

func (s *stubProvider) SignUp(context.Context, string, string, string) error {
	s.signUps++
	return s.signUpErr
}

func (s *stubProvider) ConfirmSignUp(context.Context, string, string) error {
	s.confirms++
	return s.confirmErr
}

func (s *stubProvider) Authenticate(_ context.Context, username, _ string) (*services.Identity, error) {
	s.auths++
	if s.authErr != nil {
		return nil, s.authErr
	}
	if s.identity != nil {
		return s.identity, nil
	}
	return identity(username, "id-"+username), nil
}

func (s *stubProvider) CurrentSession(context.Context) (*services.Identity, error) {
	s.sessions++
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	if s.current == nil {
		return nil, shared.ErrNoSession
	}
	return s.current, nil
}

func (s *stubProvider) SignOut(context.Context) error {
	s.signOuts++
	return s.signOutErr
}

type countingLoader struct {
	calls int
	err   error
	order *[]string
	name  string
}

func (l *countingLoader) Load(context.Context) error {
	l.calls++
	if l.order != nil {
		*l.order = append(*l.order, l.name)
	}
	return l.err
}

type fixture struct {
	provider   *stubProvider
	store      *library.Store
	catalog    *countingLoader
	membership *countingLoader
	bridge     *Bridge
	order      []string
}

func newFixture(mode library.Mode) *fixture {
	f := &fixture{provider: &stubProvider{}, store: library.NewStore(mode, "admin")}
	f.catalog = &countingLoader{name: "catalog", order: &f.order}
	f.membership = &countingLoader{name: "membership", order: &f.order}
	f.bridge = NewBridge(f.provider, f.store, log.New(io.Discard)).
		WithCatalog(f.catalog).
		WithMembership(f.membership)
	return f
}

func TestBridge(t *testing.T) {
	ctx := context.Background()

	t.Run("starts restoring", func(t *testing.T) {
		f := newFixture(library.ModeCollections)
		if f.bridge.State() != StateRestoring {
			t.Errorf("State() = %v", f.bridge.State())
		}
	})

	t.Run("SignUp", func(t *testing.T) {
		t.Run("moves to pending verification", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			if err := f.bridge.SignUp(ctx, "alice", "alice@example.com", "pw"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.bridge.State() != StatePendingVerification || f.bridge.PendingUsername() != "alice" {
				t.Errorf("state = %v pending = %q", f.bridge.State(), f.bridge.PendingUsername())
			}
		})

		t.Run("failure keeps state and carries the message", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			f.provider.signUpErr = &services.IdentityError{Code: services.CodeUsernameExists, Message: "User already exists"}

			err := f.bridge.SignUp(ctx, "alice", "alice@example.com", "pw")
			var authErr *Error
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if authErr.Message != "User already exists" || authErr.Code != services.CodeUsernameExists {
				t.Errorf("got %+v", authErr)
			}
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Error("expected ErrAuthFailed in chain")
			}
			if f.bridge.State() != StateRestoring {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})

		t.Run("missing fields are rejected locally", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			if err := f.bridge.SignUp(ctx, "alice", "", "pw"); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if f.provider.signUps != 0 {
				t.Error("provider should not be called")
			}
		})
	})

	t.Run("Verify", func(t *testing.T) {
		t.Run("success signs nobody in", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			_ = f.bridge.SignUp(ctx, "alice", "alice@example.com", "pw")
			if err := f.bridge.Verify(ctx, "", "123456"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.bridge.State() != StateAnonymous {
				t.Errorf("State() = %v", f.bridge.State())
			}
			if f.store.Session().SignedIn() {
				t.Error("verification must not sign in")
			}
		})

		t.Run("failure stays pending", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			_ = f.bridge.SignUp(ctx, "alice", "alice@example.com", "pw")
			f.provider.confirmErr = &services.IdentityError{Code: services.CodeCodeMismatch, Message: "Invalid code"}

			if err := f.bridge.Verify(ctx, "alice", "000000"); err == nil {
				t.Fatal("expected error")
			}
			if f.bridge.State() != StatePendingVerification {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})

		t.Run("needs a username", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			if err := f.bridge.Verify(ctx, "", "123456"); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("populates the session then reloads", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			if err := f.bridge.Login(ctx, "Admin", "pw"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			sess := f.store.Session()
			if sess.Token != "id-Admin" || sess.Username != "Admin" || !sess.IsAdmin {
				t.Errorf("session = %+v", sess)
			}
			if f.bridge.State() != StateAuthenticated {
				t.Errorf("State() = %v", f.bridge.State())
			}
			if len(f.order) != 2 || f.order[0] != "membership" || f.order[1] != "catalog" {
				t.Errorf("reload order = %v", f.order)
			}
		})

		t.Run("failure restores the previous session", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			if err := f.bridge.Login(ctx, "alice", "pw"); err != nil {
				t.Fatal(err)
			}
			f.provider.authErr = &services.IdentityError{Code: services.CodeNotAuthorized, Message: "Incorrect username or password."}

			err := f.bridge.Login(ctx, "bob", "wrong")
			var authErr *Error
			if !errors.As(err, &authErr) || authErr.Message != "Incorrect username or password." {
				t.Fatalf("got %v", err)
			}
			if sess := f.store.Session(); sess.Username != "alice" {
				t.Errorf("session = %+v", sess)
			}
			if f.bridge.State() != StateAuthenticated {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})

		t.Run("unconfirmed accounts are flagged", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			f.provider.authErr = &services.IdentityError{Code: services.CodeUserNotConfirmed, Message: "User is not confirmed."}

			err := f.bridge.Login(ctx, "alice", "pw")
			var authErr *Error
			if !errors.As(err, &authErr) || !authErr.Unconfirmed() {
				t.Fatalf("got %v", err)
			}
			if f.bridge.State() != StateRestoring {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})

		t.Run("dependent load failures do not fail login", func(t *testing.T) {
			f := newFixture(library.ModeFavorites)
			f.catalog.err = shared.ErrServiceUnavailable
			f.membership.err = shared.ErrServiceUnavailable

			if err := f.bridge.Login(ctx, "alice", "pw"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.bridge.State() != StateAuthenticated {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})

		t.Run("switching users drops the previous membership", func(t *testing.T) {
			f := newFixture(library.ModeFavorites)
			if err := f.bridge.Login(ctx, "alice", "pw"); err != nil {
				t.Fatal(err)
			}
			f.store.ReplaceFavorites([]models.Favorite{{BookID: "1", UserID: "alice"}})
			f.membership.err = shared.ErrServiceUnavailable

			if err := f.bridge.Login(ctx, "bob", "pw"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sess := f.store.Session(); sess.Username != "bob" {
				t.Errorf("session = %+v", sess)
			}
			if f.store.IsFavorite("1") {
				t.Error("alice's favorite should not carry over to bob")
			}
		})

		t.Run("a token without an id token is rejected", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			f.provider.identity = &services.Identity{Username: "alice", Token: &oauth2.Token{AccessToken: "a"}}
			if err := f.bridge.Login(ctx, "alice", "pw"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("RestoreSession", func(t *testing.T) {
		t.Run("valid session populates like login", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			f.provider.current = identity("alice", "id-alice")

			if err := f.bridge.RestoreSession(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.bridge.State() != StateAuthenticated || f.store.Session().Token != "id-alice" {
				t.Errorf("state = %v session = %+v", f.bridge.State(), f.store.Session())
			}
			if f.membership.calls != 1 || f.catalog.calls != 1 {
				t.Errorf("loads membership=%d catalog=%d", f.membership.calls, f.catalog.calls)
			}
		})

		t.Run("no session is anonymous", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			if err := f.bridge.RestoreSession(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.bridge.State() != StateAnonymous {
				t.Errorf("State() = %v", f.bridge.State())
			}
			if f.membership.calls != 0 || f.catalog.calls != 1 {
				t.Errorf("loads membership=%d catalog=%d", f.membership.calls, f.catalog.calls)
			}
		})

		t.Run("provider failure is anonymous with an error", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			f.provider.sessionErr = shared.ErrServiceUnavailable

			err := f.bridge.RestoreSession(ctx)
			var authErr *Error
			if !errors.As(err, &authErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if f.bridge.State() != StateAnonymous {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})

		t.Run("second call is a no-op", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			_ = f.bridge.RestoreSession(ctx)
			f.provider.current = identity("alice", "id-alice")
			_ = f.bridge.RestoreSession(ctx)

			if f.provider.sessions != 1 {
				t.Errorf("CurrentSession called %d times", f.provider.sessions)
			}
			if f.bridge.State() != StateAnonymous {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("clears everything even when the provider fails", func(t *testing.T) {
			f := newFixture(library.ModeFavorites)
			_ = f.bridge.Login(ctx, "admin", "pw")
			f.store.ReplaceFavorites([]models.Favorite{{BookID: "1"}})
			f.provider.signOutErr = shared.ErrServiceUnavailable

			f.bridge.Logout(ctx)

			sess := f.store.Session()
			if sess.SignedIn() || sess.HasUser() || sess.IsAdmin {
				t.Errorf("session = %+v", sess)
			}
			if f.store.IsFavorite("1") {
				t.Error("favorites should be cleared")
			}
			if f.bridge.State() != StateAnonymous {
				t.Errorf("State() = %v", f.bridge.State())
			}
		})

		t.Run("is idempotent", func(t *testing.T) {
			f := newFixture(library.ModeCollections)
			f.bridge.Logout(ctx)
			f.bridge.Logout(ctx)
			if f.bridge.State() != StateAnonymous || f.catalog.calls != 2 {
				t.Errorf("state = %v catalog loads = %d", f.bridge.State(), f.catalog.calls)
			}
		})
	})
}

func TestBridgeWithCognito(t *testing.T) {
	ctx := context.Background()
	fake := tu.NewFakeCognito(t)
	catalog := tu.NewFakeCatalog(t, models.Book{ID: "1", Title: "Dune", Author: "Frank Herbert", Cover: "c"})
	tokens := &tu.MemoryTokenStore{}
	logger := log.New(io.Discard)

	provider, err := services.NewCognitoProvider(services.CognitoConfig{
		Region:     "eu-north-1",
		ClientID:   "test-client",
		Endpoint:   fake.Endpoint(),
		HTTPClient: fake.HTTPClient(),
	}, tokens, logger)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	newBridge := func() (*Bridge, *library.Store) {
		store := library.NewStore(library.ModeCollections, "admin")
		api := services.NewAPIService(catalog.URL(), nil).WithSession(store)
		b := NewBridge(provider, store, logger).
			WithCatalog(library.NewCatalog(api, store, logger)).
			WithMembership(library.NewMembership(api, store, logger))
		return b, store
	}

	b, store := newBridge()
	if err := b.SignUp(ctx, "alice", "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := b.Login(ctx, "alice", "correct-horse"); err == nil {
		t.Fatal("login before verification should fail")
	}
	if err := b.Verify(ctx, "alice", tu.ConfirmationCode); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := b.Login(ctx, "alice", "correct-horse"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if books, ok := store.Books(); !ok || len(books) != 1 {
		t.Errorf("catalog not loaded: %v %v", books, ok)
	}

	// A fresh client picks the remembered session back up.
	b2, store2 := newBridge()
	if err := b2.RestoreSession(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if store2.Session().Username != "alice" || b2.State() != StateAuthenticated {
		t.Errorf("restored state = %v session = %+v", b2.State(), store2.Session())
	}

	for _, r := range catalog.Requests() {
		if r.Method == "GET" && r.Path == "/reading-lists" && r.UserID != "alice" {
			t.Errorf("reading lists fetched as %q", r.UserID)
		}
	}

	b2.Logout(ctx)
	if _, err := tokens.Load(); !errors.Is(err, shared.ErrNoSession) {
		t.Errorf("tokens should be cleared, got %v", err)
	}
}
