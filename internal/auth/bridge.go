package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/services"
	"github.com/desertthunder/libris/internal/shared"
)

// State is the bridge's position in the sign-in flow.
type State int

const (
	StateRestoring State = iota
	StateAnonymous
	StateAuthenticating
	StateAuthenticated
	StatePendingVerification
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StatePendingVerification:
		return "pending-verification"
	}
	return "unknown"
}

// Loader refreshes one cached aggregate. [library.Catalog] and [library.Membership] implement it.
type Loader interface {
	Load(ctx context.Context) error
}

// Bridge drives the identity provider and mirrors its outcome into the store.
// Operations are serialized; State may be read at any time.
type Bridge struct {
	provider   services.IdentityProvider
	store      *library.Store
	logger     *log.Logger
	catalog    Loader
	membership Loader

	op       sync.Mutex
	mu       sync.RWMutex
	state    State
	pending  string
	restored bool
}

// NewBridge creates a bridge in [StateRestoring].
func NewBridge(provider services.IdentityProvider, store *library.Store, logger *log.Logger) *Bridge {
	return &Bridge{provider: provider, store: store, logger: logger, state: StateRestoring}
}

// WithCatalog reloads the catalog after sign-in, restore and sign-out.
func (b *Bridge) WithCatalog(l Loader) *Bridge {
	b.catalog = l
	return b
}

// WithMembership reloads favorites or reading lists after sign-in and restore.
func (b *Bridge) WithMembership(l Loader) *Bridge {
	b.membership = l
	return b
}

// State returns the current state.
func (b *Bridge) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// PendingUsername is the account awaiting verification, if any.
func (b *Bridge) PendingUsername() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pending
}

func (b *Bridge) set(s State, pending string) {
	b.mu.Lock()
	b.state = s
	b.pending = pending
	b.mu.Unlock()
}

func (b *Bridge) snapshot() (State, string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state, b.pending
}

// SignUp registers username and moves to [StatePendingVerification].
// On failure the state is unchanged.
func (b *Bridge) SignUp(ctx context.Context, username, email, password string) error {
	b.op.Lock()
	defer b.op.Unlock()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return invalid("sign up", "username is required")
	case email == "":
		return invalid("sign up", "email is required")
	case password == "":
		return invalid("sign up", "password is required")
	}

	if err := b.provider.SignUp(ctx, username, email, password); err != nil {
		b.logger.Warn("sign up rejected", "username", username, "error", err)
		return wrap("sign up", err)
	}

	b.set(StatePendingVerification, username)
	b.logger.Info("sign up accepted, verification pending", "username", username)
	return nil
}

// Verify confirms username with the emailed code. Success leaves the user signed out;
// they must still log in. Failure keeps the current state.
func (b *Bridge) Verify(ctx context.Context, username, code string) error {
	b.op.Lock()
	defer b.op.Unlock()

	state, pending := b.snapshot()
	username = strings.TrimSpace(username)
	if username == "" {
		username = pending
	}
	code = strings.TrimSpace(code)
	switch {
	case username == "":
		return invalid("verify", "username is required")
	case code == "":
		return invalid("verify", "verification code is required")
	}

	if err := b.provider.ConfirmSignUp(ctx, username, code); err != nil {
		b.logger.Warn("verification rejected", "username", username, "error", err)
		return wrap("verify", err)
	}

	if state != StateAuthenticated {
		b.set(StateAnonymous, "")
	}
	b.logger.Info("account verified", "username", username)
	return nil
}

// Login authenticates with a password. On success the session is populated, admin status
// recomputed and the membership and catalog caches reloaded. On failure the previous
// session and state are put back.
func (b *Bridge) Login(ctx context.Context, username, password string) error {
	b.op.Lock()
	defer b.op.Unlock()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return invalid("login", "username and password are required")
	}

	prevState, prevPending := b.snapshot()
	prevSession := b.store.Session()
	b.set(StateAuthenticating, "")

	id, err := b.provider.Authenticate(ctx, username, password)
	if err == nil && id.IDToken() == "" {
		err = shared.ErrAuthFailed
	}
	if err != nil {
		b.store.RestoreSession(prevSession)
		b.set(prevState, prevPending)
		b.logger.Warn("login failed", "username", username, "error", err)
		return wrap("login", err)
	}

	if id.Username == "" {
		id.Username = username
	}
	b.populate(ctx, id)
	b.logger.Info("signed in", "username", id.Username, "admin", b.store.Session().IsAdmin)
	return nil
}

// RestoreSession asks the provider for a remembered session. It runs once; later calls
// return nil without doing anything.
func (b *Bridge) RestoreSession(ctx context.Context) error {
	b.op.Lock()
	defer b.op.Unlock()

	b.mu.Lock()
	if b.restored {
		b.mu.Unlock()
		return nil
	}
	b.restored = true
	b.mu.Unlock()

	id, err := b.provider.CurrentSession(ctx)
	if err == nil && id.IDToken() != "" && id.Username != "" {
		b.populate(ctx, id)
		b.logger.Debug("session restored", "username", id.Username)
		return nil
	}

	b.store.ClearSession()
	b.set(StateAnonymous, "")
	b.reloadCatalog(ctx)

	if err == nil || errors.Is(err, shared.ErrNoSession) {
		return nil
	}
	b.logger.Warn("session restore failed", "error", err)
	return wrap("restore session", err)
}

// Logout always ends signed out: the session and membership caches are cleared before the
// provider is told, and a provider failure is only logged. Calling it again is harmless.
func (b *Bridge) Logout(ctx context.Context) {
	b.op.Lock()
	defer b.op.Unlock()

	b.store.ClearSession()
	b.set(StateAnonymous, "")

	if err := b.provider.SignOut(ctx); err != nil {
		b.logger.Warn("provider sign out failed", "error", err)
	}
	b.reloadCatalog(ctx)
}

// populate installs id as the session. Switching users first drops the previous user's
// membership so a failed load cannot show it under the new name.
func (b *Bridge) populate(ctx context.Context, id *services.Identity) {
	if b.store.Session().Username != id.Username {
		b.store.ClearSession()
	}
	b.store.SetSession(id.IDToken(), id.Username)
	b.set(StateAuthenticated, "")

	if b.membership != nil {
		if err := b.membership.Load(ctx); err != nil {
			b.logger.Warn("membership load after sign-in failed", "error", err)
		}
	}
	b.reloadCatalog(ctx)
}

func (b *Bridge) reloadCatalog(ctx context.Context) {
	if b.catalog == nil {
		return
	}
	if err := b.catalog.Load(ctx); err != nil {
		b.logger.Warn("catalog reload failed", "error", err)
	}
}
