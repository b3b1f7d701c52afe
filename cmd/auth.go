package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/libris/internal/auth"
	"github.com/desertthunder/libris/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthSignup registers a new account; the password is prompted for.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	bridge, err := r.requireBridge()
	if err != nil {
		return err
	}

	username := cmd.StringArg("username")
	if username == "" {
		if username, err = r.prompt("Username: "); err != nil {
			return err
		}
	}
	password, err := r.promptPassword("Password: ")
	if err != nil {
		return err
	}

	email := cmd.String("email")
	if err := bridge.SignUp(ctx, username, email, password); err != nil {
		return err
	}

	r.writePlain("✓ Account %s created\n", username)
	r.writePlain("A confirmation code was sent to %s.\n", email)
	r.writePlain("Run 'libris auth verify %s <code>' to confirm it.\n", username)
	return nil
}

// AuthVerify confirms a registration. The user still has to log in afterwards.
func (r *Runner) AuthVerify(ctx context.Context, cmd *cli.Command) error {
	bridge, err := r.requireBridge()
	if err != nil {
		return err
	}

	username := cmd.StringArg("username")
	code := cmd.StringArg("code")
	if username == "" || code == "" {
		return fmt.Errorf("%w: username and code are required", shared.ErrMissingArgument)
	}

	if err := bridge.Verify(ctx, username, code); err != nil {
		return err
	}
	return r.writePlain("✓ Account confirmed. Run 'libris auth login %s' to sign in.\n", username)
}

// AuthLogin signs in with a prompted password and remembers the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	bridge, err := r.requireBridge()
	if err != nil {
		return err
	}

	username := cmd.StringArg("username")
	if username == "" {
		if username, err = r.prompt("Username: "); err != nil {
			return err
		}
	}
	password, err := r.promptPassword("Password: ")
	if err != nil {
		return err
	}

	if err := bridge.Login(ctx, username, password); err != nil {
		var authErr *auth.Error
		if errors.As(err, &authErr) && authErr.Unconfirmed() {
			r.writePlain("This account is not confirmed yet. Run 'libris auth verify %s <code>'.\n", username)
		}
		return err
	}

	sess := r.store.Session()
	if sess.IsAdmin {
		return r.writePlain("✓ Signed in as %s (administrator)\n", sess.Username)
	}
	return r.writePlain("✓ Signed in as %s\n", sess.Username)
}

// AuthLogout forgets the session locally and revokes it with the provider.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	bridge, err := r.requireBridge()
	if err != nil {
		return err
	}
	if err := r.restore(ctx); err != nil {
		return err
	}

	// A restore that failed still leaves provider credentials behind, so sign out regardless.
	session := r.store.Session()
	bridge.Logout(ctx)
	if !session.SignedIn() {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("✓ Signed out %s\n", session.Username)
}

type authStatus struct {
	State     string `json:"state"`
	Username  string `json:"username,omitempty"`
	Admin     bool   `json:"admin"`
	Mode      string `json:"mode"`
	API       string `json:"api"`
	Books     int    `json:"books"`
	Available bool   `json:"catalogAvailable"`
}

// AuthStatus reports the remembered session and whether the catalog is reachable.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := authStatus{
		State: auth.StateAnonymous.String(),
		Mode:  string(r.store.Mode()),
		API:   r.api.BaseURL(),
	}

	if r.bridge != nil {
		if err := r.bridge.RestoreSession(ctx); err != nil {
			r.logger.Warn("session restore failed", "error", err)
		}
		status.State = r.bridge.State().String()
	} else if err := r.dispatcher.LoadCatalog(ctx); err != nil {
		r.logger.Warn("catalog unavailable", "error", err)
	}

	sess := r.store.Session()
	status.Username = sess.Username
	status.Admin = sess.IsAdmin
	books, loaded := r.store.Books()
	status.Books = len(books)
	status.Available = loaded

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Session")
	if sess.SignedIn() {
		r.writePlain("Signed in: ✓ %s\n", sess.Username)
		if sess.IsAdmin {
			r.writePlain("Role:      administrator\n")
		}
	} else {
		r.writePlain("Signed in: ✗ anonymous\n")
	}
	r.writePlain("State:     %s\n", status.State)
	r.writePlain("Mode:      %s\n", status.Mode)
	r.writePlain("API:       %s\n", status.API)
	if loaded {
		r.writePlain("Catalog:   ✓ %d books\n", status.Books)
	} else {
		r.writePlain("Catalog:   ✗ unavailable\n")
	}
	return nil
}
