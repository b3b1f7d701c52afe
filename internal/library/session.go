package library

import (
	"fmt"

	"github.com/desertthunder/libris/internal/shared"
)

// Mode selects how membership is modelled by the backend.
type Mode string

const (
	// ModeCollections: named reading lists; book edits are admin-only.
	ModeCollections Mode = shared.ModeCollections
	// ModeFavorites: one favorites set per user; any signed-in user may edit books.
	ModeFavorites Mode = shared.ModeFavorites
)

// ParseMode validates a configured mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCollections, ModeFavorites:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", shared.ErrInvalidConfig, s)
}

// Session is the client's authentication state.
type Session struct {
	Token    string
	Username string
	IsAdmin  bool
}

// NewSession builds a session, deriving IsAdmin from adminID.
func NewSession(token, username, adminID string) Session {
	return Session{Token: token, Username: username, IsAdmin: IsAdmin(username, adminID)}
}

// SignedIn reports whether a token is held.
func (s Session) SignedIn() bool { return s.Token != "" }

// HasUser reports whether a username is known.
func (s Session) HasUser() bool { return s.Username != "" }

// CanEditBooks reports whether book add, edit and delete controls apply in mode.
func (s Session) CanEditBooks(mode Mode) bool {
	if mode == ModeFavorites {
		return s.SignedIn()
	}
	return s.IsAdmin
}

// CanManage reports whether the session may modify a collection owned by owner.
func (s Session) CanManage(owner string) bool {
	return s.IsAdmin || (s.HasUser() && s.Username == owner)
}

// IsAdmin reports whether username matches the admin identifier under case folding.
func IsAdmin(username, adminID string) bool {
	if username == "" || adminID == "" {
		return false
	}
	return shared.FoldEqual(username, adminID)
}
