package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
)

// SessionRepository persists the signed-in identity provider session for one app client.
//
// It plays the part of the browser SDK's local storage: the last successful sign-in
// survives restarts so the client can restore it at startup.
type SessionRepository struct {
	db       *sql.DB
	clientID string
}

// NewSessionRepository creates a SessionRepository scoped to clientID.
func NewSessionRepository(db *sql.DB, clientID string) *SessionRepository {
	return &SessionRepository{db: db, clientID: clientID}
}

// Load returns the stored credentials, or [shared.ErrNoSession] when none exist.
func (r *SessionRepository) Load() (*models.Credentials, error) {
	query := `
		SELECT username, id_token, access_token, refresh_token, expires_at
		FROM sessions
		WHERE client_id = ?
	`

	var (
		creds     models.Credentials
		expiresAt sql.NullTime
	)

	err := r.db.QueryRow(query, r.clientID).Scan(&creds.Username, &creds.IDToken, &creds.AccessToken, &creds.RefreshToken, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if expiresAt.Valid {
		creds.Expiry = expiresAt.Time
	}

	return &creds, nil
}

// Save replaces the stored credentials.
func (r *SessionRepository) Save(creds *models.Credentials) error {
	if creds == nil || creds.Username == "" || creds.IDToken == "" {
		return fmt.Errorf("%w: session requires a username and id token", shared.ErrInvalidInput)
	}

	var expiresAt any
	if !creds.Expiry.IsZero() {
		expiresAt = creds.Expiry.UTC()
	}

	query := `
		INSERT INTO sessions (client_id, username, id_token, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			username = excluded.username,
			id_token = excluded.id_token,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, r.clientID, creds.Username, creds.IDToken, creds.AccessToken, creds.RefreshToken, expiresAt, time.Now()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Clear removes the stored credentials. Clearing an empty store is not an error.
func (r *SessionRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE client_id = ?`, r.clientID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
