// package services defines the external collaborators the client talks to:
// the catalog HTTP API and the identity provider.
package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/libris/internal/models"
	"golang.org/x/oauth2"
)

// CatalogAPI is the catalog HTTP API as consumed by the client. [APIService] implements it.
type CatalogAPI interface {
	// ListBooks fetches the full catalog (GET /books).
	ListBooks(ctx context.Context) ([]models.Book, error)

	// SaveBook creates or updates a book (POST /books). A present id means update.
	SaveBook(ctx context.Context, book models.Book) error

	// DeleteBook removes a book by path (DELETE /books/{id}).
	DeleteBook(ctx context.Context, id models.ID) error

	// DeleteBookByBody removes a book by request body (DELETE /books {id}), as favorites deployments expect.
	DeleteBookByBody(ctx context.Context, id models.ID) error

	// ListReadingLists fetches every reading list (GET /reading-lists).
	ListReadingLists(ctx context.Context) ([]models.Collection, error)

	// CreateReadingList creates an empty reading list (POST /reading-lists).
	CreateReadingList(ctx context.Context, list models.Collection) error

	// UpdateReadingList adds or removes one book (PUT /reading-lists/{id}).
	UpdateReadingList(ctx context.Context, id models.ID, action MembershipAction, bookID models.ID) error

	// DeleteReadingList deletes a reading list (DELETE /reading-lists/{id}).
	DeleteReadingList(ctx context.Context, id models.ID) error

	// ListFavorites fetches the signed-in user's favorites (GET /reading-lists with X-User-ID).
	ListFavorites(ctx context.Context) ([]models.Favorite, error)

	// AddFavorite favorites a book (POST /reading-lists {bookId, bookTitle}).
	AddFavorite(ctx context.Context, fav models.Favorite) error

	// RemoveFavorite unfavorites a book (DELETE /reading-lists {bookId}).
	RemoveFavorite(ctx context.Context, bookID models.ID) error

	// Chat sends one message to the assistant (POST /chat) and returns its reply.
	Chat(ctx context.Context, message string) (string, error)
}

// MembershipAction is the verb of a reading list membership update.
type MembershipAction string

const (
	ActionAdd    MembershipAction = "add"
	ActionRemove MembershipAction = "remove"
)

// SessionSource supplies the credentials attached to API requests.
// Both values may be empty when nobody is signed in.
type SessionSource interface {
	Credentials() (token, username string)
}

// IdentityProvider is the managed sign-up and sign-in service.
// Every failure is returned as an error carrying a human-readable message.
type IdentityProvider interface {
	// SignUp registers a new account that must be confirmed before sign-in.
	SignUp(ctx context.Context, username, email, password string) error

	// ConfirmSignUp confirms a pending registration with the emailed code.
	ConfirmSignUp(ctx context.Context, username, code string) error

	// Authenticate signs in with a password and remembers the session.
	Authenticate(ctx context.Context, username, password string) (*Identity, error)

	// CurrentSession returns the remembered session, refreshing it when needed.
	// [shared.ErrNoSession] means nobody is signed in.
	CurrentSession(ctx context.Context) (*Identity, error)

	// SignOut forgets the remembered session and revokes it with the provider.
	SignOut(ctx context.Context) error
}

// Identity is a signed-in user and their tokens. The id token travels in Token's extras.
type Identity struct {
	Username string
	Token    *oauth2.Token
}

// IDToken returns the identity's id token, the credential the catalog API expects.
func (i *Identity) IDToken() string {
	if i == nil {
		return ""
	}
	return IDToken(i.Token)
}

// TokenStore persists credentials between runs. [repositories.SessionRepository] implements it.
type TokenStore interface {
	Load() (*models.Credentials, error)
	Save(creds *models.Credentials) error
	Clear() error
}

// HTTPDoer is satisfied by [*http.Client].
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
