package library

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/services"
)

// BookLister fetches the full catalog.
type BookLister interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
}

// Catalog keeps the store's book cache in step with the server.
type Catalog struct {
	api    BookLister
	store  *Store
	logger *log.Logger
}

// NewCatalog creates a Catalog backed by api.
func NewCatalog(api BookLister, store *Store, logger *log.Logger) *Catalog {
	return &Catalog{api: api, store: store, logger: logger}
}

// Load fetches GET /books and replaces the cache in one step. On failure the previous
// cache stays as it was; the error is logged and returned, and callers may ignore it.
func (c *Catalog) Load(ctx context.Context) error {
	books, err := c.api.ListBooks(ctx)
	if err != nil {
		c.logger.Warn("catalog load failed, keeping cached books", "error", err)
		return err
	}

	c.store.ReplaceBooks(books)
	c.logger.Debug("catalog loaded", "books", len(books))
	return nil
}

// MembershipLister fetches reading lists or favorites, depending on mode.
type MembershipLister interface {
	ListReadingLists(ctx context.Context) ([]models.Collection, error)
	ListFavorites(ctx context.Context) ([]models.Favorite, error)
}

var _ MembershipLister = (*services.APIService)(nil)

// Membership keeps the store's favorites or collections in step with the server.
type Membership struct {
	api    MembershipLister
	store  *Store
	logger *log.Logger
}

// NewMembership creates a Membership backed by api.
func NewMembership(api MembershipLister, store *Store, logger *log.Logger) *Membership {
	return &Membership{api: api, store: store, logger: logger}
}

// Load refreshes whichever membership aggregate the store's mode uses.
// Without a signed-in user there is nothing to load.
func (m *Membership) Load(ctx context.Context) error {
	if !m.store.Session().HasUser() {
		return nil
	}
	if m.store.Mode() == ModeFavorites {
		return m.LoadFavorites(ctx)
	}
	return m.LoadCollections(ctx)
}

// LoadFavorites overwrites the favorites set, including any speculative entries.
func (m *Membership) LoadFavorites(ctx context.Context) error {
	favs, err := m.api.ListFavorites(ctx)
	if err != nil {
		m.logger.Warn("favorites load failed", "error", err)
		return err
	}
	m.store.ReplaceFavorites(favs)
	return nil
}

// LoadCollections replaces the cached reading lists.
func (m *Membership) LoadCollections(ctx context.Context) error {
	lists, err := m.api.ListReadingLists(ctx)
	if err != nil {
		m.logger.Warn("reading lists load failed", "error", err)
		return err
	}
	m.store.ReplaceCollections(lists)
	return nil
}
