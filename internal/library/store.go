package library

import (
	"maps"
	"slices"
	"sync"

	"github.com/desertthunder/libris/internal/models"
)

// Change identifies which part of the store an update touched.
type Change int

const (
	ChangeSession Change = iota
	ChangeCatalog
	ChangeCollections
	ChangeFavorites
)

func (c Change) String() string {
	switch c {
	case ChangeSession:
		return "session"
	case ChangeCatalog:
		return "catalog"
	case ChangeCollections:
		return "collections"
	case ChangeFavorites:
		return "favorites"
	}
	return "unknown"
}

// Snapshot is an immutable copy of the store taken under its lock.
type Snapshot struct {
	Mode    Mode
	Session Session

	Books       []models.Book
	BooksLoaded bool

	Collections       []models.Collection
	CollectionsLoaded bool

	Favorites       map[models.ID]bool
	FavoritesLoaded bool
	// Speculative marks favorite entries flipped locally and not yet confirmed by a fetch.
	Speculative map[models.ID]bool
}

// Book looks up a book by id.
func (s Snapshot) Book(id models.ID) (models.Book, bool) {
	for _, b := range s.Books {
		if b.ID == id {
			return b, true
		}
	}
	return models.Book{}, false
}

// Collection looks up a reading list by id.
func (s Snapshot) Collection(id models.ID) (models.Collection, bool) {
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return models.Collection{}, false
}

// Store owns the session, catalog cache and membership index.
// All methods are safe for concurrent use; observers run outside the lock.
type Store struct {
	mu      sync.RWMutex
	mode    Mode
	adminID string
	session Session

	books       []models.Book
	booksLoaded bool

	collections       []models.Collection
	collectionsLoaded bool

	favorites       map[models.ID]bool
	favoritesLoaded bool
	speculative     map[models.ID]bool

	observers []func(Change)
}

// NewStore creates an empty, anonymous store.
func NewStore(mode Mode, adminID string) *Store {
	return &Store{
		mode:        mode,
		adminID:     adminID,
		favorites:   map[models.ID]bool{},
		speculative: map[models.ID]bool{},
	}
}

// Mode returns the configured membership mode.
func (s *Store) Mode() Mode { return s.mode }

// AdminID returns the admin identifier sessions are compared against.
func (s *Store) AdminID() string { return s.adminID }

// Subscribe registers fn to be called after every change.
func (s *Store) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	observers := slices.Clone(s.observers)
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(c)
	}
}

// Session returns the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Credentials returns the token and username to send with API requests.
func (s *Store) Credentials() (token, username string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token, s.session.Username
}

// SetSession replaces the session, recomputing the admin flag.
func (s *Store) SetSession(token, username string) Session {
	s.mu.Lock()
	s.session = NewSession(token, username, s.adminID)
	sess := s.session
	s.mu.Unlock()

	s.notify(ChangeSession)
	return sess
}

// RestoreSession puts back a previously captured session unchanged.
func (s *Store) RestoreSession(sess Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.notify(ChangeSession)
}

// ClearSession signs the store out and drops all membership caches.
// The catalog is kept; it does not depend on who is signed in.
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.session = Session{}
	s.collections = nil
	s.collectionsLoaded = false
	s.favorites = map[models.ID]bool{}
	s.favoritesLoaded = false
	s.speculative = map[models.ID]bool{}
	s.mu.Unlock()

	s.notify(ChangeSession)
}

// ReplaceBooks swaps in a freshly fetched catalog.
func (s *Store) ReplaceBooks(books []models.Book) {
	s.mu.Lock()
	s.books = slices.Clone(books)
	s.booksLoaded = true
	s.mu.Unlock()

	s.notify(ChangeCatalog)
}

// Books returns a copy of the cached catalog and whether it has ever been fetched.
func (s *Store) Books() ([]models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books), s.booksLoaded
}

// ReplaceCollections swaps in freshly fetched reading lists.
func (s *Store) ReplaceCollections(lists []models.Collection) {
	s.mu.Lock()
	s.collections = cloneCollections(lists)
	s.collectionsLoaded = true
	s.mu.Unlock()

	s.notify(ChangeCollections)
}

// Collections returns a copy of the cached reading lists and whether they were fetched.
func (s *Store) Collections() ([]models.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCollections(s.collections), s.collectionsLoaded
}

// ReplaceFavorites overwrites the favorites set with server truth, discarding any
// speculative entries.
func (s *Store) ReplaceFavorites(favs []models.Favorite) {
	set := make(map[models.ID]bool, len(favs))
	for _, f := range favs {
		set[f.BookID] = true
	}

	s.mu.Lock()
	s.favorites = set
	s.favoritesLoaded = true
	s.speculative = map[models.ID]bool{}
	s.mu.Unlock()

	s.notify(ChangeFavorites)
}

// IsFavorite reports whether id is currently shown as a favorite.
func (s *Store) IsFavorite(id models.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites[id]
}

// FlipFavorite toggles id locally, tags it speculative and returns the previous state.
func (s *Store) FlipFavorite(id models.ID) (was bool) {
	s.mu.Lock()
	was = s.favorites[id]
	if was {
		delete(s.favorites, id)
	} else {
		s.favorites[id] = true
	}
	s.speculative[id] = true
	s.mu.Unlock()

	s.notify(ChangeFavorites)
	return was
}

// RevertFavorite undoes a speculative flip after its request failed.
func (s *Store) RevertFavorite(id models.ID, was bool) {
	s.mu.Lock()
	if was {
		s.favorites[id] = true
	} else {
		delete(s.favorites, id)
	}
	delete(s.speculative, id)
	s.mu.Unlock()

	s.notify(ChangeFavorites)
}

// Snapshot copies the whole store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Mode:              s.mode,
		Session:           s.session,
		Books:             slices.Clone(s.books),
		BooksLoaded:       s.booksLoaded,
		Collections:       cloneCollections(s.collections),
		CollectionsLoaded: s.collectionsLoaded,
		Favorites:         maps.Clone(s.favorites),
		FavoritesLoaded:   s.favoritesLoaded,
		Speculative:       maps.Clone(s.speculative),
	}
}

func cloneCollections(lists []models.Collection) []models.Collection {
	if lists == nil {
		return nil
	}
	out := make([]models.Collection, len(lists))
	for i, l := range lists {
		l.BookIDs = slices.Clone(l.BookIDs)
		out[i] = l
	}
	return out
}
