package view

import (
	"slices"
	"strings"

	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
)

// State distinguishes a view that has nothing yet from one that has nothing at all.
type State int

const (
	StateLoading State = iota
	StateEmpty
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Placeholder texts.
const (
	LoadingText        = "Loading books..."
	EmptyCatalogText   = "The catalog has no books yet."
	NoMatchText        = "No books match your search."
	NoFavoritesText    = "You have no favorite books yet."
	NoListsText        = "You have no reading lists yet."
	EmptyListText      = "This list is empty."
	ListNotFoundText   = "Reading list not found."
	SignInRequiredText = "Sign in to use this feature."
)

// BookCard is one book in a grid with the controls that apply to it.
type BookCard struct {
	Book   models.Book
	Status models.BookStatus

	CanEdit   bool
	CanDelete bool

	// Favorites mode.
	CanFavorite bool
	Favorite    bool
	Speculative bool

	// Collections mode: the bookmark control opening the folder picker.
	CanBookmark bool
}

// LibraryView is the main catalog page.
type LibraryView struct {
	State       State
	Cards       []BookCard
	Placeholder string
	CanAdd      bool
	Total       int
	Genres      []string
}

// RenderLibrary filters the snapshot's catalog and decides which controls each card shows.
func RenderLibrary(snap library.Snapshot, f Filter) LibraryView {
	canEdit := snap.Session.CanEditBooks(snap.Mode)
	v := LibraryView{CanAdd: canEdit, Total: len(snap.Books), Genres: Genres(snap.Books)}

	if !snap.BooksLoaded {
		v.State = StateLoading
		v.Placeholder = LoadingText
		return v
	}

	for _, b := range f.Apply(snap.Books) {
		v.Cards = append(v.Cards, card(snap, b, canEdit))
	}

	switch {
	case len(v.Cards) > 0:
		v.State = StateReady
	case len(snap.Books) == 0:
		v.State = StateEmpty
		v.Placeholder = EmptyCatalogText
	default:
		v.State = StateEmpty
		v.Placeholder = NoMatchText
	}
	return v
}

func card(snap library.Snapshot, b models.Book, canEdit bool) BookCard {
	c := BookCard{
		Book:      b,
		Status:    b.Status.OrDefault(),
		CanEdit:   canEdit,
		CanDelete: canEdit,
	}
	switch snap.Mode {
	case library.ModeFavorites:
		c.CanFavorite = snap.Session.HasUser()
		c.Favorite = snap.Favorites[b.ID]
		c.Speculative = snap.Speculative[b.ID]
	default:
		c.CanBookmark = snap.Session.HasUser()
	}
	return c
}

// Action is a control offered on a detail view.
type Action string

const (
	ActionEdit       Action = "edit"
	ActionDelete     Action = "delete"
	ActionFavorite   Action = "favorite"
	ActionUnfavorite Action = "unfavorite"
	ActionBookmark   Action = "add-to-list"
	ActionRemove     Action = "remove-from-list"
	ActionDeleteList Action = "delete-list"
)

// BookDetailView is the single-book page.
type BookDetailView struct {
	Found   bool
	Book    models.Book
	Status  models.BookStatus
	Genre   string
	Loaned  bool
	Actions []Action
	// Notice replaces the action row when nothing is permitted.
	Notice string
}

// RenderBookDetail describes book id, or Found=false when it is not cached.
func RenderBookDetail(snap library.Snapshot, id models.ID) BookDetailView {
	b, ok := snap.Book(id)
	if !ok {
		return BookDetailView{}
	}

	v := BookDetailView{
		Found:  true,
		Book:   b,
		Status: b.Status.OrDefault(),
		Genre:  b.Genre,
		Loaned: b.Loaned(),
	}
	if v.Genre == "" {
		v.Genre = "General"
	}

	if snap.Session.CanEditBooks(snap.Mode) {
		v.Actions = append(v.Actions, ActionEdit, ActionDelete)
	}
	if snap.Session.HasUser() {
		if snap.Mode == library.ModeFavorites {
			if snap.Favorites[b.ID] {
				v.Actions = append(v.Actions, ActionUnfavorite)
			} else {
				v.Actions = append(v.Actions, ActionFavorite)
			}
		} else {
			v.Actions = append(v.Actions, ActionBookmark)
		}
	}
	if len(v.Actions) == 0 {
		v.Notice = SignInRequiredText
	}
	return v
}

// Has reports whether the detail view offers a.
func (v BookDetailView) Has(a Action) bool { return slices.Contains(v.Actions, a) }

// FavoritesView is the favorites page.
type FavoritesView struct {
	State       State
	Cards       []BookCard
	Placeholder string
	SignedOut   bool
}

// RenderFavorites shows the cached books currently marked favorite.
func RenderFavorites(snap library.Snapshot) FavoritesView {
	if !snap.Session.HasUser() {
		return FavoritesView{State: StateEmpty, SignedOut: true, Placeholder: SignInRequiredText}
	}
	if !snap.BooksLoaded || !snap.FavoritesLoaded {
		return FavoritesView{State: StateLoading, Placeholder: LoadingText}
	}

	canEdit := snap.Session.CanEditBooks(snap.Mode)
	v := FavoritesView{}
	for _, b := range snap.Books {
		if snap.Favorites[b.ID] {
			v.Cards = append(v.Cards, card(snap, b, canEdit))
		}
	}
	if len(v.Cards) == 0 {
		v.State = StateEmpty
		v.Placeholder = NoFavoritesText
		return v
	}
	v.State = StateReady
	return v
}

// CollectionCard is one reading list in the collections grid.
type CollectionCard struct {
	Collection models.Collection
	Owner      string
	BookCount  int
}

// CollectionsView is the user's reading lists page.
type CollectionsView struct {
	State       State
	Cards       []CollectionCard
	Placeholder string
	SignedOut   bool
}

// OwnerLabel shows "You" for the current user.
func OwnerLabel(owner string, sess library.Session) string {
	if sess.HasUser() && owner == sess.Username {
		return "You"
	}
	return owner
}

// RenderCollections lists the signed-in user's valid reading lists. Even admins see
// only their own lists here; the dashboard shows everyone's.
func RenderCollections(snap library.Snapshot) CollectionsView {
	if !snap.Session.HasUser() {
		return CollectionsView{State: StateEmpty, SignedOut: true, Placeholder: SignInRequiredText}
	}
	if !snap.CollectionsLoaded {
		return CollectionsView{State: StateLoading, Placeholder: "Loading reading lists..."}
	}

	v := CollectionsView{}
	for _, c := range snap.Collections {
		if !c.Valid() || !c.OwnedBy(snap.Session.Username) {
			continue
		}
		v.Cards = append(v.Cards, CollectionCard{
			Collection: c,
			Owner:      OwnerLabel(c.UserID, snap.Session),
			BookCount:  len(c.BookIDs),
		})
	}
	if len(v.Cards) == 0 {
		v.State = StateEmpty
		v.Placeholder = NoListsText
		return v
	}
	v.State = StateReady
	return v
}

// CollectionDetailView is a single reading list with its books.
type CollectionDetailView struct {
	State       State
	Found       bool
	Collection  models.Collection
	Owner       string
	Books       []models.Book
	BookCount   int
	Placeholder string
	// CanManage gates both the delete-list control and per-book remove controls.
	CanManage bool
}

// RenderCollectionDetail resolves list id's book ids against the cached catalog.
func RenderCollectionDetail(snap library.Snapshot, id models.ID) CollectionDetailView {
	if !snap.CollectionsLoaded || !snap.BooksLoaded {
		return CollectionDetailView{State: StateLoading, Placeholder: LoadingText}
	}

	c, ok := snap.Collection(id)
	if !ok {
		return CollectionDetailView{State: StateEmpty, Placeholder: ListNotFoundText}
	}

	v := CollectionDetailView{
		Found:      true,
		Collection: c,
		Owner:      OwnerLabel(c.UserID, snap.Session),
		BookCount:  len(c.BookIDs),
		CanManage:  snap.Session.CanManage(c.UserID),
	}
	for _, b := range snap.Books {
		if c.Contains(b.ID) {
			v.Books = append(v.Books, b)
		}
	}
	if len(v.Books) == 0 {
		v.State = StateEmpty
		v.Placeholder = EmptyListText
		return v
	}
	v.State = StateReady
	return v
}

// FolderOption is one list in the folder picker. Added is computed now and handed to the
// toggle as-is; it may be stale by the time the toggle runs.
type FolderOption struct {
	Collection models.Collection
	Added      bool
}

// FolderPickerView lists the user's reading lists for adding or removing one book.
type FolderPickerView struct {
	State       State
	BookID      models.ID
	Options     []FolderOption
	Placeholder string
}

// RenderFolderPicker shows the user's valid lists with their membership of bookID.
func RenderFolderPicker(snap library.Snapshot, bookID models.ID) FolderPickerView {
	v := FolderPickerView{BookID: bookID}
	if !snap.Session.HasUser() {
		v.State = StateEmpty
		v.Placeholder = SignInRequiredText
		return v
	}
	if !snap.CollectionsLoaded {
		v.State = StateLoading
		v.Placeholder = "Loading reading lists..."
		return v
	}

	for _, c := range snap.Collections {
		if c.Valid() && c.OwnedBy(snap.Session.Username) {
			v.Options = append(v.Options, FolderOption{Collection: c, Added: c.Contains(bookID)})
		}
	}
	if len(v.Options) == 0 {
		v.State = StateEmpty
		v.Placeholder = NoListsText
		return v
	}
	v.State = StateReady
	return v
}

// AdminListRow is one reading list in the dashboard table.
type AdminListRow struct {
	Collection models.Collection
	BookCount  int
	Created    string
}

// AdminDashboardView summarizes the catalog and every user's lists.
type AdminDashboardView struct {
	Authorized bool
	State      State
	TotalBooks int
	TotalLists int
	Users      []string
	Lists      []AdminListRow
}

// RenderAdminDashboard counts only valid lists; users are the distinct owners of those.
func RenderAdminDashboard(snap library.Snapshot) AdminDashboardView {
	if !snap.Session.IsAdmin {
		return AdminDashboardView{}
	}

	v := AdminDashboardView{Authorized: true, TotalBooks: len(snap.Books)}
	if !snap.CollectionsLoaded {
		v.State = StateLoading
		return v
	}

	for _, c := range snap.Collections {
		if !c.Valid() {
			continue
		}
		v.Lists = append(v.Lists, AdminListRow{Collection: c, BookCount: len(c.BookIDs), Created: createdDate(c.CreatedAt)})
		if c.UserID != "" && !slices.Contains(v.Users, c.UserID) {
			v.Users = append(v.Users, c.UserID)
		}
	}
	v.TotalLists = len(v.Lists)

	if v.TotalLists == 0 {
		v.State = StateEmpty
	} else {
		v.State = StateReady
	}
	return v
}

// createdDate trims an ISO timestamp to its date.
func createdDate(ts string) string {
	if ts == "" {
		return "-"
	}
	if d, _, ok := strings.Cut(ts, "T"); ok {
		return d
	}
	return ts
}
