package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/services"
	"github.com/desertthunder/libris/internal/shared"
)

// Dispatcher runs catalog, membership and chat actions for one client.
type Dispatcher struct {
	api        services.CatalogAPI
	store      *library.Store
	catalog    *library.Catalog
	membership *library.Membership
	transcript *library.Transcript
	logger     *log.Logger
	newID      func() string
}

// NewDispatcher wires a dispatcher and the loaders it reloads through.
func NewDispatcher(api services.CatalogAPI, store *library.Store, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		api:        api,
		store:      store,
		catalog:    library.NewCatalog(api, store, logger),
		membership: library.NewMembership(api, store, logger),
		transcript: &library.Transcript{},
		logger:     logger,
		newID:      shared.GenerateID,
	}
}

func (d *Dispatcher) Store() *library.Store           { return d.store }
func (d *Dispatcher) Catalog() *library.Catalog       { return d.catalog }
func (d *Dispatcher) Membership() *library.Membership { return d.membership }
func (d *Dispatcher) Transcript() *library.Transcript { return d.transcript }
func (d *Dispatcher) API() services.CatalogAPI        { return d.api }

func unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrUnauthorized, fmt.Sprintf(format, args...))
}

func (d *Dispatcher) requireUser() (library.Session, error) {
	sess := d.store.Session()
	if !sess.HasUser() {
		return sess, fmt.Errorf("%w: sign in first", shared.ErrNotAuthenticated)
	}
	return sess, nil
}

func (d *Dispatcher) requireBookEditor() error {
	sess := d.store.Session()
	if sess.CanEditBooks(d.store.Mode()) {
		return nil
	}
	if d.store.Mode() == library.ModeFavorites {
		return fmt.Errorf("%w: sign in to manage books", shared.ErrNotAuthenticated)
	}
	return unauthorized("only the administrator can manage books")
}

// reloadCatalog refreshes the cache after a mutation. The mutation already succeeded,
// so a failed reload is logged by the catalog and not reported.
func (d *Dispatcher) reloadCatalog(ctx context.Context) { _ = d.catalog.Load(ctx) }

func (d *Dispatcher) reloadCollections(ctx context.Context) { _ = d.membership.LoadCollections(ctx) }

// LoadCatalog fetches the catalog for display.
func (d *Dispatcher) LoadCatalog(ctx context.Context) error { return d.catalog.Load(ctx) }

// AddBook creates b with a freshly generated id and reloads the catalog.
func (d *Dispatcher) AddBook(ctx context.Context, b models.Book) (models.Book, error) {
	if err := d.requireBookEditor(); err != nil {
		return b, err
	}
	if err := b.Validate(); err != nil {
		return b, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	b.ID = models.ID(d.newID())
	b.Status = b.Status.OrDefault()
	if err := d.api.SaveBook(ctx, b); err != nil {
		return b, fmt.Errorf("add book: %w", err)
	}

	d.logger.Info("book added", "id", b.ID, "title", b.Title)
	d.reloadCatalog(ctx)
	return b, nil
}

// EditBook overwrites an existing book. The id must be present; the server treats a
// POST carrying an id as an update.
func (d *Dispatcher) EditBook(ctx context.Context, b models.Book) error {
	if err := d.requireBookEditor(); err != nil {
		return err
	}
	if b.ID == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	b.Status = b.Status.OrDefault()
	if err := d.api.SaveBook(ctx, b); err != nil {
		return fmt.Errorf("edit book %s: %w", b.ID, err)
	}

	d.logger.Info("book updated", "id", b.ID)
	d.reloadCatalog(ctx)
	return nil
}

// DeleteBook removes a book, addressing it the way the deployment's mode expects.
func (d *Dispatcher) DeleteBook(ctx context.Context, id models.ID) error {
	if err := d.requireBookEditor(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}

	var err error
	if d.store.Mode() == library.ModeFavorites {
		err = d.api.DeleteBookByBody(ctx, id)
	} else {
		err = d.api.DeleteBook(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}

	d.logger.Info("book deleted", "id", id)
	d.reloadCatalog(ctx)
	return nil
}

// ToggleFavorite flips the book's favorite mark immediately, then asks the server.
// A failed request puts the mark back. It returns whether the book is now a favorite.
func (d *Dispatcher) ToggleFavorite(ctx context.Context, id models.ID) (bool, error) {
	sess, err := d.requireUser()
	if err != nil {
		return false, err
	}

	title := ""
	if b, ok := d.store.Snapshot().Book(id); ok {
		title = b.Title
	}

	was := d.store.FlipFavorite(id)
	if was {
		err = d.api.RemoveFavorite(ctx, id)
	} else {
		err = d.api.AddFavorite(ctx, models.Favorite{BookID: id, BookTitle: title, UserID: sess.Username})
	}
	if err != nil {
		d.store.RevertFavorite(id, was)
		return was, fmt.Errorf("toggle favorite %s: %w", id, err)
	}
	return !was, nil
}

// LoadFavorites overwrites the favorites set with the server's.
func (d *Dispatcher) LoadFavorites(ctx context.Context) error {
	if _, err := d.requireUser(); err != nil {
		return err
	}
	return d.membership.LoadFavorites(ctx)
}

// LoadCollections refreshes the reading lists for display.
func (d *Dispatcher) LoadCollections(ctx context.Context) error {
	if _, err := d.requireUser(); err != nil {
		return err
	}
	return d.membership.LoadCollections(ctx)
}

// CreateCollection creates an empty reading list owned by the current user.
func (d *Dispatcher) CreateCollection(ctx context.Context, name, description string) error {
	sess, err := d.requireUser()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "undefined" {
		return fmt.Errorf("%w: list name is required", shared.ErrInvalidInput)
	}

	list := models.Collection{UserID: sess.Username, Name: name, Description: strings.TrimSpace(description), BookIDs: []models.ID{}}
	if err := d.api.CreateReadingList(ctx, list); err != nil {
		return fmt.Errorf("create list %q: %w", name, err)
	}

	d.logger.Info("reading list created", "name", name, "owner", sess.Username)
	d.reloadCollections(ctx)
	return nil
}

// ToggleBookInFolder adds bookID to the list, or removes it when isAdded is set.
// isAdded comes from the picker as rendered and is trusted as-is.
func (d *Dispatcher) ToggleBookInFolder(ctx context.Context, listID, bookID models.ID, isAdded bool) error {
	if _, err := d.requireUser(); err != nil {
		return err
	}
	if listID == "" || bookID == "" {
		return fmt.Errorf("%w: list id and book id", shared.ErrMissingArgument)
	}

	action := services.ActionAdd
	if isAdded {
		action = services.ActionRemove
	}
	if err := d.api.UpdateReadingList(ctx, listID, action, bookID); err != nil {
		return fmt.Errorf("%s book %s on list %s: %w", action, bookID, listID, err)
	}

	d.reloadCollections(ctx)
	return nil
}

// owner finds the list's owner, fetching the lists when they were never loaded.
func (d *Dispatcher) owner(ctx context.Context, listID models.ID) (string, error) {
	if _, loaded := d.store.Collections(); !loaded {
		if err := d.membership.LoadCollections(ctx); err != nil {
			return "", err
		}
	}
	list, ok := d.store.Snapshot().Collection(listID)
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrListNotFound, listID)
	}
	return list.UserID, nil
}

// RemoveFromCollection takes a book off a list. Only the owner or the administrator may.
func (d *Dispatcher) RemoveFromCollection(ctx context.Context, listID, bookID models.ID) error {
	if _, err := d.requireUser(); err != nil {
		return err
	}
	owner, err := d.owner(ctx, listID)
	if err != nil {
		return err
	}
	if !d.store.Session().CanManage(owner) {
		return unauthorized("list %s belongs to %s", listID, owner)
	}
	return d.ToggleBookInFolder(ctx, listID, bookID, true)
}

// DeleteCollection deletes a list. Only the owner or the administrator may.
func (d *Dispatcher) DeleteCollection(ctx context.Context, listID models.ID) error {
	if _, err := d.requireUser(); err != nil {
		return err
	}
	owner, err := d.owner(ctx, listID)
	if err != nil {
		return err
	}
	if !d.store.Session().CanManage(owner) {
		return unauthorized("list %s belongs to %s", listID, owner)
	}

	if err := d.api.DeleteReadingList(ctx, listID); err != nil {
		return fmt.Errorf("delete list %s: %w", listID, err)
	}

	d.logger.Info("reading list deleted", "id", listID)
	d.reloadCollections(ctx)
	return nil
}

// OpenCollection fetches the lists and the catalog so the list's detail can be rendered.
func (d *Dispatcher) OpenCollection(ctx context.Context, listID models.ID) error {
	if err := d.membership.LoadCollections(ctx); err != nil {
		return err
	}
	if err := d.catalog.Load(ctx); err != nil {
		return err
	}
	if _, ok := d.store.Snapshot().Collection(listID); !ok {
		return fmt.Errorf("%w: %s", shared.ErrListNotFound, listID)
	}
	return nil
}

// OpenFolderPicker refreshes the user's lists so the picker's added flags are current.
func (d *Dispatcher) OpenFolderPicker(ctx context.Context, bookID models.ID) error {
	if _, err := d.requireUser(); err != nil {
		return err
	}
	if bookID == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	return d.membership.LoadCollections(ctx)
}

// LoadAdminDashboard fetches every list, plus the catalog when it is not cached yet.
func (d *Dispatcher) LoadAdminDashboard(ctx context.Context) error {
	if !d.store.Session().IsAdmin {
		return unauthorized("the dashboard is for the administrator")
	}
	if err := d.membership.LoadCollections(ctx); err != nil {
		return err
	}
	if _, loaded := d.store.Books(); !loaded {
		return d.catalog.Load(ctx)
	}
	return nil
}

// Chat sends message to the assistant and appends both sides to the transcript.
// A failed request still leaves a line in the transcript saying so.
func (d *Dispatcher) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is empty", shared.ErrInvalidInput)
	}

	d.transcript.Append(library.SpeakerUser, message, false)

	reply, err := d.api.Chat(ctx, message)
	if err != nil {
		d.transcript.Append(library.SpeakerAssistant, library.ConnectionErrorText, true)
		d.logger.Warn("chat request failed", "error", err)
		return library.ConnectionErrorText, fmt.Errorf("chat: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = library.NotUnderstoodText
	}

	d.transcript.Append(library.SpeakerAssistant, reply, false)
	return reply, nil
}
