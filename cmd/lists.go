package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
	"github.com/desertthunder/libris/internal/view"
	"github.com/urfave/cli/v3"
)

// FavoritesList prints the signed-in user's favorite books.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadCatalog(ctx); err != nil {
		return err
	}
	if r.store.Session().HasUser() {
		if err := r.dispatcher.LoadFavorites(ctx); err != nil {
			return err
		}
	}

	v := view.RenderFavorites(r.store.Snapshot())
	if cmd.Bool("json") {
		books := make([]models.Book, 0, len(v.Cards))
		for _, c := range v.Cards {
			books = append(books, c.Book)
		}
		return r.writeJSON(books, cmd.Bool("pretty"))
	}
	if v.State != view.StateReady {
		return r.writePlain("%s\n", v.Placeholder)
	}

	t := newTable("ID", "Title", "Author", "Genre", "Status")
	for _, c := range v.Cards {
		t.Row(bookRow(c)...)
	}
	return r.writePlain("%s\n", t.Render())
}

// FavoritesToggle flips one book's favorite mark.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	if err := r.loadCatalog(ctx); err != nil {
		return err
	}
	if err := r.dispatcher.LoadFavorites(ctx); err != nil {
		return err
	}

	title := string(id)
	if b, ok := r.store.Snapshot().Book(id); ok {
		title = b.Title
	}

	favorite, err := r.dispatcher.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	if favorite {
		return r.writePlain("♥ Added %q to favorites\n", title)
	}
	return r.writePlain("Removed %q from favorites\n", title)
}

// ListsList prints the signed-in user's reading lists.
func (r *Runner) ListsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(ctx); err != nil {
		return err
	}
	if r.store.Session().HasUser() {
		if err := r.dispatcher.LoadCollections(ctx); err != nil {
			return err
		}
	}

	v := view.RenderCollections(r.store.Snapshot())
	if cmd.Bool("json") {
		lists := make([]models.Collection, 0, len(v.Cards))
		for _, c := range v.Cards {
			lists = append(lists, c.Collection)
		}
		return r.writeJSON(lists, cmd.Bool("pretty"))
	}
	if v.State != view.StateReady {
		return r.writePlain("%s\n", v.Placeholder)
	}

	t := newTable("ID", "Name", "Books", "Owner", "Description")
	for _, c := range v.Cards {
		t.Row(string(c.Collection.ID), c.Collection.Name, strconv.Itoa(c.BookCount), c.Owner, c.Collection.Description)
	}
	return r.writePlain("%s\n", t.Render())
}

// ListsCreate creates an empty reading list.
func (r *Runner) ListsCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(ctx); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if err := r.dispatcher.CreateCollection(ctx, name, cmd.String("description")); err != nil {
		return err
	}
	return r.writePlain("✓ Created list %q\n", strings.TrimSpace(name))
}

type listDetail struct {
	List  models.Collection `json:"list"`
	Owner string            `json:"owner"`
	Books []models.Book     `json:"books"`
}

// ListsShow prints one reading list with its books resolved against the catalog.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}
	if err := r.restore(ctx); err != nil {
		return err
	}
	if err := r.dispatcher.OpenCollection(ctx, id); err != nil {
		return err
	}

	v := view.RenderCollectionDetail(r.store.Snapshot(), id)
	if !v.Found {
		return fmt.Errorf("%w: %s", shared.ErrListNotFound, id)
	}
	if cmd.Bool("json") {
		books := v.Books
		if books == nil {
			books = []models.Book{}
		}
		return r.writeJSON(listDetail{List: v.Collection, Owner: v.Owner, Books: books}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(v.Collection.Name)
	if v.Collection.Description != "" {
		r.writePlain("%s\n", v.Collection.Description)
	}
	r.writePlain("Owner: %s • %d books\n\n", v.Owner, v.BookCount)
	if v.State != view.StateReady {
		return r.writePlain("%s\n", v.Placeholder)
	}

	t := newTable("ID", "Title", "Author", "Status")
	for _, b := range v.Books {
		t.Row(string(b.ID), b.Title, b.Author, string(b.Status.OrDefault()))
	}
	return r.writePlain("%s\n", t.Render())
}

func listAndBook(cmd *cli.Command) (models.ID, models.ID, error) {
	listID, bookID := models.ID(cmd.StringArg("list")), models.ID(cmd.StringArg("book"))
	if listID == "" || bookID == "" {
		return "", "", fmt.Errorf("%w: list id and book id", shared.ErrMissingArgument)
	}
	return listID, bookID, nil
}

// ListsAdd puts a book on a reading list.
func (r *Runner) ListsAdd(ctx context.Context, cmd *cli.Command) error {
	listID, bookID, err := listAndBook(cmd)
	if err != nil {
		return err
	}
	if err := r.restore(ctx); err != nil {
		return err
	}
	if err := r.dispatcher.ToggleBookInFolder(ctx, listID, bookID, false); err != nil {
		return err
	}
	return r.writePlain("✓ Added %s to %s\n", bookID, listID)
}

// ListsRemove takes a book off a reading list; only the owner or the administrator may.
func (r *Runner) ListsRemove(ctx context.Context, cmd *cli.Command) error {
	listID, bookID, err := listAndBook(cmd)
	if err != nil {
		return err
	}
	if err := r.restore(ctx); err != nil {
		return err
	}
	if err := r.dispatcher.RemoveFromCollection(ctx, listID, bookID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from %s\n", bookID, listID)
}

// ListsDelete deletes a reading list after confirmation.
func (r *Runner) ListsDelete(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: list id", shared.ErrMissingArgument)
	}
	if err := r.restore(ctx); err != nil {
		return err
	}
	if !cmd.Bool("yes") && !r.confirm(fmt.Sprintf("Delete list %s?", id)) {
		return r.writePlain("Cancelled\n")
	}
	if err := r.dispatcher.DeleteCollection(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted list %s\n", id)
}

// ListsPick shows the folder picker for a book. With --toggle it flips membership in
// that list, using the membership shown by the picker.
func (r *Runner) ListsPick(ctx context.Context, cmd *cli.Command) error {
	bookID := models.ID(cmd.StringArg("book"))
	if bookID == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	if err := r.restore(ctx); err != nil {
		return err
	}
	if err := r.dispatcher.OpenFolderPicker(ctx, bookID); err != nil {
		return err
	}

	v := view.RenderFolderPicker(r.store.Snapshot(), bookID)

	if toggle := models.ID(cmd.String("toggle")); toggle != "" {
		for _, o := range v.Options {
			if o.Collection.ID != toggle {
				continue
			}
			if err := r.dispatcher.ToggleBookInFolder(ctx, toggle, bookID, o.Added); err != nil {
				return err
			}
			if o.Added {
				return r.writePlain("✓ Removed from %q\n", o.Collection.Name)
			}
			return r.writePlain("✓ Added to %q\n", o.Collection.Name)
		}
		return fmt.Errorf("%w: %s is not one of your lists", shared.ErrListNotFound, toggle)
	}

	if v.State != view.StateReady {
		return r.writePlain("%s\n", v.Placeholder)
	}
	for _, o := range v.Options {
		mark := "[ ]"
		if o.Added {
			mark = "[x]"
		}
		r.writePlain("%s %s (%s)\n", mark, o.Collection.Name, o.Collection.ID)
	}
	return nil
}

type dashboard struct {
	TotalBooks int                 `json:"totalBooks"`
	TotalLists int                 `json:"totalLists"`
	Users      []string            `json:"users"`
	Lists      []models.Collection `json:"lists"`
}

// AdminDashboard prints catalog totals and every user's reading lists.
func (r *Runner) AdminDashboard(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(ctx); err != nil {
		return err
	}
	if err := r.dispatcher.LoadAdminDashboard(ctx); err != nil {
		return err
	}

	v := view.RenderAdminDashboard(r.store.Snapshot())
	if cmd.Bool("json") {
		d := dashboard{TotalBooks: v.TotalBooks, TotalLists: v.TotalLists, Users: v.Users, Lists: []models.Collection{}}
		for _, row := range v.Lists {
			d.Lists = append(d.Lists, row.Collection)
		}
		return r.writeJSON(d, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Admin Dashboard")
	r.writePlain("Books:         %d\n", v.TotalBooks)
	r.writePlain("Reading lists: %d\n", v.TotalLists)
	r.writePlain("Users:         %d\n\n", len(v.Users))
	if v.State != view.StateReady {
		return r.writePlain("No reading lists yet.\n")
	}

	t := newTable("ID", "Name", "Owner", "Books", "Created")
	for _, row := range v.Lists {
		t.Row(string(row.Collection.ID), row.Collection.Name, row.Collection.UserID, strconv.Itoa(row.BookCount), row.Created)
	}
	return r.writePlain("%s\n", t.Render())
}

// Chat sends the arguments as one message to the library assistant.
func (r *Runner) Chat(ctx context.Context, cmd *cli.Command) error {
	message := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message", shared.ErrMissingArgument)
	}
	if err := r.restore(ctx); err != nil {
		return err
	}

	reply, err := r.dispatcher.Chat(ctx, message)
	if err != nil {
		r.writePlain("%s\n", reply)
		return err
	}
	return r.writePlain("%s\n", reply)
}
