package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
	"github.com/desertthunder/libris/internal/view"
	"github.com/urfave/cli/v3"
)

// loadCatalog restores the session and makes sure the catalog is cached.
// Unlike restore, a catalog that cannot be fetched is an error here.
func (r *Runner) loadCatalog(ctx context.Context) error {
	if err := r.restore(ctx); err != nil {
		return err
	}
	if _, loaded := r.store.Books(); loaded {
		return nil
	}
	return r.dispatcher.LoadCatalog(ctx)
}

// loadFavoriteMarks fetches favorites so cards can show them. Failures only cost the marks.
func (r *Runner) loadFavoriteMarks(ctx context.Context) {
	if r.store.Mode() != library.ModeFavorites || !r.store.Session().HasUser() {
		return
	}
	if err := r.dispatcher.LoadFavorites(ctx); err != nil {
		r.logger.Warn("failed to load favorites", "error", err)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func bookRow(c view.BookCard) []string {
	title := c.Book.Title
	if c.Favorite {
		title = "♥ " + title
	}
	return []string{string(c.Book.ID), title, c.Book.Author, c.Book.Genre, string(c.Status)}
}

// BooksList prints the catalog through the library view's filter.
func (r *Runner) BooksList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadCatalog(ctx); err != nil {
		return err
	}
	r.loadFavoriteMarks(ctx)

	filter := view.Filter{Search: cmd.String("search"), Genre: cmd.String("genre")}
	if s := cmd.String("status"); s != "" {
		status, err := models.ParseBookStatus(s)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		filter.Status = status
	}

	v := view.RenderLibrary(r.store.Snapshot(), filter)

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
	r.writePlain("%s\n", t.Render())
	if filter.Active() {
		r.writePlain("%d of %d books\n", len(v.Cards), v.Total)
	} else {
		r.writePlain("%d books\n", v.Total)
	}
	return nil
}

type bookDetail struct {
	Book    models.Book   `json:"book"`
	Genre   string        `json:"genre"`
	Status  string        `json:"status"`
	Actions []view.Action `json:"actions"`
}

// BooksShow prints one book and the actions the current session may take on it.
func (r *Runner) BooksShow(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	if err := r.loadCatalog(ctx); err != nil {
		return err
	}
	r.loadFavoriteMarks(ctx)

	v := view.RenderBookDetail(r.store.Snapshot(), id)
	if !v.Found {
		return fmt.Errorf("%w: %s", shared.ErrBookNotFound, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(bookDetail{Book: v.Book, Genre: v.Genre, Status: string(v.Status), Actions: v.Actions}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(v.Book.Title)
	r.writePlain("Author:    %s\n", v.Book.Author)
	r.writePlain("Genre:     %s\n", v.Genre)
	if v.Book.ISBN != "" {
		r.writePlain("ISBN:      %s\n", v.Book.ISBN)
	}
	if v.Book.PublishedYear != 0 {
		r.writePlain("Published: %d\n", v.Book.PublishedYear)
	}
	if v.Loaned {
		r.writePlain("Status:    ✗ %s\n", v.Status)
	} else {
		r.writePlain("Status:    ✓ %s\n", v.Status)
	}
	r.writePlain("Cover:     %s\n", v.Book.Cover)
	if v.Book.Description != "" {
		r.writePlainln("%s", v.Book.Description)
	}

	if v.Notice != "" {
		return r.writePlainln("%s", v.Notice)
	}
	actions := make([]string, len(v.Actions))
	for i, a := range v.Actions {
		actions[i] = string(a)
	}
	return r.writePlainln("Actions: %s", strings.Join(actions, ", "))
}

// bookFromFlags overlays the flags that were set onto b.
func bookFromFlags(cmd *cli.Command, b models.Book) (models.Book, error) {
	for name, field := range map[string]*string{
		"title":       &b.Title,
		"author":      &b.Author,
		"cover":       &b.Cover,
		"description": &b.Description,
		"genre":       &b.Genre,
		"isbn":        &b.ISBN,
	} {
		if cmd.IsSet(name) {
			*field = cmd.String(name)
		}
	}
	if cmd.IsSet("year") {
		b.PublishedYear = models.Year(cmd.Int("year"))
	}
	if cmd.IsSet("status") {
		status, err := models.ParseBookStatus(cmd.String("status"))
		if err != nil {
			return b, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		b.Status = status
	}
	return b, nil
}

// BooksAdd creates a book with a generated id.
func (r *Runner) BooksAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(ctx); err != nil {
		return err
	}

	b, err := bookFromFlags(cmd, models.Book{})
	if err != nil {
		return err
	}

	added, err := r.dispatcher.AddBook(ctx, b)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %q (%s)\n", added.Title, added.ID)
}

// BooksEdit changes only the fields whose flags were given.
func (r *Runner) BooksEdit(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	if err := r.loadCatalog(ctx); err != nil {
		return err
	}

	existing, ok := r.store.Snapshot().Book(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrBookNotFound, id)
	}

	b, err := bookFromFlags(cmd, existing)
	if err != nil {
		return err
	}
	if err := r.dispatcher.EditBook(ctx, b); err != nil {
		return err
	}
	return r.writePlain("✓ Updated %q\n", b.Title)
}

// BooksDelete removes a book after confirmation.
func (r *Runner) BooksDelete(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	if err := r.loadCatalog(ctx); err != nil {
		return err
	}

	label := string(id)
	if b, ok := r.store.Snapshot().Book(id); ok {
		label = fmt.Sprintf("%q", b.Title)
	}
	if !cmd.Bool("yes") && !r.confirm("Delete "+label+"?") {
		return r.writePlain("Cancelled\n")
	}

	if err := r.dispatcher.DeleteBook(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", label)
}

// BooksCover opens the cover image URL in the system browser.
func (r *Runner) BooksCover(ctx context.Context, cmd *cli.Command) error {
	id := models.ID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	if err := r.loadCatalog(ctx); err != nil {
		return err
	}

	b, ok := r.store.Snapshot().Book(id)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrBookNotFound, id)
	}
	if cmd.Bool("print") {
		return r.writePlain("%s\n", b.Cover)
	}
	if err := shared.OpenBrowser(b.Cover); err != nil {
		return err
	}
	return r.writePlain("Opened cover of %q\n", b.Title)
}
