package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/libris/internal/view"
)

var (
	_ list.Item = bookItem{}
	_ list.Item = collectionItem{}
	_ list.Item = pickerItem{}
	_ list.Item = adminItem{}
)

// bookItem wraps [view.BookCard] to implement [list.Item].
type bookItem struct {
	card view.BookCard
}

func (i bookItem) FilterValue() string { return i.card.Book.Title }
func (i bookItem) Title() string {
	t := i.card.Book.Title
	if i.card.Favorite {
		t = "♥ " + t
		if i.card.Speculative {
			t += " …"
		}
	}
	return t
}
func (i bookItem) Description() string {
	desc := i.card.Book.Author
	if i.card.Book.Genre != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.card.Book.Genre)
	}
	return fmt.Sprintf("%s • %s", desc, i.card.Status)
}

// collectionItem wraps [view.CollectionCard] to implement [list.Item].
type collectionItem struct {
	card view.CollectionCard
}

func (i collectionItem) FilterValue() string { return i.card.Collection.Name }
func (i collectionItem) Title() string       { return i.card.Collection.Name }
func (i collectionItem) Description() string {
	desc := fmt.Sprintf("%d books • %s", i.card.BookCount, i.card.Owner)
	if i.card.Collection.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.card.Collection.Description)
	}
	return desc
}

// pickerItem wraps [view.FolderOption] to implement [list.Item].
type pickerItem struct {
	option view.FolderOption
}

func (i pickerItem) FilterValue() string { return i.option.Collection.Name }
func (i pickerItem) Title() string {
	if i.option.Added {
		return "[x] " + i.option.Collection.Name
	}
	return "[ ] " + i.option.Collection.Name
}
func (i pickerItem) Description() string {
	return fmt.Sprintf("%d books", len(i.option.Collection.BookIDs))
}

// adminItem wraps [view.AdminListRow] to implement [list.Item].
type adminItem struct {
	row view.AdminListRow
}

func (i adminItem) FilterValue() string { return i.row.Collection.Name }
func (i adminItem) Title() string       { return i.row.Collection.Name }
func (i adminItem) Description() string {
	return fmt.Sprintf("%s • %d books • %s", i.row.Collection.UserID, i.row.BookCount, i.row.Created)
}
