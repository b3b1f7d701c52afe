package view

import (
	"slices"

	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
)

// Filter is the transient search state of the library view.
type Filter struct {
	Search string
	Genre  string
	Status models.BookStatus
}

// Match reports whether b satisfies every predicate of f:
// search is a caseless substring of title, author or ISBN; genre and status are
// either unset or equal (an unset book status counts as Available).
func (f Filter) Match(b models.Book) bool {
	if f.Search != "" &&
		!shared.FoldContains(b.Title, f.Search) &&
		!shared.FoldContains(b.Author, f.Search) &&
		!shared.FoldContains(b.ISBN, f.Search) {
		return false
	}
	if f.Genre != "" && b.Genre != f.Genre {
		return false
	}
	if f.Status != "" && b.Status.OrDefault() != f.Status {
		return false
	}
	return true
}

// Active reports whether any predicate is set.
func (f Filter) Active() bool {
	return f.Search != "" || f.Genre != "" || f.Status != ""
}

// Apply returns the books matching f, in catalog order.
func (f Filter) Apply(books []models.Book) []models.Book {
	out := make([]models.Book, 0, len(books))
	for _, b := range books {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// Genres lists the distinct non-empty genres in books, sorted.
func Genres(books []models.Book) []string {
	var genres []string
	for _, b := range books {
		if b.Genre != "" && !slices.Contains(genres, b.Genre) {
			genres = append(genres, b.Genre)
		}
	}
	slices.Sort(genres)
	return genres
}
