package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an opaque server identifier. Some deployments send numbers, others strings;
// both decode to the same string form and ids are only ever compared as strings.
type ID string

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*id = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = ID(n.String())
	}
	return nil
}

// BookStatus is the loan state of a book.
type BookStatus string

const (
	StatusAvailable BookStatus = "Available"
	StatusLoaned    BookStatus = "Loaned"
)

// statusAliases maps spellings used by older deployments.
var statusAliases = map[string]BookStatus{
	"available":      StatusAvailable,
	"müsait":         StatusAvailable,
	"loaned":         StatusLoaned,
	"ödünç verilmiş": StatusLoaned,
}

// ParseBookStatus resolves s to a known status. Empty input yields [StatusAvailable].
func ParseBookStatus(s string) (BookStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusAvailable, nil
	}
	if st, ok := statusAliases[strings.ToLower(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown book status %q", s)
}

// UnmarshalJSON decodes known aliases; unknown values are kept verbatim so they still
// fail to match any status filter rather than breaking the whole catalog decode.
func (s *BookStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if st, err := ParseBookStatus(raw); err == nil {
		*s = st
		return nil
	}
	*s = BookStatus(raw)
	return nil
}

// OrDefault returns s, or [StatusAvailable] when unset.
func (s BookStatus) OrDefault() BookStatus {
	if s == "" {
		return StatusAvailable
	}
	return s
}

// Year is a publication year that tolerates both numeric and string encodings.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	var id ID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	if id == "" {
		*y = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(id)))
	if err != nil {
		return fmt.Errorf("invalid year %q", string(id))
	}
	*y = Year(n)
	return nil
}

// Book is a catalog entry as served by GET /books.
type Book struct {
	ID            ID         `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Cover         string     `json:"cover"`
	Description   string     `json:"description,omitempty"`
	Genre         string     `json:"genre,omitempty"`
	ISBN          string     `json:"isbn,omitempty"`
	PublishedYear Year       `json:"publishedYear,omitempty"`
	Status        BookStatus `json:"status,omitempty"`
}

// Validate checks the fields the add and edit forms require.
func (b Book) Validate() error {
	var missing []string
	if strings.TrimSpace(b.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(b.Author) == "" {
		missing = append(missing, "author")
	}
	if strings.TrimSpace(b.Cover) == "" {
		missing = append(missing, "cover")
	}
	if len(missing) > 0 {
		return fmt.Errorf("book is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Loaned reports whether the book is currently out on loan.
func (b Book) Loaned() bool {
	return b.Status.OrDefault() == StatusLoaned
}
