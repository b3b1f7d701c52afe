package models

import "strings"

// Collection is a user-owned reading list. BookIDs has set semantics; order is not meaningful.
type Collection struct {
	ID          ID     `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BookIDs     []ID   `json:"bookIds"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Valid reports whether the collection should be shown or counted at all.
// Lists created by broken clients come back named "undefined" or with no name.
func (c Collection) Valid() bool {
	name := strings.TrimSpace(c.Name)
	return name != "" && name != "undefined"
}

// Contains reports whether id is a member of the collection.
func (c Collection) Contains(id ID) bool {
	for _, b := range c.BookIDs {
		if b == id {
			return true
		}
	}
	return false
}

// OwnedBy reports whether username owns the collection.
func (c Collection) OwnedBy(username string) bool {
	return username != "" && c.UserID == username
}

// Favorite is one favorited book, returned by GET /reading-lists in favorites deployments.
type Favorite struct {
	BookID    ID     `json:"bookId"`
	BookTitle string `json:"bookTitle,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// ChatReply is the chat endpoint's answer. Older backends reply in Message.
type ChatReply struct {
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Text returns the assistant reply, falling back to Message.
func (r ChatReply) Text() string {
	if r.Response != "" {
		return r.Response
	}
	return r.Message
}
