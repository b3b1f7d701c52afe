package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/desertthunder/libris/internal/models"
)

// RecordedRequest is one request seen by [FakeCatalog].
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	UserID        string
	Body          map[string]any
}

// FakeCatalog is an in-memory catalog API served over httptest.
//
// In favorites mode /reading-lists stores per-user favorites keyed by X-User-ID,
// otherwise it stores collections.
type FakeCatalog struct {
	mu        sync.Mutex
	books     []models.Book
	lists     []models.Collection
	favorites map[string][]models.Favorite
	requests  []RecordedRequest
	failures  map[string]int
	nextList  int

	favoritesMode bool
	chatReply     string

	server *httptest.Server
}

// NewFakeCatalog starts a fake API seeded with books; it is closed on cleanup.
func NewFakeCatalog(t *testing.T, books ...models.Book) *FakeCatalog {
	t.Helper()

	f := &FakeCatalog{
		books:     append([]models.Book(nil), books...),
		favorites: map[string][]models.Favorite{},
		failures:  map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /books", f.listBooks)
	mux.HandleFunc("POST /books", f.saveBook)
	mux.HandleFunc("DELETE /books/{id}", f.deleteBook)
	mux.HandleFunc("DELETE /books", f.deleteBook)
	mux.HandleFunc("GET /reading-lists", f.listReadingLists)
	mux.HandleFunc("POST /reading-lists", f.createReadingList)
	mux.HandleFunc("PUT /reading-lists/{id}", f.updateReadingList)
	mux.HandleFunc("DELETE /reading-lists/{id}", f.deleteReadingList)
	mux.HandleFunc("DELETE /reading-lists", f.removeFavorite)
	mux.HandleFunc("POST /chat", f.chat)

	f.server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the fake's base URL.
func (f *FakeCatalog) URL() string { return f.server.URL }

// SetFavoritesMode switches /reading-lists between favorites and collections semantics.
func (f *FakeCatalog) SetFavoritesMode(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favoritesMode = on
}

// SetChatReply fixes the assistant's answer; by default it echoes the message.
func (f *FakeCatalog) SetChatReply(reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatReply = reply
}

func (f *FakeCatalog) favoritesOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favoritesMode
}

// FailNext makes the next request matching method and path answer with status.
func (f *FakeCatalog) FailNext(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = status
}

// Books returns a copy of the server-side catalog.
func (f *FakeCatalog) Books() []models.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Book(nil), f.books...)
}

// Lists returns a copy of the server-side reading lists.
func (f *FakeCatalog) Lists() []models.Collection {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Collection, len(f.lists))
	for i, l := range f.lists {
		l.BookIDs = append([]models.ID(nil), l.BookIDs...)
		out[i] = l
	}
	return out
}

// SeedLists replaces the server-side reading lists.
func (f *FakeCatalog) SeedLists(lists ...models.Collection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append([]models.Collection(nil), lists...)
}

// Favorites returns the favorites stored for username.
func (f *FakeCatalog) Favorites(username string) []models.Favorite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Favorite(nil), f.favorites[username]...)
}

// Requests returns every request received so far.
func (f *FakeCatalog) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// CountRequests counts received requests matching method and path.
func (f *FakeCatalog) CountRequests(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeCatalog) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		r.Body = io.NopCloser(bytes.NewReader(raw))

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			UserID:        r.Header.Get("X-User-ID"),
			Body:          body,
		})
		key := r.Method + " " + r.URL.Path
		status, fail := f.failures[key]
		delete(f.failures, key)
		f.mu.Unlock()

		if fail {
			http.Error(w, `{"error":"injected failure"}`, status)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (f *FakeCatalog) listBooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, f.Books())
}

func (f *FakeCatalog) saveBook(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := decodeBody(r, &book); err != nil || book.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "book id required"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.books {
		if f.books[i].ID == book.ID {
			f.books[i] = book
			writeJSON(w, http.StatusOK, book)
			return
		}
	}
	f.books = append(f.books, book)
	writeJSON(w, http.StatusCreated, book)
}

func (f *FakeCatalog) deleteBook(w http.ResponseWriter, r *http.Request) {
	id := models.ID(r.PathValue("id"))
	if id == "" {
		var req struct {
			ID models.ID `json:"id"`
		}
		_ = decodeBody(r, &req)
		id = req.ID
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.books {
		if f.books[i].ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "book not found"})
}

func (f *FakeCatalog) listReadingLists(w http.ResponseWriter, r *http.Request) {
	if f.favoritesOn() {
		writeJSON(w, http.StatusOK, f.Favorites(r.Header.Get("X-User-ID")))
		return
	}
	writeJSON(w, http.StatusOK, f.Lists())
}

func (f *FakeCatalog) createReadingList(w http.ResponseWriter, r *http.Request) {
	if f.favoritesOn() {
		user := r.Header.Get("X-User-ID")
		var fav models.Favorite
		if err := decodeBody(r, &fav); err != nil || user == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bookId and X-User-ID required"})
			return
		}
		fav.UserID = user

		f.mu.Lock()
		f.favorites[user] = append(f.favorites[user], fav)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, fav)
		return
	}

	var list models.Collection
	if err := decodeBody(r, &list); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	f.mu.Lock()
	f.nextList++
	list.ID = models.ID(fmt.Sprintf("list-%d", f.nextList))
	if list.BookIDs == nil {
		list.BookIDs = []models.ID{}
	}
	f.lists = append(f.lists, list)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, list)
}

func (f *FakeCatalog) updateReadingList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string    `json:"action"`
		BookID models.ID `json:"bookId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	id := models.ID(r.PathValue("id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.lists {
		if f.lists[i].ID != id {
			continue
		}
		l := &f.lists[i]
		switch req.Action {
		case "add":
			if !l.Contains(req.BookID) {
				l.BookIDs = append(l.BookIDs, req.BookID)
			}
		case "remove":
			kept := l.BookIDs[:0]
			for _, b := range l.BookIDs {
				if b != req.BookID {
					kept = append(kept, b)
				}
			}
			l.BookIDs = kept
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown action"})
			return
		}
		writeJSON(w, http.StatusOK, l)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "list not found"})
}

func (f *FakeCatalog) deleteReadingList(w http.ResponseWriter, r *http.Request) {
	id := models.ID(r.PathValue("id"))

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.lists {
		if f.lists[i].ID == id {
			f.lists = append(f.lists[:i], f.lists[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "list not found"})
}

func (f *FakeCatalog) removeFavorite(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get("X-User-ID")
	var req struct {
		BookID models.ID `json:"bookId"`
	}
	_ = decodeBody(r, &req)

	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.favorites[user][:0]
	for _, fav := range f.favorites[user] {
		if fav.BookID != req.BookID {
			kept = append(kept, fav)
		}
	}
	f.favorites[user] = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
}

func (f *FakeCatalog) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	_ = decodeBody(r, &req)

	f.mu.Lock()
	reply := f.chatReply
	f.mu.Unlock()
	if reply == "" {
		reply = "You asked: " + req.Message
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
