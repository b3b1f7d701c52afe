// Catalog HTTP API client
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
	"golang.org/x/time/rate"
)

// Header names sent with every request made on behalf of a signed-in user.
const (
	HeaderAuthorization = "Authorization"
	HeaderUserID        = "X-User-ID"
)

// APIService talks to the catalog HTTP API.
//
// Typed methods implement [CatalogAPI]; Get, Post and Do return raw responses for debugging.
type APIService struct {
	baseURL    string
	httpClient HTTPDoer
	limiter    *rate.Limiter
	session    SessionSource
}

// NewAPIService creates a new catalog API client.
func NewAPIService(baseURL string, client HTTPDoer) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// WithRateLimit paces outgoing requests to rps per second. Zero or less disables pacing.
func (a *APIService) WithRateLimit(rps float64) *APIService {
	if rps > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	} else {
		a.limiter = nil
	}
	return a
}

// WithSession attaches credentials from src to every request.
func (a *APIService) WithSession(src SessionSource) *APIService {
	a.session = src
	return a
}

// BaseURL returns the API root requests are made against.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the response has a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, data)
}

// Do performs a request with an optional JSON body and returns the raw response.
// Non-2xx statuses are not errors here; see [APIResponse.OK].
func (a *APIService) Do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	a.authorize(req)

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrServiceUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// authorize sets the raw id token (no Bearer prefix, as the gateway's authorizer expects)
// and the username header when a session exists.
func (a *APIService) authorize(req *http.Request) {
	if a.session == nil {
		return
	}
	token, username := a.session.Credentials()
	if token == "" {
		return
	}
	req.Header.Set(HeaderAuthorization, token)
	if username != "" {
		req.Header.Set(HeaderUserID, username)
	}
}

// doJSON sends payload as JSON and decodes a 2xx response into result when non-nil.
func (a *APIService) doJSON(ctx context.Context, method, path string, payload, result any) error {
	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := a.Do(ctx, method, path, data)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return fmt.Errorf("%w: failed to decode %s %s: %w", shared.ErrAPIRequest, method, path, err)
		}
	}

	return nil
}

func (a *APIService) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := a.doJSON(ctx, http.MethodGet, "/books", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (a *APIService) SaveBook(ctx context.Context, book models.Book) error {
	return a.doJSON(ctx, http.MethodPost, "/books", book, nil)
}

func (a *APIService) DeleteBook(ctx context.Context, id models.ID) error {
	return a.doJSON(ctx, http.MethodDelete, "/books/"+url.PathEscape(id.String()), nil, nil)
}

func (a *APIService) DeleteBookByBody(ctx context.Context, id models.ID) error {
	return a.doJSON(ctx, http.MethodDelete, "/books", map[string]models.ID{"id": id}, nil)
}

func (a *APIService) ListReadingLists(ctx context.Context) ([]models.Collection, error) {
	var lists []models.Collection
	if err := a.doJSON(ctx, http.MethodGet, "/reading-lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (a *APIService) CreateReadingList(ctx context.Context, list models.Collection) error {
	payload := struct {
		UserID      string      `json:"userId"`
		Name        string      `json:"name"`
		Description string      `json:"description"`
		BookIDs     []models.ID `json:"bookIds"`
	}{
		UserID:      list.UserID,
		Name:        list.Name,
		Description: list.Description,
		BookIDs:     []models.ID{},
	}
	return a.doJSON(ctx, http.MethodPost, "/reading-lists", payload, nil)
}

func (a *APIService) UpdateReadingList(ctx context.Context, id models.ID, action MembershipAction, bookID models.ID) error {
	payload := struct {
		Action MembershipAction `json:"action"`
		BookID models.ID        `json:"bookId"`
	}{action, bookID}
	return a.doJSON(ctx, http.MethodPut, "/reading-lists/"+url.PathEscape(id.String()), payload, nil)
}

func (a *APIService) DeleteReadingList(ctx context.Context, id models.ID) error {
	return a.doJSON(ctx, http.MethodDelete, "/reading-lists/"+url.PathEscape(id.String()), nil, nil)
}

func (a *APIService) ListFavorites(ctx context.Context) ([]models.Favorite, error) {
	var favs []models.Favorite
	if err := a.doJSON(ctx, http.MethodGet, "/reading-lists", nil, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

func (a *APIService) AddFavorite(ctx context.Context, fav models.Favorite) error {
	payload := struct {
		BookID    models.ID `json:"bookId"`
		BookTitle string    `json:"bookTitle"`
	}{fav.BookID, fav.BookTitle}
	return a.doJSON(ctx, http.MethodPost, "/reading-lists", payload, nil)
}

func (a *APIService) RemoveFavorite(ctx context.Context, bookID models.ID) error {
	return a.doJSON(ctx, http.MethodDelete, "/reading-lists", map[string]models.ID{"bookId": bookID}, nil)
}

func (a *APIService) Chat(ctx context.Context, message string) (string, error) {
	var reply models.ChatReply
	if err := a.doJSON(ctx, http.MethodPost, "/chat", map[string]string{"message": message}, &reply); err != nil {
		return "", err
	}
	return reply.Text(), nil
}
