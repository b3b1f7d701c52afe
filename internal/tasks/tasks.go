package tasks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
)

// CatalogClient is the part of the catalog API the engine needs.
type CatalogClient interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	ListReadingLists(ctx context.Context) ([]models.Collection, error)
	SaveBook(ctx context.Context, book models.Book) error
}

// JobRecorder persists import runs. Any [models.Repository] of import jobs satisfies it.
type JobRecorder interface {
	Create(job *models.ImportJob) error
	Update(job *models.ImportJob) error
}

// Loader refreshes a cached aggregate after the engine changed it.
type Loader interface {
	Load(ctx context.Context) error
}

// Engine runs bulk import and export jobs against the catalog API.
type Engine struct {
	api     CatalogClient
	store   *library.Store
	logger  *log.Logger
	catalog Loader
	jobs    JobRecorder
	client  *http.Client
	newID   func() string
}

// NewEngine creates an engine acting on behalf of the store's session.
func NewEngine(api CatalogClient, store *library.Store, logger *log.Logger) *Engine {
	return &Engine{api: api, store: store, logger: logger, newID: shared.GenerateID}
}

// WithCatalog reloads the catalog through l after an import added books.
func (e *Engine) WithCatalog(l Loader) *Engine {
	e.catalog = l
	return e
}

// WithJobs records each import run through r.
func (e *Engine) WithJobs(r JobRecorder) *Engine {
	e.jobs = r
	return e
}

// WithHTTPClient sets the client used to download covers.
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	e.client = c
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *Engine) requireEditor() error {
	if e.store.Session().CanEditBooks(e.store.Mode()) {
		return nil
	}
	if e.store.Mode() == library.ModeFavorites {
		return fmt.Errorf("%w: sign in to import books", shared.ErrNotAuthenticated)
	}
	return fmt.Errorf("%w: only the administrator can import books", shared.ErrUnauthorized)
}

func clampWorkers(n int) int {
	if n <= 0 {
		return 4
	}
	if n > 10 {
		return 10
	}
	return n
}

func defaultRate(rps float64) float64 {
	if rps <= 0 {
		return 5.0
	}
	return rps
}
