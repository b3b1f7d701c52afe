package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
	"golang.org/x/time/rate"
)

// ImportOpts contains configuration for bulk imports.
type ImportOpts struct {
	Source     string  // Where the rows came from, recorded on the job
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// BookImportResult is the outcome for one book.
type BookImportResult struct {
	Book  models.Book
	Error error
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	JobID    string
	Total    int
	Imported int
	Failed   int
	Results  []BookImportResult
}

type importJob struct {
	index int
	book  models.Book
}

type importOutcome struct {
	index int
	res   BookImportResult
}

// BulkImport adds books concurrently with rate limiting and progress tracking.
//
// Rows keep their id when they have one, so re-importing an export updates books in place;
// rows without one get a fresh id. The catalog is reloaded once after the last row.
func (e *Engine) BulkImport(ctx context.Context, prog chan<- ProgressUpdate, books []models.Book, opts ImportOpts) (*ImportResult, error) {
	if err := e.requireEditor(); err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("%w: nothing to import", shared.ErrInvalidInput)
	}
	if opts.Source == "" {
		opts.Source = "import"
	}
	workers := clampWorkers(opts.NumWorkers)

	job := models.NewImportJob(0, e.store.Session().Username, opts.Source)
	if e.jobs != nil {
		if err := e.jobs.Create(job); err != nil {
			return nil, fmt.Errorf("failed to record import job: %w", err)
		}
	}
	job.Start(len(books))
	e.saveJob(job)

	result := &ImportResult{JobID: job.ID(), Total: len(books), Results: make([]BookImportResult, len(books))}
	e.sendProgress(prog, importStartUpdate(len(books)))

	limiter := rate.NewLimiter(rate.Limit(defaultRate(opts.RateLimit)), 1)
	jobs := make(chan importJob)
	results := make(chan importOutcome, len(books))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- importOutcome{index: j.index, res: e.importOne(ctx, j.book)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, b := range books {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case jobs <- importJob{index: i, book: b}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make([]bool, len(books))
	completed := 0
	for r := range results {
		completed++
		seen[r.index] = true
		result.Results[r.index] = r.res

		ok := r.res.Error == nil
		job.Record(ok)
		if ok {
			result.Imported++
			e.sendProgress(prog, importedUpdate(completed, len(books), r.res.Book))
		} else {
			result.Failed++
			e.sendProgress(prog, importFailedUpdate(completed, len(books), r.res.Book, r.res.Error))
		}
	}

	for i, done := range seen {
		if !done {
			result.Results[i] = BookImportResult{Book: books[i], Error: ctx.Err()}
		}
	}

	var runErr error
	switch {
	case ctx.Err() != nil:
		runErr = fmt.Errorf("import interrupted after %d of %d books: %w", completed, len(books), ctx.Err())
	case result.Imported == 0:
		runErr = errors.New("no books were imported")
	}
	job.Finish(runErr)
	e.saveJob(job)

	if result.Imported > 0 && e.catalog != nil {
		e.sendProgress(prog, reloadUpdate())
		_ = e.catalog.Load(context.WithoutCancel(ctx))
	}

	e.logger.Info("import finished", "job", job.ID(), "imported", result.Imported, "failed", result.Failed)
	return result, runErr
}

func (e *Engine) importOne(ctx context.Context, b models.Book) BookImportResult {
	if err := b.Validate(); err != nil {
		return BookImportResult{Book: b, Error: fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)}
	}
	if b.ID == "" {
		b.ID = models.ID(e.newID())
	}
	b.Status = b.Status.OrDefault()

	if err := e.api.SaveBook(ctx, b); err != nil {
		return BookImportResult{Book: b, Error: err}
	}
	return BookImportResult{Book: b}
}

// saveJob persists job progress. A recording failure never stops the import.
func (e *Engine) saveJob(job *models.ImportJob) {
	if e.jobs == nil {
		return
	}
	if err := e.jobs.Update(job); err != nil {
		e.logger.Warn("failed to update import job", "job", job.ID(), "error", err)
	}
}
