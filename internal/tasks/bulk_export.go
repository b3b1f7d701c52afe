package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/libris/internal/formatter"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
	"golang.org/x/time/rate"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ExportOpts contains configuration for catalog exports.
type ExportOpts struct {
	Format       string  // Export format: json, csv, markdown, txt
	OutputDir    string  // Base output directory (default: libris_export_{epoch})
	IncludeLists bool    // Also export reading lists (collections mode, signed in)
	Covers       bool    // Download cover images (markdown only)
	NumWorkers   int     // Concurrent cover downloads (default: 4, max: 10)
	RateLimit    float64 // Cover downloads per second (default: 5)
}

// ExportResult describes what an export wrote.
type ExportResult struct {
	Format          string    `json:"format"`
	OutputDirectory string    `json:"output_directory"`
	Books           int       `json:"books"`
	Lists           int       `json:"lists"`
	Covers          int       `json:"covers"`
	CoverFailures   []string  `json:"cover_failures,omitempty"`
	Files           []string  `json:"files"`
	ManifestPath    string    `json:"-"`
	ExportedAt      time.Time `json:"exported_at"`
}

type exportData struct {
	Books []models.Book       `json:"books"`
	Lists []models.Collection `json:"lists,omitempty"`
}

// Export fetches the catalog and writes it under opts.OutputDir.
func (e *Engine) Export(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	switch opts.Format {
	case "":
		opts.Format = FormatJSON
	case FormatJSON, FormatCSV, FormatMarkdown, FormatText:
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("libris_export_%d", time.Now().Unix())
	}

	e.sendProgress(prog, fetchBooksUpdate())
	books, err := e.api.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	var lists []models.Collection
	if opts.IncludeLists && e.store.Session().HasUser() {
		e.sendProgress(prog, fetchListsUpdate())
		all, err := e.api.ListReadingLists(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reading lists: %w", err)
		}
		for _, l := range all {
			if l.Valid() {
				lists = append(lists, l)
			}
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Books:           len(books),
		Lists:           len(lists),
		Files:           []string{},
		ExportedAt:      time.Now(),
	}

	var covers map[models.ID]string
	if opts.Covers && opts.Format == FormatMarkdown {
		covers, result.CoverFailures = e.downloadCovers(ctx, prog, books, opts)
		result.Covers = len(covers)
		for _, rel := range covers {
			result.Files = append(result.Files, filepath.Join(opts.OutputDir, rel))
		}
	}

	e.sendProgress(prog, writeFilesUpdate(opts.Format))
	switch opts.Format {
	case FormatCSV:
		res, err := formatter.WriteCSVExport(books, lists, filepath.Join(opts.OutputDir, "catalog"))
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		result.Files = append(result.Files, res.BooksFile)
		if res.ListsFile != "" {
			result.Files = append(result.Files, res.ListsFile)
		}
	case FormatMarkdown:
		res, err := formatter.WriteMarkdownExport(books, lists, opts.OutputDir, covers)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		result.Files = append(result.Files, res.Files...)
	case FormatText:
		path, err := formatter.WriteTextExport(books, filepath.Join(opts.OutputDir, "catalog.txt"))
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		result.Files = append(result.Files, path)
	default:
		data, err := shared.MarshalJSON(exportData{Books: books, Lists: lists}, true)
		if err != nil {
			return nil, fmt.Errorf("JSON marshal failed: %w", err)
		}
		path := filepath.Join(opts.OutputDir, "catalog.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("JSON write failed: %w", err)
		}
		result.Files = append(result.Files, path)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	manifest, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, manifest, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

type coverJob struct {
	book models.Book
}

type coverOutcome struct {
	book models.Book
	rel  string
	err  error
}

// downloadCovers fetches cover images with a worker pool into {dir}/covers.
// It returns paths relative to dir keyed by book id, plus the titles that failed.
func (e *Engine) downloadCovers(ctx context.Context, prog chan<- ProgressUpdate, books []models.Book, opts ExportOpts) (map[models.ID]string, []string) {
	coverDir := filepath.Join(opts.OutputDir, "covers")
	if err := os.MkdirAll(coverDir, 0755); err != nil {
		e.logger.Warn("cannot create cover directory", "error", err)
		return nil, nil
	}

	var todo []models.Book
	for _, b := range books {
		if b.Cover != "" {
			todo = append(todo, b)
		}
	}

	limiter := rate.NewLimiter(rate.Limit(defaultRate(opts.RateLimit)), 1)
	jobs := make(chan coverJob, len(todo))
	results := make(chan coverOutcome, len(todo))

	var wg sync.WaitGroup
	for range clampWorkers(opts.NumWorkers) {
		wg.Add(1)
		go e.coverWorker(ctx, &wg, limiter, coverDir, jobs, results)
	}
	for _, b := range todo {
		jobs <- coverJob{book: b}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	covers := map[models.ID]string{}
	var failures []string
	completed := 0
	for r := range results {
		completed++
		e.sendProgress(prog, coverUpdate(completed, len(todo), r.book, r.err))
		if r.err != nil {
			failures = append(failures, r.book.Title)
			continue
		}
		covers[r.book.ID] = r.rel
	}
	return covers, failures
}

func (e *Engine) coverWorker(ctx context.Context, wg *sync.WaitGroup, limiter *rate.Limiter, dir string, jobs <-chan coverJob, results chan<- coverOutcome) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- coverOutcome{book: job.book, err: err}
			continue
		}

		data, err := formatter.DownloadImage(ctx, e.client, job.book.Cover)
		if err != nil {
			results <- coverOutcome{book: job.book, err: err}
			continue
		}

		name := formatter.CoverFilename(job.book.ID, job.book.Cover)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			results <- coverOutcome{book: job.book, err: err}
			continue
		}
		results <- coverOutcome{book: job.book, rel: filepath.ToSlash(filepath.Join("covers", name))}
	}
}
