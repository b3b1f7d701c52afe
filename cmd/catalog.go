package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/libris/internal/formatter"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
	"github.com/desertthunder/libris/internal/tasks"
	"github.com/urfave/cli/v3"
)

// printProgress writes updates until progress is closed, then closes done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		switch update.Phase {
		case tasks.FetchBooks, tasks.FetchLists, tasks.WriteFiles, tasks.ReloadCatalog:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.ImportBooks, tasks.DownloadCovers:
			if update.Step == 0 {
				r.writePlain("\n📚 %s\n", update.Message)
			} else {
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}
}

// CatalogExport writes the catalog, and optionally reading lists and covers, to a directory.
func (r *Runner) CatalogExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(ctx); err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:       cmd.String("format"),
		OutputDir:    cmd.String("output"),
		IncludeLists: cmd.Bool("lists"),
		Covers:       cmd.Bool("covers"),
		NumWorkers:   cmd.Int("workers"),
		RateLimit:    cmd.Float("rate"),
	}

	logger := shared.WithLogger(r.logger, "op", "export", "output", opts.OutputDir)
	logger.Info("starting export", "format", opts.Format, "lists", opts.IncludeLists, "covers", opts.Covers)

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := r.engine.Export(ctx, progress, opts)
	close(progress)
	<-done

	if err != nil {
		logger.Error("export failed", "error", err)
		return err
	}
	logger.Debug("export written", "files", len(result.Files))

	r.writePlainln("")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Format:    %s\n", result.Format)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Books:     %d\n", result.Books)
	if opts.IncludeLists {
		r.writePlain("Lists:     %d\n", result.Lists)
	}
	if opts.Covers {
		r.writePlain("Covers:    %d\n", result.Covers)
		for _, f := range result.CoverFailures {
			r.writePlain("  ✗ %s\n", f)
		}
	}
	r.writePlain("Files:\n")
	for _, f := range result.Files {
		r.writePlain("  - %s\n", f)
	}
	return nil
}

// CatalogImport adds the books of a CSV file, reporting rows that fail to parse or save.
func (r *Runner) CatalogImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: CSV file path", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	books, rowErrs, err := formatter.ParseCSV(f)
	if err != nil {
		return err
	}
	for _, rowErr := range rowErrs {
		r.writePlain("✗ %v\n", rowErr)
	}
	r.writePlain("Parsed %d books from %s (%d rows skipped)\n", len(books), path, len(rowErrs))

	if cmd.Bool("dry-run") || len(books) == 0 {
		return nil
	}
	if err := r.restore(ctx); err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "op", "import", "source", path)
	logger.Info("starting import", "books", len(books), "skipped", len(rowErrs))

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := r.engine.BulkImport(ctx, progress, books, tasks.ImportOpts{
		Source:     path,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done

	if err != nil {
		logger.Error("import finished with errors", "error", err)
	}
	if result != nil {
		r.writePlainln("")
		r.writePlainHeader("Import Complete!")
		if result.JobID != "" {
			r.writePlain("Job:      %s\n", result.JobID)
		}
		r.writePlain("Imported: %d/%d\n", result.Imported, result.Total)
		if result.Failed > 0 {
			r.writePlain("\nFailed to import %d books:\n", result.Failed)
			for _, res := range result.Results {
				if res.Error != nil {
					r.writePlain("  - %s: %v\n", res.Book.Title, res.Error)
				}
			}
		}
	}
	return err
}

type jobRow struct {
	ID        string           `json:"id"`
	Sequence  int              `json:"sequence"`
	Username  string           `json:"username"`
	Source    string           `json:"source"`
	Status    models.JobStatus `json:"status"`
	Total     int              `json:"total"`
	Imported  int              `json:"imported"`
	Failed    int              `json:"failed"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// CatalogJobs lists recorded import jobs, newest first.
func (r *Runner) CatalogJobs(ctx context.Context, cmd *cli.Command) error {
	if r.jobs == nil {
		return fmt.Errorf("%w: database not available", shared.ErrServiceUnavailable)
	}

	jobs, err := r.jobs.List(map[string]any{
		"status": cmd.String("status"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	rows := make([]jobRow, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, jobRow{
			ID:        j.ID(),
			Sequence:  j.Sequence(),
			Username:  j.Username(),
			Source:    j.Source(),
			Status:    j.Status(),
			Total:     j.BooksTotal(),
			Imported:  j.BooksImported(),
			Failed:    j.BooksFailed(),
			Error:     j.ErrorMessage(),
			CreatedAt: j.CreatedAt(),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}
	if len(rows) == 0 {
		return r.writePlain("No import jobs recorded\n")
	}

	t := newTable("#", "Status", "Source", "Imported", "Failed", "By", "Created")
	for _, row := range rows {
		t.Row(
			strconv.Itoa(row.Sequence),
			string(row.Status),
			row.Source,
			fmt.Sprintf("%d/%d", row.Imported, row.Total),
			strconv.Itoa(row.Failed),
			row.Username,
			row.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return r.writePlain("%s\n", t.Render())
}
