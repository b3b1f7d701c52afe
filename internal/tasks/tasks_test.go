package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libris/internal/library"
	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/repositories"
	"github.com/desertthunder/libris/internal/services"
	"github.com/desertthunder/libris/internal/shared"
	tu "github.com/desertthunder/libris/internal/testing"
)

func newEngine(t *testing.T, mode library.Mode, username string, books ...models.Book) (*Engine, *tu.FakeCatalog, *library.Store) {
	t.Helper()

	fake := tu.NewFakeCatalog(t, books...)
	fake.SetFavoritesMode(mode == library.ModeFavorites)
	store := library.NewStore(mode, "admin")
	if username != "" {
		store.SetSession("id-"+username, username)
	}
	logger := log.New(io.Discard)
	api := services.NewAPIService(fake.URL(), nil).WithSession(store)

	var n atomic.Int64
	e := NewEngine(api, store, logger).WithCatalog(library.NewCatalog(api, store, logger))
	e.newID = func() string { return fmt.Sprintf("gen-%d", n.Add(1)) }
	return e, fake, store
}

func sampleBooks(n int) []models.Book {
	books := make([]models.Book, n)
	for i := range books {
		books[i] = models.Book{
			Title:  fmt.Sprintf("Book %d", i+1),
			Author: "Author",
			Cover:  fmt.Sprintf("https://covers.test/%d.jpg", i+1),
		}
	}
	return books
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var out []ProgressUpdate
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()

	t.Run("imports every valid book and reloads once", func(t *testing.T) {
		e, fake, store := newEngine(t, library.ModeCollections, "admin")
		db := tu.NewTestDB(t)
		repo := repositories.NewImportJobRepository(db)
		e.WithJobs(repo)

		books := sampleBooks(5)
		books[2].Cover = ""
		prog := make(chan ProgressUpdate, 32)

		res, err := e.BulkImport(ctx, prog, books, ImportOpts{Source: "books.csv", NumWorkers: 3, RateLimit: 1000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Imported != 4 || res.Failed != 1 || res.Total != 5 {
			t.Errorf("result = %+v", res)
		}
		if !errors.Is(res.Results[2].Error, shared.ErrInvalidInput) {
			t.Errorf("row 3 error = %v", res.Results[2].Error)
		}
		if len(fake.Books()) != 4 {
			t.Errorf("server has %d books", len(fake.Books()))
		}
		if fake.CountRequests("GET", "/books") != 1 {
			t.Error("catalog should be reloaded exactly once")
		}
		if cached, _ := store.Books(); len(cached) != 4 {
			t.Errorf("cache has %d books", len(cached))
		}

		job, err := repo.Get(res.JobID)
		if err != nil {
			t.Fatalf("job not recorded: %v", err)
		}
		if job.Status() != models.JobCompleted || job.BooksImported() != 4 || job.BooksFailed() != 1 || job.Source() != "books.csv" {
			t.Errorf("job = %s imported=%d failed=%d", job.Status(), job.BooksImported(), job.BooksFailed())
		}
		if job.Username() != "admin" {
			t.Errorf("job user = %q", job.Username())
		}

		updates := drain(prog)
		if len(updates) == 0 || updates[0].Phase != ImportBooks {
			t.Errorf("updates = %v", updates)
		}
	})

	t.Run("keeps ids from the rows", func(t *testing.T) {
		e, fake, _ := newEngine(t, library.ModeCollections, "admin", models.Book{ID: "7", Title: "Old", Author: "A", Cover: "c"})
		books := sampleBooks(2)
		books[0].ID = "7"

		if _, err := e.BulkImport(ctx, nil, books, ImportOpts{RateLimit: 1000}); err != nil {
			t.Fatal(err)
		}
		got := fake.Books()
		if len(got) != 2 || got[0].ID != "7" || got[0].Title != "Book 1" {
			t.Errorf("books = %+v", got)
		}
		if got[1].ID != "gen-1" {
			t.Errorf("generated id = %q", got[1].ID)
		}
	})

	t.Run("all failures fail the job", func(t *testing.T) {
		e, _, _ := newEngine(t, library.ModeFavorites, "alice")
		repo := repositories.NewImportJobRepository(tu.NewTestDB(t))
		e.WithJobs(repo)

		books := sampleBooks(2)
		for i := range books {
			books[i].Title = ""
		}
		res, err := e.BulkImport(ctx, nil, books, ImportOpts{RateLimit: 1000})
		if err == nil {
			t.Fatal("expected error")
		}
		job, _ := repo.Get(res.JobID)
		if job.Status() != models.JobFailed || job.ErrorMessage() == "" {
			t.Errorf("job = %s %q", job.Status(), job.ErrorMessage())
		}
	})

	t.Run("requires permission", func(t *testing.T) {
		e, fake, _ := newEngine(t, library.ModeCollections, "alice")
		if _, err := e.BulkImport(ctx, nil, sampleBooks(1), ImportOpts{}); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
		if len(fake.Requests()) != 0 {
			t.Error("no requests expected")
		}

		anon, _, _ := newEngine(t, library.ModeFavorites, "")
		if _, err := anon.BulkImport(ctx, nil, sampleBooks(1), ImportOpts{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		e, _, _ := newEngine(t, library.ModeCollections, "admin")
		if _, err := e.BulkImport(ctx, nil, nil, ImportOpts{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		e, _, _ := newEngine(t, library.ModeCollections, "admin")
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res, err := e.BulkImport(cctx, nil, sampleBooks(3), ImportOpts{RateLimit: 1000})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		for i, r := range res.Results {
			if r.Error == nil {
				t.Errorf("row %d should carry an error", i)
			}
		}
	})
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	dune := models.Book{ID: "1", Title: "Dune", Author: "Frank Herbert", Cover: "https://covers.test/dune.jpg"}
	emma := models.Book{ID: "2", Title: "Emma", Author: "Jane Austen", Cover: "https://covers.test/emma.jpg"}

	tests := []struct {
		name      string
		format    string
		wantFiles []string
	}{
		{"json", FormatJSON, []string{"catalog.json"}},
		{"csv", FormatCSV, []string{"catalog_books.csv", "catalog_lists.json"}},
		{"markdown", FormatMarkdown, []string{"README.md", "LISTS.md"}},
		{"text", FormatText, []string{"catalog.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, fake, _ := newEngine(t, library.ModeCollections, "alice", dune, emma)
			fake.SeedLists(
				models.Collection{ID: "l1", UserID: "alice", Name: "Mine", BookIDs: []models.ID{"1"}},
				models.Collection{ID: "l2", UserID: "alice", Name: "undefined"},
			)
			dir := filepath.Join(t.TempDir(), "out")

			res, err := e.Export(ctx, nil, ExportOpts{Format: tt.format, OutputDir: dir, IncludeLists: true})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Books != 2 || res.Lists != 1 {
				t.Errorf("books=%d lists=%d", res.Books, res.Lists)
			}
			for _, f := range tt.wantFiles {
				tu.AssertFileExists(t, filepath.Join(dir, f))
			}
			tu.AssertFileExists(t, res.ManifestPath)

			var manifest map[string]any
			if err := json.Unmarshal([]byte(tu.MustReadFile(t, res.ManifestPath)), &manifest); err != nil {
				t.Fatalf("manifest is not JSON: %v", err)
			}
			if manifest["format"] != tt.format {
				t.Errorf("manifest format = %v", manifest["format"])
			}
		})
	}

	t.Run("lists skipped when signed out", func(t *testing.T) {
		e, fake, _ := newEngine(t, library.ModeCollections, "", dune)
		res, err := e.Export(ctx, nil, ExportOpts{OutputDir: t.TempDir(), IncludeLists: true})
		if err != nil {
			t.Fatal(err)
		}
		if res.Lists != 0 || fake.CountRequests("GET", "/reading-lists") != 0 {
			t.Error("lists should not be fetched anonymously")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		e, _, _ := newEngine(t, library.ModeCollections, "")
		if _, err := e.Export(ctx, nil, ExportOpts{Format: "xml"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		e, fake, _ := newEngine(t, library.ModeCollections, "")
		fake.FailNext("GET", "/books", http.StatusServiceUnavailable)
		if _, err := e.Export(ctx, nil, ExportOpts{OutputDir: t.TempDir()}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("markdown with covers", func(t *testing.T) {
		images := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "broken.png") {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("img"))
		}))
		defer images.Close()

		withCover := dune
		withCover.Cover = images.URL + "/dune.png"
		broken := emma
		broken.Cover = images.URL + "/broken.png"

		e, _, _ := newEngine(t, library.ModeCollections, "", withCover, broken)
		e.WithHTTPClient(images.Client())
		dir := t.TempDir()
		prog := make(chan ProgressUpdate, 16)

		res, err := e.Export(ctx, prog, ExportOpts{Format: FormatMarkdown, OutputDir: dir, Covers: true, RateLimit: 1000})
		if err != nil {
			t.Fatal(err)
		}
		if res.Covers != 1 || len(res.CoverFailures) != 1 || res.CoverFailures[0] != "Emma" {
			t.Errorf("covers=%d failures=%v", res.Covers, res.CoverFailures)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "covers", "1.png"))
		if !strings.Contains(tu.MustReadFile(t, filepath.Join(dir, "README.md")), "![Cover](covers/1.png)") {
			t.Error("README should embed the downloaded cover")
		}

		var sawCover bool
		for _, u := range drain(prog) {
			if u.Phase == DownloadCovers {
				sawCover = true
			}
		}
		if !sawCover {
			t.Error("expected cover progress updates")
		}
	})

	t.Run("output dir under a file fails", func(t *testing.T) {
		e, _, _ := newEngine(t, library.ModeCollections, "", dune)
		blocker := filepath.Join(t.TempDir(), "f")
		if err := os.WriteFile(blocker, nil, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Export(ctx, nil, ExportOpts{OutputDir: filepath.Join(blocker, "x")}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{
		FetchBooks:     "fetch_books",
		ImportBooks:    "import_books",
		DownloadCovers: "download_covers",
		ReloadCatalog:  "reload_catalog",
		Phase(99):      "",
	} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
