package formatter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/libris/internal/models"
	th "github.com/desertthunder/libris/internal/testing"
)

var books = []models.Book{
	{ID: "1", Title: "Dune", Author: "Frank Herbert", Cover: "https://covers.test/dune.jpg", Genre: "Sci-Fi", ISBN: "9780441172719", PublishedYear: 1965, Description: "Spice.", Status: models.StatusAvailable},
	{ID: "2", Title: "Emma, Revised", Author: "Jane Austen", Cover: "https://covers.test/emma.png?size=l", Status: models.StatusLoaned},
}

func TestExporters(t *testing.T) {
	t.Run("BooksToCSV", func(t *testing.T) {
		data, err := BooksToCSV(books)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[0] != strings.Join(CSVHeader, ",") {
			t.Errorf("header = %q", lines[0])
		}
		if !strings.Contains(lines[1], "1965") || !strings.HasSuffix(lines[1], "Available") {
			t.Errorf("first row = %q", lines[1])
		}
		if !strings.Contains(lines[2], `"Emma, Revised"`) {
			t.Errorf("comma in title should be quoted: %q", lines[2])
		}
	})

	t.Run("CSV round trip through ParseCSV", func(t *testing.T) {
		data, err := BooksToCSV(books)
		if err != nil {
			t.Fatal(err)
		}
		parsed, failed, err := ParseCSV(strings.NewReader(string(data)))
		if err != nil || len(failed) != 0 {
			t.Fatalf("ParseCSV() err=%v failed=%v", err, failed)
		}
		if len(parsed) != 2 || parsed[0].PublishedYear != 1965 || parsed[1].Status != models.StatusLoaned {
			t.Errorf("parsed = %+v", parsed)
		}
	})

	t.Run("BooksToMarkdown", func(t *testing.T) {
		data, err := BooksToMarkdown("Shelf", books, map[models.ID]string{"1": "covers/1.jpg"})
		if err != nil {
			t.Fatal(err)
		}
		md := string(data)
		for _, want := range []string{"# Shelf", "**Books**: 2", "## Dune", "![Cover](covers/1.jpg)", "**Published**: 1965", "**Status**: Loaned", "Spice."} {
			if !strings.Contains(md, want) {
				t.Errorf("markdown missing %q", want)
			}
		}
		if strings.Count(md, "![Cover]") != 1 {
			t.Error("only books with saved covers get an image")
		}
	})

	t.Run("ListsToMarkdown skips invalid lists", func(t *testing.T) {
		lists := []models.Collection{
			{ID: "a", UserID: "alice", Name: "Summer", BookIDs: []models.ID{"1", "99"}},
			{ID: "b", UserID: "alice", Name: "undefined", BookIDs: []models.ID{"2"}},
			{ID: "c", UserID: "bob", Name: "Empty"},
		}
		md := string(must(ListsToMarkdown(lists, books)))
		if strings.Contains(md, "undefined") {
			t.Error("invalid list rendered")
		}
		for _, want := range []string{"## Summer", "1. Frank Herbert - Dune", "(unknown book 99)", "_This list is empty._"} {
			if !strings.Contains(md, want) {
				t.Errorf("markdown missing %q", want)
			}
		}
	})

	t.Run("BooksToText", func(t *testing.T) {
		text := string(must(BooksToText(books)))
		if !strings.Contains(text, "Books: 2") || !strings.Contains(text, "2. Jane Austen - Emma, Revised [loaned]") {
			t.Errorf("text = %q", text)
		}
	})
}

func must(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

func TestParseCSV(t *testing.T) {
	t.Run("columns in any order and case", func(t *testing.T) {
		in := "Author,TITLE,Cover,Status\nUrsula K. Le Guin,The Dispossessed,https://c/x.jpg,Ödünç Verilmiş\n"
		parsed, failed, err := ParseCSV(strings.NewReader(in))
		if err != nil || len(failed) != 0 {
			t.Fatalf("err=%v failed=%v", err, failed)
		}
		if len(parsed) != 1 || parsed[0].Title != "The Dispossessed" || parsed[0].Status != models.StatusLoaned {
			t.Errorf("parsed = %+v", parsed)
		}
	})

	t.Run("bad rows are reported with line numbers", func(t *testing.T) {
		in := strings.Join([]string{
			"title,author,cover,publishedYear,status",
			"Ok,Someone,https://c/1.jpg,1999,",
			"No Cover,Someone,,2001,",
			"Bad Year,Someone,https://c/2.jpg,nineteen,",
			"",
			"Bad Status,Someone,https://c/3.jpg,,lost",
		}, "\n")

		parsed, failed, err := ParseCSV(strings.NewReader(in))
		if err != nil {
			t.Fatal(err)
		}
		if len(parsed) != 1 || parsed[0].Status != models.StatusAvailable {
			t.Errorf("parsed = %+v", parsed)
		}
		if len(failed) != 3 {
			t.Fatalf("failed = %v", failed)
		}
		if failed[0].Line != 3 || failed[1].Line != 4 || failed[2].Line != 6 {
			t.Errorf("lines = %v", failed)
		}
	})

	t.Run("missing required column", func(t *testing.T) {
		if _, _, err := ParseCSV(strings.NewReader("title,author\nA,B\n")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, _, err := ParseCSV(strings.NewReader("")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestCoverFilename(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"https://c/dune.JPG", "1.jpg"},
		{"https://c/emma.png?size=l", "1.png"},
		{"https://c/cover", "1.jpg"},
		{"https://c/file.exe", "1.jpg"},
	}
	for _, tt := range tests {
		if got := CoverFilename("1", tt.url); got != tt.want {
			t.Errorf("CoverFilename(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	defer server.Close()

	ctx := context.Background()

	data, err := DownloadImage(ctx, server.Client(), server.URL+"/cover.png")
	if err != nil || string(data) != "PNGDATA" {
		t.Errorf("DownloadImage() = %q, %v", data, err)
	}
	if _, err := DownloadImage(ctx, server.Client(), server.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
	if _, err := DownloadImage(ctx, nil, ""); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestWriters(t *testing.T) {
	lists := []models.Collection{{ID: "a", UserID: "alice", Name: "Summer", BookIDs: []models.ID{"1"}}}

	t.Run("WriteCSVExport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "out")
		res, err := WriteCSVExport(books, lists, base)
		if err != nil {
			t.Fatal(err)
		}
		th.AssertFileExists(t, res.BooksFile)
		th.AssertFileExists(t, res.ListsFile)
		if !strings.Contains(th.MustReadFile(t, res.ListsFile), `"userId": "alice"`) {
			t.Error("lists JSON should carry owners")
		}

		res, err = WriteCSVExport(books, nil, filepath.Join(t.TempDir(), "solo"))
		if err != nil {
			t.Fatal(err)
		}
		if res.ListsFile != "" {
			t.Error("no lists file without lists")
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "md")
		res, err := WriteMarkdownExport(books, lists, dir, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Files) != 2 {
			t.Fatalf("files = %v", res.Files)
		}
		th.AssertFileExists(t, filepath.Join(dir, "README.md"))
		th.AssertFileExists(t, filepath.Join(dir, "LISTS.md"))
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "books.txt")
		got, err := WriteTextExport(books, path)
		if err != nil || got != path {
			t.Fatalf("WriteTextExport() = %q, %v", got, err)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("write failures are reported", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, nil, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := WriteTextExport(books, filepath.Join(blocker, "x.txt")); err == nil {
			t.Error("expected error writing under a file")
		}
		if _, err := WriteMarkdownExport(books, nil, filepath.Join(blocker, "md"), nil); err == nil {
			t.Error("expected error creating dir under a file")
		}
	})
}
