// package formatter renders catalog data to export formats (CSV, Markdown, plain text)
// and reads books back from CSV for import.
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/libris/internal/models"
	"github.com/desertthunder/libris/internal/shared"
)

// CSVHeader is the column order written by [BooksToCSV] and preferred by [ParseCSV].
var CSVHeader = []string{"id", "title", "author", "cover", "description", "genre", "isbn", "publishedYear", "status"}

// BooksToCSV converts books to CSV with a [CSVHeader] header row.
func BooksToCSV(books []models.Book) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range books {
		year := ""
		if b.PublishedYear != 0 {
			year = strconv.Itoa(int(b.PublishedYear))
		}
		record := []string{
			b.ID.String(),
			b.Title,
			b.Author,
			b.Cover,
			b.Description,
			b.Genre,
			b.ISBN,
			year,
			string(b.Status.OrDefault()),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RowError is a CSV row that could not be turned into a book. Line is 1-based and
// counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// ParseCSV reads books from CSV. Columns are matched by header name, case-insensitively
// and in any order; title, author and cover columns are required. Rows that fail to parse
// are reported in the returned slice and skipped.
func ParseCSV(r io.Reader) ([]models.Book, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: CSV is empty", shared.ErrInvalidInput)
		}
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[shared.Fold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"title", "author", "cover"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("%w: CSV header lacks %q column", shared.ErrInvalidInput, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[shared.Fold(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		books  []models.Book
		failed []RowError
	)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				failed = append(failed, RowError{Line: perr.Line, Err: perr.Err})
				continue
			}
			return books, failed, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		b := models.Book{
			ID:          models.ID(field(rec, "id")),
			Title:       field(rec, "title"),
			Author:      field(rec, "author"),
			Cover:       field(rec, "cover"),
			Description: field(rec, "description"),
			Genre:       field(rec, "genre"),
			ISBN:        field(rec, "isbn"),
		}

		if y := field(rec, "publishedYear"); y != "" {
			n, err := strconv.Atoi(y)
			if err != nil {
				failed = append(failed, RowError{Line: line, Err: fmt.Errorf("invalid published year %q", y)})
				continue
			}
			b.PublishedYear = models.Year(n)
		}

		status, err := models.ParseBookStatus(field(rec, "status"))
		if err != nil {
			failed = append(failed, RowError{Line: line, Err: err})
			continue
		}
		b.Status = status

		if err := b.Validate(); err != nil {
			failed = append(failed, RowError{Line: line, Err: err})
			continue
		}
		books = append(books, b)
	}

	return books, failed, nil
}

// BooksToMarkdown renders the catalog as a Markdown document. covers maps book ids to
// locally saved cover images, which are embedded when present.
func BooksToMarkdown(title string, books []models.Book, covers map[models.ID]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Books**: %d\n\n", len(books)))

	for _, b := range books {
		buf.WriteString(fmt.Sprintf("## %s\n\n", b.Title))
		if img := covers[b.ID]; img != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", img))
		}
		buf.WriteString(fmt.Sprintf("- **Author**: %s\n", b.Author))
		if b.Genre != "" {
			buf.WriteString(fmt.Sprintf("- **Genre**: %s\n", b.Genre))
		}
		if b.ISBN != "" {
			buf.WriteString(fmt.Sprintf("- **ISBN**: %s\n", b.ISBN))
		}
		if b.PublishedYear != 0 {
			buf.WriteString(fmt.Sprintf("- **Published**: %d\n", b.PublishedYear))
		}
		buf.WriteString(fmt.Sprintf("- **Status**: %s\n", b.Status.OrDefault()))
		if b.Description != "" {
			buf.WriteString(fmt.Sprintf("\n%s\n", b.Description))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ListsToMarkdown renders reading lists with their books resolved against the catalog.
// Invalid lists are skipped.
func ListsToMarkdown(lists []models.Collection, books []models.Book) ([]byte, error) {
	var buf bytes.Buffer
	byID := make(map[models.ID]models.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	buf.WriteString("# Reading Lists\n\n")
	for _, l := range lists {
		if !l.Valid() {
			continue
		}
		buf.WriteString(fmt.Sprintf("## %s\n\n", l.Name))
		buf.WriteString(fmt.Sprintf("**Owner**: %s\n", l.UserID))
		if l.Description != "" {
			buf.WriteString(fmt.Sprintf("**Description**: %s\n", l.Description))
		}
		buf.WriteString("\n")
		if len(l.BookIDs) == 0 {
			buf.WriteString("_This list is empty._\n\n")
			continue
		}
		for i, id := range l.BookIDs {
			if b, ok := byID[id]; ok {
				buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, b.Author, b.Title))
			} else {
				buf.WriteString(fmt.Sprintf("%d. (unknown book %s)\n", i+1, id))
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// BooksToText renders the catalog as plain text, one book per line.
func BooksToText(books []models.Book) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Books: %d\n\n", len(books)))
	for i, b := range books {
		line := fmt.Sprintf("%d. %s - %s", i+1, b.Author, b.Title)
		if b.Loaned() {
			line += " [loaned]"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
// A nil client gets a 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CoverFilename picks a file name for a book's cover from its URL's extension.
func CoverFilename(id models.ID, url string) string {
	ext := strings.ToLower(filepath.Ext(strings.SplitN(url, "?", 2)[0]))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		ext = ".jpg"
	}
	return id.String() + ext
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	BooksFile string
	ListsFile string
}

// WriteCSVExport writes {base}_books.csv and, when lists is non-empty, {base}_lists.json.
func WriteCSVExport(books []models.Book, lists []models.Collection, base string) (*CSVExportResult, error) {
	if base == "" {
		base = "catalog"
	}

	csvData, err := BooksToCSV(books)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	result := &CSVExportResult{BooksFile: base + "_books.csv"}
	if err := os.WriteFile(result.BooksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	if len(lists) > 0 {
		data, err := shared.MarshalJSON(lists, true)
		if err != nil {
			return nil, fmt.Errorf("failed to generate lists JSON: %w", err)
		}
		result.ListsFile = base + "_lists.json"
		if err := os.WriteFile(result.ListsFile, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write lists file: %w", err)
		}
	}

	return result, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport writes {dir}/README.md for the catalog and {dir}/LISTS.md when
// lists is non-empty. covers holds image paths relative to dir.
func WriteMarkdownExport(books []models.Book, lists []models.Collection, dir string, covers map[models.ID]string) (*MarkdownExportResult, error) {
	if dir == "" {
		dir = "catalog"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: dir, Files: []string{}}

	md, err := BooksToMarkdown("Library Catalog", books, covers)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}
	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, readme)

	if len(lists) > 0 {
		md, err := ListsToMarkdown(lists, books)
		if err != nil {
			return nil, fmt.Errorf("failed to generate lists Markdown: %w", err)
		}
		path := filepath.Join(dir, "LISTS.md")
		if err := os.WriteFile(path, md, 0644); err != nil {
			return nil, fmt.Errorf("failed to write lists file: %w", err)
		}
		result.Files = append(result.Files, path)
	}

	return result, nil
}

// WriteTextExport writes the catalog as plain text. Defaults to catalog.txt.
func WriteTextExport(books []models.Book, path string) (string, error) {
	if path == "" {
		path = "catalog.txt"
	}

	textData, err := BooksToText(books)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}
