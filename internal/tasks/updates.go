package tasks

import (
	"fmt"

	"github.com/desertthunder/libris/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchBooks Phase = iota
	FetchLists
	ImportBooks
	DownloadCovers
	WriteFiles
	ReloadCatalog
)

func (p Phase) String() string {
	switch p {
	case FetchBooks:
		return "fetch_books"
	case FetchLists:
		return "fetch_lists"
	case ImportBooks:
		return "import_books"
	case DownloadCovers:
		return "download_covers"
	case WriteFiles:
		return "write_files"
	case ReloadCatalog:
		return "reload_catalog"
	default:
		return ""
	}
}

func fetchBooksUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchBooks, Step: 1, Total: 1, Message: "Fetching catalog..."}
}

func fetchListsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchLists, Step: 1, Total: 1, Message: "Fetching reading lists..."}
}

func importStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportBooks,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Importing %d books...", total),
	}
}

func importedUpdate(step, total int, b models.Book) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportBooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, b.Author, b.Title),
		Data:    b,
	}
}

func importFailedUpdate(step, total int, b models.Book, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportBooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, b.Title, err),
	}
}

func coverUpdate(step, total int, b models.Book, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] cover: %s", step, total, b.Title)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] cover failed: %s: %v", step, total, b.Title, err)
	}
	return ProgressUpdate{Phase: DownloadCovers, Step: step, Total: total, Message: msg}
}

func writeFilesUpdate(format string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteFiles, Step: 1, Total: 1, Message: fmt.Sprintf("Writing %s export...", format)}
}

func reloadUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: ReloadCatalog, Step: 1, Total: 1, Message: "Reloading catalog..."}
}
