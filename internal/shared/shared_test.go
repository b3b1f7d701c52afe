package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestFold(t *testing.T) {
	tc := []struct {
		name   string
		s      string
		substr string
		want   bool
	}{
		{name: "empty needle", s: "Dune", substr: "", want: true},
		{name: "lower needle", s: "Dune", substr: "dune", want: true},
		{name: "upper needle", s: "Frank Herbert", substr: "HERB", want: true},
		{name: "no match", s: "Dune", substr: "horror", want: false},
		{name: "isbn digits", s: "978-0441013593", substr: "0441", want: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FoldContains(tt.s, tt.substr); got != tt.want {
				t.Errorf("FoldContains(%q, %q) = %v, want %v", tt.s, tt.substr, got, tt.want)
			}
		})
	}

	t.Run("FoldEqual", func(t *testing.T) {
		if !FoldEqual("Admin", "ADMIN") {
			t.Error("expected Admin and ADMIN to fold equal")
		}
		if FoldEqual("administrator", "admin") {
			t.Error("expected administrator and admin to differ")
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	if got := ParseLogLevel("debug"); got != log.DebugLevel {
		t.Errorf("expected debug level, got %v", got)
	}
	if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
		t.Errorf("expected fallback to info level, got %v", got)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("creates missing parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "libris", "libris.db")

		db, err := NewDatabase(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 0)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected database file at %s: %v", path, err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := NewDatabase(""); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
