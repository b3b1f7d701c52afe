package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestBookDecoding(t *testing.T) {
	t.Run("numeric and string ids", func(t *testing.T) {
		var books []Book
		data := `[{"id": 1712345678901, "title": "Dune"}, {"id": "b-2", "title": "Emma"}]`
		if err := json.Unmarshal([]byte(data), &books); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if books[0].ID != "1712345678901" {
			t.Errorf("expected numeric id as string, got %q", books[0].ID)
		}
		if books[1].ID != "b-2" {
			t.Errorf("expected string id, got %q", books[1].ID)
		}
	})

	t.Run("status aliases", func(t *testing.T) {
		tests := []struct {
			raw  string
			want BookStatus
		}{
			{`"Available"`, StatusAvailable},
			{`"Loaned"`, StatusLoaned},
			{`"Müsait"`, StatusAvailable},
			{`"Ödünç Verilmiş"`, StatusLoaned},
			{`""`, StatusAvailable},
			{`"Lost"`, BookStatus("Lost")},
		}

		for _, tt := range tests {
			var s BookStatus
			if err := json.Unmarshal([]byte(tt.raw), &s); err != nil {
				t.Fatalf("%s: unexpected error: %v", tt.raw, err)
			}
			if s != tt.want {
				t.Errorf("%s: expected %q, got %q", tt.raw, tt.want, s)
			}
		}
	})

	t.Run("missing status defaults to available", func(t *testing.T) {
		var b Book
		if err := json.Unmarshal([]byte(`{"id":"1","title":"Dune"}`), &b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Status.OrDefault() != StatusAvailable || b.Loaned() {
			t.Errorf("expected default Available, got %q", b.Status)
		}
	})

	t.Run("published year", func(t *testing.T) {
		var b Book
		if err := json.Unmarshal([]byte(`{"id":"1","publishedYear":"1965"}`), &b); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.PublishedYear != 1965 {
			t.Errorf("expected 1965, got %d", b.PublishedYear)
		}

		if err := json.Unmarshal([]byte(`{"id":"1","publishedYear":"soon"}`), &b); err == nil {
			t.Error("expected error for non-numeric year")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (Book{Title: "Dune", Author: "Herbert", Cover: "https://x/y.jpg"}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := (Book{Title: "Dune"}).Validate(); err == nil {
			t.Error("expected error for missing author and cover")
		}
	})
}

func TestCollection(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tests := []struct {
			name string
			want bool
		}{
			{"Summer reading", true},
			{"", false},
			{"   ", false},
			{"undefined", false},
		}
		for _, tt := range tests {
			if got := (Collection{Name: tt.name}).Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.name, got, tt.want)
			}
		}
	})

	t.Run("Contains and OwnedBy", func(t *testing.T) {
		c := Collection{UserID: "alice", BookIDs: []ID{"1", "2"}}
		if !c.Contains("2") || c.Contains("3") {
			t.Error("unexpected membership result")
		}
		if !c.OwnedBy("alice") || c.OwnedBy("bob") || c.OwnedBy("") {
			t.Error("unexpected ownership result")
		}
	})

	t.Run("ChatReply fallback", func(t *testing.T) {
		if got := (ChatReply{Message: "hi"}).Text(); got != "hi" {
			t.Errorf("expected fallback to message, got %q", got)
		}
		if got := (ChatReply{Response: "a", Message: "b"}).Text(); got != "a" {
			t.Errorf("expected response, got %q", got)
		}
	})
}

func TestCredentials(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var nilCreds *Credentials
	if !nilCreds.Expired(now, 0) {
		t.Error("nil credentials should be expired")
	}

	c := &Credentials{IDToken: "tok", Expiry: now.Add(time.Minute)}
	if c.Expired(now, 0) {
		t.Error("token should still be valid")
	}
	if !c.Expired(now, 2*time.Minute) {
		t.Error("token should be expired within skew")
	}
	if (&Credentials{IDToken: "tok"}).Expired(now, time.Hour) {
		t.Error("zero expiry should never expire")
	}
}

func TestImportJob(t *testing.T) {
	job := NewImportJob(1, "admin", "books.csv")
	if job.Status() != JobPending {
		t.Errorf("expected pending, got %s", job.Status())
	}

	job.Start(3)
	job.Record(true)
	job.Record(true)
	job.Record(false)
	if err := job.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	job.Finish(nil)
	if job.Status() != JobCompleted || job.CompletedAt() == nil {
		t.Errorf("expected completed job, got %s", job.Status())
	}

	failed := NewImportJob(2, "admin", "broken.csv")
	failed.Finish(errors.New("boom"))
	if failed.Status() != JobFailed || failed.ErrorMessage() != "boom" {
		t.Errorf("expected failed job with message, got %s %q", failed.Status(), failed.ErrorMessage())
	}

	if err := NewImportJob(3, "", "").Validate(); err == nil {
		t.Error("expected error for missing source")
	}
}
