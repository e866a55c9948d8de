package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	records := []Record{
		{Server: "https://da.example.com", Target: "package", Restart: true, Success: true, Message: "installed", Duration: 4 * time.Second},
		{Server: "https://da.example.com", Target: "playground:default", Restart: false, Success: false, Message: "upload failed", Duration: 2 * time.Second},
	}
	for _, rec := range records {
		if err := db.Record(rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d records, want 2", len(got))
	}

	// Newest first
	if got[0].Target != "playground:default" {
		t.Errorf("got[0].Target = %q, want %q", got[0].Target, "playground:default")
	}
	if got[0].Success {
		t.Error("got[0].Success = true, want false")
	}
	if got[1].Target != "package" {
		t.Errorf("got[1].Target = %q, want %q", got[1].Target, "package")
	}
	if !got[1].Restart {
		t.Error("got[1].Restart = false, want true")
	}
	if got[1].Duration != 4*time.Second {
		t.Errorf("got[1].Duration = %v, want 4s", got[1].Duration)
	}
}

func TestRecentLimit(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	for i := 0; i < 5; i++ {
		if err := db.Record(Record{Server: "s", Target: "package", Success: true}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := db.Recent(3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recent(3) returned %d records, want 3", len(got))
	}
}

func TestRecentEmpty(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	got, err := db.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recent() on empty database returned %d records", len(got))
	}
}
