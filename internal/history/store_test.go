package history

import (
	"context"
	"path/filepath"
	"testing"

	"encodeforge/internal/subtitles"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)

	records := []subtitles.RetrievalRecord{
		{Provider: "opensubtitles", FileID: "1", Language: "eng", VideoPath: "/a.mkv", SubtitlePath: "/a.eng.srt", Outcome: "success"},
		{Provider: "subdivx", FileID: "2", Language: "spa", VideoPath: "/b.mkv", Outcome: "manual", Message: "rar archive"},
	}
	for _, record := range records {
		if err := store.RecordRetrieval(record); err != nil {
			t.Fatalf("RecordRetrieval: %v", err)
		}
	}

	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Provider != "subdivx" || entries[0].Outcome != "manual" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].SubtitlePath != "/a.eng.srt" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("created_at was not recorded")
	}
}

func TestListHonorsLimit(t *testing.T) {
	store := openStore(t)
	for i := 0; i < 5; i++ {
		if err := store.RecordRetrieval(subtitles.RetrievalRecord{
			Provider: "gestdown", FileID: "x", Language: "eng", VideoPath: "/v.mkv", Outcome: "success",
		}); err != nil {
			t.Fatalf("RecordRetrieval: %v", err)
		}
	}
	entries, err := store.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordRetrieval(subtitles.RetrievalRecord{
		Provider: "podnapisi", FileID: "9", Language: "eng", VideoPath: "/v.mkv", Outcome: "error", Message: "http 500",
	}); err != nil {
		t.Fatalf("RecordRetrieval: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "http 500" {
		t.Errorf("entries = %+v", entries)
	}
}
