package subtitles

import (
	"context"
	"testing"
	"time"

	"encodeforge/internal/subtitles/providers"
	"encodeforge/internal/testsupport"
)

func terminalsAndSummaries(messages []any) (terminals []FileResult, summaries []BatchSummary) {
	for _, m := range messages {
		switch v := m.(type) {
		case FileResult:
			terminals = append(terminals, v)
		case BatchSummary:
			summaries = append(summaries, v)
		}
	}
	return terminals, summaries
}

func TestBatchEmitsOneTerminalPerEntryAndOneSummary(t *testing.T) {
	p := &stubProvider{name: "gestdown", candidates: []providers.Candidate{
		{Provider: "gestdown", FileID: "1", Language: "eng", Format: "srt"},
	}}
	engine := newTestEngine(t, []*stubProvider{p}, testsupport.WithWorkerCount(2))
	sink := &collectSink{}

	entries := []BatchEntry{
		{FileID: 1, FileName: "a.mkv", VideoPath: "/media/A.S01E01.mkv"},
		{FileID: 2, FileName: "b.mkv", VideoPath: "/media/B.S01E01.mkv"},
		{FileID: 3, FileName: "c.mkv", VideoPath: "/media/C.S01E01.mkv"},
	}
	summary := engine.SearchBatch(context.Background(), entries, sink)

	terminals, summaries := terminalsAndSummaries(sink.all())
	if len(terminals) != len(entries) {
		t.Fatalf("got %d terminal messages, want %d", len(terminals), len(entries))
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want exactly 1", len(summaries))
	}
	if summary.Completed != 3 || summary.Total != 3 || !summary.Complete {
		t.Errorf("summary = %+v", summary)
	}

	seen := map[int]bool{}
	for _, terminal := range terminals {
		if seen[terminal.FileID] {
			t.Errorf("fileId %d got more than one terminal message", terminal.FileID)
		}
		seen[terminal.FileID] = true
		if !terminal.FileComplete {
			t.Errorf("terminal for fileId %d missing fileComplete", terminal.FileID)
		}
		if terminal.Status != "file_complete" {
			t.Errorf("fileId %d status = %q", terminal.FileID, terminal.Status)
		}
	}

	// The summary must come after every terminal.
	messages := sink.all()
	if _, ok := messages[len(messages)-1].(BatchSummary); !ok {
		t.Errorf("last message is %T, want BatchSummary", messages[len(messages)-1])
	}
}

func TestBatchMissingVideoPathResolvesSynchronously(t *testing.T) {
	p := &stubProvider{name: "gestdown"}
	engine := newTestEngine(t, []*stubProvider{p})
	sink := &collectSink{}

	summary := engine.SearchBatch(context.Background(), []BatchEntry{{FileID: 1}}, sink)

	terminals, summaries := terminalsAndSummaries(sink.all())
	if len(terminals) != 1 || len(summaries) != 1 {
		t.Fatalf("terminals=%d summaries=%d", len(terminals), len(summaries))
	}
	if terminals[0].Status != "error" || terminals[0].Message != "video_path required" {
		t.Errorf("terminal = %+v", terminals[0])
	}
	if p.calls() != 0 {
		t.Errorf("provider was called %d times for an invalid entry", p.calls())
	}
	if summary.Completed != 1 || summary.Total != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestBatchPerFileTimeoutDoesNotStarveSiblings(t *testing.T) {
	// subscene hangs only for the "Slow" title; the sibling file flows
	// through it instantly and completes with real results.
	hang := &stubProvider{name: "subscene", block: make(chan struct{}), blockTitle: "Slow"}
	quick := &stubProvider{name: "gestdown", candidates: []providers.Candidate{
		{Provider: "gestdown", FileID: "ok", Language: "eng", Format: "srt"},
	}}
	defer close(hang.block)

	engine := newTestEngine(t, []*stubProvider{hang, quick}, testsupport.WithWorkerCount(2))
	engine.perFileTimeout = 150 * time.Millisecond
	engine.batchTimeout = 10 * time.Second

	sink := &collectSink{}
	entries := []BatchEntry{
		{FileID: 1, VideoPath: "/media/Slow.S01E01.mkv"},
		{FileID: 2, VideoPath: "/media/Fast.S01E01.mkv"},
	}
	engine.SearchBatch(context.Background(), entries, sink)

	terminals, summaries := terminalsAndSummaries(sink.all())
	if len(terminals) != 2 || len(summaries) != 1 {
		t.Fatalf("terminals=%d summaries=%d", len(terminals), len(summaries))
	}
	byID := map[int]FileResult{}
	for _, terminal := range terminals {
		byID[terminal.FileID] = terminal
	}
	if slow := byID[1]; slow.Status != "error" || slow.Message != "Search timeout" {
		t.Errorf("slow file terminal = %+v, want Search timeout", slow)
	}
	if fast := byID[2]; fast.Status != "file_complete" || len(fast.Subtitles) != 1 {
		t.Errorf("fast file terminal = %+v, want real results", fast)
	}
}

func TestBatchTimeoutSweepCoversStragglers(t *testing.T) {
	hang := &stubProvider{name: "subscene", block: make(chan struct{})}
	defer close(hang.block)

	engine := newTestEngine(t, []*stubProvider{hang}, testsupport.WithWorkerCount(1))
	engine.perFileTimeout = 10 * time.Second
	engine.batchTimeout = 150 * time.Millisecond

	sink := &collectSink{}
	entries := []BatchEntry{
		{FileID: 1, VideoPath: "/media/A.S01E01.mkv"},
		{FileID: 2, VideoPath: "/media/B.S01E01.mkv"},
		{FileID: 3, VideoPath: "/media/C.S01E01.mkv"},
	}
	summary := engine.SearchBatch(context.Background(), entries, sink)

	terminals, summaries := terminalsAndSummaries(sink.all())
	if len(terminals) != 3 {
		t.Fatalf("sweep left %d terminals, want 3", len(terminals))
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summary.Total != 3 || !summary.Complete {
		t.Errorf("summary = %+v", summary)
	}
	for _, terminal := range terminals {
		if terminal.Message != "Search timeout" {
			t.Errorf("fileId %d message = %q", terminal.FileID, terminal.Message)
		}
	}
}
