package subtitles

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"encodeforge/internal/logging"
	"encodeforge/internal/workers"
)

// batchState tracks terminal status per entry so the deadline sweep can
// find the stragglers. All access goes through the mutex.
type batchState struct {
	mu       sync.Mutex
	terminal map[int]bool
	done     int
}

func newBatchState(entries []BatchEntry) *batchState {
	return &batchState{terminal: make(map[int]bool, len(entries))}
}

// markTerminal records a terminal outcome for fileID. It returns false when
// the entry already finished, which makes the sweep and the regular path
// safe to race: whichever arrives second is dropped.
func (b *batchState) markTerminal(fileID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.terminal[fileID] {
		return false
	}
	b.terminal[fileID] = true
	b.done++
	return true
}

func (b *batchState) completed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// SearchBatch runs one single-file search per entry, concurrently up to the
// worker budget. Every entry gets exactly one FileResult, and one
// BatchSummary follows them all. Per-file progress snapshots also flow to
// sink, tagged with the entry's file id by the emitting worker.
func (e *Engine) SearchBatch(ctx context.Context, entries []BatchEntry, sink Sink) BatchSummary {
	if sink == nil {
		sink = discardSink{}
	}
	state := newBatchState(entries)
	emitTerminal := func(result FileResult) {
		if state.markTerminal(result.FileID) {
			sink.Emit(result)
		}
	}

	limit := e.workerOverride
	if limit <= 0 {
		limit = e.budget.OptimalWorkerCount(workers.CategorySubtitleSearch)
	}
	sem := semaphore.NewWeighted(int64(limit))

	batchCtx := ctx
	cancel := context.CancelFunc(func() {})
	if e.batchTimeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, e.batchTimeout)
	}
	defer cancel()

	e.logger.Info("starting batch search",
		logging.Int("entries", len(entries)),
		logging.Int("workers", limit))

	var wg sync.WaitGroup
	for _, entry := range entries {
		if strings.TrimSpace(entry.VideoPath) == "" {
			// Invalid input resolves synchronously, without a worker slot.
			emitTerminal(FileResult{
				FileID:       entry.FileID,
				FileName:     entry.FileName,
				Status:       "error",
				Message:      "video_path required",
				FileComplete: true,
			})
			continue
		}

		if err := sem.Acquire(batchCtx, 1); err != nil {
			// Batch deadline hit while waiting for a slot; the sweep below
			// emits this entry's terminal message.
			break
		}
		wg.Add(1)
		go func(entry BatchEntry) {
			defer wg.Done()
			defer sem.Release(1)
			e.runBatchEntry(batchCtx, entry, sink, emitTerminal)
		}(entry)
	}
	wg.Wait()

	// Sweep: everything not yet terminal gets a timeout message, so the
	// count of terminals always equals the input count.
	for _, entry := range entries {
		emitTerminal(FileResult{
			FileID:       entry.FileID,
			FileName:     entry.FileName,
			Status:       "error",
			Message:      "Search timeout",
			FileComplete: true,
		})
	}

	summary := BatchSummary{
		Status:    "success",
		Completed: state.completed(),
		Total:     len(entries),
		Complete:  true,
	}
	sink.Emit(summary)
	e.logger.Info("batch search finished",
		logging.Int("completed", summary.Completed),
		logging.Int("total", summary.Total))
	return summary
}

func (e *Engine) runBatchEntry(ctx context.Context, entry BatchEntry, sink Sink, emitTerminal func(FileResult)) {
	fileCtx := ctx
	cancel := context.CancelFunc(func() {})
	if e.perFileTimeout > 0 {
		fileCtx, cancel = context.WithTimeout(ctx, e.perFileTimeout)
	}
	defer cancel()

	progress := SinkFunc(func(message any) {
		snapshot, ok := message.(ProviderProgress)
		if !ok {
			// The per-file terminal is built here from the return value;
			// only incremental snapshots pass through.
			return
		}
		sink.Emit(struct {
			FileID   int    `json:"fileId"`
			FileName string `json:"fileName,omitempty"`
			ProviderProgress
		}{entry.FileID, entry.FileName, snapshot})
	})

	ranked, err := e.Search(fileCtx, entry.VideoPath, entry.Languages, progress)
	if err != nil {
		message := err.Error()
		if fileCtx.Err() != nil {
			message = "Search timeout"
		}
		emitTerminal(FileResult{
			FileID:       entry.FileID,
			FileName:     entry.FileName,
			Status:       "error",
			Message:      message,
			FileComplete: true,
		})
		return
	}
	emitTerminal(FileResult{
		FileID:       entry.FileID,
		FileName:     entry.FileName,
		Status:       "file_complete",
		Subtitles:    viewsOf(ranked),
		FileComplete: true,
	})
}
