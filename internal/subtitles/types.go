package subtitles

import (
	"encodeforge/internal/fingerprint"
	"encodeforge/internal/subtitles/providers"
)

// CandidateView is the caller-facing shape of a ranked candidate.
type CandidateView struct {
	Language           string  `json:"language"`
	Provider           string  `json:"provider"`
	Format             string  `json:"format"`
	DownloadURL        string  `json:"downloadUrl"`
	FileID             string  `json:"fileId"`
	Score              float64 `json:"score"`
	Filename           string  `json:"filename"`
	ManualDownloadOnly bool    `json:"manualDownloadOnly,omitempty"`
}

func viewOf(c providers.Candidate) CandidateView {
	return CandidateView{
		Language:           c.Language,
		Provider:           c.Provider,
		Format:             c.Format,
		DownloadURL:        c.DownloadURL,
		FileID:             c.FileID,
		Score:              c.Score,
		Filename:           c.Release,
		ManualDownloadOnly: c.ManualOnly,
	}
}

func viewsOf(candidates []providers.Candidate) []CandidateView {
	views := make([]CandidateView, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, viewOf(c))
	}
	return views
}

// ProviderProgress is the incremental snapshot emitted after each provider
// finishes its turn in a single-file search.
type ProviderProgress struct {
	Progress         bool            `json:"progress"`
	Provider         string          `json:"provider"`
	ProviderComplete bool            `json:"providerComplete"`
	Subtitles        []CandidateView `json:"subtitles"`
	Status           string          `json:"status"`
}

// SearchResult is the terminal message of a single-file search.
type SearchResult struct {
	Status    string          `json:"status"`
	Count     int             `json:"count"`
	Subtitles []CandidateView `json:"subtitles"`
	Complete  bool            `json:"complete"`
}

// FileResult is the terminal message for one entry of a batch. Exactly one
// is emitted per input entry.
type FileResult struct {
	FileID       int             `json:"fileId"`
	FileName     string          `json:"fileName,omitempty"`
	Status       string          `json:"status"`
	Subtitles    []CandidateView `json:"subtitles,omitempty"`
	Message      string          `json:"message,omitempty"`
	FileComplete bool            `json:"fileComplete"`
}

// BatchSummary closes a batch, after every FileResult.
type BatchSummary struct {
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Complete  bool   `json:"complete"`
}

// Sink receives streamed engine messages. Implementations must serialize
// writes internally: batch workers share one sink and their messages must
// never interleave mid-record. Emit is called from multiple goroutines.
type Sink interface {
	Emit(message any)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(message any)

func (f SinkFunc) Emit(message any) { f(message) }

type discardSink struct{}

func (discardSink) Emit(any) {}

// BatchEntry is one unit of work for a batch search.
type BatchEntry struct {
	FileID    int      `json:"fileId"`
	FileName  string   `json:"fileName,omitempty"`
	VideoPath string   `json:"videoPath"`
	Languages []string `json:"languages,omitempty"`
}

// session accumulates one video's search state. It is owned by the search
// call that created it and never escapes.
type session struct {
	id          string
	fingerprint fingerprint.MediaFingerprint
	languages   []string
	candidates  []providers.Candidate
}
