package subtitles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"encodeforge/internal/fileutil"
	"encodeforge/internal/language"
	"encodeforge/internal/logging"
	"encodeforge/internal/subtitles/providers"
)

// DownloadRequest names one chosen candidate and where its subtitle should
// land. DownloadURL is optional for providers whose descriptor equals the
// file id.
type DownloadRequest struct {
	FileID      string `json:"fileId"`
	Provider    string `json:"provider"`
	VideoPath   string `json:"videoPath"`
	Language    string `json:"language"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	Format      string `json:"format,omitempty"`
}

// DownloadResult is the terminal outcome of a retrieval. A manual-download
// requirement is reported as status "error" with RequiresManualDownload set
// and human-readable steps in Message; it is an expected outcome, not a
// failure of the engine.
type DownloadResult struct {
	Status                 string `json:"status"`
	SubtitlePath           string `json:"subtitlePath,omitempty"`
	Provider               string `json:"provider,omitempty"`
	Language               string `json:"language,omitempty"`
	Message                string `json:"message,omitempty"`
	RequiresManualDownload bool   `json:"requiresManualDownload,omitempty"`
}

// Retrieve dispatches the request to the owning adapter, normalizes the
// payload (archive unwrapping, best-effort UTF-8 re-encoding), and writes
// the subtitle next to the video. The destination write is guarded by a
// file lock so two processes cannot interleave partial writes.
func (e *Engine) Retrieve(ctx context.Context, req DownloadRequest) DownloadResult {
	result := e.retrieve(ctx, req)
	record := RetrievalRecord{
		Provider:     req.Provider,
		FileID:       req.FileID,
		Language:     language.ToISO3(req.Language),
		VideoPath:    req.VideoPath,
		SubtitlePath: result.SubtitlePath,
		Outcome:      "success",
		Message:      result.Message,
	}
	switch {
	case result.RequiresManualDownload:
		record.Outcome = "manual"
	case result.Status != "success":
		record.Outcome = "error"
	}
	if err := e.history.RecordRetrieval(record); err != nil {
		e.logger.Warn("failed to record retrieval", logging.Error(err))
	}
	return result
}

func (e *Engine) retrieve(ctx context.Context, req DownloadRequest) DownloadResult {
	if strings.TrimSpace(req.VideoPath) == "" {
		return DownloadResult{Status: "error", Message: "video_path required"}
	}
	provider, ok := e.registry.Get(req.Provider)
	if !ok {
		return DownloadResult{Status: "error", Message: fmt.Sprintf("unknown provider %q", req.Provider)}
	}

	candidate := providers.Candidate{
		Provider:    provider.Name(),
		FileID:      req.FileID,
		Language:    req.Language,
		Format:      req.Format,
		DownloadURL: req.DownloadURL,
	}
	if candidate.DownloadURL == "" {
		candidate.DownloadURL = req.FileID
	}

	payload, err := provider.Retrieve(ctx, candidate)
	if err != nil {
		return DownloadResult{Status: "error", Message: err.Error()}
	}
	if payload.Manual {
		return DownloadResult{
			Status:                 "error",
			Message:                payload.Instructions,
			RequiresManualDownload: true,
		}
	}

	data, memberName, err := providers.UnwrapPayload(payload.Data)
	if err != nil {
		if errors.Is(err, providers.ErrUnsupportedArchive) {
			return DownloadResult{
				Status:                 "error",
				Message:                "The subtitle is packed in an archive format that must be extracted manually. Download it from the provider and unpack it yourself.",
				RequiresManualDownload: true,
			}
		}
		return DownloadResult{Status: "error", Message: err.Error()}
	}
	data = providers.ReencodeToUTF8(data, payload.SourceEncoding)

	format := candidate.Format
	if name := firstNonEmpty(memberName, payload.FileName); name != "" {
		if ext := providers.FormatFromFileName(name); ext != "" && providers.IsSubtitleFileName(name) {
			format = ext
		}
	}
	if format == "" {
		format = "srt"
	}

	destination := subtitlePath(req.VideoPath, language.ToISO3(req.Language), format)
	if err := e.writeLocked(destination, data); err != nil {
		return DownloadResult{Status: "error", Message: err.Error()}
	}

	e.logger.Info("subtitle retrieved",
		logging.String("provider", provider.Name()),
		logging.String("path", destination))
	return DownloadResult{
		Status:       "success",
		SubtitlePath: destination,
		Provider:     provider.Name(),
		Language:     language.ToISO3(req.Language),
	}
}

// subtitlePath places the subtitle next to the video with the language code
// in the name, e.g. movie.eng.srt beside movie.mkv.
func subtitlePath(videoPath, lang, format string) string {
	stem := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	if lang == "" || lang == "und" {
		return stem + "." + format
	}
	return stem + "." + lang + "." + format
}

func (e *Engine) writeLocked(destination string, data []byte) error {
	lock := flock.New(destination + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock subtitle destination: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()
	if err := fileutil.WriteFileAtomic(destination, data, 0o644); err != nil {
		return fmt.Errorf("write subtitle: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
