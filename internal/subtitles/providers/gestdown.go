package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"encodeforge/internal/fingerprint"
	"encodeforge/internal/language"
	"encodeforge/internal/logging"
)

const (
	gestdownName    = "gestdown"
	gestdownBaseURL = "https://api.gestdown.info"
)

// Gestdown fronts the Addic7ed catalog through a JSON API. Episodes only;
// movie searches return nothing without a network call.
type Gestdown struct {
	baseURL   string
	userAgent string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewGestdown(opts Options) *Gestdown {
	return &Gestdown{
		baseURL:   opts.baseURLOrDefault(gestdownBaseURL),
		userAgent: opts.userAgentOrDefault(),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(300 * time.Millisecond)),
		logger:    opts.loggerOrNop().With(logging.String("component", gestdownName)),
	}
}

func (g *Gestdown) Name() string { return gestdownName }

func (g *Gestdown) Languages() []string { return nil }

func (g *Gestdown) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	if !fp.IsEpisode() {
		return nil, nil
	}
	var collected []Candidate
	for _, lang := range languages {
		if err := g.polite.wait(ctx); err != nil {
			return nil, err
		}
		candidates, err := g.searchLanguage(ctx, fp, lang)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("search failed", logging.String("language", lang), logging.Error(err))
			continue
		}
		collected = append(collected, candidates...)
	}
	return collected, nil
}

func (g *Gestdown) searchLanguage(ctx context.Context, fp fingerprint.MediaFingerprint, lang string) ([]Candidate, error) {
	display := language.DisplayName(lang)
	endpoint := fmt.Sprintf("%s/subtitles/find/%s/%s/%d/%d",
		g.baseURL, url.PathEscape(display), url.PathEscape(fp.CleanTitle), fp.Season, fp.Episode)
	body, err := fetch(ctx, g.http, endpoint, g.userAgent, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var payload struct {
		MatchingSubtitles []struct {
			SubtitleID    string `json:"subtitleId"`
			Version       string `json:"version"`
			Completed     bool   `json:"completed"`
			DownloadURI   string `json:"downloadUri"`
			Language      string `json:"language"`
			DownloadCount int    `json:"downloadCount"`
		} `json:"matchingSubtitles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.MatchingSubtitles))
	for _, entry := range payload.MatchingSubtitles {
		if !entry.Completed || entry.DownloadURI == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Provider:    gestdownName,
			FileID:      entry.SubtitleID,
			Language:    entry.Language,
			Format:      "srt",
			Release:     entry.Version,
			DownloadURL: g.baseURL + entry.DownloadURI,
			Downloads:   entry.DownloadCount,
		})
	}
	return candidates, nil
}

func (g *Gestdown) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if err := g.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	data, err := fetch(ctx, g.http, candidate.DownloadURL, g.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("gestdown: download failed: %w", err)
	}
	return Payload{Data: data, FileName: candidate.Release + ".srt"}, nil
}
