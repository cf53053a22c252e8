package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"encodeforge/internal/fingerprint"
	"encodeforge/internal/language"
	"encodeforge/internal/logging"
)

const (
	podnapisiName    = "podnapisi"
	podnapisiBaseURL = "https://www.podnapisi.net"
)

// Podnapisi queries the podnapisi.net JSON search endpoint. Downloads arrive
// as zip archives containing the subtitle file.
type Podnapisi struct {
	baseURL   string
	userAgent string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewPodnapisi(opts Options) *Podnapisi {
	return &Podnapisi{
		baseURL:   opts.baseURLOrDefault(podnapisiBaseURL),
		userAgent: opts.userAgentOrDefault(),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(500 * time.Millisecond)),
		logger:    opts.loggerOrNop().With(logging.String("component", podnapisiName)),
	}
}

func (p *Podnapisi) Name() string { return podnapisiName }

func (p *Podnapisi) Languages() []string { return nil }

func (p *Podnapisi) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	for _, query := range fp.SearchQueries {
		if err := p.polite.wait(ctx); err != nil {
			return nil, err
		}
		candidates, err := p.searchQuery(ctx, fp, query, languages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("search query failed", logging.String("query", query), logging.Error(err))
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}

func (p *Podnapisi) searchQuery(ctx context.Context, fp fingerprint.MediaFingerprint, query string, languages []string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("keywords", query)
	for _, lang := range languages {
		if code := language.ToISO2(lang); code != "" {
			params.Add("language", code)
		}
	}
	if fp.IsEpisode() {
		params.Set("seasons", fmt.Sprintf("%d", fp.Season))
		params.Set("episodes", fmt.Sprintf("%d", fp.Episode))
	} else if fp.Year > 0 {
		params.Set("year", fmt.Sprintf("%d", fp.Year))
	}

	endpoint := p.baseURL + "/subtitles/search/advanced?" + params.Encode()
	body, err := fetch(ctx, p.http, endpoint, p.userAgent, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			ID       string `json:"id"`
			Language string `json:"language"`
			Format   string `json:"format"`
			Download string `json:"download"`
			Releases []string `json:"releases"`
			Stats    struct {
				Downloads int `json:"downloads"`
			} `json:"stats"`
			Rating float64 `json:"rating"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if entry.Download == "" || entry.Language == "" {
			continue
		}
		release := ""
		if len(entry.Releases) > 0 {
			release = entry.Releases[0]
		}
		fileID := entry.ID
		if fileID == "" {
			fileID = stableFileID(entry.Download)
		}
		format := strings.ToLower(entry.Format)
		if format == "" {
			format = "srt"
		}
		candidates = append(candidates, Candidate{
			Provider:    podnapisiName,
			FileID:      fileID,
			Language:    entry.Language,
			Format:      format,
			Release:     release,
			DownloadURL: p.absoluteURL(entry.Download),
			Downloads:   entry.Stats.Downloads,
			Rating:      entry.Rating,
		})
	}
	return candidates, nil
}

func (p *Podnapisi) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if err := p.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	data, err := fetch(ctx, p.http, candidate.DownloadURL, p.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("podnapisi: download failed: %w", err)
	}
	return Payload{Data: data, FileName: candidate.Release}, nil
}

func (p *Podnapisi) absoluteURL(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return p.baseURL + "/" + strings.TrimPrefix(link, "/")
}
