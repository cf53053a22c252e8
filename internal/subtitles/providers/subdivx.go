package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"encodeforge/internal/fingerprint"
	"encodeforge/internal/language"
	"encodeforge/internal/logging"
)

const (
	subdivxName    = "subdivx"
	subdivxBaseURL = "https://www.subdivx.com"
)

// Subdivx serves the Spanish-language community at subdivx.com. The site
// only hosts Spanish subtitles; the adapter declares that up front and
// refuses non-Spanish searches before touching the network. Archives are
// often rar, which unwrapping reports as a manual extraction.
type Subdivx struct {
	baseURL   string
	userAgent string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewSubdivx(opts Options) *Subdivx {
	return &Subdivx{
		baseURL:   opts.baseURLOrDefault(subdivxBaseURL),
		userAgent: opts.userAgentOrDefault(),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(time.Second)),
		logger:    opts.loggerOrNop().With(logging.String("component", subdivxName)),
	}
}

func (s *Subdivx) Name() string { return subdivxName }

// Languages narrows the adapter to Spanish.
func (s *Subdivx) Languages() []string { return []string{"spa"} }

func (s *Subdivx) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	if !language.Intersects(languages, s.Languages()) {
		// The site only hosts Spanish; anything else resolves without a
		// request.
		return nil, nil
	}
	for _, query := range fp.SearchQueries {
		if err := s.polite.wait(ctx); err != nil {
			return nil, err
		}
		candidates, err := s.searchQuery(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("search query failed", logging.String("query", query), logging.Error(err))
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}

func (s *Subdivx) searchQuery(ctx context.Context, query string) ([]Candidate, error) {
	form := url.Values{
		"buscar":  {query},
		"filtros": {""},
		"tabla":   {"resultados"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/inc/ajax.php", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload struct {
		Data []struct {
			ID          int    `json:"id"`
			Title       string `json:"titulo"`
			Description string `json:"descripcion"`
			Downloads   int    `json:"descargas"`
		} `json:"aaData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		release := entry.Title
		if release == "" {
			release = entry.Description
		}
		candidates = append(candidates, Candidate{
			Provider:    subdivxName,
			FileID:      strconv.Itoa(entry.ID),
			Language:    "spa",
			Format:      "srt",
			Release:     release,
			DownloadURL: fmt.Sprintf("%s/descargar.php?id=%d", s.baseURL, entry.ID),
			Downloads:   entry.Downloads,
		})
	}
	return candidates, nil
}

func (s *Subdivx) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if err := s.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	data, err := fetch(ctx, s.http, candidate.DownloadURL, s.userAgent, map[string]string{"Referer": s.baseURL})
	if err != nil {
		return Payload{}, fmt.Errorf("subdivx: download failed: %w", err)
	}
	// Community uploads predate UTF-8 adoption; most files are Windows-1252.
	return Payload{
		Data:           data,
		FileName:       candidate.Release + ".zip",
		SourceEncoding: "windows-1252",
	}, nil
}
