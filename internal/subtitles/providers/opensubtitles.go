package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	openSubtitlesName        = "opensubtitles"
	openSubtitlesBaseURL     = "https://api.opensubtitles.com/api/v1"
	openSubtitlesMinInterval = time.Second
)

// OpenSubtitles wraps the OpenSubtitles REST API. Payload downloads are
// negotiated through a POST that returns a short-lived link; the fetched body
// may arrive gzip-framed.
type OpenSubtitles struct {
	apiKey    string
	userAgent string
	userToken string
	baseURL   string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

// NewOpenSubtitles creates the adapter from shared Options.
func NewOpenSubtitles(opts Options) *OpenSubtitles {
	return &OpenSubtitles{
		apiKey:    strings.TrimSpace(opts.APIKey),
		userAgent: opts.userAgentOrDefault(),
		userToken: strings.TrimSpace(opts.UserToken),
		baseURL:   opts.baseURLOrDefault(openSubtitlesBaseURL),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(openSubtitlesMinInterval)),
		logger:    opts.loggerOrNop().With(logging.String("component", openSubtitlesName)),
	}
}

func (o *OpenSubtitles) Name() string { return openSubtitlesName }

// Languages returns nil: OpenSubtitles covers everything.
func (o *OpenSubtitles) Languages() []string { return nil }

func (o *OpenSubtitles) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	if o.apiKey == "" {
		o.logger.Debug("skipping search, no api key configured")
		return nil, nil
	}
	codes := make([]string, 0, len(languages))
	for _, lang := range languages {
		if code := language.ToISO2(lang); code != "" {
			codes = append(codes, code)
		}
	}

	for _, query := range fp.SearchQueries {
		if err := o.polite.wait(ctx); err != nil {
			return nil, err
		}
		candidates, err := o.searchQuery(ctx, fp, query, codes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Warn("search query failed", logging.String("query", query), logging.Error(err))
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}

func (o *OpenSubtitles) searchQuery(ctx context.Context, fp fingerprint.MediaFingerprint, query string, codes []string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	if len(codes) > 0 {
		params.Set("languages", strings.Join(codes, ","))
	}
	if fp.IsEpisode() {
		params.Set("season_number", strconv.Itoa(fp.Season))
		params.Set("episode_number", strconv.Itoa(fp.Episode))
		params.Set("type", "episode")
	} else {
		if fp.Year > 0 {
			params.Set("year", strconv.Itoa(fp.Year))
		}
		params.Set("type", "movie")
	}
	params.Set("order_by", "download_count")
	params.Set("order_direction", "desc")

	body, err := fetch(ctx, o.http, o.baseURL+"/subtitles?"+params.Encode(), o.userAgent, o.headers())
	if err != nil {
		return nil, err
	}

	var payload osSearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		attrs := entry.Attributes
		if attrs.Language == "" || len(attrs.Files) == 0 {
			continue
		}
		file := attrs.Files[0]
		if file.FileID == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Provider:    openSubtitlesName,
			FileID:      strconv.FormatInt(file.FileID, 10),
			Language:    attrs.Language,
			Format:      FormatFromFileName(file.FileName),
			Release:     attrs.Release,
			DownloadURL: strconv.FormatInt(file.FileID, 10),
			Downloads:   attrs.DownloadCount,
			Rating:      attrs.Ratings,
		})
	}
	return candidates, nil
}

func (o *OpenSubtitles) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if o.apiKey == "" {
		return Payload{}, errors.New("opensubtitles: api key is required for downloads")
	}
	fileID, err := strconv.ParseInt(candidate.DownloadURL, 10, 64)
	if err != nil || fileID <= 0 {
		return Payload{}, fmt.Errorf("opensubtitles: invalid file id %q", candidate.DownloadURL)
	}
	if err := o.polite.wait(ctx); err != nil {
		return Payload{}, err
	}

	reqBody, err := json.Marshal(map[string]any{"file_id": fileID, "sub_format": "srt"})
	if err != nil {
		return Payload{}, fmt.Errorf("opensubtitles: encode download request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/download", bytes.NewReader(reqBody))
	if err != nil {
		return Payload{}, fmt.Errorf("opensubtitles: build download request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", o.userAgent)
	for key, value := range o.headers() {
		req.Header.Set(key, value)
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("opensubtitles: download negotiation failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Payload{}, fmt.Errorf("opensubtitles: download negotiation failed (%s)", resp.Status)
	}

	var info struct {
		Link     string `json:"link"`
		FileName string `json:"file_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Payload{}, fmt.Errorf("opensubtitles: decode download response: %w", err)
	}
	if info.Link == "" {
		return Payload{}, errors.New("opensubtitles: download response missing link")
	}

	data, err := fetch(ctx, o.http, info.Link, o.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("opensubtitles: fetch subtitle payload: %w", err)
	}
	return Payload{Data: data, FileName: info.FileName}, nil
}

func (o *OpenSubtitles) headers() map[string]string {
	headers := map[string]string{
		"Api-Key": o.apiKey,
		"Accept":  "application/json",
	}
	if o.userToken != "" {
		headers["Authorization"] = "Bearer " + o.userToken
	}
	return headers
}

type osSearchResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Language      string  `json:"language"`
			Release       string  `json:"release"`
			DownloadCount int     `json:"download_count"`
			Ratings       float64 `json:"ratings"`
			Files         []struct {
				FileID   int64  `json:"file_id"`
				FileName string `json:"file_name"`
			} `json:"files"`
		} `json:"attributes"`
	} `json:"data"`
}
