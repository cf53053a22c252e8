package providers

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"encodeforge/internal/fingerprint"
	"encodeforge/internal/language"
	"encodeforge/internal/logging"
)

const (
	yifyName    = "yifysubtitles"
	yifyBaseURL = "https://yifysubtitles.ch"
)

var (
	yifyMovieLinkRe = regexp.MustCompile(`href="(/movie-imdb/[^"]+)"`)
	// Table rows on a movie page: rating cell, language cell, subtitle page link.
	yifyRowRe = regexp.MustCompile(`(?s)<td class="rating-cell">\s*(-?\d+)\s*</td>.*?<span class="sub-lang">\s*([^<]+?)\s*</span>.*?<a href="(/subtitles/[^"]+)"[^>]*>\s*(?:subtitle\s+)?([^<]+?)\s*</a>`)
)

// YIFYSubtitles scrapes yifysubtitles movie pages. The site only indexes
// films, so episode searches return nothing without touching the network.
type YIFYSubtitles struct {
	baseURL   string
	userAgent string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewYIFYSubtitles(opts Options) *YIFYSubtitles {
	return &YIFYSubtitles{
		baseURL:   opts.baseURLOrDefault(yifyBaseURL),
		userAgent: opts.userAgentOrDefault(),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(time.Second)),
		logger:    opts.loggerOrNop().With(logging.String("component", yifyName)),
	}
}

func (y *YIFYSubtitles) Name() string { return yifyName }

func (y *YIFYSubtitles) Languages() []string { return nil }

func (y *YIFYSubtitles) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	if fp.IsEpisode() {
		return nil, nil
	}

	wanted := make(map[string]string, len(languages))
	for _, lang := range languages {
		wanted[strings.ToLower(language.DisplayName(lang))] = language.ToISO3(lang)
	}

	for _, query := range fp.SearchQueries {
		if err := y.polite.wait(ctx); err != nil {
			return nil, err
		}
		candidates, err := y.searchQuery(ctx, query, wanted)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			y.logger.Warn("search query failed", logging.String("query", query), logging.Error(err))
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}

func (y *YIFYSubtitles) searchQuery(ctx context.Context, query string, wanted map[string]string) ([]Candidate, error) {
	searchURL := y.baseURL + "/search?q=" + url.QueryEscape(query)
	body, err := fetch(ctx, y.http, searchURL, y.userAgent, nil)
	if err != nil {
		return nil, err
	}
	link := yifyMovieLinkRe.FindStringSubmatch(string(body))
	if link == nil {
		return nil, nil
	}

	if err := y.polite.wait(ctx); err != nil {
		return nil, err
	}
	page, err := fetch(ctx, y.http, y.baseURL+link[1], y.userAgent, nil)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, match := range yifyRowRe.FindAllStringSubmatch(string(page), -1) {
		langName := strings.ToLower(html.UnescapeString(match[2]))
		iso3, ok := wanted[langName]
		if !ok {
			continue
		}
		rating, _ := strconv.Atoi(match[1])
		subtitlePath := match[3]
		downloadURL := y.baseURL + strings.Replace(subtitlePath, "/subtitles/", "/subtitle/", 1) + ".zip"
		candidates = append(candidates, Candidate{
			Provider:    yifyName,
			FileID:      stableFileID(downloadURL),
			Language:    iso3,
			Format:      "srt",
			Release:     html.UnescapeString(match[4]),
			DownloadURL: downloadURL,
			Rating:      float64(rating),
		})
	}
	return candidates, nil
}

func (y *YIFYSubtitles) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if err := y.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	data, err := fetch(ctx, y.http, candidate.DownloadURL, y.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("yifysubtitles: download failed: %w", err)
	}
	return Payload{Data: data, FileName: candidate.Release + ".zip"}, nil
}
