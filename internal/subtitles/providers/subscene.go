package providers

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"encodeforge/internal/fingerprint"
	"encodeforge/internal/language"
	"encodeforge/internal/logging"
)

const (
	subsceneName    = "subscene"
	subsceneBaseURL = "https://subscene.com"
)

var (
	// Rows on the search result page link a subtitle page and carry the
	// language and release name in nested spans.
	subsceneRowRe = regexp.MustCompile(`(?s)<a href="(/subtitles/[^"]+)">\s*<span class="[^"]*">\s*([^<]+?)\s*</span>\s*<span>\s*([^<]+?)\s*</span>`)
	// The subtitle detail page exposes the download endpoint, when the site
	// serves it at all.
	subsceneDownloadRe = regexp.MustCompile(`href="(/subtitles/[^"]+/download[^"]*)"`)
)

// Subscene scrapes subscene.com search pages. The site sits behind
// anti-automation checks that intermittently withhold the download
// endpoint; when that happens Retrieve returns manual instructions
// instead of an error so the caller can surface the page URL.
type Subscene struct {
	baseURL   string
	userAgent string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewSubscene(opts Options) *Subscene {
	return &Subscene{
		baseURL:   opts.baseURLOrDefault(subsceneBaseURL),
		userAgent: opts.userAgentOrDefault(),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(time.Second)),
		logger:    opts.loggerOrNop().With(logging.String("component", subsceneName)),
	}
}

func (s *Subscene) Name() string { return subsceneName }

func (s *Subscene) Languages() []string { return nil }

func (s *Subscene) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	wanted := make(map[string]string, len(languages))
	for _, lang := range languages {
		wanted[strings.ToLower(language.DisplayName(lang))] = language.ToISO3(lang)
	}

	for _, query := range fp.SearchQueries {
		if err := s.polite.wait(ctx); err != nil {
			return nil, err
		}
		candidates, err := s.searchQuery(ctx, query, wanted)
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

func (s *Subscene) searchQuery(ctx context.Context, query string, wanted map[string]string) ([]Candidate, error) {
	endpoint := s.baseURL + "/subtitles/searchbytitle?query=" + url.QueryEscape(query)
	body, err := fetch(ctx, s.http, endpoint, s.userAgent, nil)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, match := range subsceneRowRe.FindAllStringSubmatch(string(body), -1) {
		path := match[1]
		langName := strings.ToLower(html.UnescapeString(match[2]))
		release := html.UnescapeString(match[3])
		iso3, ok := wanted[langName]
		if !ok {
			continue
		}
		pageURL := s.baseURL + path
		candidates = append(candidates, Candidate{
			Provider:    subsceneName,
			FileID:      stableFileID(pageURL),
			Language:    iso3,
			Format:      "srt",
			Release:     release,
			DownloadURL: pageURL,
		})
	}
	return candidates, nil
}

// Retrieve loads the subtitle page and follows its download link. Pages
// that hide the link behind a challenge resolve to a manual payload
// carrying the page URL.
func (s *Subscene) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if err := s.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	page, err := fetch(ctx, s.http, candidate.DownloadURL, s.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("subscene: load subtitle page: %w", err)
	}

	match := subsceneDownloadRe.FindStringSubmatch(string(page))
	if match == nil {
		return Payload{
			Manual: true,
			Instructions: fmt.Sprintf(
				"Subscene blocked the automated download. Open %s in a browser, solve the verification check, and use the Download button.",
				candidate.DownloadURL),
		}, nil
	}

	if err := s.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	data, err := fetch(ctx, s.http, s.baseURL+match[1], s.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("subscene: download failed: %w", err)
	}
	return Payload{Data: data, FileName: candidate.Release + ".zip"}, nil
}
