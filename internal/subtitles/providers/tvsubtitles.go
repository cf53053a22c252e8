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
	tvsubtitlesName    = "tvsubtitles"
	tvsubtitlesBaseURL = "https://www.tvsubtitles.net"
)

var (
	tvsubtitlesShowRe    = regexp.MustCompile(`href="(/tvshow-\d+)(?:-\d+)?\.html"`)
	tvsubtitlesEpisodeRe = regexp.MustCompile(`(?s)(\d+)x(\d+)</td>.*?href="(/episode-\d+)\.html"`)
	// Subtitle entries on an episode page: link, language flag, release
	// string, and download counter.
	tvsubtitlesSubRe = regexp.MustCompile(`(?s)href="/subtitle-(\d+)\.html".*?flags/([a-z]{2})\.gif.*?<h5>\s*([^<]*?)\s*</h5>.*?downloaded[^>]*>\s*(\d+)`)
)

// TVSubtitles scrapes tvsubtitles.net, a series-only archive. Search walks
// show page then episode page; downloads are zip bundles.
type TVSubtitles struct {
	baseURL   string
	userAgent string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewTVSubtitles(opts Options) *TVSubtitles {
	return &TVSubtitles{
		baseURL:   opts.baseURLOrDefault(tvsubtitlesBaseURL),
		userAgent: opts.userAgentOrDefault(),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(time.Second)),
		logger:    opts.loggerOrNop().With(logging.String("component", tvsubtitlesName)),
	}
}

func (t *TVSubtitles) Name() string { return tvsubtitlesName }

func (t *TVSubtitles) Languages() []string { return nil }

func (t *TVSubtitles) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	if !fp.IsEpisode() {
		return nil, nil
	}

	wanted := make(map[string]string, len(languages))
	for _, lang := range languages {
		wanted[language.ToISO2(lang)] = language.ToISO3(lang)
	}

	if err := t.polite.wait(ctx); err != nil {
		return nil, err
	}
	showPath, err := t.findShow(ctx, fp.CleanTitle)
	if err != nil {
		return nil, err
	}
	if showPath == "" {
		return nil, nil
	}

	if err := t.polite.wait(ctx); err != nil {
		return nil, err
	}
	episodePath, err := t.findEpisode(ctx, showPath, fp.Season, fp.Episode)
	if err != nil {
		return nil, err
	}
	if episodePath == "" {
		return nil, nil
	}

	if err := t.polite.wait(ctx); err != nil {
		return nil, err
	}
	return t.listSubtitles(ctx, episodePath, wanted)
}

func (t *TVSubtitles) findShow(ctx context.Context, title string) (string, error) {
	form := url.Values{"q": {title}}
	body, err := fetch(ctx, t.http, t.baseURL+"/search.php?"+form.Encode(), t.userAgent, nil)
	if err != nil {
		return "", err
	}
	match := tvsubtitlesShowRe.FindStringSubmatch(string(body))
	if match == nil {
		return "", nil
	}
	return match[1], nil
}

func (t *TVSubtitles) findEpisode(ctx context.Context, showPath string, season, episode int) (string, error) {
	// Season pages hang the season number off the show id.
	seasonURL := fmt.Sprintf("%s%s-%d.html", t.baseURL, showPath, season)
	body, err := fetch(ctx, t.http, seasonURL, t.userAgent, nil)
	if err != nil {
		return "", err
	}
	for _, match := range tvsubtitlesEpisodeRe.FindAllStringSubmatch(string(body), -1) {
		s, _ := strconv.Atoi(match[1])
		e, _ := strconv.Atoi(match[2])
		if s == season && e == episode {
			return match[3], nil
		}
	}
	return "", nil
}

func (t *TVSubtitles) listSubtitles(ctx context.Context, episodePath string, wanted map[string]string) ([]Candidate, error) {
	body, err := fetch(ctx, t.http, t.baseURL+episodePath+".html", t.userAgent, nil)
	if err != nil {
		return nil, err
	}
	var candidates []Candidate
	for _, match := range tvsubtitlesSubRe.FindAllStringSubmatch(string(body), -1) {
		iso3, ok := wanted[match[2]]
		if !ok {
			continue
		}
		downloads, _ := strconv.Atoi(match[4])
		candidates = append(candidates, Candidate{
			Provider:    tvsubtitlesName,
			FileID:      match[1],
			Language:    iso3,
			Format:      "srt",
			Release:     strings.TrimSpace(html.UnescapeString(match[3])),
			DownloadURL: t.baseURL + "/download-" + match[1] + ".html",
			Downloads:   downloads,
		})
	}
	return candidates, nil
}

func (t *TVSubtitles) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if err := t.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	data, err := fetch(ctx, t.http, candidate.DownloadURL, t.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("tvsubtitles: download failed: %w", err)
	}
	return Payload{Data: data, FileName: candidate.Release + ".zip"}, nil
}
