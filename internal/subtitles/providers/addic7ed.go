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
	addic7edName    = "addic7ed"
	addic7edBaseURL = "https://www.addic7ed.com"
)

// Episode pages list one block per upload: language cell, version/release
// string, completion status, and the download href.
var addic7edBlockRe = regexp.MustCompile(`(?s)class="language">\s*([^<]+?)\s*<.*?Version\s+([^,<]+).*?(\d+%|Completed).*?href="(/(?:original|updated)/[^"]+)"`)

// Addic7ed scrapes addic7ed.com episode pages. The site requires a logged-in
// session for downloads; without a user token Retrieve hands back manual
// instructions pointing at the episode page. Episodes only.
type Addic7ed struct {
	baseURL   string
	userAgent string
	userToken string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewAddic7ed(opts Options) *Addic7ed {
	return &Addic7ed{
		baseURL:   opts.baseURLOrDefault(addic7edBaseURL),
		userAgent: opts.userAgentOrDefault(),
		userToken: strings.TrimSpace(opts.UserToken),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(time.Second)),
		logger:    opts.loggerOrNop().With(logging.String("component", addic7edName)),
	}
}

func (a *Addic7ed) Name() string { return addic7edName }

func (a *Addic7ed) Languages() []string { return nil }

func (a *Addic7ed) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	if !fp.IsEpisode() {
		return nil, nil
	}
	if err := a.polite.wait(ctx); err != nil {
		return nil, err
	}

	wanted := make(map[string]string, len(languages))
	for _, lang := range languages {
		wanted[strings.ToLower(language.DisplayName(lang))] = language.ToISO3(lang)
	}

	pageURL := fmt.Sprintf("%s/serie/%s/%d/%d/0",
		a.baseURL, url.PathEscape(strings.ReplaceAll(fp.CleanTitle, " ", "_")), fp.Season, fp.Episode)
	body, err := fetch(ctx, a.http, pageURL, a.userAgent, map[string]string{"Referer": a.baseURL})
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, match := range addic7edBlockRe.FindAllStringSubmatch(string(body), -1) {
		langName := strings.ToLower(html.UnescapeString(match[1]))
		iso3, ok := wanted[langName]
		if !ok {
			continue
		}
		if match[3] != "Completed" {
			continue
		}
		downloadURL := a.baseURL + html.UnescapeString(match[4])
		candidates = append(candidates, Candidate{
			Provider:    addic7edName,
			FileID:      stableFileID(downloadURL),
			Language:    iso3,
			Format:      "srt",
			Release:     strings.TrimSpace(html.UnescapeString(match[2])),
			DownloadURL: downloadURL,
			ManualOnly:  a.userToken == "",
		})
	}
	return candidates, nil
}

func (a *Addic7ed) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if a.userToken == "" {
		return Payload{
			Manual: true,
			Instructions: fmt.Sprintf(
				"Addic7ed requires a logged-in session to download. Sign in at %s, open %s, and download the release manually, or configure user_token.",
				a.baseURL, candidate.DownloadURL),
		}, nil
	}
	if err := a.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	headers := map[string]string{
		"Referer": a.baseURL,
		"Cookie":  "wikisubtitlesuser=" + a.userToken,
	}
	data, err := fetch(ctx, a.http, candidate.DownloadURL, a.userAgent, headers)
	if err != nil {
		return Payload{}, fmt.Errorf("addic7ed: download failed: %w", err)
	}
	return Payload{Data: data, FileName: candidate.Release + ".srt"}, nil
}
