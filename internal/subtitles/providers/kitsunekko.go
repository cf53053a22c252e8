package providers

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"encodeforge/internal/fingerprint"
	"encodeforge/internal/logging"
	"encodeforge/internal/textutil"
)

const (
	kitsunekkoName    = "kitsunekko"
	kitsunekkoBaseURL = "https://kitsunekko.net"
)

// Directory listings are plain tables of anchors.
var kitsunekkoLinkRe = regexp.MustCompile(`href="([^"]+)"[^>]*>\s*<strong>\s*([^<]+?)\s*</strong>`)

// Kitsunekko indexes fansub archives for anime, organized as one directory
// listing per show. It carries English and Japanese subtitles only.
type Kitsunekko struct {
	baseURL   string
	userAgent string
	http      *http.Client
	polite    politeness
	logger    *slog.Logger
}

func NewKitsunekko(opts Options) *Kitsunekko {
	return &Kitsunekko{
		baseURL:   opts.baseURLOrDefault(kitsunekkoBaseURL),
		userAgent: opts.userAgentOrDefault(),
		http:      opts.httpClientOrDefault(),
		polite:    newPoliteness(opts.delayOrDefault(time.Second)),
		logger:    opts.loggerOrNop().With(logging.String("component", kitsunekkoName)),
	}
}

func (k *Kitsunekko) Name() string { return kitsunekkoName }

// Languages narrows the adapter to the two tracks the archive hosts.
func (k *Kitsunekko) Languages() []string { return []string{"eng", "jpn"} }

func (k *Kitsunekko) Search(ctx context.Context, fp fingerprint.MediaFingerprint, languages []string) ([]Candidate, error) {
	var collected []Candidate
	for _, lang := range languages {
		dir := k.languageDir(lang)
		if dir == "" {
			continue
		}
		if err := k.polite.wait(ctx); err != nil {
			return nil, err
		}
		candidates, err := k.searchDirectory(ctx, dir, lang, fp)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			k.logger.Warn("directory scan failed", logging.String("language", lang), logging.Error(err))
			continue
		}
		collected = append(collected, candidates...)
	}
	return collected, nil
}

func (k *Kitsunekko) languageDir(lang string) string {
	switch lang {
	case "eng":
		return "/dirlist.php?dir=subtitles/"
	case "jpn":
		return "/dirlist.php?dir=subtitles/japanese/"
	default:
		return ""
	}
}

func (k *Kitsunekko) searchDirectory(ctx context.Context, dir, lang string, fp fingerprint.MediaFingerprint) ([]Candidate, error) {
	body, err := fetch(ctx, k.http, k.baseURL+dir, k.userAgent, nil)
	if err != nil {
		return nil, err
	}

	// Fansub directories rarely match the fingerprint title exactly
	// ("Shingeki no Kyojin (Attack on Titan)" and the like), so pick the
	// closest listing instead of requiring equality.
	var hrefs, names []string
	for _, match := range kitsunekkoLinkRe.FindAllStringSubmatch(string(body), -1) {
		hrefs = append(hrefs, html.UnescapeString(match[1]))
		names = append(names, html.UnescapeString(match[2]))
	}
	idx, similarity := textutil.BestMatch(fp.CleanTitle, names)
	if idx < 0 || similarity < 0.5 {
		return nil, nil
	}
	showDir := hrefs[idx]

	if err := k.polite.wait(ctx); err != nil {
		return nil, err
	}
	listing, err := fetch(ctx, k.http, k.absoluteURL(showDir), k.userAgent, nil)
	if err != nil {
		return nil, err
	}

	episodeTag := ""
	if fp.IsEpisode() {
		episodeTag = fmt.Sprintf("%02d", fp.Episode)
	}

	var candidates []Candidate
	for _, match := range kitsunekkoLinkRe.FindAllStringSubmatch(string(listing), -1) {
		fileName := html.UnescapeString(match[2])
		if !IsSubtitleFileName(fileName) {
			continue
		}
		if episodeTag != "" && !strings.Contains(fileName, episodeTag) {
			continue
		}
		fileURL := k.absoluteURL(html.UnescapeString(match[1]))
		candidates = append(candidates, Candidate{
			Provider:    kitsunekkoName,
			FileID:      stableFileID(fileURL),
			Language:    lang,
			Format:      FormatFromFileName(fileName),
			Release:     strings.TrimSuffix(fileName, path.Ext(fileName)),
			DownloadURL: fileURL,
		})
	}
	return candidates, nil
}

func (k *Kitsunekko) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return k.baseURL + href
	}
	// Relative directory paths come back percent-unescaped.
	return k.baseURL + "/" + href
}

func (k *Kitsunekko) Retrieve(ctx context.Context, candidate Candidate) (Payload, error) {
	if err := k.polite.wait(ctx); err != nil {
		return Payload{}, err
	}
	data, err := fetch(ctx, k.http, candidate.DownloadURL, k.userAgent, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("kitsunekko: download failed: %w", err)
	}
	fileName := candidate.Release + "." + candidate.Format
	if u, err := url.Parse(candidate.DownloadURL); err == nil && IsSubtitleFileName(u.Path) {
		fileName = path.Base(u.Path)
	}
	return Payload{Data: data, FileName: fileName}, nil
}
