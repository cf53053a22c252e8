package fingerprint

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// MediaFingerprint is the structured search key derived from a file name.
// It is computed without touching the filesystem or the network.
type MediaFingerprint struct {
	CleanTitle   string
	Year         int
	Season       int
	Episode      int
	QualityTag   string
	ReleaseGroup string
	// SearchQueries is ordered: the first entry is canonical, later entries
	// are fallbacks (alternate episode notation, article-stripped title).
	// It is always non-empty and deduplicated in first-seen order.
	SearchQueries []string
}

// IsEpisode reports whether a season/episode pattern matched.
func (f MediaFingerprint) IsEpisode() bool {
	return f.Season > 0 || f.Episode > 0
}

// Pattern precedence is fixed: SxxEyy beats NxNN beats "Episode N".
// The first matching pattern decides whether the item is an episode and where
// the title text ends.
var (
	sxxEyyRe    = regexp.MustCompile(`(?i)\bS(\d{1,2})[\s._-]?E(\d{1,3})\b`)
	crossRe     = regexp.MustCompile(`(?i)\b(\d{1,2})\s?x\s?(\d{2,3})\b`)
	episodeNRe  = regexp.MustCompile(`(?i)\bEpisode[\s._-]*(\d{1,3})\b`)
	yearRe      = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	bracketRe   = regexp.MustCompile(`[\[({]([^\])}]+)[\])}]`)
	separatorRe = regexp.MustCompile(`[._]+`)
	spaceRe     = regexp.MustCompile(`\s{2,}`)
)

// qualityVocabulary is matched case-insensitively against the raw stem, first
// hit wins. Purely informational; quality never feeds a search query.
var qualityVocabulary = []string{
	"2160p", "1080p", "720p", "480p",
	"BluRay", "Blu-Ray", "BDRip", "BRRip", "REMUX",
	"WEB-DL", "WEBRip", "HDTV", "DVDRip",
	"x265", "x264", "HEVC", "H264", "H265", "10bit",
}

// Extract derives a MediaFingerprint from a video file path. Only the stem is
// considered; directories and the extension are ignored.
func Extract(path string) MediaFingerprint {
	stem := filepath.Base(path)
	if ext := filepath.Ext(stem); ext != "" {
		stem = strings.TrimSuffix(stem, ext)
	}

	fp := MediaFingerprint{
		QualityTag:   extractQuality(stem),
		ReleaseGroup: extractReleaseGroup(stem),
	}

	titlePart := stem
	if loc := sxxEyyRe.FindStringSubmatchIndex(stem); loc != nil {
		fp.Season = atoi(stem[loc[2]:loc[3]])
		fp.Episode = atoi(stem[loc[4]:loc[5]])
		titlePart = stem[:loc[0]]
	} else if loc := crossRe.FindStringSubmatchIndex(stem); loc != nil {
		fp.Season = atoi(stem[loc[2]:loc[3]])
		fp.Episode = atoi(stem[loc[4]:loc[5]])
		titlePart = stem[:loc[0]]
	} else if loc := episodeNRe.FindStringSubmatchIndex(stem); loc != nil {
		fp.Season = 1
		fp.Episode = atoi(stem[loc[2]:loc[3]])
		titlePart = stem[:loc[0]]
	}

	// The title ends at the first of: the year token, a quality token, or a
	// bracketed tag. Everything past that point is release metadata.
	cut := len(titlePart)
	if match := yearRe.FindStringIndex(titlePart); match != nil {
		fp.Year = atoi(titlePart[match[0]:match[1]])
		if match[0] < cut {
			cut = match[0]
		}
	}
	if idx := firstQualityIndex(titlePart); idx >= 0 && idx < cut {
		cut = idx
	}
	if match := bracketRe.FindStringIndex(titlePart); match != nil && match[0] < cut {
		cut = match[0]
	}
	fp.CleanTitle = cleanTitle(titlePart[:cut])
	if fp.CleanTitle == "" {
		// Leading bracket groups ("[Group] Title ...") would otherwise eat
		// the whole title; fall back to cleaning the uncut text.
		fp.CleanTitle = cleanTitle(yearRe.ReplaceAllString(titlePart, " "))
	}
	fp.SearchQueries = buildQueries(fp)
	return fp
}

func cleanTitle(raw string) string {
	cleaned := bracketRe.ReplaceAllString(raw, " ")
	cleaned = separatorRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, "-", " ")
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " ([{)]}")
	return strings.TrimSpace(cleaned)
}

func firstQualityIndex(stem string) int {
	lower := strings.ToLower(stem)
	first := -1
	for _, tag := range qualityVocabulary {
		if idx := strings.Index(lower, strings.ToLower(tag)); idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}
	return first
}

func extractQuality(stem string) string {
	lower := strings.ToLower(stem)
	for _, tag := range qualityVocabulary {
		if strings.Contains(lower, strings.ToLower(tag)) {
			return tag
		}
	}
	return ""
}

func extractReleaseGroup(stem string) string {
	if match := bracketRe.FindStringSubmatch(stem); match != nil {
		group := strings.TrimSpace(match[1])
		// A bracket group that is really a year or quality tag is not a group.
		if yearRe.MatchString(group) {
			return ""
		}
		for _, tag := range qualityVocabulary {
			if strings.EqualFold(group, tag) {
				return ""
			}
		}
		return group
	}
	return ""
}

func buildQueries(fp MediaFingerprint) []string {
	title := fp.CleanTitle
	if title == "" {
		title = "unknown"
	}

	variants := []string{title}
	if stripped := stripArticle(title); stripped != "" {
		variants = append(variants, stripped)
	}

	queries := make([]string, 0, len(variants)*2)
	for _, variant := range variants {
		if fp.IsEpisode() {
			queries = append(queries,
				fmt.Sprintf("%s S%02dE%02d", variant, fp.Season, fp.Episode),
				fmt.Sprintf("%s %dx%02d", variant, fp.Season, fp.Episode),
			)
		} else if fp.Year > 0 {
			queries = append(queries, fmt.Sprintf("%s %d", variant, fp.Year), variant)
		} else {
			queries = append(queries, variant)
		}
	}

	return dedupe(queries)
}

func stripArticle(title string) string {
	for _, article := range []string{"The ", "A ", "An "} {
		if strings.HasPrefix(title, article) {
			stripped := strings.TrimSpace(strings.TrimPrefix(title, article))
			if stripped != "" {
				return stripped
			}
		}
	}
	return ""
}

func dedupe(values []string) []string {
	unique := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, value)
	}
	return unique
}

func atoi(value string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(value))
	return n
}
