package subtitles

import (
	"sort"

	"encodeforge/internal/language"
	"encodeforge/internal/subtitles/providers"
)

// providerWeights ranks sources by trust. Unlisted providers score 50.
var providerWeights = map[string]float64{
	"opensubtitles": 100,
	"podnapisi":     95,
	"subscene":      90,
	"yifysubtitles": 85,
	"addic7ed":      80,
	"tvsubtitles":   75,
	"subdivx":       70,
	"kitsunekko":    65,
	"gestdown":      60,
}

const defaultProviderWeight = 50

func providerWeight(name string) float64 {
	if w, ok := providerWeights[name]; ok {
		return w
	}
	return defaultProviderWeight
}

func formatBonus(format string) float64 {
	switch format {
	case "ass":
		return 5
	case "srt":
		return 3
	default:
		return 0
	}
}

func score(c providers.Candidate) float64 {
	popularity := float64(c.Downloads) / 100
	if popularity > 20 {
		popularity = 20
	}
	return providerWeight(c.Provider) + popularity + c.Rating + formatBonus(c.Format)
}

// Rank scores and orders candidates in place, descending by score. Ties keep
// discovery order, so a fixed input always produces the same output.
// Languages are canonicalized to three-letter codes here, not earlier, so
// adapters can report whatever their source uses.
func Rank(candidates []providers.Candidate) []providers.Candidate {
	for i := range candidates {
		candidates[i].Language = language.ToISO3(candidates[i].Language)
		candidates[i].Score = score(candidates[i])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
