// Package textutil scores how closely two free-form titles match. Scraped
// sources list shows under names that rarely equal the fingerprint title
// exactly; adapters use the similarity score to pick the best listing.
package textutil

import (
	"math"
	"regexp"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// TitleVector is a term-frequency vector over a title's tokens.
type TitleVector struct {
	tokens map[string]float64
	norm   float64
}

// NewTitleVector builds a vector from the given title. Returns nil when the
// title produces no usable tokens.
func NewTitleVector(title string) *TitleVector {
	tokens := Tokenize(title)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &TitleVector{tokens: counts, norm: math.Sqrt(norm)}
}

// Tokenize lowercases the text, splits on non-alphanumeric runs, and drops
// tokens shorter than two characters. Short tokens (articles, initials)
// carry almost no signal for title matching and mostly add noise.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 2 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Similarity computes the cosine similarity of two titles, 0 to 1. Either
// side producing no tokens scores 0.
func Similarity(a, b *TitleVector) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// BestMatch returns the index of the candidate most similar to title, along
// with its score. Index is -1 when no candidate scores above zero.
func BestMatch(title string, candidates []string) (int, float64) {
	want := NewTitleVector(title)
	bestIdx, bestScore := -1, 0.0
	for i, candidate := range candidates {
		score := Similarity(want, NewTitleVector(candidate))
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}
