package subtitles

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"encodeforge/internal/subtitles/providers"
)

func TestRankScoreFormula(t *testing.T) {
	tests := []struct {
		name      string
		candidate providers.Candidate
		want      float64
	}{
		{
			name:      "top provider with srt bonus",
			candidate: providers.Candidate{Provider: "opensubtitles", Downloads: 500, Rating: 8, Format: "srt"},
			want:      100 + 5 + 8 + 3,
		},
		{
			name:      "download bonus is capped at twenty",
			candidate: providers.Candidate{Provider: "podnapisi", Downloads: 1000000, Format: "ass"},
			want:      95 + 20 + 5,
		},
		{
			name:      "unknown provider gets the default weight",
			candidate: providers.Candidate{Provider: "somewhere-else", Format: "sub"},
			want:      50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := Rank([]providers.Candidate{tt.candidate})
			if got := ranked[0].Score; got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankOrdersDescendingStable(t *testing.T) {
	input := []providers.Candidate{
		{Provider: "gestdown", FileID: "a", Format: "srt"},
		{Provider: "opensubtitles", FileID: "b", Format: "srt"},
		{Provider: "gestdown", FileID: "c", Format: "srt"},
		{Provider: "subscene", FileID: "d", Format: "srt"},
	}

	first := Rank(append([]providers.Candidate(nil), input...))
	second := Rank(append([]providers.Candidate(nil), input...))

	var gotIDs []string
	for _, c := range first {
		gotIDs = append(gotIDs, c.FileID)
	}
	// opensubtitles (100) > subscene (90) > the two gestdown entries (60)
	// in discovery order.
	if diff := cmp.Diff([]string{"b", "d", "a", "c"}, gotIDs); diff != "" {
		t.Errorf("ranked order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ranking is not deterministic (-first +second):\n%s", diff)
	}
}

func TestRankNormalizesLanguage(t *testing.T) {
	ranked := Rank([]providers.Candidate{
		{Provider: "opensubtitles", Language: "en"},
		{Provider: "podnapisi", Language: "spa"},
		{Provider: "subdivx", Language: "Nonsense"},
	})
	if ranked[0].Language != "eng" {
		t.Errorf("two-letter code normalized to %q, want eng", ranked[0].Language)
	}
	if ranked[1].Language != "spa" {
		t.Errorf("three-letter code changed to %q", ranked[1].Language)
	}
	if ranked[2].Language != "und" {
		t.Errorf("unknown language = %q, want und", ranked[2].Language)
	}
}
