package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"encodeforge/internal/fingerprint"
	"encodeforge/internal/language"
	"encodeforge/internal/logging"
	"encodeforge/internal/subtitles/providers"
)

// Search runs the single-file orchestration: every registered provider is
// queried in priority order, each provider's candidates are appended to the
// session, and the accumulated set is re-ranked and emitted through sink
// after each provider's turn. Provider failures count as empty results.
//
// The returned list is ranked but not deduplicated across providers; use
// SearchAggregated for the deduplicating path.
func (e *Engine) Search(ctx context.Context, videoPath string, languages []string, sink Sink) ([]providers.Candidate, error) {
	return e.search(ctx, videoPath, languages, sink, false)
}

// SearchAggregated behaves like Search but drops duplicate (provider, fileId)
// pairs from the accumulated set before ranking.
func (e *Engine) SearchAggregated(ctx context.Context, videoPath string, languages []string, sink Sink) ([]providers.Candidate, error) {
	return e.search(ctx, videoPath, languages, sink, true)
}

func (e *Engine) search(ctx context.Context, videoPath string, languages []string, sink Sink, dedupe bool) ([]providers.Candidate, error) {
	if strings.TrimSpace(videoPath) == "" {
		return nil, fmt.Errorf("video path is required")
	}
	if sink == nil {
		sink = discardSink{}
	}

	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	sess := &session{
		id:          uuid.NewString(),
		fingerprint: fingerprint.Extract(stem),
		languages:   language.NormalizeList(languages),
	}
	if len(sess.languages) == 0 {
		sess.languages = []string{"eng"}
	}
	logger := e.logger.With(
		logging.String("search", sess.id),
		logging.String("title", sess.fingerprint.CleanTitle),
	)
	logger.Info("starting subtitle search",
		logging.String("video", videoPath),
		logging.Any("languages", sess.languages))

	seen := make(map[string]bool)
	for _, provider := range e.registry.Ordered() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !language.Intersects(sess.languages, provider.Languages()) {
			// Specialist with no matching language: zero candidates, zero
			// network traffic, zero delay.
			continue
		}
		candidates := e.searchProvider(ctx, provider, sess, logger)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if dedupe {
				key := c.Provider + "\x00" + c.FileID
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			sess.candidates = append(sess.candidates, c)
		}
		Rank(sess.candidates)
		sink.Emit(ProviderProgress{
			Progress:         true,
			Provider:         provider.Name(),
			ProviderComplete: true,
			Subtitles:        viewsOf(sess.candidates),
			Status:           "searching",
		})
	}

	ranked := Rank(sess.candidates)
	sink.Emit(SearchResult{
		Status:    "success",
		Count:     len(ranked),
		Subtitles: viewsOf(ranked),
		Complete:  true,
	})
	logger.Info("subtitle search finished", logging.Int("candidates", len(ranked)))
	return ranked, nil
}

func (e *Engine) searchProvider(ctx context.Context, provider providers.Provider, sess *session, logger *slog.Logger) []providers.Candidate {
	if cached, ok := e.cachedResults(provider.Name(), sess); ok {
		return cached
	}
	candidates, err := provider.Search(ctx, sess.fingerprint, sess.languages)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("provider search failed",
			logging.String("provider", provider.Name()),
			logging.Error(err))
		return nil
	}
	e.storeResults(provider.Name(), sess, candidates)
	return candidates
}

// cacheKey identifies one provider's answer for one fingerprint and
// language set. Results live only for the configured TTL and only in this
// process.
func cacheKey(providerName string, sess *session) string {
	return providerName + "|" + strings.Join(sess.fingerprint.SearchQueries, ";") + "|" + strings.Join(sess.languages, ",")
}

func (e *Engine) cachedResults(providerName string, sess *session) ([]providers.Candidate, bool) {
	if e.cache == nil {
		return nil, false
	}
	value, ok := e.cache.Get(cacheKey(providerName, sess))
	if !ok {
		return nil, false
	}
	stored, ok := value.([]providers.Candidate)
	if !ok {
		return nil, false
	}
	// Copy so ranking cannot mutate the cached slice.
	out := make([]providers.Candidate, len(stored))
	copy(out, stored)
	return out, true
}

func (e *Engine) storeResults(providerName string, sess *session, candidates []providers.Candidate) {
	if e.cache == nil {
		return
	}
	stored := make([]providers.Candidate, len(candidates))
	copy(stored, candidates)
	e.cache.SetDefault(cacheKey(providerName, sess), stored)
}
