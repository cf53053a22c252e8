package subtitles

import (
	"log/slog"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"encodeforge/internal/config"
	"encodeforge/internal/logging"
	"encodeforge/internal/subtitles/providers"
	"encodeforge/internal/workers"
)

// Engine owns the provider registry and runs searches, batches, and
// retrievals against it. One Engine serves a whole process.
type Engine struct {
	registry *providers.Registry
	budget   workers.Budget
	cache    *gocache.Cache
	history  HistoryRecorder

	perFileTimeout time.Duration
	batchTimeout   time.Duration
	workerOverride int

	logger *slog.Logger
}

// HistoryRecorder persists retrieval outcomes. The engine never reads it.
type HistoryRecorder interface {
	RecordRetrieval(record RetrievalRecord) error
}

// RetrievalRecord is one line of the retrieval ledger.
type RetrievalRecord struct {
	Provider     string
	FileID       string
	Language     string
	VideoPath    string
	SubtitlePath string
	Outcome      string // "success", "manual", "error"
	Message      string
}

type noopHistory struct{}

func (noopHistory) RecordRetrieval(RetrievalRecord) error { return nil }

// Option adjusts Engine construction.
type Option func(*Engine)

// WithBudget overrides the worker budget source.
func WithBudget(b workers.Budget) Option {
	return func(e *Engine) { e.budget = b }
}

// WithHistory wires the retrieval ledger.
func WithHistory(h HistoryRecorder) Option {
	return func(e *Engine) {
		if h != nil {
			e.history = h
		}
	}
}

// WithRegistry replaces the default provider set, mainly for tests.
func WithRegistry(r *providers.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine builds an Engine from configuration, registering every enabled
// provider in priority order.
func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		budget:         workers.Probe{},
		history:        noopHistory{},
		perFileTimeout: time.Duration(cfg.Search.PerFileTimeout) * time.Second,
		batchTimeout:   time.Duration(cfg.Search.BatchTimeout) * time.Second,
		workerOverride: cfg.Search.WorkerCount,
		logger:         logging.NewNop(),
	}
	if ttl := cfg.Search.CacheTTLSeconds; ttl > 0 {
		e.cache = gocache.New(time.Duration(ttl)*time.Second, 5*time.Minute)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = defaultRegistry(cfg, e.logger)
	}
	return e
}

// defaultRegistry wires the nine adapters in trust order. A provider
// disabled in configuration is simply not registered.
func defaultRegistry(cfg *config.Config, logger *slog.Logger) *providers.Registry {
	client := &http.Client{Timeout: time.Duration(cfg.Search.RequestTimeout) * time.Second}

	optionsFor := func(name string) providers.Options {
		settings := cfg.ProviderSettings(name)
		return providers.Options{
			BaseURL:    settings.BaseURL,
			APIKey:     settings.APIKey,
			UserAgent:  settings.UserAgent,
			UserToken:  settings.UserToken,
			Delay:      time.Duration(settings.DelayMS) * time.Millisecond,
			HTTPClient: client,
			Logger:     logger,
		}
	}

	registry := providers.NewRegistry()
	register := func(name string, build func(providers.Options) providers.Provider) {
		if !cfg.ProviderSettings(name).IsEnabled() {
			return
		}
		registry.Register(build(optionsFor(name)))
	}

	register("opensubtitles", func(o providers.Options) providers.Provider { return providers.NewOpenSubtitles(o) })
	register("podnapisi", func(o providers.Options) providers.Provider { return providers.NewPodnapisi(o) })
	register("subscene", func(o providers.Options) providers.Provider { return providers.NewSubscene(o) })
	register("yifysubtitles", func(o providers.Options) providers.Provider { return providers.NewYIFYSubtitles(o) })
	register("addic7ed", func(o providers.Options) providers.Provider { return providers.NewAddic7ed(o) })
	register("tvsubtitles", func(o providers.Options) providers.Provider { return providers.NewTVSubtitles(o) })
	register("subdivx", func(o providers.Options) providers.Provider { return providers.NewSubdivx(o) })
	register("kitsunekko", func(o providers.Options) providers.Provider { return providers.NewKitsunekko(o) })
	register("gestdown", func(o providers.Options) providers.Provider { return providers.NewGestdown(o) })
	return registry
}

// Providers exposes the registered provider names in priority order.
func (e *Engine) Providers() []string {
	ordered := e.registry.Ordered()
	names := make([]string, 0, len(ordered))
	for _, p := range ordered {
		names = append(names, p.Name())
	}
	return names
}
