package testsupport

import (
	"path/filepath"
	"testing"

	"encodeforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfgVal.Paths.IPCSocket = filepath.Join(base, "encodeforge.sock")
	cfgVal.Search.CacheTTLSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLanguages sets the default search languages on the test config.
func WithLanguages(languages ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.Languages = languages
	}
}

// WithWorkerCount pins the batch worker count.
func WithWorkerCount(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.WorkerCount = count
	}
}

// WithTimeouts overrides the per-file and batch deadlines, in seconds.
func WithTimeouts(perFile, batch int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.PerFileTimeout = perFile
		b.cfg.Search.BatchTimeout = batch
	}
}

// WithCacheTTL enables the in-process search result cache.
func WithCacheTTL(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Search.CacheTTLSeconds = seconds
	}
}

// WithProvider sets one provider's settings on the test config.
func WithProvider(name string, settings config.Provider) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Providers == nil {
			b.cfg.Providers = make(map[string]config.Provider)
		}
		b.cfg.Providers[name] = settings
	}
}
