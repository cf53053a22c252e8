package config

const (
	defaultDownloadDir       = "~/.local/share/encodeforge/subtitles"
	defaultLogDir            = "~/.local/share/encodeforge/logs"
	defaultHistoryDB         = "~/.local/share/encodeforge/history.db"
	defaultIPCSocket         = "~/.local/share/encodeforge/encodeforge.sock"
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultPerFileTimeout    = 120
	defaultBatchTimeout      = 300
	defaultCacheTTLSeconds   = 600
	defaultRequestTimeout    = 30
	defaultSearchLanguage    = "eng"
	defaultProviderUserAgent = "EncodeForge/dev"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			HistoryDB:   defaultHistoryDB,
			IPCSocket:   defaultIPCSocket,
		},
		Search: Search{
			Languages:       []string{defaultSearchLanguage},
			PerFileTimeout:  defaultPerFileTimeout,
			BatchTimeout:    defaultBatchTimeout,
			CacheTTLSeconds: defaultCacheTTLSeconds,
			RequestTimeout:  defaultRequestTimeout,
		},
		Providers: map[string]Provider{},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
