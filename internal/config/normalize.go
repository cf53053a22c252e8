package config

import (
	"fmt"
	"os"
	"strings"

	"encodeforge/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSearch()
	c.normalizeProviders()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.IPCSocket) == "" {
		c.Paths.IPCSocket = defaultIPCSocket
	}
	if c.Paths.IPCSocket, err = expandPath(c.Paths.IPCSocket); err != nil {
		return fmt.Errorf("paths.ipc_socket: %w", err)
	}
	return nil
}

func (c *Config) normalizeSearch() {
	if c.Search.PerFileTimeout <= 0 {
		c.Search.PerFileTimeout = defaultPerFileTimeout
	}
	if c.Search.BatchTimeout <= 0 {
		c.Search.BatchTimeout = defaultBatchTimeout
	}
	if c.Search.CacheTTLSeconds < 0 {
		c.Search.CacheTTLSeconds = 0
	}
	if c.Search.RequestTimeout <= 0 {
		c.Search.RequestTimeout = defaultRequestTimeout
	}
	normalized := language.NormalizeList(c.Search.Languages)
	if len(normalized) == 0 {
		normalized = []string{defaultSearchLanguage}
	}
	c.Search.Languages = normalized
}

func (c *Config) normalizeProviders() {
	if c.Providers == nil {
		c.Providers = map[string]Provider{}
	}
	normalized := make(map[string]Provider, len(c.Providers))
	for name, settings := range c.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		settings.APIKey = strings.TrimSpace(settings.APIKey)
		settings.BaseURL = strings.TrimSpace(settings.BaseURL)
		settings.UserAgent = strings.TrimSpace(settings.UserAgent)
		if settings.APIKey == "" && key == "opensubtitles" {
			if value, ok := os.LookupEnv("OPENSUBTITLES_API_KEY"); ok {
				settings.APIKey = strings.TrimSpace(value)
			}
		}
		if settings.UserAgent == "" {
			settings.UserAgent = defaultProviderUserAgent
		}
		normalized[key] = settings
	}
	c.Providers = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
