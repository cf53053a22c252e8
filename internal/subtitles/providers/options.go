package providers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"encodeforge/internal/logging"
)

// Options carries the shared adapter construction knobs. Every adapter
// applies its own defaults for the fields left zero.
type Options struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	UserToken  string
	Delay      time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (o Options) baseURLOrDefault(fallback string) string {
	base := strings.TrimSpace(o.BaseURL)
	if base == "" {
		return fallback
	}
	return strings.TrimRight(base, "/")
}

func (o Options) userAgentOrDefault() string {
	agent := strings.TrimSpace(o.UserAgent)
	if agent == "" {
		return defaultUserAgent
	}
	return agent
}

func (o Options) delayOrDefault(fallback time.Duration) time.Duration {
	if o.Delay <= 0 {
		return fallback
	}
	return o.Delay
}

func (o Options) httpClientOrDefault() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return newHTTPClient(defaultHTTPExpiry)
}

func (o Options) loggerOrNop() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.NewNop()
}
