package main

import (
	"log/slog"
	"strings"
	"sync"

	"encodeforge/internal/config"
	"encodeforge/internal/history"
	"encodeforge/internal/logging"
	"encodeforge/internal/subtitles"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	engineOnce sync.Once
	engine     *subtitles.Engine
	ledger     *history.Store
	engineErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// ensureEngine builds the process-wide engine, wiring the retrieval ledger
// when the history database can be opened.
func (c *commandContext) ensureEngine() (*subtitles.Engine, error) {
	c.engineOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.engineErr = err
			return
		}
		logger := c.logger()
		opts := []subtitles.Option{subtitles.WithLogger(logger)}
		ledger, err := history.Open(cfg.Paths.HistoryDB)
		if err != nil {
			logger.Warn("history ledger unavailable", logging.Error(err))
		} else {
			c.ledger = ledger
			opts = append(opts, subtitles.WithHistory(ledger))
		}
		c.engine = subtitles.NewEngine(cfg, opts...)
	})
	return c.engine, c.engineErr
}

func (c *commandContext) historyStore() (*history.Store, error) {
	if _, err := c.ensureEngine(); err != nil {
		return nil, err
	}
	return c.ledger, nil
}
