// Package config loads and validates the TOML configuration for the subtitle
// engine: directories, search limits, per-provider credentials and politeness
// delays, and logging settings. Missing files fall back to defaults so the CLI
// works out of the box.
package config
