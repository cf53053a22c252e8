// Package logging constructs the slog loggers used across EncodeForge and
// provides typed attribute helpers so call sites stay terse. Console output is
// a single line per record; JSON output is the stock slog JSON handler.
package logging
