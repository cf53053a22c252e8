// Package providers implements the subtitle source adapters.
//
// Every external source, whether a REST API or an HTML scraper, sits behind
// the same Provider interface and is registered by name in a Registry. An adapter
// owns its transport, its politeness delay, its language-code quirks, and the
// knowledge of how to turn its payloads into bytes; everything above the
// interface treats sources uniformly.
package providers
