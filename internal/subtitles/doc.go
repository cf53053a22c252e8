// Package subtitles implements the subtitle discovery engine: sequential
// per-file searches across the registered providers, deterministic ranking,
// batch orchestration under a worker budget, and retrieval of chosen
// candidates with archive and encoding normalization.
package subtitles
