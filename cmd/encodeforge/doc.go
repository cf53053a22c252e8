// Command encodeforge is the CLI for the subtitle discovery engine: it
// searches the configured providers for one video or a batch, fetches a
// chosen candidate, and can serve the engine to a GUI process over IPC.
package main
