// Package ipc serves the engine over a newline-delimited JSON protocol.
// Each request is one JSON object per line; responses, including streamed
// progress, are emitted one JSON object per line on the same connection.
// The GUI process owns the other end of the pipe.
package ipc
