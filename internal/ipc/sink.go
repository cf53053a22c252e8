package ipc

import (
	"io"
	"sync"
)

// NDJSONSink serializes engine messages onto one writer, one JSON object
// per line. The mutex guarantees whole-line writes: concurrent batch
// workers share a single sink and their records must never interleave
// byte-for-byte.
type NDJSONSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSink wraps w in a line-serializing sink.
func NewSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{w: w}
}

// Emit writes one message as a single JSON line. Write errors are dropped;
// a broken pipe ends the surrounding connection loop on the next read.
func (s *NDJSONSink) Emit(message any) {
	line := append(mustMarshal(message), '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(line)
}
