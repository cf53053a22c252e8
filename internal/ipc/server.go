package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	"encodeforge/internal/logging"
	"encodeforge/internal/subtitles"
)

// maxRequestBytes bounds one request line.
const maxRequestBytes = 1 << 20

// Server dispatches NDJSON requests to the engine.
type Server struct {
	engine *subtitles.Engine
	logger *slog.Logger
}

// NewServer wires a server to an engine.
func NewServer(engine *subtitles.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{engine: engine, logger: logger}
}

// ServeConn runs the request loop on one connection until EOF or context
// cancellation. All responses for a request, including streamed progress,
// are written before the next request is read.
func (s *Server) ServeConn(ctx context.Context, rw io.ReadWriter) error {
	sink := NewSink(rw)
	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			sink.Emit(errorResponse("malformed request: " + err.Error()))
			continue
		}
		s.dispatch(ctx, req, sink)
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req Request, sink *NDJSONSink) {
	switch req.Action {
	case "search":
		// The engine emits every snapshot and the terminal message itself.
		if _, err := s.engine.Search(ctx, req.VideoPath, req.Languages, sink); err != nil {
			sink.Emit(errorResponse(err.Error()))
		}
	case "batch_search":
		s.engine.SearchBatch(ctx, req.Files, sink)
	case "download":
		if req.Download == nil {
			sink.Emit(errorResponse("download request body required"))
			return
		}
		sink.Emit(s.engine.Retrieve(ctx, *req.Download))
	default:
		sink.Emit(errorResponse(fmt.Sprintf("unknown action %q", req.Action)))
	}
}

// ListenAndServe accepts connections on a Unix domain socket until the
// context is cancelled, running one request loop per connection.
func (s *Server) ListenAndServe(ctx context.Context, socketPath string) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}
	s.logger.Info("ipc server listening", logging.String("socket", socketPath))

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			wg.Wait()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			defer conn.Close()
			if err := s.ServeConn(ctx, conn); err != nil && ctx.Err() == nil {
				s.logger.Warn("connection closed with error", logging.Error(err))
			}
		}(conn)
	}
}
