package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"encodeforge/internal/ipc"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var socketPath string
	var stdio bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over newline-delimited JSON",
		Long: `Serve search, batch_search, and download requests. By default the server
listens on the configured Unix socket; with --stdio it speaks the same
protocol on stdin/stdout so a parent process can embed it directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			server := ipc.NewServer(engine, ctx.logger())

			if stdio {
				return server.ServeConn(cmd.Context(), stdioReadWriter{})
			}

			socket := strings.TrimSpace(socketPath)
			if socket == "" {
				cfg, _ := ctx.ensureConfig()
				socket = cfg.Paths.IPCSocket
			}
			return server.ListenAndServe(cmd.Context(), socket)
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "Unix socket path (defaults to the configured path)")
	cmd.Flags().BoolVar(&stdio, "stdio", false, "Serve on stdin/stdout instead of a socket")
	return cmd
}

type stdioReadWriter struct{}

func (stdioReadWriter) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriter) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
