package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"encodeforge/internal/ipc"
	"encodeforge/internal/subtitles"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var languages []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "batch <video>...",
		Short: "Search subtitles for many videos concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			if len(languages) == 0 {
				languages = cfg.Search.Languages
			}

			entries := make([]subtitles.BatchEntry, 0, len(args))
			for i, path := range args {
				entries = append(entries, subtitles.BatchEntry{
					FileID:    i + 1,
					FileName:  filepath.Base(path),
					VideoPath: path,
					Languages: languages,
				})
			}

			out := cmd.OutOrStdout()
			if jsonOutput || !stdoutIsTerminal() {
				engine.SearchBatch(cmd.Context(), entries, ipc.NewSink(out))
				return nil
			}

			sink := subtitles.SinkFunc(func(message any) {
				terminal, ok := message.(subtitles.FileResult)
				if !ok {
					return
				}
				switch terminal.Status {
				case "file_complete":
					fmt.Fprintf(out, "%s: %d candidate(s)\n", terminal.FileName, len(terminal.Subtitles))
				default:
					fmt.Fprintf(out, "%s: %s\n", terminal.FileName, terminal.Message)
				}
			})
			summary := engine.SearchBatch(cmd.Context(), entries, sink)
			fmt.Fprintf(out, "Done: %d/%d files\n", summary.Completed, summary.Total)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&languages, "language", "l", nil, "Subtitle language (repeatable; defaults to configured languages)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit newline-delimited JSON instead of a table")
	return cmd
}
