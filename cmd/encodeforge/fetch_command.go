package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"encodeforge/internal/subtitles"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		provider    string
		fileID      string
		videoPath   string
		language    string
		downloadURL string
		format      string
		showHistory bool
		historyRows int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Retrieve a chosen subtitle candidate",
		Long: `Retrieve one candidate identified by provider and file id, writing the
subtitle next to the video. With --history, list past retrievals instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if showHistory {
				return runFetchHistory(cmd.Context(), ctx, out, historyRows)
			}
			if provider == "" || fileID == "" || videoPath == "" {
				return errors.New("--provider, --file-id, and --video are required")
			}

			engine, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			result := engine.Retrieve(cmd.Context(), subtitles.DownloadRequest{
				FileID:      fileID,
				Provider:    provider,
				VideoPath:   videoPath,
				Language:    language,
				DownloadURL: downloadURL,
				Format:      format,
			})
			switch {
			case result.Status == "success":
				fmt.Fprintf(out, "Saved %s\n", result.SubtitlePath)
				return nil
			case result.RequiresManualDownload:
				fmt.Fprintln(out, "Manual download required:")
				fmt.Fprintln(out, result.Message)
				return nil
			default:
				return errors.New(result.Message)
			}
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider that owns the candidate")
	cmd.Flags().StringVar(&fileID, "file-id", "", "Candidate file id within the provider")
	cmd.Flags().StringVar(&videoPath, "video", "", "Path to the video the subtitle belongs to")
	cmd.Flags().StringVarP(&language, "language", "l", "eng", "Subtitle language")
	cmd.Flags().StringVar(&downloadURL, "url", "", "Download descriptor, when it differs from the file id")
	cmd.Flags().StringVar(&format, "format", "", "Expected subtitle format")
	cmd.Flags().BoolVar(&showHistory, "history", false, "List past retrievals instead of fetching")
	cmd.Flags().IntVar(&historyRows, "limit", 20, "Maximum history rows to show")
	return cmd
}

func runFetchHistory(cmdCtx context.Context, ctx *commandContext, out io.Writer, limit int) error {
	store, err := ctx.historyStore()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("history ledger is unavailable")
	}
	entries, err := store.List(cmdCtx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No retrievals recorded.")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.CreatedAt.Local().Format(time.DateTime),
			entry.Provider,
			entry.Language,
			entry.Outcome,
			firstNonEmpty(entry.SubtitlePath, entry.Message),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"When", "Provider", "Lang", "Outcome", "Detail"},
		rows,
		nil,
	))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
