package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"encodeforge/internal/ipc"
	"encodeforge/internal/subtitles"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var languages []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <video>",
		Short: "Search every provider for subtitles for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := ctx.ensureEngine()
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			if len(languages) == 0 {
				languages = cfg.Search.Languages
			}

			out := cmd.OutOrStdout()
			if jsonOutput || !stdoutIsTerminal() {
				// Stream the engine's messages verbatim, one JSON line each.
				_, err := engine.Search(cmd.Context(), args[0], languages, ipc.NewSink(out))
				return err
			}

			progress := subtitles.SinkFunc(func(message any) {
				snapshot, ok := message.(subtitles.ProviderProgress)
				if !ok {
					return
				}
				fmt.Fprintf(out, "%-14s %d candidate(s) so far\n",
					snapshot.Provider, len(snapshot.Subtitles))
			})
			ranked, err := engine.Search(cmd.Context(), args[0], languages, progress)
			if err != nil {
				return err
			}
			if len(ranked) == 0 {
				fmt.Fprintln(out, "No subtitles found.")
				return nil
			}
			views := make([]subtitles.CandidateView, 0, len(ranked))
			for _, c := range ranked {
				views = append(views, subtitles.CandidateView{
					Language:           c.Language,
					Provider:           c.Provider,
					Format:             c.Format,
					DownloadURL:        c.DownloadURL,
					FileID:             c.FileID,
					Score:              c.Score,
					Filename:           c.Release,
					ManualDownloadOnly: c.ManualOnly,
				})
			}
			fmt.Fprintln(out, renderCandidateTable(views))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&languages, "language", "l", nil, "Subtitle language (repeatable; defaults to configured languages)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit newline-delimited JSON instead of a table")
	return cmd
}
