package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"showmark/internal/items"
	"showmark/internal/logging"
	"showmark/internal/marker"
	"showmark/internal/session"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var format string
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run <items>",
		Short: "Mark a batch of downloaded episodes as acquired",
		Long: "Load items from a file, an http(s) URL, or - for stdin, resolve each series to its\n" +
			"MyEpisodes id, and mark the episode as acquired. Items that cannot be resolved are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withState(cmd.Context(), func(state *appState) error {
				loader := items.NewLoader(
					items.WithCache(state.cache, state.cfg.ItemsTTL()),
					items.WithCacheObserver(state.metrics.CacheLookup),
					items.WithLogger(state.logger),
				)
				batch, err := loader.Load(cmd.Context(), items.Source{Location: args[0], Format: format}, cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("load items: %w", err)
				}
				if len(batch) > 0 {
					if err := state.cfg.ValidateCredentials(); err != nil {
						return err
					}
				}

				tracker, err := state.trackerClient()
				if err != nil {
					return err
				}
				res, err := state.resolver()
				if err != nil {
					return err
				}
				executor := marker.NewExecutor(res, session.NewManager(tracker, state.logger), state.logger,
					marker.WithMetrics(state.metrics),
					marker.WithDryRun(dryRun || state.cfg.Run.DryRun),
				)

				creds := session.Credentials{
					Username: state.cfg.MyEpisodes.Username,
					Password: state.cfg.MyEpisodes.Password,
				}
				summary, runErr := executor.Run(cmd.Context(), creds, batch)

				if err := state.metrics.WriteTextfile(state.cfg.Paths.MetricsFile); err != nil {
					logging.WarnWithContext(state.logger, "metrics export failed", "metrics_write_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check paths.metrics_file is writable"),
						logging.String(logging.FieldImpact, "run metrics were not exported"))
				}

				if runErr != nil {
					return runErr
				}
				if jsonOut {
					if err := writeJSON(cmd, summary); err != nil {
						return err
					}
				} else {
					printSummary(cmd, summary)
				}
				if summary.Failed > 0 {
					return failedError(summary.Failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Item document format (json or yaml); detected when empty")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Resolve items but do not mark anything")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run summary as JSON")
	return cmd
}

func printSummary(cmd *cobra.Command, summary marker.Summary) {
	out := cmd.OutOrStdout()
	if len(summary.Results) == 0 {
		fmt.Fprintln(out, "No items to process")
		return
	}

	rows := make([][]string, 0, len(summary.Results))
	for i, result := range summary.Results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			result.Item.DisplayTitle(),
			result.Item.LocalName,
			result.Item.EpisodeCode(),
			result.Item.ResolvedID,
			string(result.Outcome.Status),
			result.Outcome.Reason,
		})
	}
	headers := []string{"#", "Title", "Series", "Episode", "Show ID", "Status", "Reason"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTableWith(headers, rows, aligns, tableOptions{
		statusColumn: 6,
		colorize:     shouldColorize(out),
	}))

	mode := ""
	if summary.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "Marked %d, skipped %d, failed %d in %s%s\n",
		summary.Marked, summary.Skipped, summary.Failed,
		summary.Duration.Round(time.Millisecond), mode)
}

func failedError(failed int) error {
	noun := "item"
	if failed != 1 {
		noun = "items"
	}
	return fmt.Errorf("%d %s failed to mark", failed, noun)
}
