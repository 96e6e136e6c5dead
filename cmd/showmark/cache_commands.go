package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"showmark/internal/config"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached lookups and item lists",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts by operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withState(cmd.Context(), func(state *appState) error {
				stats, err := state.cache.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", state.db.Path())
				if stats.Entries == 0 {
					fmt.Fprintln(out, "Cache is empty")
					return nil
				}

				operations := make([]string, 0, len(stats.Operations))
				for op := range stats.Operations {
					operations = append(operations, op)
				}
				sort.Strings(operations)
				rows := make([][]string, 0, len(operations))
				for _, op := range operations {
					rows = append(rows, []string{op, strconv.Itoa(stats.Operations[op])})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Operation", "Entries"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Total: %d (oldest %s, newest %s)\n",
					stats.Entries,
					stats.OldestEntry.Local().Format(time.DateTime),
					stats.NewestEntry.Local().Format(time.DateTime))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var olderThan string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var window time.Duration
			if value := strings.TrimSpace(olderThan); value != "" {
				parsed, err := config.ParseRetention(value)
				if err != nil {
					return fmt.Errorf("--older-than: %w", err)
				}
				window = parsed
			}
			return ctx.withState(cmd.Context(), func(state *appState) error {
				removed, err := state.cache.Purge(cmd.Context(), window)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "Only remove entries older than this window (e.g. \"7 days\")")
	return cmd
}
