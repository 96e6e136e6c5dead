package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"showmark/internal/resolver"
	"showmark/internal/showids"
)

func newIDsCommand(ctx *commandContext) *cobra.Command {
	idsCmd := &cobra.Command{
		Use:   "ids",
		Short: "Inspect and edit the series name to show id table",
	}
	idsCmd.AddCommand(newIDsListCommand(ctx))
	idsCmd.AddCommand(newIDsSetCommand(ctx))
	idsCmd.AddCommand(newIDsRemoveCommand(ctx))
	return idsCmd
}

func newIDsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known series ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withState(cmd.Context(), func(state *appState) error {
				records, err := state.ids.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					if records == nil {
						records = []showids.Record{}
					}
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No series ids recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{rec.LocalName, rec.ExternalID, rec.UpdatedAt.Local().Format(time.DateTime)})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Series", "Show ID", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit records as JSON")
	return cmd
}

func newIDsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <series name> <show id>",
		Short: "Pin a series name to a show id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := resolver.Normalize(args[0])
			id := strings.TrimSpace(args[1])
			return ctx.withState(cmd.Context(), func(state *appState) error {
				rec := showids.Record{LocalName: name, ExternalID: id, UpdatedAt: time.Now()}
				if err := state.ids.Insert(cmd.Context(), rec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", name, id)
				return nil
			})
		},
	}
}

func newIDsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <series name>",
		Aliases: []string{"rm"},
		Short:   "Forget the id recorded for a series name",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := resolver.Normalize(args[0])
			return ctx.withState(cmd.Context(), func(state *appState) error {
				removed, err := state.ids.Delete(cmd.Context(), name)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no id recorded for %q", name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
				return nil
			})
		},
	}
}
