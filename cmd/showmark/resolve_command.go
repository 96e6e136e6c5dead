package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"showmark/internal/items"
	"showmark/internal/resolver"
	"showmark/internal/session"
)

type resolveResult struct {
	LocalName string `json:"local_name"`
	ShowID    string `json:"show_id"`
	Source    string `json:"source"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var canonical string
	var tmdbID int64
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <series name>",
		Short: "Resolve a series name to its MyEpisodes show id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return ctx.withState(cmd.Context(), func(state *appState) error {
				result := resolveResult{LocalName: resolver.Normalize(name)}

				rec, ok, err := state.ids.Lookup(cmd.Context(), result.LocalName)
				if err != nil {
					return err
				}
				if ok {
					result.ShowID = rec.ExternalID
					result.Source = string(resolver.SourceTable)
					return printResolveResult(cmd, result, jsonOut)
				}

				if err := state.cfg.ValidateCredentials(); err != nil {
					return err
				}
				tracker, err := state.trackerClient()
				if err != nil {
					return err
				}
				res, err := state.resolver()
				if err != nil {
					return err
				}
				sess, err := session.NewManager(tracker, state.logger).Login(cmd.Context(), session.Credentials{
					Username: state.cfg.MyEpisodes.Username,
					Password: state.cfg.MyEpisodes.Password,
				})
				if err != nil {
					return err
				}

				id, err := res.Bind(sess).ResolveName(cmd.Context(), name, items.Hints{CanonicalName: canonical, TMDBID: tmdbID})
				if err != nil {
					return err
				}
				result.ShowID = id
				result.Source = string(resolver.SourceSearch)
				return printResolveResult(cmd, result, jsonOut)
			})
		},
	}

	cmd.Flags().StringVar(&canonical, "canonical-name", "", "Search MyEpisodes for this name instead of looking it up")
	cmd.Flags().Int64Var(&tmdbID, "tmdb-id", 0, "TMDB series id used for the canonical name lookup")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}

func printResolveResult(cmd *cobra.Command, result resolveResult, jsonOut bool) error {
	if jsonOut {
		return writeJSON(cmd, result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", result.LocalName, result.ShowID, result.Source)
	return nil
}
