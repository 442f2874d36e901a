package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
)

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <description...>",
		Short: "Suggest a category for an expense description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			description := strings.Join(args, " ")
			suggestion, err := a.suggester.Suggest(cmd.Context(), description)
			if err != nil {
				return err
			}
			return cli.RenderSuggestion(cmd.OutOrStdout(), description, suggestion)
		},
	}
}

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Inspect learned description mappings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List learned patterns, most used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			patterns, err := a.suggester.History(cmd.Context())
			if err != nil {
				return err
			}
			return cli.RenderPatterns(cmd.OutOrStdout(), patterns, time.Now())
		},
	})

	return cmd
}
