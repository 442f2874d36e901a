package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare a month's spending with its estimates",
		Long: `Show estimate, per-person spending, total and variance for every
subcategory. Negative variance means the subcategory went over budget.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := monthFlag(cmd)
			if err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			taxonomy, err := a.categories.Taxonomy(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.aggregator.ComputeReport(cmd.Context(), year, month, taxonomy)
			if err != nil {
				return err
			}
			return cli.RenderReport(cmd.OutOrStdout(), report)
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func settleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Show each person's unsettled spending for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year, month, err := monthFlag(cmd)
			if err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			totals, err := a.aggregator.Settlement(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			return cli.RenderSettlement(cmd.OutOrStdout(), year, month, totals)
		},
	}
	addMonthFlag(cmd)
	return cmd
}
