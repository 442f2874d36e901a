package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/budget"
	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

func estimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "estimate",
		Aliases: []string{"estimates", "est"},
		Short:   "Plan monthly spending per subcategory",
	}

	cmd.AddCommand(estimateSetCmd())
	cmd.AddCommand(estimateListCmd())
	cmd.AddCommand(estimateApplyDefaultsCmd())
	cmd.AddCommand(estimateCopyPreviousCmd())
	cmd.AddCommand(estimatePopulateCmd())

	return cmd
}

func estimateSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <category> <subcategory> <amount>",
		Short: "Set a subcategory's estimate for a month",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := monthFlag(cmd)
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			isDefault, _ := cmd.Flags().GetBool("default")

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			known, err := a.categories.Has(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !known {
				return fmt.Errorf("%w: %s / %s", common.ErrInvalidCategory, args[0], args[1])
			}

			estimate := &model.BudgetEstimate{
				Category:    args[0],
				Subcategory: args[1],
				Amount:      amount,
				Year:        year,
				Month:       month,
				IsDefault:   isDefault,
			}
			if err := a.store.SaveEstimate(cmd.Context(), estimate); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Estimate for %s in %d-%02d set to %s",
				estimate.Pair(), year, month, cli.FormatMoney(amount))))
			return nil
		},
	}
	addMonthFlag(cmd)
	cmd.Flags().Bool("default", false, "use this amount when seeding months without estimates")
	return cmd
}

func estimateListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a month's estimates",
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

			estimates, err := a.store.GetEstimates(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			return cli.RenderEstimates(cmd.OutOrStdout(), estimates)
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func estimateApplyDefaultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply-defaults",
		Short: "Seed a month without estimates from the default estimates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimateSeed(cmd, func(a *app, year int, month time.Month) (string, error) {
				n, err := a.aggregator.ApplyDefaultsToMonth(cmd.Context(), year, month)
				if err != nil {
					return "", err
				}
				if n == 0 {
					return "Month already has estimates or no defaults are set; nothing applied", nil
				}
				return fmt.Sprintf("Applied %d default estimates", n), nil
			})
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func estimateCopyPreviousCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy-previous",
		Short: "Copy the previous month's estimates into a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimateSeed(cmd, func(a *app, year int, month time.Month) (string, error) {
				n, err := a.aggregator.CopyFromPreviousMonth(cmd.Context(), year, month)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Copied %d estimates from the previous month", n), nil
			})
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func estimatePopulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Fill an empty month from defaults, or else the previous month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEstimateSeed(cmd, func(a *app, year int, month time.Month) (string, error) {
				strategy, n, err := a.aggregator.PopulateMonth(cmd.Context(), year, month)
				if err != nil {
					return "", err
				}
				switch strategy {
				case budget.StrategyExisting:
					return "Month already has estimates; nothing changed", nil
				case budget.StrategyDefaults:
					return fmt.Sprintf("Applied %d default estimates", n), nil
				default:
					return fmt.Sprintf("Copied %d estimates from the previous month", n), nil
				}
			})
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func runEstimateSeed(cmd *cobra.Command, seed func(a *app, year int, month time.Month) (string, error)) error {
	year, month, err := monthFlag(cmd)
	if err != nil {
		return err
	}

	a, cleanup, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	message, err := seed(a, year, month)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(message))
	return nil
}
