package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/budget"
	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense",
		Aliases: []string{"expenses", "exp"},
		Short:   "Record and list expenses",
	}

	cmd.AddCommand(expenseAddCmd())
	cmd.AddCommand(expenseListCmd())
	cmd.AddCommand(expenseRealizeCmd())

	return cmd
}

func expenseAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <amount> <description...>",
		Short: "Record an expense",
		Long: `Record an expense. When --category and --subcategory are omitted, the
category is suggested from previously recorded expenses. The chosen
category is remembered for the description either way.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runExpenseAdd,
	}

	cmd.Flags().String("date", "", "expense date as YYYY-MM-DD (default: today)")
	cmd.Flags().String("person", "", "who paid (default: first configured person)")
	cmd.Flags().String("category", "", "category")
	cmd.Flags().String("subcategory", "", "subcategory")
	cmd.Flags().String("payment-method", "", "card or account used")
	cmd.Flags().Bool("realized", false, "mark as already settled between the two people")

	return cmd
}

func runExpenseAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	description := strings.Join(args[1:], " ")

	dateStr, _ := cmd.Flags().GetString("date")
	date, err := parseDate(dateStr)
	if err != nil {
		return err
	}

	a, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	person, _ := cmd.Flags().GetString("person")
	if strings.TrimSpace(person) == "" {
		person = a.settings.People[0]
	}

	category, _ := cmd.Flags().GetString("category")
	subcategory, _ := cmd.Flags().GetString("subcategory")
	if category == "" && subcategory == "" {
		suggestion, err := a.suggester.Suggest(ctx, description)
		if err != nil {
			return err
		}
		if suggestion == nil {
			return common.NewUserError(
				fmt.Sprintf("no category could be suggested for %q; pass --category and --subcategory", description), nil)
		}
		category, subcategory = suggestion.Category, suggestion.Subcategory
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Suggested %s (%s, confidence %.2f)",
			suggestion.Pair(), suggestion.Source, suggestion.Confidence)))
	} else if category == "" || subcategory == "" {
		return errors.New("--category and --subcategory must be given together")
	}

	paymentMethod, _ := cmd.Flags().GetString("payment-method")
	realized, _ := cmd.Flags().GetBool("realized")

	expense := &model.Expense{
		Date:          date,
		Amount:        amount,
		Person:        person,
		Category:      category,
		Subcategory:   subcategory,
		Description:   description,
		PaymentMethod: paymentMethod,
		Realized:      realized,
	}
	if err := saveExpense(ctx, a.store, a.suggester, expense); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded expense #%d: %s for %s under %s",
		expense.ID, cli.FormatMoney(expense.Amount), description, expense.Pair())))
	return nil
}

type expenseAdder interface {
	AddExpense(ctx context.Context, expense *model.Expense) error
}

type mappingRecorder interface {
	RecordMapping(ctx context.Context, description, category, subcategory string) error
}

// saveExpense stores the expense and teaches the suggester its category. Once
// the expense is committed a failed mapping is only logged.
func saveExpense(ctx context.Context, store expenseAdder, learner mappingRecorder, expense *model.Expense) error {
	if err := store.AddExpense(ctx, expense); err != nil {
		return err
	}
	if err := learner.RecordMapping(ctx, expense.Description, expense.Category, expense.Subcategory); err != nil {
		slog.Warn("Saved expense but failed to learn its category",
			"id", expense.ID, "description", expense.Description, "error", err)
	}
	return nil
}

func expenseListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a month's expenses",
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

			start, end := budget.MonthRange(year, month)
			expenses, err := a.store.GetExpenses(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			return cli.RenderExpenses(cmd.OutOrStdout(), expenses)
		},
	}
	addMonthFlag(cmd)
	return cmd
}

func expenseRealizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realize <id>",
		Short: "Mark an expense as settled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid expense id %q: %w", args[0], err)
			}
			undo, _ := cmd.Flags().GetBool("undo")

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.store.MarkRealized(cmd.Context(), id, !undo); err != nil {
				return err
			}

			state := "settled"
			if undo {
				state = "unsettled"
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Expense #%d marked %s", id, state)))
			return nil
		},
	}
	cmd.Flags().Bool("undo", false, "mark the expense as not settled")
	return cmd
}
