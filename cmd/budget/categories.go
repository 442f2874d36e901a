package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/common"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage expense categories",
		Long: `Manage the two-level category list. Renames carry over to existing
expenses, estimates and learned patterns. Categories still in use cannot
be deleted.`,
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())
	cmd.AddCommand(categoriesAddSubCmd())
	cmd.AddCommand(categoriesRenameCmd())
	cmd.AddCommand(categoriesRenameSubCmd())
	cmd.AddCommand(categoriesDeleteCmd())
	cmd.AddCommand(categoriesDeleteSubCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories and their subcategories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			taxonomy, err := a.categories.Taxonomy(cmd.Context())
			if err != nil {
				return err
			}
			return cli.RenderTaxonomy(cmd.OutOrStdout(), taxonomy)
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <category>",
		Short: "Add a category with a general subcategory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.manager.AddCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s", args[0])))
			return nil
		},
	}
}

func categoriesAddSubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-sub <category> <subcategory>",
		Short: "Add a subcategory to an existing category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.manager.AddSubcategory(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s / %s", args[0], args[1])))
			return nil
		},
	}
}

func categoriesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a category everywhere it is used",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.manager.RenameCategory(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Renamed %s to %s", args[0], args[1])))
			return nil
		},
	}
}

func categoriesRenameSubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-sub <category> <old> <new>",
		Short: "Rename a subcategory everywhere it is used",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.manager.RenameSubcategory(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Renamed %s / %s to %s", args[0], args[1], args[2])))
			return nil
		},
	}
}

func categoriesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete an unused category and its subcategories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := a.manager.DeleteCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return inUseError(args[0])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s", args[0])))
			return nil
		},
	}
}

func categoriesDeleteSubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-sub <category> <subcategory>",
		Short: "Delete an unused subcategory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := a.manager.DeleteSubcategory(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !deleted {
				return inUseError(args[0] + " / " + args[1])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s / %s", args[0], args[1])))
			return nil
		},
	}
}

func inUseError(name string) error {
	return common.NewUserError(fmt.Sprintf("%s is still used by expenses or estimates", name), nil)
}
