package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-budget-must-balance/internal/classification"
	"github.com/Veraticus/the-budget-must-balance/internal/cli"
	"github.com/Veraticus/the-budget-must-balance/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx <file...>",
		Short: "Import expenses from OFX/QFX statements",
		Long: `Import debits from OFX or QFX bank and credit card statements.

Each transaction is categorized from previously recorded expenses. Those
suggested with enough confidence are saved; the rest are listed for manual
entry. Transactions already imported are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().String("person", "", "who paid (default: import.person, or the first configured person)")
	cmd.Flags().Float64("min-confidence", -1, "minimum suggestion confidence (default: import.min_confidence)")
	cmd.Flags().Bool("dry-run", false, "show what would be imported without saving")
	cmd.Flags().Bool("no-progress", false, "hide the progress bar")
	cmd.Flags().Bool("keep-transfers", false, "categorize transfers between accounts instead of skipping them")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	a, cleanup, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	parser := ofx.NewParser()
	var drafts []ofx.Draft
	for _, path := range args {
		parsed, err := parseStatement(ctx, parser, path)
		if err != nil {
			if handler.WasInterrupted() {
				return nil
			}
			return err
		}
		drafts = append(drafts, parsed...)
	}

	if len(drafts) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No debits found in the given statements."))
		return nil
	}

	taxonomy, err := a.categories.Taxonomy(ctx)
	if err != nil {
		return err
	}
	var importOpts []ofx.ImporterOption
	if keep, _ := cmd.Flags().GetBool("keep-transfers"); !keep {
		detector, err := classification.NewDetector(classification.DefaultTransferPatterns())
		if err != nil {
			return err
		}
		importOpts = append(importOpts, ofx.WithTransferFilter(detector))
	}
	importer, err := ofx.NewImporter(a.store, a.suggester, taxonomy, importOpts...)
	if err != nil {
		return err
	}

	opts := ofx.Options{Person: a.settings.DefaultPerson(), MinConfidence: a.settings.MinConfidence}
	if person, _ := cmd.Flags().GetString("person"); person != "" {
		opts.Person = person
	}
	if minConfidence, _ := cmd.Flags().GetFloat64("min-confidence"); minConfidence >= 0 {
		opts.MinConfidence = minConfidence
	}
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	var progress func()
	if hide, _ := cmd.Flags().GetBool("no-progress"); !hide {
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(drafts), "Categorizing transactions...")
		progress = func() {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	summary, err := importer.Import(ctx, drafts, opts, progress)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}

	return cli.RenderImportSummary(cmd.OutOrStdout(), summary, opts.DryRun)
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) ([]ofx.Draft, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	result, err := parser.ParseFile(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("📥 Read statement", "file", filepath.Base(path), "debits", len(result.Drafts), "credits", result.Credits)
	return result.Drafts, nil
}
