package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/budget"
	"github.com/Veraticus/the-budget-must-balance/internal/model"
	"github.com/Veraticus/the-budget-must-balance/internal/ofx"
	"github.com/Veraticus/the-budget-must-balance/internal/pattern"
)

const orphanMarker = "*"

// FormatMoney renders an amount as dollars with thousands separators.
func FormatMoney(amount decimal.Decimal) string {
	formatted := "$" + humanize.FormatFloat("#,###.##", amount.Abs().InexactFloat64())
	if amount.IsNegative() {
		return "-" + formatted
	}
	return formatted
}

// FormatVariance colors a variance red when over budget and green otherwise.
func FormatVariance(variance decimal.Decimal) string {
	if variance.IsNegative() {
		return ErrorStyle.Render(FormatMoney(variance))
	}
	return SuccessStyle.Render(FormatMoney(variance))
}

func formatShare(share float64) string {
	return fmt.Sprintf("%.1f%%", share)
}

// table lays out columns using lipgloss widths so styled cells align.
type table struct {
	headers []string
	rows    [][]string
	// right marks numeric columns.
	right map[int]bool
}

func newTable(headers ...string) *table {
	return &table{headers: headers, right: make(map[int]bool)}
}

func (t *table) alignRight(cols ...int) *table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string, header bool) string {
		rendered := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			style := TableCellStyle.Width(widths[i] + 2)
			if t.right[i] {
				style = style.Align(lipgloss.Right)
			}
			if header {
				cell = BoldStyle.Render(cell)
			}
			rendered[i] = style.Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}

	var b strings.Builder
	head := line(t.headers, true)
	b.WriteString(head)
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(strings.Repeat("─", lipgloss.Width(head))))
	b.WriteString("\n")
	for _, row := range t.rows {
		b.WriteString(line(row, false))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderReport writes the month's estimate-versus-actual table.
func RenderReport(w io.Writer, report *budget.Report) error {
	headers := []string{"Category", "Subcategory", "Estimate"}
	headers = append(headers, report.People...)
	headers = append(headers, "Total", "Variance", "Share")

	numeric := make([]int, 0, len(headers)-2)
	for i := 2; i < len(headers); i++ {
		numeric = append(numeric, i)
	}
	t := newTable(headers...).alignRight(numeric...)

	money := func(totals budget.Totals) []string {
		cells := []string{FormatMoney(totals.Estimate)}
		for _, person := range report.People {
			cells = append(cells, FormatMoney(totals.Actual(person)))
		}
		return append(cells, FormatMoney(totals.TotalActual), FormatVariance(totals.Variance))
	}

	orphans := false
	for _, category := range report.Categories {
		cells := append([]string{BoldStyle.Render(category.Category), ""}, money(category.Totals)...)
		t.add(append(cells, formatShare(report.Share(category.Category)))...)

		for _, row := range category.Rows {
			name := "  " + row.Subcategory
			if row.Orphaned {
				name += orphanMarker
				orphans = true
			}
			cells := append([]string{"", name}, money(row.Totals)...)
			t.add(append(cells, "")...)
		}
	}
	totalShare := "0.0%"
	if !report.Total.TotalActual.IsZero() {
		totalShare = "100.0%"
	}
	t.add(append(append([]string{BoldStyle.Render("Total"), ""}, money(report.Total)...), totalShare)...)

	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Budget for %s", report.Period().Format("January 2006"))))
	b.WriteString("\n")
	if len(report.Categories) == 0 {
		b.WriteString(FormatInfo("No categories, estimates or expenses for this month."))
		b.WriteString("\n")
	} else {
		b.WriteString(t.render())
	}
	if orphans {
		b.WriteString(SubtleStyle.Render(orphanMarker + " no longer in the category list"))
		b.WriteString("\n")
	}
	if over := report.OverBudget(); len(over) > 0 {
		b.WriteString(FormatWarning(fmt.Sprintf("%d %s over budget", len(over), plural(len(over), "subcategory", "subcategories"))))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSettlement writes each person's unrealized spending.
func RenderSettlement(w io.Writer, year int, month time.Month, totals []model.PersonTotal) error {
	t := newTable("Person", "Unrealized").alignRight(1)
	sum := decimal.Zero
	for _, total := range totals {
		t.add(total.Person, FormatMoney(total.Amount))
		sum = sum.Add(total.Amount)
	}
	t.add(BoldStyle.Render("Total"), FormatMoney(sum))

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	out := FormatTitle("Settlement for "+start.Format("January 2006")) + "\n" + t.render()
	_, err := io.WriteString(w, out)
	return err
}

// RenderTaxonomy writes the category tree.
func RenderTaxonomy(w io.Writer, taxonomy model.Taxonomy) error {
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Categories (%d)", len(taxonomy.Categories()))))
	b.WriteString("\n")
	for _, category := range taxonomy.Categories() {
		b.WriteString(BoldStyle.Render(category))
		b.WriteString("\n")
		for _, sub := range taxonomy.Subcategories(category) {
			b.WriteString("  • " + sub + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderExpenses writes an expense listing with a total line.
func RenderExpenses(w io.Writer, expenses []model.Expense) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No expenses found."))
		return err
	}

	t := newTable("ID", "Date", "Person", "Amount", "Category", "Description", "Realized").alignRight(0, 3)
	sum := decimal.Zero
	for _, e := range expenses {
		realized := ""
		if e.Realized {
			realized = SuccessIcon
		}
		t.add(
			fmt.Sprintf("%d", e.ID),
			e.Date.Format(model.DateLayout),
			e.Person,
			FormatMoney(e.Amount),
			e.Pair().String(),
			e.Description,
			realized,
		)
		sum = sum.Add(e.Amount)
	}

	out := t.render() + fmt.Sprintf("%s %s across %s %s\n",
		BoldStyle.Render("Total"), FormatMoney(sum),
		humanize.Comma(int64(len(expenses))), plural(len(expenses), "expense", "expenses"))
	_, err := io.WriteString(w, out)
	return err
}

// RenderEstimates writes a month's estimates.
func RenderEstimates(w io.Writer, estimates []model.BudgetEstimate) error {
	if len(estimates) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No estimates for this month."))
		return err
	}

	t := newTable("Category", "Subcategory", "Estimate", "Default").alignRight(2)
	sum := decimal.Zero
	for _, e := range estimates {
		def := ""
		if e.IsDefault {
			def = SuccessIcon
		}
		t.add(e.Category, e.Subcategory, FormatMoney(e.Amount), def)
		sum = sum.Add(e.Amount)
	}
	t.add(BoldStyle.Render("Total"), "", FormatMoney(sum), "")

	_, err := io.WriteString(w, t.render())
	return err
}

// RenderPatterns writes the learned description mappings.
func RenderPatterns(w io.Writer, patterns []model.LearnedPattern, now time.Time) error {
	if len(patterns) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No learned patterns yet."))
		return err
	}

	t := newTable("Description", "Category", "Uses", "Last used").alignRight(2)
	for _, p := range patterns {
		t.add(p.Description, p.Pair().String(), humanize.Comma(int64(p.UsageCount)), humanize.RelTime(p.LastUsed, now, "ago", "from now"))
	}
	_, err := io.WriteString(w, t.render())
	return err
}

// RenderSuggestion writes a suggestion, or a notice that none was found.
func RenderSuggestion(w io.Writer, description string, suggestion *pattern.Suggestion) error {
	if suggestion == nil {
		_, err := fmt.Fprintln(w, FormatWarning(fmt.Sprintf("No suggestion for %q", description)))
		return err
	}

	content := fmt.Sprintf("Category:   %s\nSource:     %s\nConfidence: %.2f\nReason:     %s",
		suggestion.Pair(), suggestion.Source, suggestion.Confidence, suggestion.Reason)
	_, err := fmt.Fprintln(w, RenderBox(fmt.Sprintf("Suggestion for %q", description), content))
	return err
}

// RenderImportSummary writes import counts and the drafts that still need a
// category.
func RenderImportSummary(w io.Writer, summary *ofx.Summary, dryRun bool) error {
	saved := "Saved"
	if dryRun {
		saved = "Would save"
	}
	content := fmt.Sprintf("%s: %s\nDuplicates: %s\nTransfers: %s\nNeed review: %s",
		saved,
		humanize.Comma(int64(summary.Saved)),
		humanize.Comma(int64(summary.Duplicates)),
		humanize.Comma(int64(summary.Transfers)),
		humanize.Comma(int64(summary.Unclassified)))

	var b strings.Builder
	b.WriteString(RenderBox(ImportIcon+" Import complete", content))
	b.WriteString("\n")

	if summary.Unclassified > 0 {
		t := newTable("Date", "Amount", "Description", "Best guess").alignRight(1)
		for _, outcome := range summary.Outcomes {
			if outcome.Status != ofx.StatusUnclassified {
				continue
			}
			guess := ""
			if s := outcome.Suggestion; s != nil {
				guess = fmt.Sprintf("%s (%.2f)", s.Pair(), s.Confidence)
			}
			t.add(outcome.Draft.Date.Format(model.DateLayout), FormatMoney(outcome.Draft.Amount), outcome.Draft.Description, guess)
		}
		b.WriteString(FormatWarning("Add these with `budget expense add` once categorized:"))
		b.WriteString("\n")
		b.WriteString(t.render())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
