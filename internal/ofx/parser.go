// Package ofx turns OFX/QFX bank and credit card statements into draft
// expenses ready for categorization.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-budget-must-balance/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// SGML-style files sometimes drop the closing bracket of a bare tag line.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	// Leading MM/DD authorization dates.
	leadingDateRegex = regexp.MustCompile(`^\d{2}/\d{2}\s+`)
)

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

var genericNames = map[string]struct{}{
	"DEBIT":           {},
	"CREDIT":          {},
	"PURCHASE":        {},
	"PAYMENT":         {},
	"POS TRANSACTION": {},
	"CARD PURCHASE":   {},
}

// Draft is a statement debit that has not been categorized yet.
type Draft struct {
	Date          time.Time
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
	Account       string
	FITID         string
	// Hash identifies the statement line across repeated imports.
	Hash string
}

// Expense completes the draft with the person who paid and its category.
func (d Draft) Expense(person, category, subcategory string) model.Expense {
	return model.Expense{
		Date:          d.Date,
		Amount:        d.Amount,
		Person:        person,
		Category:      category,
		Subcategory:   subcategory,
		Description:   d.Description,
		PaymentMethod: d.PaymentMethod,
		Hash:          d.Hash,
	}
}

// Result is the outcome of parsing one statement file.
type Result struct {
	Drafts []Draft
	// Credits counts deposits and refunds, which are not expenses.
	Credits int
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile reads a statement and returns its debits as drafts, oldest first
// in statement order.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*Result, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	result := &Result{}
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		method := "Bank " + maskAccount(string(stmt.BankAcctFrom.AcctID))
		p.collect(result, stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID), method)
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		method := "Card " + maskAccount(string(stmt.CCAcctFrom.AcctID))
		p.collect(result, stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID), method)
	}

	slog.Info("Parsed OFX file",
		"debits", len(result.Drafts),
		"credits", result.Credits,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return result, nil
}

func (p *Parser) collect(result *Result, txns []ofxgo.Transaction, account, method string) {
	for _, txn := range txns {
		amount, err := decimal.NewFromString(txn.TrnAmt.FloatString(2))
		if err != nil {
			slog.Warn("Skipping transaction with unreadable amount",
				"fitid", string(txn.FiTID), "error", err)
			continue
		}

		// OFX signs debits negative.
		if !amount.IsNegative() {
			result.Credits++
			continue
		}

		y, m, d := txn.DtPosted.Date()
		draft := Draft{
			Date:          time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			Amount:        amount.Neg(),
			Description:   p.extractMerchantName(txn),
			PaymentMethod: method,
			Account:       account,
			FITID:         string(txn.FiTID),
		}
		expense := draft.Expense("", "", "")
		draft.Hash = expense.GenerateHash(account + ":" + draft.FITID)
		result.Drafts = append(result.Drafts, draft)
	}
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return strings.TrimSpace(string(txn.Payee.Name))
	}

	name := strings.TrimSpace(string(txn.Name))
	if _, generic := genericNames[strings.ToUpper(name)]; generic && txn.Memo != "" {
		name = strings.TrimSpace(string(txn.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(leadingDateRegex.ReplaceAllString(name, ""))
}

// maskAccount keeps only the last four characters of an account number.
func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return "****" + account[len(account)-4:]
}
