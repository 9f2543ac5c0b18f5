package csv

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/parser"
	"github.com/zeno-ml/zeno.systems/fincore/internal/transform"
)

// BankOfAmericaParser parses Bank of America checking statement exports.
//
// The export is not a clean CSV: a free-text summary block (beginning
// balance, total credits/debits, ending balance) precedes the tabular
// section, and subtotal rows are interleaved with transactions. The parser
// scans for the labeled "ending balance" summary line and for the
// "Date,Description" header rather than trusting fixed positions.
//
// Stateless and safe for concurrent use.
type BankOfAmericaParser struct{}

// NewBankOfAmericaParser returns a Bank of America checking parser.
func NewBankOfAmericaParser() *BankOfAmericaParser {
	return &BankOfAmericaParser{}
}

// Name returns the parser identifier
func (p *BankOfAmericaParser) Name() string {
	return "bofa-checking"
}

const bofaDateFormat = "01/02/2006"

// dateLikeDescription matches rows whose "description" is actually a date,
// an artifact of the export's wrapped summary section.
var dateLikeDescription = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Parse extracts raw transactions and the ending balance from a Bank of
// America checking export. BoA already reports amounts in the canonical
// sign convention (positive = deposit), so no inversion is applied.
func (p *BankOfAmericaParser) Parse(ctx context.Context, rawText string) (*parser.Statement, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	lines := nonBlankLines(rawText)

	endingBalance := p.findEndingBalance(lines)

	headerIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "Date,Description") {
			headerIdx = i
			break
		}
	}
	// No tabular section: an empty statement, not an error.
	if headerIdx == -1 || headerIdx+1 >= len(lines) {
		return &parser.Statement{Transactions: []parser.RawTransaction{}, EndingBalance: endingBalance}, nil
	}

	var txs []parser.RawTransaction
	for _, line := range lines[headerIdx+1:] {
		fields := splitFields(line)
		if len(fields) < 3 {
			continue
		}

		dateRaw, descRaw, amountRaw := fields[0], fields[1], fields[2]
		balanceRaw := ""
		if len(fields) > 3 {
			balanceRaw = fields[3]
		}

		if p.isSummaryRow(descRaw, amountRaw, balanceRaw) {
			continue
		}

		description := transform.NormalizeDescription(descRaw)
		if description == "" {
			description = descRaw
		}
		if dateLikeDescription.MatchString(description) {
			continue
		}

		date, err := time.Parse(bofaDateFormat, dateRaw)
		if err != nil {
			continue
		}
		amount, err := parseMoney(amountRaw)
		if err != nil {
			continue
		}

		var balance *decimal.Decimal
		if balanceRaw != "" {
			if b, err := parseMoney(balanceRaw); err == nil {
				balance = &b
			}
		}

		txs = append(txs, parser.RawTransaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Balance:     balance,
		})
	}

	if txs == nil {
		txs = []parser.RawTransaction{}
	}
	return &parser.Statement{Transactions: txs, EndingBalance: endingBalance}, nil
}

// findEndingBalance scans the summary block for a line beginning with
// "ending balance" (case-insensitive) and parses its trailing money field.
// Returns nil when no such line exists; the account balance is then left
// untouched downstream.
func (p *BankOfAmericaParser) findEndingBalance(lines []string) *decimal.Decimal {
	for _, line := range lines {
		if !strings.HasPrefix(strings.ToLower(line), "ending balance") {
			continue
		}
		fields := splitFields(line)
		for i := len(fields) - 1; i > 0; i-- {
			if b, err := parseMoney(fields[i]); err == nil {
				return &b
			}
		}
		return nil
	}
	return nil
}

// isSummaryRow filters running subtotal and summary lines embedded in the
// tabular section, plus rows that carry neither a description nor a
// trailing balance.
func (p *BankOfAmericaParser) isSummaryRow(desc, amount, balance string) bool {
	descLower := strings.ToLower(desc)
	switch {
	case strings.Contains(descLower, "beginning balance"),
		strings.Contains(descLower, "ending balance"),
		strings.Contains(descLower, "total credits"),
		strings.Contains(descLower, "total debits"):
		return true
	case desc == "" && amount != "" && balance == "":
		return true
	}
	return false
}
