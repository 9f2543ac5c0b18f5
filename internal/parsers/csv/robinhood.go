package csv

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/parser"
	"github.com/zeno-ml/zeno.systems/fincore/internal/transform"
)

// RobinhoodParser parses Robinhood card exports.
//
// The export carries a status column: only rows posted against the account
// are real transactions, pending rows are silently dropped. Source amounts
// are unsigned purchase magnitudes, so the parser normalizes to the
// canonical sign convention: purchases become negative outflows and a
// "payment - thank you" credit becomes a positive inflow. Balances are
// reported from the card issuer's perspective and are inverted to the
// holder's position (card debt is a negative balance).
//
// Stateless and safe for concurrent use.
type RobinhoodParser struct{}

// NewRobinhoodParser returns a Robinhood card parser.
func NewRobinhoodParser() *RobinhoodParser {
	return &RobinhoodParser{}
}

// Name returns the parser identifier
func (p *RobinhoodParser) Name() string {
	return "robinhood-card"
}

const robinhoodDateFormat = "01/02/2006"

// paymentDescription is the issuer's literal credit line for a received
// card payment.
const paymentDescription = "payment - thank you"

// Parse extracts raw transactions from a Robinhood card export. Column
// positions come from the header line, not fixed offsets. The ending
// balance is the balance of the first posted row: the export lists rows
// newest-first, so the first posted balance is the statement's final
// position.
func (p *RobinhoodParser) Parse(ctx context.Context, rawText string) (*parser.Statement, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	lines := nonBlankLines(rawText)
	if len(lines) == 0 {
		return &parser.Statement{Transactions: []parser.RawTransaction{}}, nil
	}

	cols := p.columnIndexes(lines[0])
	// Header not found: an empty statement, not an error.
	if cols.date == -1 || cols.amount == -1 || cols.status == -1 {
		return &parser.Statement{Transactions: []parser.RawTransaction{}}, nil
	}

	txs := []parser.RawTransaction{}
	var endingBalance *decimal.Decimal

	for _, line := range lines[1:] {
		fields := splitFields(line)
		if len(fields) < 4 {
			continue
		}

		if !strings.EqualFold(field(fields, cols.status), "posted") {
			continue
		}

		rawDesc := field(fields, cols.description)
		if rawDesc == "" {
			rawDesc = field(fields, cols.merchant)
		}
		if rawDesc == "" {
			rawDesc = "Unknown"
		}
		description := transform.NormalizeDescription(rawDesc)

		date, err := time.Parse(robinhoodDateFormat, field(fields, cols.date))
		if err != nil {
			continue
		}
		amount, err := parseMoney(field(fields, cols.amount))
		if err != nil {
			continue
		}

		if strings.ToLower(description) == paymentDescription {
			amount = amount.Abs()
		} else {
			amount = amount.Abs().Neg()
		}

		var balance *decimal.Decimal
		if raw := field(fields, cols.balance); raw != "" {
			if b, err := parseMoney(raw); err == nil {
				b = b.Neg()
				balance = &b
			}
		}

		if balance != nil && endingBalance == nil {
			endingBalance = balance
		}

		txs = append(txs, parser.RawTransaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Balance:     balance,
		})
	}

	return &parser.Statement{Transactions: txs, EndingBalance: endingBalance}, nil
}

// columns holds header-derived field positions, -1 when absent.
type columns struct {
	date, amount, balance, description, merchant, status int
}

func (p *RobinhoodParser) columnIndexes(header string) columns {
	cols := columns{date: -1, amount: -1, balance: -1, description: -1, merchant: -1, status: -1}
	for i, name := range splitFields(header) {
		switch strings.ToLower(name) {
		case "date":
			cols.date = i
		case "amount":
			cols.amount = i
		case "balance":
			cols.balance = i
		case "description":
			cols.description = i
		case "merchant":
			cols.merchant = i
		case "status":
			cols.status = i
		}
	}
	return cols
}

// field returns fields[i] or "" when the index is absent or out of range.
func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
