// Package parser defines the statement parser capability and the raw types
// parsers produce before canonicalization.
package parser

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Parser is the strategy interface for all institution statement parsers.
// A parser owns its format's delimiter and quoting logic end to end; callers
// hand it raw export text and get back raw transactions plus an optional
// ending balance.
type Parser interface {
	// Name returns the parser identifier (e.g., "bofa-checking")
	Name() string

	// Parse extracts raw transactions and the statement's ending balance
	// from raw CSV text. A merely-empty statement is not an error: parsers
	// return an empty transaction list and whatever ending balance was
	// found.
	Parse(ctx context.Context, rawText string) (*Statement, error)
}

// Statement is the output of one parse: the transaction rows recovered from
// the export plus the ending balance, if the export carried a labeled
// summary line. EndingBalance is nil when no summary was found, in which
// case no account balance update occurs downstream.
type Statement struct {
	Transactions  []RawTransaction
	EndingBalance *decimal.Decimal
}

// RawTransaction is a transaction as recovered from a statement export,
// before hashing and categorization. Transient: the ingestion coordinator
// converts these into canonical transactions.
//
// Amount is already normalized to the canonical sign convention (positive =
// inflow to the holder's position), and Description has already been through
// the description normalizer.
type RawTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Balance     *decimal.Decimal
}
