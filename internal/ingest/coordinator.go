// Package ingest orchestrates a single statement import: parse, normalize,
// hash, dedup-filter, persist, then balance update.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/dedup"
	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
	"github.com/zeno-ml/zeno.systems/fincore/internal/parser"
	"github.com/zeno-ml/zeno.systems/fincore/internal/registry"
	"github.com/zeno-ml/zeno.systems/fincore/internal/rules"
	"github.com/zeno-ml/zeno.systems/fincore/internal/store"
	"github.com/zeno-ml/zeno.systems/fincore/internal/validate"
)

// ImportFailedError wraps any failure from the parse / dedup / insert /
// balance-update sequence. Inserted reports rows committed before the
// failure: the coordinator does not roll back partial inserts (the store's
// hash uniqueness absorbs a retry), so a partial import must be reported as
// such rather than presented as a clean failure.
type ImportFailedError struct {
	Stage    string // "parse", "dedup", "insert", "balance"
	Key      string // institution:accountType dispatch key, when known
	Inserted int
	Err      error
}

func (e *ImportFailedError) Error() string {
	if e.Inserted > 0 {
		return fmt.Sprintf("import failed at %s stage (%s) after %d rows were inserted: %v",
			e.Stage, e.Key, e.Inserted, e.Err)
	}
	return fmt.Sprintf("import failed at %s stage (%s): %v", e.Stage, e.Key, e.Err)
}

func (e *ImportFailedError) Unwrap() error { return e.Err }

// Result reports the outcome of one import.
type Result struct {
	// Inserted counts net-new rows only; rows dropped as duplicates are
	// not separately reported.
	Inserted int
	// UpdatedBalance is the account balance written from the statement's
	// ending balance, nil when the statement carried none.
	UpdatedBalance *decimal.Decimal
	// Warnings holds per-record validation issues for rows that were
	// dropped from the batch.
	Warnings []string
}

// Coordinator wires the parser registry, rules engine, and store into the
// import operation.
type Coordinator struct {
	registry *registry.Registry
	engine   *rules.Engine
	store    store.Store
}

// New creates an ingestion coordinator.
func New(reg *registry.Registry, engine *rules.Engine, st store.Store) *Coordinator {
	return &Coordinator{registry: reg, engine: engine, store: st}
}

// Import runs one statement import. The three store phases execute strictly
// in order: existing-hash query, insert, balance update. Concurrent imports
// into the same account are not serialized here; the store's uniqueness
// constraint on (user, hash) is what prevents duplicate rows under a race.
func (c *Coordinator) Import(ctx context.Context, rawText, institution, accountType, accountID, userID string) (*Result, error) {
	key, _ := registry.Key(institution, accountType)

	p, err := c.registry.Lookup(institution, accountType)
	if err != nil {
		return nil, &ImportFailedError{Stage: "parse", Key: key, Err: err}
	}

	stmt, err := p.Parse(ctx, rawText)
	if err != nil {
		return nil, &ImportFailedError{Stage: "parse", Key: key, Err: err}
	}

	// A statement with content but nothing recoverable is malformed; a
	// blank upload is just an empty import.
	if len(stmt.Transactions) == 0 && stmt.EndingBalance == nil && strings.TrimSpace(rawText) != "" {
		return nil, &ImportFailedError{Stage: "parse", Key: key, Err: &parser.MalformedStatementError{
			Parser: p.Name(),
			Reason: "no transactions or ending balance could be recovered",
		}}
	}

	candidates := c.canonicalize(stmt.Transactions, accountID, userID)
	dedup.FingerprintAll(candidates)

	checked := validate.Batch(candidates)
	warnings := make([]string, 0, len(checked.Issues))
	for _, issue := range checked.Issues {
		warnings = append(warnings, issue.String())
	}

	result := &Result{Warnings: warnings}

	hashes := make([]string, len(checked.Valid))
	for i, tx := range checked.Valid {
		hashes[i] = tx.Hash
	}
	existing, err := c.store.ExistingHashes(ctx, userID, hashes)
	if err != nil {
		return nil, &ImportFailedError{Stage: "dedup", Key: key, Err: err}
	}

	fresh := dedup.FilterNew(checked.Valid, existing)

	inserted, err := c.store.InsertTransactions(ctx, fresh)
	result.Inserted = inserted
	if err != nil {
		return nil, &ImportFailedError{Stage: "insert", Key: key, Inserted: inserted, Err: err}
	}

	if stmt.EndingBalance != nil {
		// Full replace, not a sum of deltas: statement exports are treated
		// as authoritative for the post-import balance, so a missed
		// historical transaction cannot permanently skew the account.
		if err := c.store.UpdateAccountBalance(ctx, accountID, *stmt.EndingBalance); err != nil {
			return nil, &ImportFailedError{Stage: "balance", Key: key, Inserted: inserted, Err: err}
		}
		result.UpdatedBalance = stmt.EndingBalance
	}

	return result, nil
}

// canonicalize tags parsed rows with their owner and account, assigns the
// rule category, and leaves the override unset.
func (c *Coordinator) canonicalize(raws []parser.RawTransaction, accountID, userID string) []*domain.Transaction {
	txs := make([]*domain.Transaction, 0, len(raws))
	for _, raw := range raws {
		txs = append(txs, &domain.Transaction{
			UserID:      userID,
			AccountID:   accountID,
			Date:        raw.Date.Format(domain.DateFormat),
			Description: raw.Description,
			Amount:      raw.Amount,
			Balance:     raw.Balance,
			Category:    c.engine.Categorize(raw.Description),
		})
	}
	return txs
}

// Recategorize recomputes rule categories for all of the owner's
// transactions without an override and persists only the changed ones.
// Returns the number of updated rows.
func (c *Coordinator) Recategorize(ctx context.Context, userID string) (int, error) {
	txs, err := c.store.Transactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions for recategorization: %w", err)
	}

	updates := c.engine.Recategorize(txs)
	if len(updates) == 0 {
		return 0, nil
	}

	if err := c.store.UpdateCategories(ctx, updates); err != nil {
		return 0, fmt.Errorf("failed to persist category updates: %w", err)
	}
	return len(updates), nil
}
