// Package store defines the persistence contract the ingestion and
// aggregation layers consume. The core never talks to a database directly:
// it needs exactly the select/insert/update calls below, and relies on the
// store to enforce hash uniqueness per (user, hash): two concurrent imports
// of overlapping statements can each pass the dedup query before either
// insert commits, so at-most-once-per-fingerprint must hold at this layer.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
)

// Store is the external persistence contract required by the core.
type Store interface {
	// Accounts returns all accounts for the owner.
	Accounts(ctx context.Context, userID string) ([]*domain.Account, error)

	// Transactions returns all transactions for the owner.
	Transactions(ctx context.Context, userID string) ([]*domain.Transaction, error)

	// ExistingHashes returns which of the candidate hashes are already
	// persisted for the owner.
	ExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error)

	// InsertTransactions persists a batch of canonical transactions,
	// assigning IDs. Returns the number of rows actually inserted, which
	// may be lower than the batch size when the uniqueness constraint
	// absorbs a concurrent duplicate.
	InsertTransactions(ctx context.Context, txs []*domain.Transaction) (int, error)

	// UpdateCategories upserts the stored category for each {id, category}
	// pair. Overrides are never modified by this call.
	UpdateCategories(ctx context.Context, updates []domain.CategoryUpdate) error

	// UpdateAccountBalance replaces an account's running balance.
	UpdateAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
}
