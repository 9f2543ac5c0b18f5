// Package sqlite implements the store contract on SQLite. This is the
// default backend: a single file (or in-memory database for tests) with a
// UNIQUE(user_id, hash) index carrying the at-most-once-per-fingerprint
// guarantee that concurrent imports rely on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
	"github.com/zeno-ml/zeno.systems/fincore/internal/store"
)

var _ store.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	institution TEXT NOT NULL DEFAULT '',
	balance     TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS transactions (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	account_id        TEXT NOT NULL,
	date              TEXT NOT NULL,
	description       TEXT NOT NULL,
	amount            TEXT NOT NULL,
	balance           TEXT,
	category          TEXT NOT NULL DEFAULT '',
	category_override TEXT,
	hash              TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_user_hash
	ON transactions (user_id, hash);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date
	ON transactions (user_id, date);
`

// Store is a SQLite-backed store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite store at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateAccount persists a new account.
func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, type, institution, balance) VALUES (?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.UserID, acc.Name, string(acc.Type), acc.Institution, acc.Balance.String())
	if err != nil {
		return fmt.Errorf("failed to insert account %s: %w", acc.ID, err)
	}
	return nil
}

// Accounts returns all accounts for the owner.
func (s *Store) Accounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, institution, balance FROM accounts WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var acc domain.Account
		var typ, balance string
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.Name, &typ, &acc.Institution, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		acc.Type = domain.AccountType(typ)
		acc.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance %q for account %s: %w", balance, acc.ID, err)
		}
		accounts = append(accounts, &acc)
	}
	return accounts, rows.Err()
}

// Transactions returns all transactions for the owner, newest first.
func (s *Store) Transactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, account_id, date, description, amount, balance, category, category_override, hash
		 FROM transactions WHERE user_id = ? ORDER BY date DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(rows *sql.Rows) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amount string
	var balance, override sql.NullString
	if err := rows.Scan(&tx.ID, &tx.UserID, &tx.AccountID, &tx.Date, &tx.Description,
		&amount, &balance, &tx.Category, &override, &tx.Hash); err != nil {
		return nil, fmt.Errorf("failed to scan transaction row: %w", err)
	}

	var err error
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q for transaction %s: %w", amount, tx.ID, err)
	}
	if balance.Valid {
		b, err := decimal.NewFromString(balance.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance %q for transaction %s: %w", balance.String, tx.ID, err)
		}
		tx.Balance = &b
	}
	if override.Valid && override.String != "" {
		tx.CategoryOverride = &override.String
	}
	return &tx, nil
}

// ExistingHashes returns which candidate hashes already exist for the owner.
func (s *Store) ExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(hashes) == 0 {
		return existing, nil
	}

	// SQLite caps bound parameters; chunk the candidate set.
	const chunkSize = 500
	for start := 0; start < len(hashes); start += chunkSize {
		end := start + chunkSize
		if end > len(hashes) {
			end = len(hashes)
		}
		chunk := hashes[start:end]

		placeholders := strings.Repeat("?,", len(chunk)-1) + "?"
		args := make([]any, 0, len(chunk)+1)
		args = append(args, userID)
		for _, h := range chunk {
			args = append(args, h)
		}

		rows, err := s.db.QueryContext(ctx,
			`SELECT hash FROM transactions WHERE user_id = ? AND hash IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query existing hashes: %w", err)
		}
		for rows.Next() {
			var h string
			if err := rows.Scan(&h); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan hash row: %w", err)
			}
			existing[h] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return existing, nil
}

// InsertTransactions persists the batch, assigning UUIDs. INSERT OR IGNORE
// lets the unique (user_id, hash) index absorb duplicates racing in from a
// concurrent import; the returned count reflects rows actually written.
func (s *Store) InsertTransactions(ctx context.Context, txs []*domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO transactions
		 (id, user_id, account_id, date, description, amount, balance, category, category_override, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		var balance any
		if tx.Balance != nil {
			balance = tx.Balance.String()
		}
		var override any
		if tx.CategoryOverride != nil {
			override = *tx.CategoryOverride
		}

		res, err := stmt.ExecContext(ctx, tx.ID, tx.UserID, tx.AccountID, tx.Date, tx.Description,
			tx.Amount.String(), balance, tx.Category, override, tx.Hash)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %s: %w", tx.Hash, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		inserted += int(n)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert batch: %w", err)
	}
	return inserted, nil
}

// UpdateCategories upserts the stored category by transaction ID.
func (s *Store) UpdateCategories(ctx context.Context, updates []domain.CategoryUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `UPDATE transactions SET category = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare category update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Category, u.ID); err != nil {
			return fmt.Errorf("failed to update category for %s: %w", u.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category updates: %w", err)
	}
	return nil
}

// UpdateAccountBalance replaces an account's running balance.
func (s *Store) UpdateAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`,
		balance.String(), accountID)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", accountID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read balance update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s not found", accountID)
	}
	return nil
}

// SetCategoryOverride records a user override for a transaction. Pass an
// empty string to clear the override.
func (s *Store) SetCategoryOverride(ctx context.Context, transactionID, category string) error {
	var override any
	if category != "" {
		override = category
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET category_override = ? WHERE id = ?`, override, transactionID)
	if err != nil {
		return fmt.Errorf("failed to set override for transaction %s: %w", transactionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read override update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s not found", transactionID)
	}
	return nil
}
