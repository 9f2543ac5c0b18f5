// Package firestore implements the store contract on Cloud Firestore for
// hosted deployments. Transaction documents are keyed by their fingerprint
// within the owner's scope and written create-only, so the document ID
// carries the same at-most-once-per-fingerprint guarantee the sqlite
// backend gets from its unique index.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
	"github.com/zeno-ml/zeno.systems/fincore/internal/store"
)

var _ store.Store = (*Store)(nil)

const (
	accountsCollection     = "finance-accounts"
	transactionsCollection = "finance-transactions"
)

// Store is a Firestore-backed store.
type Store struct {
	client    *firestore.Client
	projectID string
}

// NewStore creates a Firestore store using Application Default Credentials.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &Store{client: client, projectID: projectID}, nil
}

// Close closes the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

// transactionDoc is the Firestore document shape for a canonical
// transaction. Money travels as strings to keep decimal exactness.
type transactionDoc struct {
	ID               string `firestore:"id"`
	UserID           string `firestore:"userId"`
	AccountID        string `firestore:"accountId"`
	Date             string `firestore:"date"`
	Description      string `firestore:"description"`
	Amount           string `firestore:"amount"`
	Balance          string `firestore:"balance,omitempty"`
	Category         string `firestore:"category"`
	CategoryOverride string `firestore:"categoryOverride,omitempty"`
	Hash             string `firestore:"hash"`
}

type accountDoc struct {
	ID          string `firestore:"id"`
	UserID      string `firestore:"userId"`
	Name        string `firestore:"name"`
	Type        string `firestore:"type"`
	Institution string `firestore:"institution"`
	Balance     string `firestore:"balance"`
}

// docID scopes a fingerprint to its owner so two users importing the same
// statement never contend on a document.
func docID(userID, hash string) string {
	return userID + "-" + hash
}

// CreateAccount persists a new account.
func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	doc := accountDoc{
		ID:          acc.ID,
		UserID:      acc.UserID,
		Name:        acc.Name,
		Type:        string(acc.Type),
		Institution: acc.Institution,
		Balance:     acc.Balance.String(),
	}
	if _, err := s.client.Collection(accountsCollection).Doc(acc.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create account %s: %w", acc.ID, err)
	}
	return nil
}

// Accounts retrieves all accounts for a user.
func (s *Store) Accounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	iter := s.client.Collection(accountsCollection).
		Where("userId", "==", userID).
		Documents(ctx)

	var accounts []*domain.Account
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate accounts for user %s: %w", userID, err)
		}

		var raw accountDoc
		if err := doc.DataTo(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse account document: %w", err)
		}
		balance, err := decimal.NewFromString(raw.Balance)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance %q for account %s: %w", raw.Balance, raw.ID, err)
		}
		accounts = append(accounts, &domain.Account{
			ID:          raw.ID,
			UserID:      raw.UserID,
			Name:        raw.Name,
			Type:        domain.AccountType(raw.Type),
			Institution: raw.Institution,
			Balance:     balance,
		})
	}
	return accounts, nil
}

// Transactions retrieves all transactions for a user, newest first.
func (s *Store) Transactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	iter := s.client.Collection(transactionsCollection).
		Where("userId", "==", userID).
		OrderBy("date", firestore.Desc).
		Documents(ctx)

	var txs []*domain.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate transactions for user %s: %w", userID, err)
		}

		var raw transactionDoc
		if err := doc.DataTo(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse transaction document: %w", err)
		}
		tx, err := raw.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (d *transactionDoc) toDomain() (*domain.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q for transaction %s: %w", d.Amount, d.ID, err)
	}
	tx := &domain.Transaction{
		ID:          d.ID,
		UserID:      d.UserID,
		AccountID:   d.AccountID,
		Date:        d.Date,
		Description: d.Description,
		Amount:      amount,
		Category:    d.Category,
		Hash:        d.Hash,
	}
	if d.Balance != "" {
		b, err := decimal.NewFromString(d.Balance)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance %q for transaction %s: %w", d.Balance, d.ID, err)
		}
		tx.Balance = &b
	}
	if d.CategoryOverride != "" {
		override := d.CategoryOverride
		tx.CategoryOverride = &override
	}
	return tx, nil
}

// ExistingHashes returns which candidate hashes already exist for the owner.
// Fingerprint-keyed document IDs make this a direct multi-get instead of a
// query.
func (s *Store) ExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(hashes) == 0 {
		return existing, nil
	}

	refs := make([]*firestore.DocumentRef, len(hashes))
	for i, h := range hashes {
		refs[i] = s.client.Collection(transactionsCollection).Doc(docID(userID, h))
	}

	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing hashes: %w", err)
	}
	for i, snap := range snaps {
		if snap.Exists() {
			existing[hashes[i]] = struct{}{}
		}
	}
	return existing, nil
}

// InsertTransactions persists the batch create-only. A document that already
// exists (a concurrent import won the race) is skipped, not overwritten.
func (s *Store) InsertTransactions(ctx context.Context, txs []*domain.Transaction) (int, error) {
	inserted := 0
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		doc := transactionDoc{
			ID:          tx.ID,
			UserID:      tx.UserID,
			AccountID:   tx.AccountID,
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      tx.Amount.String(),
			Category:    tx.Category,
			Hash:        tx.Hash,
		}
		if tx.Balance != nil {
			doc.Balance = tx.Balance.String()
		}
		if tx.CategoryOverride != nil {
			doc.CategoryOverride = *tx.CategoryOverride
		}

		_, err := s.client.Collection(transactionsCollection).
			Doc(docID(tx.UserID, tx.Hash)).
			Create(ctx, doc)
		if status.Code(err) == codes.AlreadyExists {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to insert transaction %s: %w", tx.Hash, err)
		}
		inserted++
	}
	return inserted, nil
}

// UpdateCategories upserts the stored category by transaction ID.
func (s *Store) UpdateCategories(ctx context.Context, updates []domain.CategoryUpdate) error {
	for _, u := range updates {
		iter := s.client.Collection(transactionsCollection).
			Where("id", "==", u.ID).
			Limit(1).
			Documents(ctx)
		doc, err := iter.Next()
		if err == iterator.Done {
			return fmt.Errorf("transaction %s not found", u.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to locate transaction %s: %w", u.ID, err)
		}
		if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "category", Value: u.Category}}); err != nil {
			return fmt.Errorf("failed to update category for %s: %w", u.ID, err)
		}
	}
	return nil
}

// UpdateAccountBalance replaces an account's running balance.
func (s *Store) UpdateAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	_, err := s.client.Collection(accountsCollection).Doc(accountID).
		Update(ctx, []firestore.Update{{Path: "balance", Value: balance.String()}})
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", accountID, err)
	}
	return nil
}
