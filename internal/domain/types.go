package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel is the sentinel category assigned when no rule matches
// a description and no override is present.
const UncategorizedLabel = "Uncategorized"

// DateFormat is the canonical date layout used at the store boundary.
const DateFormat = "2006-01-02"

// AccountType represents the account type enum.
// Use ValidateAccountType to ensure validity before use.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
)

var validAccountTypes = map[AccountType]struct{}{
	AccountTypeChecking: {}, AccountTypeSavings: {},
	AccountTypeCreditCard: {}, AccountTypeInvestment: {},
}

// ValidateAccountType checks if account type is valid
func ValidateAccountType(t AccountType) bool {
	_, ok := validAccountTypes[t]
	return ok
}

// Account is an external entity consumed read-only by the core, except for
// its Balance which the ingestion coordinator replaces after an import that
// carried an authoritative ending balance.
type Account struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	Institution string          `json:"institution"`
	Balance     decimal.Decimal `json:"balance"`
}

// Transaction is the canonical, hashed, persisted representation of one
// statement line.
//
// Sign convention:
//
//	Positive = money added to the account holder's position (credit/inflow)
//	Negative = money removed (debit/outflow)
//
// Parsers must normalize to this convention regardless of source file
// representation.
//
// Hash is a deterministic function of (date, description, amount, balance,
// accountId); two transactions with an identical hash are the same
// real-world event and only one may be persisted per account scope.
type Transaction struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	AccountID   string `json:"accountId"`
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
	// Amount and Balance are decimals, not floats: statement math must be
	// exact to the cent or fingerprints drift across imports.
	Amount           decimal.Decimal  `json:"amount"`
	Balance          *decimal.Decimal `json:"balance,omitempty"`
	Category         string           `json:"category"`
	CategoryOverride *string          `json:"categoryOverride,omitempty"`
	Hash             string           `json:"hash"`
}

// EffectiveCategory resolves the category used by every downstream
// aggregate: override if present, else the rule-assigned category, else
// the Uncategorized sentinel.
func (t *Transaction) EffectiveCategory() string {
	if t.CategoryOverride != nil && *t.CategoryOverride != "" {
		return *t.CategoryOverride
	}
	if t.Category != "" {
		return t.Category
	}
	return UncategorizedLabel
}

// ParsedDate returns the transaction date as a time.Time.
// Callers computing aggregates should skip records whose date fails to
// parse rather than abort.
func (t *Transaction) ParsedDate() (time.Time, error) {
	d, err := time.Parse(DateFormat, t.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid transaction date %q: %w", t.Date, err)
	}
	return d, nil
}

// NewTransaction creates a validated canonical transaction.
// ID is left empty; stores assign it at insert time.
func NewTransaction(userID, accountID, date, description string, amount decimal.Decimal, balance *decimal.Decimal) (*Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if accountID == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	if _, err := time.Parse(DateFormat, date); err != nil {
		return nil, fmt.Errorf("invalid date format: %w", err)
	}
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}

	return &Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Date:        date,
		Description: description,
		Amount:      amount,
		Balance:     balance,
	}, nil
}

// NewAccount creates a validated account
func NewAccount(id, userID, name, institution string, accountType AccountType, balance decimal.Decimal) (*Account, error) {
	if id == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("account name cannot be empty")
	}
	if !ValidateAccountType(accountType) {
		return nil, fmt.Errorf("invalid account type: %s", accountType)
	}

	return &Account{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Type:        accountType,
		Institution: institution,
		Balance:     balance,
	}, nil
}

// CategoryUpdate is one {id, newCategory} pair emitted by batch
// re-categorization. Only transactions whose recomputed category differs
// from the stored one appear in an update set.
type CategoryUpdate struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}
