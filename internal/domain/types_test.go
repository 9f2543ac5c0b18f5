package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestValidateAccountType(t *testing.T) {
	tests := []struct {
		name  string
		typ   AccountType
		valid bool
	}{
		{"checking", AccountTypeChecking, true},
		{"savings", AccountTypeSavings, true},
		{"credit_card", AccountTypeCreditCard, true},
		{"investment", AccountTypeInvestment, true},
		{"empty", AccountType(""), false},
		{"unknown", AccountType("brokerage"), false},
		{"wrong case", AccountType("Checking"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAccountType(tt.typ); got != tt.valid {
				t.Errorf("ValidateAccountType(%q) = %v, want %v", tt.typ, got, tt.valid)
			}
		})
	}
}

func TestEffectiveCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		override *string
		want     string
	}{
		{"override wins over category", "Uncategorized", strPtr("Dining"), "Dining"},
		{"category when no override", "Groceries", nil, "Groceries"},
		{"empty override falls through", "Groceries", strPtr(""), "Groceries"},
		{"sentinel when nothing set", "", nil, UncategorizedLabel},
		{"override wins even over real category", "Shopping", strPtr("Travel"), "Travel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{Category: tt.category, CategoryOverride: tt.override}
			if got := tx.EffectiveCategory(); got != tt.want {
				t.Errorf("EffectiveCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTransaction(t *testing.T) {
	amount := decimal.NewFromFloat(-42.50)

	tx, err := NewTransaction("user-1", "acc-1", "2025-03-14", "COFFEE SHOP", amount, nil)
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	if tx.ID != "" {
		t.Errorf("NewTransaction() ID = %q, want empty (assigned by store)", tx.ID)
	}
	if !tx.Amount.Equal(amount) {
		t.Errorf("NewTransaction() Amount = %s, want %s", tx.Amount, amount)
	}
	if tx.CategoryOverride != nil {
		t.Error("NewTransaction() CategoryOverride should be unset")
	}

	cases := []struct {
		name                              string
		userID, accountID, date, descText string
	}{
		{"empty user", "", "acc-1", "2025-03-14", "X"},
		{"empty account", "user-1", "", "2025-03-14", "X"},
		{"bad date", "user-1", "acc-1", "03/14/2025", "X"},
		{"empty description", "user-1", "acc-1", "2025-03-14", ""},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTransaction(tt.userID, tt.accountID, tt.date, tt.descText, amount, nil); err == nil {
				t.Error("NewTransaction() expected error")
			}
		})
	}
}

func TestParsedDate(t *testing.T) {
	tx := Transaction{Date: "2025-01-31"}
	d, err := tx.ParsedDate()
	if err != nil {
		t.Fatalf("ParsedDate() error = %v", err)
	}
	if d.Year() != 2025 || d.Month() != 1 || d.Day() != 31 {
		t.Errorf("ParsedDate() = %v, want 2025-01-31", d)
	}

	bad := Transaction{Date: "31/01/2025"}
	if _, err := bad.ParsedDate(); err == nil {
		t.Error("ParsedDate() expected error for non-canonical date")
	}
}
