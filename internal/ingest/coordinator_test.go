package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
	"github.com/zeno-ml/zeno.systems/fincore/internal/parser"
	"github.com/zeno-ml/zeno.systems/fincore/internal/registry"
	"github.com/zeno-ml/zeno.systems/fincore/internal/rules"
)

// fakeStore is an in-memory store with per-call error injection.
type fakeStore struct {
	accounts     map[string]*domain.Account
	transactions []*domain.Transaction

	failExisting bool
	failInsert   bool
	failBalance  bool
	failUpdate   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]*domain.Account)}
}

func (f *fakeStore) Accounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, acc := range f.accounts {
		if acc.UserID == userID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (f *fakeStore) Transactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeStore) ExistingHashes(ctx context.Context, userID string, hashes []string) (map[string]struct{}, error) {
	if f.failExisting {
		return nil, errors.New("store unavailable")
	}
	existing := make(map[string]struct{})
	persisted := make(map[string]struct{})
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			persisted[tx.Hash] = struct{}{}
		}
	}
	for _, h := range hashes {
		if _, ok := persisted[h]; ok {
			existing[h] = struct{}{}
		}
	}
	return existing, nil
}

func (f *fakeStore) InsertTransactions(ctx context.Context, txs []*domain.Transaction) (int, error) {
	if f.failInsert {
		return 0, errors.New("insert rejected")
	}
	for i, tx := range txs {
		tx.ID = fmt.Sprintf("tx-%d", len(f.transactions)+i+1)
		f.transactions = append(f.transactions, tx)
	}
	return len(txs), nil
}

func (f *fakeStore) UpdateCategories(ctx context.Context, updates []domain.CategoryUpdate) error {
	if f.failUpdate {
		return errors.New("update rejected")
	}
	byID := make(map[string]*domain.Transaction, len(f.transactions))
	for _, tx := range f.transactions {
		byID[tx.ID] = tx
	}
	for _, u := range updates {
		if tx, ok := byID[u.ID]; ok {
			tx.Category = u.Category
		}
	}
	return nil
}

func (f *fakeStore) UpdateAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	if f.failBalance {
		return errors.New("balance update rejected")
	}
	acc, ok := f.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s not found", accountID)
	}
	acc.Balance = balance
	return nil
}

const bofaStatement = `Ending balance as of 03/31/2025,,"4,213.24"
Date,Description,Amount,Running Bal.
03/03/2025,"ACME CORP DES:DIR DEP ID:9912","2,500.00","6,490.14"
03/05/2025,"COMCAST CABLE COMM ID:53321",-89.99,"6,400.15"
03/10/2025,"WHOLE FOODS MARKET",-186.91,"6,213.24"
`

func newCoordinator(t *testing.T, st *fakeStore) *Coordinator {
	t.Helper()
	engine, err := rules.LoadEmbedded()
	if err != nil {
		t.Fatalf("rules.LoadEmbedded() error = %v", err)
	}
	return New(registry.Default(), engine, st)
}

func TestImport(t *testing.T) {
	st := newFakeStore()
	st.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "user-1", Type: domain.AccountTypeChecking}
	c := newCoordinator(t, st)

	result, err := c.Import(context.Background(), bofaStatement, "Bank of America", "checking", "acc-1", "user-1")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.Inserted != 3 {
		t.Errorf("Import() inserted = %d, want 3", result.Inserted)
	}
	if result.UpdatedBalance == nil || !result.UpdatedBalance.Equal(decimal.RequireFromString("4213.24")) {
		t.Errorf("Import() UpdatedBalance = %v, want 4213.24", result.UpdatedBalance)
	}
	if !st.accounts["acc-1"].Balance.Equal(decimal.RequireFromString("4213.24")) {
		t.Errorf("account balance = %s, want full replace to 4213.24", st.accounts["acc-1"].Balance)
	}

	// Categories are assigned at insert time, override left unset.
	for _, tx := range st.transactions {
		if tx.Category == "" {
			t.Errorf("transaction %q has no category", tx.Description)
		}
		if tx.CategoryOverride != nil {
			t.Errorf("transaction %q has an override at insert time", tx.Description)
		}
		if len(tx.Hash) != 64 {
			t.Errorf("transaction %q hash length = %d, want 64", tx.Description, len(tx.Hash))
		}
	}
	if st.transactions[1].Category != "Utilities" {
		t.Errorf("COMCAST categorized as %q, want Utilities", st.transactions[1].Category)
	}
}

func TestImport_Idempotent(t *testing.T) {
	st := newFakeStore()
	st.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "user-1", Type: domain.AccountTypeChecking}
	c := newCoordinator(t, st)
	ctx := context.Background()

	first, err := c.Import(ctx, bofaStatement, "Bank of America", "checking", "acc-1", "user-1")
	if err != nil {
		t.Fatalf("first Import() error = %v", err)
	}
	if first.Inserted != 3 {
		t.Fatalf("first Import() inserted = %d, want 3", first.Inserted)
	}

	// Importing the same statement again inserts nothing.
	second, err := c.Import(ctx, bofaStatement, "Bank of America", "checking", "acc-1", "user-1")
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if second.Inserted != 0 {
		t.Errorf("second Import() inserted = %d, want 0", second.Inserted)
	}
	if len(st.transactions) != 3 {
		t.Errorf("store holds %d transactions, want 3", len(st.transactions))
	}
}

func TestImport_OverlappingStatements(t *testing.T) {
	st := newFakeStore()
	st.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "user-1", Type: domain.AccountTypeChecking}
	c := newCoordinator(t, st)
	ctx := context.Background()

	if _, err := c.Import(ctx, bofaStatement, "Bank of America", "checking", "acc-1", "user-1"); err != nil {
		t.Fatalf("first Import() error = %v", err)
	}

	// Second statement shares the WHOLE FOODS row and adds one new row.
	overlapping := `Ending balance as of 04/30/2025,,"4,000.00"
Date,Description,Amount,Running Bal.
03/10/2025,"WHOLE FOODS MARKET",-186.91,"6,213.24"
04/02/2025,"SHELL OIL",-45.00,"6,168.24"
`
	result, err := c.Import(ctx, overlapping, "Bank of America", "checking", "acc-1", "user-1")
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if result.Inserted != 1 {
		t.Errorf("overlapping Import() inserted = %d, want 1", result.Inserted)
	}
	if len(st.transactions) != 4 {
		t.Errorf("store holds %d transactions, want 4 (one shared row, not two)", len(st.transactions))
	}
}

func TestImport_UnsupportedFormat(t *testing.T) {
	c := newCoordinator(t, newFakeStore())

	_, err := c.Import(context.Background(), bofaStatement, "Mystery Bank", "checking", "acc-1", "user-1")
	if err == nil {
		t.Fatal("Import() expected error for unregistered institution")
	}

	var importErr *ImportFailedError
	if !errors.As(err, &importErr) {
		t.Fatalf("Import() error type = %T, want *ImportFailedError", err)
	}
	var unsupported *parser.UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Import() error does not wrap UnsupportedFormatError: %v", err)
	}
	if unsupported.Key != "mystery_bank:checking" {
		t.Errorf("UnsupportedFormatError.Key = %q, want mystery_bank:checking", unsupported.Key)
	}
}

func TestImport_MalformedStatement(t *testing.T) {
	c := newCoordinator(t, newFakeStore())

	// Content present, but nothing recoverable from it.
	_, err := c.Import(context.Background(), "this is not a statement\nat all\n", "Bank of America", "checking", "acc-1", "user-1")
	if err == nil {
		t.Fatal("Import() expected error for unrecoverable statement")
	}
	var malformed *parser.MalformedStatementError
	if !errors.As(err, &malformed) {
		t.Fatalf("Import() error does not wrap MalformedStatementError: %v", err)
	}
}

func TestImport_BlankStatement(t *testing.T) {
	c := newCoordinator(t, newFakeStore())

	result, err := c.Import(context.Background(), "   \n\n", "Bank of America", "checking", "acc-1", "user-1")
	if err != nil {
		t.Fatalf("Import() error = %v (blank statement is an empty import, not a failure)", err)
	}
	if result.Inserted != 0 || result.UpdatedBalance != nil {
		t.Errorf("Import() = %+v, want zero inserts and no balance update", result)
	}
}

func TestImport_NoEndingBalance(t *testing.T) {
	st := newFakeStore()
	st.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "user-1", Type: domain.AccountTypeChecking, Balance: decimal.NewFromInt(77)}
	c := newCoordinator(t, st)

	raw := `Date,Description,Amount,Running Bal.
03/10/2025,"WHOLE FOODS MARKET",-186.91,"6,213.24"
`
	result, err := c.Import(context.Background(), raw, "Bank of America", "checking", "acc-1", "user-1")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.UpdatedBalance != nil {
		t.Errorf("Import() UpdatedBalance = %v, want nil when statement carries no ending balance", result.UpdatedBalance)
	}
	if !st.accounts["acc-1"].Balance.Equal(decimal.NewFromInt(77)) {
		t.Error("account balance changed without an ending balance")
	}
}

func TestImport_StageErrors(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*fakeStore)
		wantStage string
	}{
		{"dedup query fails", func(f *fakeStore) { f.failExisting = true }, "dedup"},
		{"insert fails", func(f *fakeStore) { f.failInsert = true }, "insert"},
		{"balance update fails", func(f *fakeStore) { f.failBalance = true }, "balance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			st.accounts["acc-1"] = &domain.Account{ID: "acc-1", UserID: "user-1", Type: domain.AccountTypeChecking}
			tt.configure(st)
			c := newCoordinator(t, st)

			_, err := c.Import(context.Background(), bofaStatement, "Bank of America", "checking", "acc-1", "user-1")
			if err == nil {
				t.Fatal("Import() expected error")
			}
			var importErr *ImportFailedError
			if !errors.As(err, &importErr) {
				t.Fatalf("Import() error type = %T, want *ImportFailedError", err)
			}
			if importErr.Stage != tt.wantStage {
				t.Errorf("ImportFailedError.Stage = %q, want %q", importErr.Stage, tt.wantStage)
			}
			// A balance failure happens after the insert committed: the
			// partial import must be visible to the caller.
			if tt.wantStage == "balance" && importErr.Inserted != 3 {
				t.Errorf("ImportFailedError.Inserted = %d, want 3", importErr.Inserted)
			}
		})
	}
}

func TestRecategorize(t *testing.T) {
	st := newFakeStore()
	override := "Dining"
	st.transactions = []*domain.Transaction{
		{ID: "t1", UserID: "user-1", Description: "WHOLE FOODS MARKET", Category: domain.UncategorizedLabel},
		{ID: "t2", UserID: "user-1", Description: "WHOLE FOODS MARKET", Category: "Groceries"},
		{ID: "t3", UserID: "user-1", Description: "WHOLE FOODS MARKET", Category: domain.UncategorizedLabel, CategoryOverride: &override},
		{ID: "t4", UserID: "user-2", Description: "WHOLE FOODS MARKET", Category: domain.UncategorizedLabel},
	}
	c := newCoordinator(t, st)

	updated, err := c.Recategorize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Recategorize() error = %v", err)
	}
	if updated != 1 {
		t.Errorf("Recategorize() updated = %d, want 1", updated)
	}
	if st.transactions[0].Category != "Groceries" {
		t.Errorf("t1 category = %q, want Groceries", st.transactions[0].Category)
	}
	// Overridden and other-owner rows untouched.
	if st.transactions[2].Category != domain.UncategorizedLabel {
		t.Error("overridden transaction was recategorized")
	}
	if st.transactions[3].Category != domain.UncategorizedLabel {
		t.Error("another owner's transaction was recategorized")
	}
}
