package validate

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/dedup"
	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
)

func validTransaction() *domain.Transaction {
	tx := &domain.Transaction{
		UserID:      "user-1",
		AccountID:   "acc-1",
		Date:        "2025-03-14",
		Description: "COFFEE",
		Amount:      decimal.NewFromFloat(-5.75),
	}
	tx.Hash = dedup.TransactionFingerprint(tx)
	return tx
}

func TestBatch_AllValid(t *testing.T) {
	txs := []*domain.Transaction{validTransaction(), validTransaction()}

	result := Batch(txs)

	if len(result.Valid) != 2 {
		t.Errorf("Batch() valid count = %d, want 2", len(result.Valid))
	}
	if len(result.Issues) != 0 {
		t.Errorf("Batch() issues = %v, want none", result.Issues)
	}
}

func TestBatch_DropsInvalidRecordsOnly(t *testing.T) {
	good := validTransaction()

	badDate := validTransaction()
	badDate.Date = "03/14/2025"

	badHash := validTransaction()
	badHash.Hash = "notahash"

	result := Batch([]*domain.Transaction{badDate, good, badHash})

	if len(result.Valid) != 1 || result.Valid[0] != good {
		t.Fatalf("Batch() valid = %d records, want only the good one", len(result.Valid))
	}
	if len(result.Issues) != 2 {
		t.Fatalf("Batch() issue count = %d, want 2", len(result.Issues))
	}
	if result.Issues[0].Index != 0 || result.Issues[0].Field != "date" {
		t.Errorf("Batch() first issue = %+v, want date issue at index 0", result.Issues[0])
	}
	if result.Issues[1].Index != 2 || result.Issues[1].Field != "hash" {
		t.Errorf("Batch() second issue = %+v, want hash issue at index 2", result.Issues[1])
	}
}

func TestBatch_MultipleIssuesPerRecord(t *testing.T) {
	bad := &domain.Transaction{}

	result := Batch([]*domain.Transaction{bad})

	if len(result.Valid) != 0 {
		t.Errorf("Batch() valid count = %d, want 0", len(result.Valid))
	}
	if len(result.Issues) < 4 {
		t.Errorf("Batch() issue count = %d, want at least 4 (user, account, description, date, hash)", len(result.Issues))
	}
}

func TestIsHexDigest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid digest", strings.Repeat("ab12", 16), true},
		{"too short", "abc123", false},
		{"uppercase", strings.Repeat("AB12", 16), false},
		{"non-hex rune", strings.Repeat("zz12", 16), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHexDigest(tt.input); got != tt.want {
				t.Errorf("isHexDigest(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIssueString(t *testing.T) {
	issue := Issue{Index: 3, Field: "date", Value: "bad", Message: "invalid date format (expected YYYY-MM-DD)"}
	got := issue.String()
	if !strings.Contains(got, "record 3") || !strings.Contains(got, "date") {
		t.Errorf("Issue.String() = %q, want record index and field present", got)
	}
}
