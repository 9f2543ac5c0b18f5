// Package validate performs structural checks on canonical transactions
// before they reach the store. A record that fails validation is dropped
// from the batch with a warning; it never aborts the import.
package validate

import (
	"fmt"
	"time"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
)

// Issue describes one validation finding for a record.
type Issue struct {
	Index   int    // position in the candidate batch
	Field   string
	Value   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("record %d: %s=%q: %s", i.Index, i.Field, i.Value, i.Message)
}

// Result partitions a candidate batch into records safe to persist and the
// issues found along the way.
type Result struct {
	Valid  []*domain.Transaction
	Issues []Issue
}

// Batch validates a batch of canonical transactions. Records with issues
// are excluded from Valid; the rest pass through in order.
func Batch(txs []*domain.Transaction) *Result {
	result := &Result{Valid: make([]*domain.Transaction, 0, len(txs))}

	for i, tx := range txs {
		if ok := checkTransaction(result, i, tx); ok {
			result.Valid = append(result.Valid, tx)
		}
	}
	return result
}

func checkTransaction(result *Result, i int, tx *domain.Transaction) bool {
	ok := true

	if tx.UserID == "" {
		result.Issues = append(result.Issues, Issue{i, "userId", "", "user ID cannot be empty"})
		ok = false
	}
	if tx.AccountID == "" {
		result.Issues = append(result.Issues, Issue{i, "accountId", "", "account ID cannot be empty"})
		ok = false
	}
	if tx.Description == "" {
		result.Issues = append(result.Issues, Issue{i, "description", "", "description cannot be empty"})
		ok = false
	}
	if _, err := time.Parse(domain.DateFormat, tx.Date); err != nil {
		result.Issues = append(result.Issues, Issue{i, "date", tx.Date, "invalid date format (expected YYYY-MM-DD)"})
		ok = false
	}
	if !isHexDigest(tx.Hash) {
		result.Issues = append(result.Issues, Issue{i, "hash", tx.Hash, "hash must be 64 lowercase hex characters"})
		ok = false
	}

	return ok
}

// isHexDigest reports whether s is a 64-character lowercase hex string.
func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
