// Package dedup computes the content-derived transaction fingerprints used
// as the sole deduplication key. No secondary heuristic matching is
// performed: two statement lines are the same real-world event exactly when
// their fingerprints are equal.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
)

// Fingerprint creates a SHA256 hash over the five identity fields of a
// transaction, in fixed order:
//
//	SHA256("{date}|{description}|{amount}|{balance}|{accountID}")
//
// A missing balance contributes an empty-string placeholder, not "null" or
// "0". Amounts and balances are formatted with two decimal places so the
// same value always serializes identically. The result is 64 lowercase hex
// characters.
func Fingerprint(date, description string, amount decimal.Decimal, balance *decimal.Decimal, accountID string) string {
	balanceStr := ""
	if balance != nil {
		balanceStr = balance.StringFixed(2)
	}

	var b strings.Builder
	b.WriteString(date)
	b.WriteByte('|')
	b.WriteString(description)
	b.WriteByte('|')
	b.WriteString(amount.StringFixed(2))
	b.WriteByte('|')
	b.WriteString(balanceStr)
	b.WriteByte('|')
	b.WriteString(accountID)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// TransactionFingerprint computes the fingerprint for a canonical
// transaction from its own fields.
func TransactionFingerprint(tx *domain.Transaction) string {
	return Fingerprint(tx.Date, tx.Description, tx.Amount, tx.Balance, tx.AccountID)
}

// FingerprintAll fills the Hash field of every transaction in the batch.
// Each fingerprint depends only on its own record, so the batch is hashed
// concurrently. Small imports stay on a single goroutine.
func FingerprintAll(txs []*domain.Transaction) {
	const parallelThreshold = 64

	if len(txs) < parallelThreshold {
		for _, tx := range txs {
			tx.Hash = TransactionFingerprint(tx)
		}
		return
	}

	var wg sync.WaitGroup
	const workers = 4
	chunk := (len(txs) + workers - 1) / workers
	for start := 0; start < len(txs); start += chunk {
		end := start + chunk
		if end > len(txs) {
			end = len(txs)
		}
		wg.Add(1)
		go func(part []*domain.Transaction) {
			defer wg.Done()
			for _, tx := range part {
				tx.Hash = TransactionFingerprint(tx)
			}
		}(txs[start:end])
	}
	wg.Wait()
}

// FilterNew returns the transactions whose hash is not in existing,
// preserving input order. Within the batch itself, later duplicates of an
// earlier line are also dropped so a statement that repeats a row cannot
// insert it twice.
func FilterNew(txs []*domain.Transaction, existing map[string]struct{}) []*domain.Transaction {
	seen := make(map[string]struct{}, len(existing)+len(txs))
	for h := range existing {
		seen[h] = struct{}{}
	}

	fresh := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, dup := seen[tx.Hash]; dup {
			continue
		}
		seen[tx.Hash] = struct{}{}
		fresh = append(fresh, tx)
	}
	return fresh
}
