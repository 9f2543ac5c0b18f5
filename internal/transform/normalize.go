// Package transform provides normalization helpers shared by parsers,
// hashing, and aggregation: description cleaning, institution keys, and
// month bucket labels.
package transform

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// referenceToken matches the bank-internal reference IDs embedded in
// free-text descriptions (e.g., "ID:9032851"). These change between
// exports of the same transaction, so they must be stripped before
// matching or fingerprinting.
var referenceToken = regexp.MustCompile(`^ID:`)

var repeatedSpace = regexp.MustCompile(`\s+`)

// NormalizeDescription strips reference-ID tokens from a raw statement
// description, collapses repeated whitespace, and trims. Tokens that do not
// match the reference pattern are preserved verbatim, including punctuation
// and casing.
//
// Examples:
//
//	"CHECKCARD 0312 STARBUCKS ID:88213 SEATTLE" → "CHECKCARD 0312 STARBUCKS SEATTLE"
//	"  ZELLE  PAYMENT "                         → "ZELLE PAYMENT"
func NormalizeDescription(raw string) string {
	parts := strings.Split(raw, " ")
	kept := parts[:0]
	for _, part := range parts {
		if referenceToken.MatchString(part) {
			continue
		}
		kept = append(kept, part)
	}
	return strings.TrimSpace(repeatedSpace.ReplaceAllString(strings.Join(kept, " "), " "))
}

// InstitutionKey converts an institution display name to the stable
// lowercase key used for parser dispatch.
// Examples: "Bank of America" → "bank_of_america", "Robinhood" → "robinhood"
func InstitutionKey(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("institution name cannot be empty")
	}

	// Normalize unicode (e.g., accented characters)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, name)
	if err != nil {
		return "", fmt.Errorf("failed to normalize institution name %q: %w", name, err)
	}

	key := strings.ToLower(normalized)
	key = regexp.MustCompile(`[^a-z0-9]+`).ReplaceAllString(key, "_")
	key = strings.Trim(key, "_")

	if key == "" {
		return "", fmt.Errorf("institution name %q contains no alphanumeric characters", name)
	}

	return key, nil
}

// MonthLabel formats a calendar year-month bucket as a short month name
// plus four-digit year, e.g. "Mar 2025".
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}
