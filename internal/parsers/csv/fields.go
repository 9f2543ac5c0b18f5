// Package csv provides institution-specific CSV statement parsing.
package csv

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// splitFields splits one CSV line into trimmed fields, respecting double
// quotes so that quoted substrings containing commas stay in one field.
// Doubled quotes inside a quoted field decode to a literal quote. Bank
// exports embed summary prose around the tabular section, so this must not
// reject lines that a strict CSV reader would.
func splitFields(line string) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				b.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	fields = append(fields, strings.TrimSpace(b.String()))
	return fields
}

// parseMoney parses a statement money field: optional surrounding quotes,
// thousands separators, and an optional leading sign.
func parseMoney(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, `"`)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// nonBlankLines splits raw text into trimmed, non-blank lines.
func nonBlankLines(rawText string) []string {
	var lines []string
	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
