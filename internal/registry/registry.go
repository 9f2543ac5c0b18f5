// Package registry maps institution + account-type dispatch keys to
// statement parsers. New institutions are supported by registering a new
// parser implementation, never by branching inside a shared function.
package registry

import (
	"fmt"

	"github.com/zeno-ml/zeno.systems/fincore/internal/parser"
	"github.com/zeno-ml/zeno.systems/fincore/internal/parsers/csv"
	"github.com/zeno-ml/zeno.systems/fincore/internal/transform"
)

// Key builds the dispatch key for an institution + account-type pair.
// The institution may be a display name ("Bank of America") or an already
// normalized key; both resolve to the same parser.
func Key(institution, accountType string) (string, error) {
	instKey, err := transform.InstitutionKey(institution)
	if err != nil {
		return "", fmt.Errorf("invalid institution: %w", err)
	}
	if accountType == "" {
		return "", fmt.Errorf("account type cannot be empty")
	}
	return instKey + ":" + accountType, nil
}

// Registry holds registered parsers keyed by institution:accountType.
type Registry struct {
	parsers map[string]parser.Parser
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{parsers: make(map[string]parser.Parser)}
}

// Default returns a registry with all built-in parsers registered.
func Default() *Registry {
	r := New()
	r.Register("bank_of_america", "checking", csv.NewBankOfAmericaParser())
	r.Register("robinhood", "credit_card", csv.NewRobinhoodParser())
	return r
}

// Register adds a parser under institution:accountType.
// Panics on a duplicate key: double registration is a programming error.
func (r *Registry) Register(institution, accountType string, p parser.Parser) {
	key, err := Key(institution, accountType)
	if err != nil {
		panic("registry: " + err.Error())
	}
	if _, exists := r.parsers[key]; exists {
		panic("registry: duplicate parser key " + key)
	}
	r.parsers[key] = p
}

// Lookup returns the parser for the institution + account-type pair, or an
// UnsupportedFormatError naming the key when none is registered.
func (r *Registry) Lookup(institution, accountType string) (parser.Parser, error) {
	key, err := Key(institution, accountType)
	if err != nil {
		return nil, err
	}
	p, ok := r.parsers[key]
	if !ok {
		return nil, &parser.UnsupportedFormatError{Key: key}
	}
	return p, nil
}

// Keys returns all registered dispatch keys.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		keys = append(keys, k)
	}
	return keys
}
