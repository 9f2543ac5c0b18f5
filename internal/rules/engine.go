// Package rules provides a YAML-based rules engine for transaction
// categorization.
//
// Rules are an ordered sequence, not a mapping: precedence is
// first-match-wins across categories in configured order, then keywords in
// configured order within a category. The ordering is a visible invariant of
// the configuration format, not an accident of map iteration.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
)

//go:embed rules.yaml
var embeddedRules []byte

// CategoryRule is one ordered categorization rule: a category label, the
// keyword substrings that select it, and presentation colors carried for
// the UI layer.
type CategoryRule struct {
	Category  string   `yaml:"category"`
	Keywords  []string `yaml:"keywords"`
	Color     string   `yaml:"color"`
	TextColor string   `yaml:"text_color"`
}

// ruleSet is the top-level YAML structure
type ruleSet struct {
	Categories []CategoryRule `yaml:"categories"`
}

// Engine matches transaction descriptions against an ordered rule list.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	rules []CategoryRule
}

// NewEngine creates a rules engine from YAML data.
// Every rule must carry a non-empty category and at least one non-empty
// lowercase keyword; duplicate category labels are rejected so precedence
// stays unambiguous.
func NewEngine(rulesData []byte) (*Engine, error) {
	var rs ruleSet
	if err := yaml.Unmarshal(rulesData, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	seen := make(map[string]struct{}, len(rs.Categories))
	for i, rule := range rs.Categories {
		if strings.TrimSpace(rule.Category) == "" {
			return nil, fmt.Errorf("rule %d: category cannot be empty", i)
		}
		if _, dup := seen[rule.Category]; dup {
			return nil, fmt.Errorf("rule %d: duplicate category %q", i, rule.Category)
		}
		seen[rule.Category] = struct{}{}

		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): at least one keyword is required", i, rule.Category)
		}
		for j, kw := range rule.Keywords {
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("rule %d (%s): keyword %d is empty", i, rule.Category, j)
			}
			if kw != strings.ToLower(kw) {
				return nil, fmt.Errorf("rule %d (%s): keyword %q must be lowercase", i, rule.Category, kw)
			}
		}
	}

	rules := make([]CategoryRule, len(rs.Categories))
	copy(rules, rs.Categories)

	return &Engine{rules: rules}, nil
}

// LoadEmbedded loads the embedded rules.yaml file
func LoadEmbedded() (*Engine, error) {
	engine, err := NewEngine(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return engine, nil
}

// LoadFromFile loads rules from a filesystem path
func LoadFromFile(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	engine, err := NewEngine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return engine, nil
}

// Categorize maps a description to a category label. Categories are tried in
// configured order and, within a category, keywords in configured order; the
// first keyword that is a case-insensitive substring of the description
// wins. Returns the Uncategorized sentinel for an empty description or when
// no rule matches. Total: never fails.
func (e *Engine) Categorize(description string) string {
	if description == "" {
		return domain.UncategorizedLabel
	}

	lower := strings.ToLower(description)
	for _, rule := range e.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}

	return domain.UncategorizedLabel
}

// Recategorize recomputes the category for every transaction whose override
// is unset and returns only the {id, newCategory} pairs that differ from the
// stored category. Overridden transactions are never touched, and unchanged
// transactions are omitted from the update set.
func (e *Engine) Recategorize(txs []*domain.Transaction) []domain.CategoryUpdate {
	var updates []domain.CategoryUpdate
	for _, tx := range txs {
		if tx.CategoryOverride != nil && *tx.CategoryOverride != "" {
			continue
		}
		newCategory := e.Categorize(tx.Description)
		if newCategory != tx.Category {
			updates = append(updates, domain.CategoryUpdate{ID: tx.ID, Category: newCategory})
		}
	}
	return updates
}

// Rules returns a copy of the ordered rule list for inspection by the
// presentation layer (category names and colors).
func (e *Engine) Rules() []CategoryRule {
	result := make([]CategoryRule, len(e.rules))
	copy(result, e.rules)
	return result
}
