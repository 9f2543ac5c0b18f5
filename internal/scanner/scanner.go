package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeno-ml/zeno.systems/fincore/internal/registry"
)

// Scanner walks a statement directory tree and finds importable files.
// Expected layout: {root}/{institution}/{account_type}/file.csv
type Scanner struct {
	rootDir string
}

// New creates a new scanner for the given root directory
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// ScanResult is one statement file with the dispatch metadata derived
// from its position in the tree.
type ScanResult struct {
	Path        string
	Institution string
	AccountType string
	// Key is the registry dispatch key for this file.
	Key string
}

// Scan walks the directory tree and finds all statement files
func (s *Scanner) Scan() ([]ScanResult, error) {
	var results []ScanResult

	rootDir := s.expandHome(s.rootDir)

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if !s.isStatementFile(path) {
			return nil
		}

		result, ok := s.extractMetadata(path, rootDir)
		if !ok {
			// File sits outside the {institution}/{account_type}
			// layout; there is nothing to dispatch on.
			return nil
		}

		results = append(results, result)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return results, nil
}

// isStatementFile checks if file is a known statement format
func (s *Scanner) isStatementFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// extractMetadata derives institution and account type from the two
// directories above the file. "robinhood/credit_card/march.csv"
// yields institution "Robinhood" and account type "credit_card".
func (s *Scanner) extractMetadata(filePath, rootDir string) (ScanResult, bool) {
	relPath, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		relPath = filePath
	}

	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) < 3 {
		return ScanResult{}, false
	}

	institution := s.readableInstitutionName(parts[0])
	accountType := parts[1]

	key, err := registry.Key(institution, accountType)
	if err != nil {
		return ScanResult{}, false
	}

	return ScanResult{
		Path:        filePath,
		Institution: institution,
		AccountType: accountType,
		Key:         key,
	}, true
}

// readableInstitutionName converts directory name to readable name
// "capital_one" -> "Capital One"
func (s *Scanner) readableInstitutionName(dirName string) string {
	name := strings.ReplaceAll(dirName, "_", " ")

	words := strings.Split(name, " ")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}

	return strings.Join(words, " ")
}

// expandHome expands ~ to home directory
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
