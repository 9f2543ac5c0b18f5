package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/zeno-ml/zeno.systems/fincore/internal/aggregate"
)

// WriteOptions configures how the dashboard report is written
type WriteOptions struct {
	FilePath string // Output path (empty = stdout)
}

// WriteReport serializes a dashboard to JSON with 2-space indentation
func WriteReport(report *aggregate.Dashboard, w io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report as JSON: %w", err)
	}

	return nil
}

// WriteReportToFile writes the dashboard to file or stdout based on options
func WriteReportToFile(report *aggregate.Dashboard, opts WriteOptions) (err error) {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if opts.FilePath == "" {
		return WriteReport(report, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteReport(report, f); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", opts.FilePath, err)
	}

	return nil
}

// LoadReport reads a previously written dashboard report.
func LoadReport(filePath string) (*aggregate.Dashboard, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	f, err := os.Open(filePath)
	if err != nil {
		// Return unwrapped error so caller can check os.IsNotExist
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", filePath, closeErr)
		}
	}()

	var report aggregate.Dashboard
	decoder := json.NewDecoder(f)
	if err := decoder.Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report JSON: %w", err)
	}

	return &report, nil
}
