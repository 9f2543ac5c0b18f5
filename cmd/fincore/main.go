package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zeno-ml/zeno.systems/fincore/internal/aggregate"
	"github.com/zeno-ml/zeno.systems/fincore/internal/domain"
	"github.com/zeno-ml/zeno.systems/fincore/internal/ingest"
	"github.com/zeno-ml/zeno.systems/fincore/internal/output"
	"github.com/zeno-ml/zeno.systems/fincore/internal/registry"
	"github.com/zeno-ml/zeno.systems/fincore/internal/rules"
	"github.com/zeno-ml/zeno.systems/fincore/internal/scanner"
	"github.com/zeno-ml/zeno.systems/fincore/internal/store"
	fsstore "github.com/zeno-ml/zeno.systems/fincore/internal/store/firestore"
	"github.com/zeno-ml/zeno.systems/fincore/internal/store/sqlite"
	"github.com/zeno-ml/zeno.systems/fincore/internal/ui"
)

// backend is what the CLI needs beyond the core store contract:
// account bootstrap and shutdown. Both adapters satisfy it.
type backend interface {
	store.Store
	CreateAccount(ctx context.Context, acc *domain.Account) error
	Close() error
}

func openBackend(ctx context.Context) (backend, error) {
	if *project != "" {
		st, err := fsstore.NewStore(ctx, *project)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Firestore project %s: %w", *project, err)
		}
		return st, nil
	}
	st, err := sqlite.Open(*dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", *dbPath, err)
	}
	return st, nil
}

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Core CLI flags
	inputDir = flag.String("input", "", "Input directory containing statements (required unless -recategorize)")
	dbPath   = flag.String("db", "fincore.db", "SQLite database path")
	project  = flag.String("firestore-project", "", "Use Cloud Firestore in this project instead of SQLite")
	userID   = flag.String("user", "", "Owner identifier (required)")
	dryRun   = flag.Bool("dry-run", false, "Show what would be imported without writing")
	verbose  = flag.Bool("verbose", false, "Show detailed import logs")

	// Output flags
	reportFile = flag.String("report", "", "Dashboard report JSON file (default: stdout)")

	// Rules and maintenance flags
	rulesFile    = flag.String("rules", "", "Category rules file (default: embedded rules)")
	recategorize = flag.Bool("recategorize", false, "Re-run categorization over stored transactions and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `fincore - Personal finance statement importer

Usage:
  fincore [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Import all statements and print the dashboard
  fincore -input ~/statements -user alice

  # Import into a named database, write the report to a file
  fincore -input ~/statements -user alice -db finance.db -report dashboard.json

  # Re-apply the current rules to everything already stored
  fincore -user alice -db finance.db -recategorize

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("fincore version %s\n", version)
		os.Exit(0)
	}

	if *userID == "" {
		fmt.Fprintf(os.Stderr, "Error: -user flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if *inputDir == "" && !*recategorize {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	engine, err := loadRules()
	if err != nil {
		return err
	}

	st, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	coordinator := ingest.New(registry.Default(), engine, st)

	if *recategorize {
		return runRecategorize(ctx, coordinator)
	}

	ui.Header("Importing Financial Statements")
	ui.Step(1, 3, "Scanning directory")

	files, err := scanner.New(*inputDir).Scan()
	if err != nil {
		return fmt.Errorf("failed to scan directory %s: %w", *inputDir, err)
	}
	ui.Success(fmt.Sprintf("Found %d statement files", len(files)))

	if *verbose {
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  - %s (%s)\n", f.Path, f.Key)
		}
	}

	if *dryRun {
		fmt.Printf("Dry run complete. Would import %d files.\n", len(files))
		return nil
	}

	if len(files) == 0 {
		return fmt.Errorf("no statement files found in %s\n\nPlease check:\n  - Directory path is correct\n  - Layout is {institution}/{account_type}/file.csv\n  - You have read permissions on the directory and files", *inputDir)
	}

	ui.Step(2, 3, "Importing statements")

	totalInserted := 0
	failures := 0
	for _, f := range files {
		inserted, err := importFile(ctx, coordinator, st, f)
		if err != nil {
			failures++
			ui.Error(fmt.Sprintf("%s: %v", f.Path, err))
			continue
		}
		totalInserted += inserted
		if *verbose {
			fmt.Fprintf(os.Stderr, "  %s: %d new transactions\n", f.Path, inserted)
		}
	}
	ui.Success(fmt.Sprintf("Imported %d new transactions from %d files", totalInserted, len(files)-failures))
	if failures > 0 {
		ui.Warning(fmt.Sprintf("%d files failed to import", failures))
	}

	ui.Step(3, 3, "Building dashboard")

	accounts, err := st.Accounts(ctx, *userID)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	transactions, err := st.Transactions(ctx, *userID)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	dashboard := aggregate.BuildDashboard(accounts, transactions, time.Now())
	if err := output.WriteReportToFile(&dashboard, output.WriteOptions{FilePath: *reportFile}); err != nil {
		return err
	}
	if *reportFile != "" {
		ui.Success(fmt.Sprintf("Report written to %s", *reportFile))
	}
	return nil
}

// importFile resolves (or creates) the account backing one scanned
// statement file and runs the import.
func importFile(ctx context.Context, coordinator *ingest.Coordinator, st backend, f scanner.ScanResult) (int, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read statement: %w", err)
	}

	account, err := ensureAccount(ctx, st, f)
	if err != nil {
		return 0, err
	}

	result, err := coordinator.Import(ctx, string(raw), f.Institution, f.AccountType, account.ID, *userID)
	if err != nil {
		return 0, err
	}
	for _, warning := range result.Warnings {
		ui.Warning(warning)
	}
	return result.Inserted, nil
}

// ensureAccount finds the owner's account for this institution and
// account type, creating it with a zero balance on first sight.
func ensureAccount(ctx context.Context, st backend, f scanner.ScanResult) (*domain.Account, error) {
	accounts, err := st.Accounts(ctx, *userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, acc := range accounts {
		if strings.EqualFold(acc.Institution, f.Institution) && string(acc.Type) == f.AccountType {
			return acc, nil
		}
	}

	name := fmt.Sprintf("%s %s", f.Institution, strings.ReplaceAll(f.AccountType, "_", " "))
	account, err := domain.NewAccount(uuid.NewString(), *userID, name, f.Institution, domain.AccountType(f.AccountType), decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("failed to create account for %s: %w", f.Key, err)
	}
	if err := st.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to persist account for %s: %w", f.Key, err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "  created account %q (%s)\n", account.Name, account.ID)
	}
	return account, nil
}

func runRecategorize(ctx context.Context, coordinator *ingest.Coordinator) error {
	ui.Header("Re-applying Category Rules")
	updated, err := coordinator.Recategorize(ctx, *userID)
	if err != nil {
		return fmt.Errorf("recategorization failed: %w", err)
	}
	ui.Success(fmt.Sprintf("Updated %d transactions", updated))
	return nil
}

func loadRules() (*rules.Engine, error) {
	if *rulesFile == "" {
		engine, err := rules.LoadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded rules: %w", err)
		}
		return engine, nil
	}
	engine, err := rules.LoadFromFile(*rulesFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("rules file %s does not exist", *rulesFile)
		}
		return nil, fmt.Errorf("failed to load rules from %s: %w", *rulesFile, err)
	}
	return engine, nil
}
