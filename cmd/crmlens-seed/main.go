package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/crmlens/crmlens/internal/config"
	"github.com/crmlens/crmlens/internal/crm"
	"github.com/crmlens/crmlens/internal/seed"
)

func main() {
	dbPath := flag.String("db", "", "CRM DuckDB path; defaults to CRMLENS_CRM_DB_PATH")
	randomSeed := flag.Int64("seed", 42, "deterministic random seed")
	accounts := flag.Int("accounts", 0, "account count override; 0 keeps the default")
	opportunities := flag.Int("opportunities", 0, "opportunity count override; 0 keeps the default")
	flag.Parse()

	cfg, err := config.LoadFromEnv("crmlens-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	path := *dbPath
	if path == "" {
		path = cfg.CRM.DatabasePath
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "a database path is required (-db or CRMLENS_CRM_DB_PATH)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := crm.Open(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database open error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := crm.EnsureSchema(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "schema error: %v\n", err)
		os.Exit(1)
	}

	counts := seed.DefaultCounts()
	if *accounts > 0 {
		counts.Accounts = *accounts
	}
	if *opportunities > 0 {
		counts.Opportunities = *opportunities
	}

	dataset := seed.Generate(*randomSeed, counts)
	if err := seed.Apply(ctx, db, dataset); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded %s: %d accounts, %d opportunities, %d engagements, %d documents\n",
		path, len(dataset.Accounts), len(dataset.Opportunities), len(dataset.Engagements), len(dataset.Documents))
}
