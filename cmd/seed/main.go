// Command seed loads precomputed dashboard aggregates from a JSON fixture
// into the database the API server reads.
//
//	go run ./cmd/seed --replace cmd/seed/testdata/aggregates.json
//
// DB_PATH and LOG_LEVEL come from the environment or .env, as for the server;
// --db overrides the path.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/devrel-dashboard/internal/config"
	sqliteRepo "github.com/sakif/devrel-dashboard/internal/repository/sqlite"
	"github.com/sakif/devrel-dashboard/internal/seed"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbPath  string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "seed <fixture.json>",
		Short: "Load dashboard aggregates from a JSON fixture",
		Long: `Load precomputed dashboard aggregates into the SQLite database.

The fixture is a JSON object keyed by table: commitsByDevType, developerActivity,
monthlyCommits, monthlyPrsMerged, contributorActivity, repositoryActivity,
developerLocations, developersByChain. Every key is optional; rows are loaded
exactly as given.

Examples:
  # Append rows to the configured database
  seed aggregates.json

  # Replace every aggregate table
  seed --replace aggregates.json

  # Read the fixture from stdin
  cat aggregates.json | seed -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], dbPath, replace)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: DB_PATH)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Empty every aggregate table before loading")
	return cmd
}

func run(ctx context.Context, fixturePath, dbPath string, replace bool) error {
	sc, err := config.LoadStore(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return err
	}
	if dbPath != "" {
		sc.DBPath = dbPath
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: sc.LogLevel}))

	in := os.Stdin
	if fixturePath != "-" {
		f, err := os.Open(fixturePath)
		if err != nil {
			logger.Error("failed to open fixture", slog.String("path", fixturePath), slog.String("error", err.Error()))
			return err
		}
		defer f.Close()
		in = f
	}
	fixture, err := seed.Decode(in)
	if err != nil {
		logger.Error("invalid fixture", slog.String("path", fixturePath), slog.String("error", err.Error()))
		return err
	}

	if sc.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(sc.DBPath), 0o755); err != nil {
			logger.Error("failed to create database directory", slog.String("path", sc.DBPath), slog.String("error", err.Error()))
			return err
		}
	}
	db, err := sqliteRepo.New(sc.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("path", sc.DBPath), slog.String("error", err.Error()))
		return err
	}
	defer db.Close()

	counts, err := seed.Apply(ctx, db.Dashboard(), fixture, replace, logger)
	if err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(os.Stdout, "loaded %d rows into %d tables (%s)\n", total, len(counts), sc.DBPath)
	return nil
}
