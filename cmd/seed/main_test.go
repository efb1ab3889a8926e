package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devrel-dashboard/internal/repository"
	sqliteRepo "github.com/sakif/devrel-dashboard/internal/repository/sqlite"
)

func TestRun_LoadsSampleFixture(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dbPath := filepath.Join(t.TempDir(), "nested", "devrel.db")
	ctx := context.Background()

	require.NoError(t, run(ctx, "testdata/aggregates.json", dbPath, false))
	// A second run with --replace must not duplicate rows.
	require.NoError(t, run(ctx, "testdata/aggregates.json", dbPath, true))

	db, err := sqliteRepo.New(dbPath)
	require.NoError(t, err)
	defer db.Close()

	commits, err := db.Dashboard().MonthlyCommits(ctx, repository.DashboardScope{})
	require.NoError(t, err)
	assert.Len(t, commits, 4)

	chains, err := db.Dashboard().DevelopersByChain(ctx)
	require.NoError(t, err)
	assert.Len(t, chains, 2)
}

func TestRun_Errors(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dbPath := filepath.Join(t.TempDir(), "devrel.db")

	assert.Error(t, run(context.Background(), "testdata/missing.json", dbPath, false))
}

func TestRootCmd_RequiresFixture(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}
