// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// The dashboard serves a few thousand contributor rows and a handful of
// precomputed aggregate tables. An embedded database keeps all of that in one
// file next to the binary: nothing to provision, and tests get a fresh
// database per test with ":memory:".
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the server and cmd/seed build
// with CGO_ENABLED=0 and cross-compile like any other Go program.
//
// LAYOUT:
// One *DB is opened by the process entry point and handed to the server; each
// entity gets a small store type (ContributorStore, SegmentStore, ...) that
// shares the connection pool and the squirrel statement builder. Queries are
// assembled with Masterminds/squirrel and always executed with the request
// context, so a client that hangs up cancels its query.
//
// ABSENCE:
// A Get that finds nothing returns (nil, nil) and a Delete reports whether a
// row went away. Turning absence into a 404 is the handler's call.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	// registers the "sqlite" driver with database/sql
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out per-entity stores.
type DB struct {
	conn    *sql.DB
	builder sq.StatementBuilderType
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/devrel.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database, used by tests
//
// Foreign keys are required for the cascade deletes on the segment join tables.
// For file databases the pragmas go in the DSN so that every pooled connection
// gets them. An in-memory database exists per connection, so the pool is
// pinned to a single connection.
func New(dbPath string) (*DB, error) {
	dsn := dbPath
	memory := dbPath == ":memory:"
	if !memory {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if memory {
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
		}
	}

	db := &DB{
		conn:    conn,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection; used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserStore { return &UserStore{db: db} }
func (db *DB) Contributors() *ContributorStore { return &ContributorStore{db: db} }
func (db *DB) Repositories() *RepoStore { return &RepoStore{db: db} }
func (db *DB) Segments() *SegmentStore { return &SegmentStore{db: db} }
func (db *DB) ContributorSublists() *ContributorSublistStore { return &ContributorSublistStore{db: db} }
func (db *DB) RepositorySublists() *RepositorySublistStore { return &RepositorySublistStore{db: db} }
func (db *DB) Dashboard() *DashboardStore { return &DashboardStore{db: db} }

// exec builds and runs a write statement, returning rows affected.
func (db *DB) exec(ctx context.Context, b sq.Sqlizer, what string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("sqlite: building %s query: %w", what, err)
	}
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

// query builds and runs a SELECT. The caller must close the rows.
func (db *DB) query(ctx context.Context, b sq.SelectBuilder, what string) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building %s query: %w", what, err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", what, err)
	}
	return rows, nil
}

// queryRow builds and runs a single-row SELECT.
func (db *DB) queryRow(ctx context.Context, b sq.SelectBuilder) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building query: %w", err)
	}
	return db.conn.QueryRowContext(ctx, query, args...), nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The driver exposes the SQLite message, which is stable across versions.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// migrate creates all tables. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	for i, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL UNIQUE,
		role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		github_login  TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_users_github_login ON users(github_login);`,

	`CREATE TABLE IF NOT EXISTS contributors (
		id                  TEXT PRIMARY KEY,
		github_login        TEXT NOT NULL UNIQUE,
		name                TEXT NOT NULL DEFAULT '',
		type                TEXT NOT NULL DEFAULT 'on_time',
		tenure_months       INTEGER NOT NULL DEFAULT 0,
		total_commits       INTEGER NOT NULL DEFAULT 0,
		total_pull_requests INTEGER NOT NULL DEFAULT 0,
		last_active_at      DATETIME,
		location            TEXT NOT NULL DEFAULT '',
		country             TEXT NOT NULL DEFAULT '',
		avatar_url          TEXT NOT NULL DEFAULT '',
		twitter             TEXT NOT NULL DEFAULT '',
		linkedin            TEXT NOT NULL DEFAULT '',
		website             TEXT NOT NULL DEFAULT '',
		languages           TEXT NOT NULL DEFAULT '{}',
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_contributors_name ON contributors(name);`,

	`CREATE TABLE IF NOT EXISTS repositories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		url        TEXT NOT NULL,
		owner      TEXT NOT NULL DEFAULT '',
		language   TEXT NOT NULL DEFAULT '',
		stars      INTEGER NOT NULL DEFAULT 0,
		forks      INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_repositories_name ON repositories(name);
	CREATE INDEX IF NOT EXISTS idx_repositories_url ON repositories(url);`,

	`CREATE TABLE IF NOT EXISTS segments (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id    TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_segments_owner_id ON segments(owner_id);

	CREATE TABLE IF NOT EXISTS segment_contributors (
		segment_id               TEXT NOT NULL REFERENCES segments(id) ON DELETE CASCADE,
		contributor_github_login TEXT NOT NULL,
		created_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (segment_id, contributor_github_login)
	);
	CREATE INDEX IF NOT EXISTS idx_segment_contributors_login ON segment_contributors(contributor_github_login);

	CREATE TABLE IF NOT EXISTS segment_repositories (
		segment_id     TEXT NOT NULL REFERENCES segments(id) ON DELETE CASCADE,
		repository_url TEXT NOT NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (segment_id, repository_url)
	);
	CREATE INDEX IF NOT EXISTS idx_segment_repositories_url ON segment_repositories(repository_url);`,

	`CREATE TABLE IF NOT EXISTS contributor_sublists (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		contributor_ids TEXT NOT NULL DEFAULT '[]',
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS repository_sublists (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		repository_ids TEXT NOT NULL DEFAULT '[]',
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS commits_by_dev_type (
		id        TEXT PRIMARY KEY,
		date      TEXT NOT NULL,
		full_time INTEGER NOT NULL DEFAULT 0,
		part_time INTEGER NOT NULL DEFAULT 0,
		on_time   INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_commits_by_dev_type_date ON commits_by_dev_type(date);

	CREATE TABLE IF NOT EXISTS developer_activity (
		id        TEXT PRIMARY KEY,
		date      TEXT NOT NULL,
		full_time INTEGER NOT NULL DEFAULT 0,
		part_time INTEGER NOT NULL DEFAULT 0,
		on_time   INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_developer_activity_date ON developer_activity(date);

	CREATE TABLE IF NOT EXISTS monthly_commits (
		id            TEXT PRIMARY KEY,
		date          TEXT NOT NULL,
		repository_id TEXT NOT NULL DEFAULT '',
		commits       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_monthly_commits_repo_date ON monthly_commits(repository_id, date);

	CREATE TABLE IF NOT EXISTS monthly_prs_merged (
		id            TEXT PRIMARY KEY,
		date          TEXT NOT NULL,
		repository_id TEXT NOT NULL DEFAULT '',
		merged        INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_monthly_prs_merged_repo_date ON monthly_prs_merged(repository_id, date);`,

	`CREATE TABLE IF NOT EXISTS contributor_monthly_activity (
		contributor_id TEXT NOT NULL,
		month          TEXT NOT NULL,
		commits        INTEGER NOT NULL DEFAULT 0,
		pull_requests  INTEGER NOT NULL DEFAULT 0,
		UNIQUE (contributor_id, month)
	);

	CREATE TABLE IF NOT EXISTS repository_monthly_activity (
		repository_id       TEXT NOT NULL,
		month               TEXT NOT NULL,
		commits             INTEGER NOT NULL DEFAULT 0,
		pull_requests       INTEGER NOT NULL DEFAULT 0,
		active_contributors INTEGER NOT NULL DEFAULT 0,
		total_contributors  INTEGER NOT NULL DEFAULT 0,
		UNIQUE (repository_id, month)
	);`,

	`CREATE TABLE IF NOT EXISTS developer_locations (
		id         TEXT PRIMARY KEY,
		country    TEXT NOT NULL,
		city       TEXT NOT NULL DEFAULT '',
		latitude   REAL NOT NULL DEFAULT 0,
		longitude  REAL NOT NULL DEFAULT 0,
		developers INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS developers_by_chain (
		id         TEXT PRIMARY KEY,
		chain      TEXT NOT NULL,
		developers INTEGER NOT NULL DEFAULT 0
	);`,
}
