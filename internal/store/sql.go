package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore persists keywords, insights and structured info through database/sql.
// The same queries run on SQLite and Postgres; placeholders are rebound per dialect.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// Open opens the store for the given driver ("sqlite" or "postgres"). For sqlite
// dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteStore(ctx, dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown database driver %q", driver)
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under
	// concurrent keyword runs.
	db.SetMaxOpenConns(1)
	return initStore(ctx, db, dialectSQLite)
}

// NewPostgresStore connects to Postgres through the pgx stdlib driver and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	return initStore(ctx, db, dialectPostgres)
}

func initStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	// Verify the connection is alive.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	tsType := "DATETIME"
	if s.dialect == dialectPostgres {
		idCol = "BIGSERIAL PRIMARY KEY"
		tsType = "TIMESTAMPTZ"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS search_keywords (
			id               ` + idCol + `,
			keyword          TEXT NOT NULL UNIQUE,
			is_active        BOOLEAN NOT NULL DEFAULT TRUE,
			last_searched_at ` + tsType + `,
			created_at       ` + tsType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS insights (
			id          ` + idCol + `,
			search_word TEXT NOT NULL,
			category    TEXT NOT NULL,
			content     TEXT NOT NULL,
			source_url  TEXT NOT NULL UNIQUE,
			created_at  ` + tsType + ` NOT NULL,
			updated_at  ` + tsType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_category ON insights (category)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_search_word ON insights (search_word)`,
		`CREATE TABLE IF NOT EXISTS visa_info (
			visa_type    TEXT PRIMARY KEY,
			requirements TEXT NOT NULL,
			process      TEXT NOT NULL,
			duration     TEXT NOT NULL,
			updated_at   ` + tsType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS culture_info (
			culture_type TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			content      TEXT NOT NULL,
			tags         TEXT NOT NULL,
			source_urls  TEXT NOT NULL,
			updated_at   ` + tsType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS industry_info (
			industry_type TEXT PRIMARY KEY,
			description   TEXT NOT NULL,
			trends        TEXT NOT NULL,
			opportunities TEXT NOT NULL,
			updated_at    ` + tsType + ` NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $1..$n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
