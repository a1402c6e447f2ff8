package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Banks written by the Node server (camelCase timestamps, no section
//     uniqueness)
// 1 - snake_case timestamps, UNIQUE index on sections(document_id, title)
const currentSchemaVersion = 1

// Store provides durable storage for memory bank documents.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithClock sets the time source used for created_at/updated_at stamps.
// Defaults to time.Now in UTC.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	// This also keeps a ":memory:" database alive for the Store's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Exists reports whether a store file is present at path.
// It never creates the file.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat store: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("stat store: %s is a directory", path)
	}
	return true, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", "", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// legacyTimestampColumns maps the camelCase timestamp columns of banks
// written by the earlier Node server to their current names.
var legacyTimestampColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// migrateToV1 upgrades banks written before schema versioning:
//   - camelCase createdAt/updatedAt columns are renamed and NULL stamps
//     backfilled
//   - duplicate (document_id, title) sections, left by the old unguarded
//     check-then-insert, are merged into the oldest one
//   - the UNIQUE index on sections(document_id, title) is created
//
// New databases already satisfy all three; the steps are then no-ops.
func migrateToV1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"documents", "sections", "entries"} {
		if err := renameLegacyColumns(tx, table); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	stmts := []string{
		// Entries of a duplicate section move to the oldest section with
		// the same (document_id, title).
		`UPDATE entries SET section_id = (
			SELECT MIN(keep.id) FROM sections keep
			JOIN sections dup ON dup.document_id = keep.document_id AND dup.title = keep.title
			WHERE dup.id = entries.section_id
		)
		WHERE section_id IN (SELECT id FROM sections)`,
		`DELETE FROM sections WHERE id NOT IN (
			SELECT MIN(id) FROM sections GROUP BY document_id, title
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sections_document_title_unique
		ON sections(document_id, title)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// renameLegacyColumns renames camelCase timestamp columns of table and
// fills NULL stamps, which the old schema allowed.
func renameLegacyColumns(tx *sql.Tx, table string) error {
	columns, err := tableColumns(tx, table)
	if err != nil {
		return err
	}

	for legacy, current := range legacyTimestampColumns {
		if !columns[legacy] || columns[current] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", table, legacy, current)
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("rename %s.%s: %w", table, legacy, err)
		}
		stmt = fmt.Sprintf("UPDATE %s SET %s = CURRENT_TIMESTAMP WHERE %s IS NULL", table, current, current)
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("backfill %s.%s: %w", table, current, err)
		}
	}
	return nil
}

// tableColumns returns the column names of table.
func tableColumns(tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.Query(fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", table))
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("columns of %s: %w", table, err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
