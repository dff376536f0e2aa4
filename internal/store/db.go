// Package store provides the SQLite storage layer: the document table, the
// FTS5 index kept in lockstep with it, and the search queries that read it.
//
// FTS5 is only compiled into mattn/go-sqlite3 when the sqlite_fts5 build tag
// is set; every binary and test run needs `-tags sqlite_fts5`.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors classified by the API layer.
var (
	// ErrNotFound reports a document (or user) id that has no row.
	ErrNotFound = errors.New("not found")
	// ErrBadQuery reports an FTS5 match expression that failed to parse.
	ErrBadQuery = errors.New("invalid search query")
)

// DB wraps a SQLite connection. Reads run concurrently under WAL; writes are
// serialized by mu and each mutation applies its row change and index change
// inside one transaction.
type DB struct {
	conn *sql.DB
	mu   sync.Mutex // serialize writes
}

// Open opens or creates the database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// A second pooled connection would see a different empty :memory: database.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB for direct queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping runs a read-only probe against the store. Used by the health check;
// any error is reported as a storage failure, never retried here.
func (db *DB) Ping() error {
	var one int
	if err := db.conn.QueryRow("SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("storage probe: %w", err)
	}
	return nil
}

// timestamp returns the canonical stored form of a point in time: UTC text
// with millisecond resolution, fixed width so lexicographic order equals
// chronological order.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.000")
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			project TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			file_type TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_docs_updated ON documents(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_docs_project ON documents(project)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return db.migrateFTS()
}

// migrateFTS creates the external-content FTS5 index. When the virtual table
// is created against a documents table that already has rows (an upgrade from
// a pre-index database), the index is rebuilt from the content table so the
// one-entry-per-row invariant holds from the first query.
func (db *DB) migrateFTS() error {
	var name string
	err := db.conn.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents_fts'`,
	).Scan(&name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if _, err := db.conn.Exec(`CREATE VIRTUAL TABLE documents_fts USING fts5(
		title, content, project, tags,
		content=documents, content_rowid=id
	)`); err != nil {
		return fmt.Errorf("create fts index: %w", err)
	}
	if _, err := db.conn.Exec(`INSERT INTO documents_fts(documents_fts) VALUES ('rebuild')`); err != nil {
		return fmt.Errorf("rebuild fts index: %w", err)
	}
	return nil
}
