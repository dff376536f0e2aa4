// Package backup produces point-in-time consistent copies of the vault
// database. It is a consumer of the store, not part of it: the database is
// opened read-only and copied with SQLite's VACUUM INTO, which snapshots rows
// and FTS index together.
package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run copies the database at dbPath into a timestamped file under dir and
// prunes old copies down to keep. It returns the path of the new backup.
func Run(dbPath, dir string, keep int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return "", fmt.Errorf("open db: %w", err)
	}
	defer conn.Close()

	stamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(dir, fmt.Sprintf("vault_%s.db", stamp))

	if _, err := conn.Exec(`VACUUM INTO ?`, dest); err != nil {
		return "", fmt.Errorf("backup into %s: %w", dest, err)
	}

	if err := prune(dir, keep); err != nil {
		return dest, fmt.Errorf("prune backups: %w", err)
	}
	return dest, nil
}

// prune keeps only the newest n backups. Names embed a sortable timestamp,
// so lexicographic order is age order.
func prune(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var backups []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "vault_") && strings.HasSuffix(name, ".db") {
			backups = append(backups, name)
		}
	}
	sort.Strings(backups)

	for len(backups) > keep {
		old := backups[0]
		backups = backups[1:]
		if err := os.Remove(filepath.Join(dir, old)); err != nil {
			return err
		}
	}
	return nil
}
