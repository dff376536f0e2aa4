package store

import (
	"database/sql"
	"fmt"
)

// Index synchronizer. The FTS5 table is external-content (the token index
// references the documents table for its text), so it cannot be edited in
// place: entries are appended on insert and tombstoned with the FTS5 'delete'
// command, which needs the pre-mutation field values. Every caller runs these
// statements inside the same transaction as the row change; the database has
// no triggers, the pairing is explicit so it can be audited and tested.
//
// The protocol:
//   - row insert  -> ftsInsert with the new values
//   - row update  -> ftsDelete with the old values, then ftsInsert with the new
//   - row delete  -> ftsDelete with the old values

func ftsInsert(tx *sql.Tx, id int64, title, content, project, tags string) error {
	if _, err := tx.Exec(`
		INSERT INTO documents_fts(rowid, title, content, project, tags)
		VALUES (?, ?, ?, ?, ?)`,
		id, title, content, project, tags,
	); err != nil {
		return fmt.Errorf("index insert: %w", err)
	}
	return nil
}

// ftsDelete removes the index entry for a document. The values must match
// the entry byte-for-byte; they do, because old was read inside the same
// transaction and tags round-trip through JoinTags unchanged.
func ftsDelete(tx *sql.Tx, old *Document) error {
	if _, err := tx.Exec(`
		INSERT INTO documents_fts(documents_fts, rowid, title, content, project, tags)
		VALUES ('delete', ?, ?, ?, ?, ?)`,
		old.ID, old.Title, old.Content, old.Project, JoinTags(old.Tags),
	); err != nil {
		return fmt.Errorf("index delete: %w", err)
	}
	return nil
}

// CheckIndex asks FTS5 to verify the index against the content table
// (rank=1 extends the check to external content). It returns an error if any
// entry diverges from its document row.
func (db *DB) CheckIndex() error {
	if _, err := db.conn.Exec(
		`INSERT INTO documents_fts(documents_fts, rank) VALUES ('integrity-check', 1)`,
	); err != nil {
		return fmt.Errorf("index integrity: %w", err)
	}
	return nil
}
