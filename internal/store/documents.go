package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Document is a full row from the document table with tags materialized.
type Document struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Project   string   `json:"project"`
	Tags      []string `json:"tags"`
	FileName  string   `json:"file_name"`
	FileType  string   `json:"file_type"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// Summary is a listing row; content is deliberately excluded.
type Summary struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Project   string   `json:"project"`
	Tags      []string `json:"tags"`
	FileName  string   `json:"file_name"`
	FileType  string   `json:"file_type"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// NewDocument holds the fields of a document to create. Tags is the raw
// client value and is normalized on write. FileName and FileType are both
// set for uploads and both empty otherwise.
type NewDocument struct {
	Title    string
	Content  string
	Project  string
	Tags     string
	FileName string
	FileType string
}

// Patch holds a partial update; nil means "no change". Tags, when set, is
// normalized on write.
type Patch struct {
	Title   *string
	Content *string
	Project *string
	Tags    *string
}

func (p Patch) empty() bool {
	return p.Title == nil && p.Content == nil && p.Project == nil && p.Tags == nil
}

// CreateDocument inserts a document row and its index entry in one
// transaction.
func (db *DB) CreateDocument(doc NewDocument) (*Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := timestamp(time.Now())
	tags := NormalizeTags(doc.Tags)

	res, err := tx.Exec(`
		INSERT INTO documents (title, content, project, tags, file_name, file_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Title, doc.Content, doc.Project, tags, doc.FileName, doc.FileType, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := ftsInsert(tx, id, doc.Title, doc.Content, doc.Project, tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &Document{
		ID:        id,
		Title:     doc.Title,
		Content:   doc.Content,
		Project:   doc.Project,
		Tags:      SplitTags(tags),
		FileName:  doc.FileName,
		FileType:  doc.FileType,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetDocument returns the document with the given id, or ErrNotFound.
func (db *DB) GetDocument(id int64) (*Document, error) {
	return scanDocument(db.conn.QueryRow(`
		SELECT id, title, content, project, tags, file_name, file_type, created_at, updated_at
		FROM documents WHERE id = ?`, id))
}

// ListDocuments returns summaries of all documents ordered by updated_at
// descending. The ordering is a contract: it drives the "recently edited"
// listing in every client.
func (db *DB) ListDocuments() ([]Summary, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, project, tags, file_name, file_type, created_at, updated_at
		FROM documents ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var tags string
		if err := rows.Scan(&s.ID, &s.Title, &s.Project, &tags,
			&s.FileName, &s.FileType, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Tags = SplitTags(tags)
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateDocument applies a partial update. Unsupplied fields keep their prior
// values; updated_at is refreshed whenever at least one field is supplied,
// even if its value did not change. An empty patch is a plain read. The row
// change and the index delete-then-reinsert commit together or not at all.
func (db *DB) UpdateDocument(id int64, p Patch) (*Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	old, err := getDocumentTx(tx, id)
	if err != nil {
		return nil, err
	}
	if p.empty() {
		return old, tx.Commit()
	}

	next := *old
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Content != nil {
		next.Content = *p.Content
	}
	if p.Project != nil {
		next.Project = *p.Project
	}
	tags := JoinTags(old.Tags)
	if p.Tags != nil {
		tags = NormalizeTags(*p.Tags)
		next.Tags = SplitTags(tags)
	}
	next.UpdatedAt = timestamp(time.Now())

	if _, err := tx.Exec(`
		UPDATE documents SET title = ?, content = ?, project = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		next.Title, next.Content, next.Project, tags, next.UpdatedAt, id,
	); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if err := ftsDelete(tx, old); err != nil {
		return nil, err
	}
	if err := ftsInsert(tx, id, next.Title, next.Content, next.Project, tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &next, nil
}

// DeleteDocument removes the row and its index entry atomically and returns
// the prior file name (empty when no attachment) so the caller can reclaim
// the blob outside the transaction.
func (db *DB) DeleteDocument(id int64) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	old, err := getDocumentTx(tx, id)
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("delete document: %w", err)
	}
	if err := ftsDelete(tx, old); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return old.FileName, nil
}

// ListTags returns every distinct tag across all documents, sorted.
func (db *DB) ListTags() ([]string, error) {
	rows, err := db.conn.Query(`SELECT tags FROM documents WHERE tags != ''`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var stored string
		if err := rows.Scan(&stored); err != nil {
			return nil, err
		}
		for _, t := range SplitTags(stored) {
			seen[t] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// CountDocuments returns the number of document rows.
func (db *DB) CountDocuments() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var tags string
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.Project, &tags,
		&d.FileName, &d.FileType, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.Tags = SplitTags(tags)
	return &d, nil
}

func getDocumentTx(tx *sql.Tx, id int64) (*Document, error) {
	return scanDocument(tx.QueryRow(`
		SELECT id, title, content, project, tags, file_name, file_type, created_at, updated_at
		FROM documents WHERE id = ?`, id))
}
