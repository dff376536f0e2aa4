package store

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// maxSearchResults bounds every query; the listing UI never pages.
const maxSearchResults = 50

// snippetTokens is the approximate excerpt window around the first match.
const snippetTokens = 32

// SearchResult is one ranked match with a highlighted content snippet.
type SearchResult struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	Project string   `json:"project"`
	Tags    []string `json:"tags"`
}

// Search runs an FTS5 match over the index, joined back to the document table
// for project and tags, best match first. markStart and markEnd delimit the
// highlighted terms inside the snippet. The query string must be non-empty;
// that is the caller's validation, not this engine's. A query FTS5 cannot
// parse returns ErrBadQuery, distinct from the empty result set.
func (db *DB) Search(query, markStart, markEnd string) ([]SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT
			d.id,
			d.title,
			snippet(documents_fts, 1, ?, ?, '...', ?) AS snip,
			d.project,
			d.tags
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.rowid
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		markStart, markEnd, snippetTokens, query, maxSearchResults,
	)
	if err != nil {
		return nil, classifyQueryErr(err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var tags string
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.Project, &tags); err != nil {
			return nil, err
		}
		r.Tags = SplitTags(tags)
		results = append(results, r)
	}
	// The driver defers the first step of the statement to rows.Next, so an
	// unparseable match expression surfaces here, not from Query.
	if err := rows.Err(); err != nil {
		return nil, classifyQueryErr(err)
	}
	return results, nil
}

// classifyQueryErr separates unparseable match expressions from real storage
// failures. The only variable input to the search statement is the match
// expression, so a plain SQLITE_ERROR is an unparseable query, not a bug.
func classifyQueryErr(err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrError {
		return fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	return fmt.Errorf("search: %w", err)
}
