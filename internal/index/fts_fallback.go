//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE scan over the notes table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	// Body and metadata are already stored in the notes table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a case-insensitive substring search over note bodies,
// titles, metadata, and tags (LIKE fallback when FTS5 is not compiled in).
// The query is matched literally; LIKE wildcards carry no special meaning.
// Titles include the file-name fallback, so a query can hit on the note id
// alone. An empty query matches every note.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`
		SELECT id, title, substr(body, 1, 200)
		FROM notes
		WHERE title LIKE ? ESCAPE '\'
		   OR body LIKE ? ESCAPE '\'
		   OR metadata LIKE ? ESCAPE '\'
		   OR tags LIKE ? ESCAPE '\'
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// escapeLike neutralises LIKE wildcards so the query matches as a literal
// substring.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
