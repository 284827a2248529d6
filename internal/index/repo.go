package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	ID        string
	Title     string
	Checksum  string
	Metadata  map[string]string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Title   string
	Snippet string
}

// GraphNode is a node in the note graph. Stub nodes are link targets with
// no note behind them.
type GraphNode struct {
	ID    string
	Title string
	Stub  bool
}

// UpsertNote inserts or replaces a note, its FTS entry, its outbound links,
// and its tag memberships within a single transaction. Re-ingestion fully
// replaces the old edge set and tag buckets; created_at survives the upsert.
func (db *DB) UpsertNote(n NoteRow, body string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(nonNil(n.Tags))
	metaJSON, _ := json.Marshal(n.Metadata)

	_, err = tx.Exec(`
		INSERT INTO notes (id, title, checksum, metadata, tags, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			metadata   = excluded.metadata,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, n.ID, n.Title, n.Checksum, string(metaJSON), string(tagsJSON), body, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, n.ID, n.Title, body, string(metaJSON), n.Tags); err != nil {
		return err
	}

	// Replace outbound links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.ID)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(n.ID, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	// Replace tag memberships, purging any stale buckets.
	_, _ = tx.Exec(`DELETE FROM note_tags WHERE note_id = ?`, n.ID)
	if len(n.Tags) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO note_tags (tag, note_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for _, tag := range n.Tags {
			if _, err := stmt.Exec(tag, n.ID); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, its outbound links, and its tag
// memberships. Inbound links from other notes are left alone: their authors
// still reference the deleted id, which is now a stub target.
func (db *DB) DeleteNote(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, id)
	_, _ = tx.Exec(`DELETE FROM note_tags WHERE note_id = ?`, id)
	_, _ = tx.Exec(`DELETE FROM notes WHERE id = ?`, id)

	return tx.Commit()
}

// GetNote returns the indexed row for a note, or nil if it is not indexed.
func (db *DB) GetNote(id string) (*NoteRow, error) {
	var (
		n        NoteRow
		metaJSON string
		tagsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT id, title, checksum, metadata, tags, created_at, updated_at
		FROM notes WHERE id = ?
	`, id).Scan(&n.ID, &n.Title, &n.Checksum, &metaJSON, &tagsJSON, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	_ = json.Unmarshal([]byte(metaJSON), &n.Metadata)
	_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
	return &n, nil
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// ListNotes returns a page of notes with optional tag filter, plus the total
// count matching the filter. sort accepts "updated_at" (default, newest
// first), "title", or "id".
func (db *DB) ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var orderBy string
	switch sort {
	case "title":
		orderBy = "title ASC"
	case "id":
		orderBy = "id ASC"
	default:
		orderBy = "updated_at DESC"
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE id IN (SELECT note_id FROM note_tags WHERE tag = ?)`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, title, checksum, metadata, tags, created_at, updated_at
		FROM notes %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, orderBy)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var (
			n        NoteRow
			metaJSON string
			tagsJSON string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Checksum, &metaJSON, &tagsJSON, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(metaJSON), &n.Metadata)
		_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// Outbound returns the distinct link targets of a note. A note with no
// links, or no note at all, yields an empty set rather than an error.
func (db *DB) Outbound(id string) ([]string, error) {
	return db.edgeEnds(`SELECT target FROM links WHERE source = ?`, id, "outbound")
}

// Backlinks returns all note ids that link to the given target. The result
// is the transpose of the outbound edge set.
func (db *DB) Backlinks(target string) ([]string, error) {
	return db.edgeEnds(`SELECT source FROM links WHERE target = ?`, target, "backlinks")
}

func (db *DB) edgeEnds(query, id, op string) ([]string, error) {
	rows, err := db.conn.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("index: %s: %w", op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ByTag returns all note ids carrying the given tag. Unknown tags yield an
// empty set.
func (db *DB) ByTag(tag string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT note_id FROM note_tags WHERE tag = ?`, tag)
	if err != nil {
		return nil, fmt.Errorf("index: by tag: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Graph returns every node and edge in the compendium. Link targets with no
// note behind them appear as stub nodes so that forward references stay
// visible in the graph.
func (db *DB) Graph() ([]GraphNode, []models.LinkEdge, error) {
	var nodes []GraphNode
	rows, err := db.conn.Query(`SELECT id, title FROM notes`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer rows.Close()
	known := make(map[string]struct{})
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.Title); err != nil {
			return nil, nil, err
		}
		known[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var edges []models.LinkEdge
	erows, err := db.conn.Query(`SELECT source, target FROM links`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph edges: %w", err)
	}
	defer erows.Close()
	stubs := make(map[string]struct{})
	for erows.Next() {
		var e models.LinkEdge
		if err := erows.Scan(&e.Source, &e.Target); err != nil {
			return nil, nil, err
		}
		if _, ok := known[e.Target]; !ok {
			stubs[e.Target] = struct{}{}
		}
		edges = append(edges, e)
	}
	if err := erows.Err(); err != nil {
		return nil, nil, err
	}

	for id := range stubs {
		nodes = append(nodes, GraphNode{ID: id, Stub: true})
	}
	return nodes, edges, nil
}

// AllIDs returns every indexed note id.
func (db *DB) AllIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns a map of note id to stored checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
