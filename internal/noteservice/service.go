// Package noteservice is the query façade over the vault and the derived
// indices. All reads and writes go through it; writes hold an exclusive
// section across "mutate vault, then update indices" so readers never see
// a vault/index mismatch.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Checksum  string            `json:"checksum"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Tags      []string          `json:"tags"`
	Links     []string          `json:"links"`
	Backlinks []string          `json:"backlinks"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates vault storage and index operations.
type Service struct {
	mu    sync.RWMutex
	store storage.Provider
	db    *index.DB
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

var _ index.Ingestor = (*Service)(nil)

// validateID rejects ids that cannot name a note. The vault layer catches
// traversal separately; this is the structural check that put must perform
// before touching storage.
func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty id", apperr.ErrValidation)
	}
	if !strings.HasSuffix(id, ".md") {
		return fmt.Errorf("%w: id must end with .md: %s", apperr.ErrValidation, id)
	}
	return nil
}

// GetNote reads a note from the vault, parses it, and enriches it with
// backlinks and index timestamps.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(id, data)
}

// PutNote writes a note, replacing any existing one with the same id, and
// reindexes it in the same exclusive section. Validation failures leave
// both the vault and the indices unchanged.
func (s *Service) PutNote(_ context.Context, id string, content []byte) (*NoteDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAndIndex(id, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(id, content)
}

// CreateNote writes a new note and indexes it. Creating an id that already
// exists is a conflict.
func (s *Service) CreateNote(_ context.Context, id string, content []byte) (*NoteDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Read(id); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.writeAndIndex(id, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(id, content)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, id string, content []byte, ifMatch string) (*NoteDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.writeAndIndex(id, content); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(id, content)
}

// DeleteNote removes a note from the vault and all derived indices.
// Deleting a nonexistent id is a no-op success.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(id); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return s.db.DeleteNote(id)
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			ID:        r.ID,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index. An empty query returns
// every note.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Search(query, limit)
}

// Graph returns all nodes (stub targets included) and edges.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []models.LinkEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Graph()
}

// Backlinks returns all note ids that link to the given target. The target
// may be a stub; an empty set is not an error.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Backlinks(target)
}

// Neighbors returns the union of a note's outbound links and backlinks.
// Unlike Backlinks this is an id-based lookup: a missing note is NotFound.
func (s *Service) Neighbors(_ context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.ErrNotFound
	}

	out, err := s.db.Outbound(id)
	if err != nil {
		return nil, err
	}
	in, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(out)+len(in))
	union := make([]string, 0, len(out)+len(in))
	for _, n := range append(out, in...) {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		union = append(union, n)
	}
	return union, nil
}

// FilterByTag returns all note ids carrying the given tag. Unknown tags
// yield an empty set, never an error.
func (s *Service) FilterByTag(_ context.Context, tag string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, err := s.db.ByTag(strings.TrimPrefix(tag, "#"))
	if err != nil {
		return nil, err
	}
	return nonNilSlice(ids), nil
}

// IngestFile parses data and upserts it into the indices under the write
// lock. Sync and the file watcher feed vault content through here so their
// mutations serialize with API writes.
func (s *Service) IngestFile(id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexNote(id, data)
}

// RemoveFile purges a note from the indices under the write lock. The vault
// file is assumed to be gone already (watcher- or sync-driven removal).
func (s *Service) RemoveFile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DeleteNote(id)
}

// writeAndIndex persists content and reindexes it. Callers must hold the
// write lock.
func (s *Service) writeAndIndex(id string, content []byte) error {
	if err := s.store.Write(id, content); err != nil {
		return err
	}
	return s.indexNote(id, content)
}

func (s *Service) indexNote(id string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	now := time.Now()
	created := res.Created
	if created.IsZero() {
		created = now
	}
	return s.db.UpsertNote(index.NoteRow{
		ID:        id,
		Title:     titleOrID(res.Title, id),
		Checksum:  checksum.Sum(data),
		Metadata:  res.Metadata,
		Tags:      nonNilSlice(res.Tags),
		CreatedAt: created,
		UpdatedAt: now,
	}, res.Body, res.Links)
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading
// the vault. Callers must hold at least the read lock.
func (s *Service) buildNoteDetail(id string, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(id)
	if err != nil {
		return nil, err
	}

	created := res.Created
	updated := time.Now()
	if row, err := s.db.GetNote(id); err == nil && row != nil {
		if created.IsZero() {
			created = row.CreatedAt
		}
		updated = row.UpdatedAt
	}

	return &NoteDetail{
		ID:        id,
		Title:     titleOrID(res.Title, id),
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Metadata:  res.Metadata,
		Tags:      nonNilSlice(res.Tags),
		Links:     nonNilSlice(res.Links),
		Backlinks: nonNilSlice(bl),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

// titleOrID falls back to the file name when a note has neither a title
// front-matter key nor an H1 heading.
func titleOrID(title, id string) string {
	if title != "" {
		return title
	}
	base := id
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".md")
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
