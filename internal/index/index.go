package index

import "github.com/starford/ansuz/internal/models"

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string, links []string) error
	DeleteNote(id string) error
	GetNote(id string) (*NoteRow, error)
	GetChecksum(id string) (string, error)
	ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Outbound(id string) ([]string, error)
	Backlinks(target string) ([]string, error)
	ByTag(tag string) ([]string, error)
	Graph() ([]GraphNode, []models.LinkEdge, error)
	AllIDs() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
