// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for vault file operations. Note ids are
// vault-relative paths ending in .md.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the note with the given id.
	Read(id string) ([]byte, error)
	// Write atomically writes content to the note with the given id.
	Write(id string, content []byte) error
	// Delete removes the note with the given id. Missing files surface
	// os.ErrNotExist so callers can decide whether that is an error.
	Delete(id string) error
}
