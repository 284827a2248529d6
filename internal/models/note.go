// Package models defines the domain types for Ansuz.
package models

import "time"

// NoteMetadata is a lightweight representation returned by vault listings.
type NoteMetadata struct {
	ID        string    `json:"id"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkEdge is a directed edge between two notes, derived from [[wikilinks]]
// in note bodies. The target may be a stub: a slug with no note behind it yet.
type LinkEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
