package api

import "github.com/starford/ansuz/internal/noteservice"

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// NeighborsResponse wraps the union of a note's outbound links and backlinks.
type NeighborsResponse struct {
	ID        string   `json:"id"`
	Neighbors []string `json:"neighbors"`
}

// TagResponse wraps the ids carrying a tag.
type TagResponse struct {
	Tag   string   `json:"tag"`
	Notes []string `json:"notes"`
}

// GraphNode is a node in the note graph. Stub nodes are link targets with
// no note behind them yet.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Stub  bool   `json:"stub,omitempty"`
}

// GraphEdge is an edge in the note graph.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphResponse wraps the note graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
