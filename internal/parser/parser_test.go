package parser

import (
	"testing"
	"time"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ncreated: 2025-03-10\ntopic_type: #fundamental\nstatus: #seed\nsource_link: https://example.com/clr\n---\n# CLR\nBody text with [[GC]].\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metadata["topic_type"] != "#fundamental" {
		t.Errorf("topic_type = %q", r.Metadata["topic_type"])
	}
	if r.Metadata["source_link"] != "https://example.com/clr" {
		t.Errorf("source_link = %q", r.Metadata["source_link"])
	}
	if r.Body != "# CLR\nBody text with [[GC]].\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Title != "CLR" {
		t.Errorf("title = %q, want CLR", r.Title)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metadata != nil {
		t.Errorf("expected nil metadata, got %v", r.Metadata)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_UnclosedHeaderIsBody(t *testing.T) {
	input := []byte("---\ncreated: 2025-01-01\nno closing delimiter\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metadata != nil {
		t.Error("unclosed header should not produce metadata")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_SourceLinkKeepsColons(t *testing.T) {
	input := []byte("---\nsource_link: https://host/path?a=b\n---\nbody\n")
	r, _ := Parse(input)
	if r.Metadata["source_link"] != "https://host/path?a=b" {
		t.Errorf("source_link = %q", r.Metadata["source_link"])
	}
}

func TestExtractLinks_Basic(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."
	links := extractLinks(body)
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
	if links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	links := extractLinks("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTags_FromMetadataValues(t *testing.T) {
	meta := map[string]string{
		"topic_type":  "#fundamental",
		"status":      "#seed",
		"source_link": "https://example.com",
	}
	tags := extractTags(meta)
	if len(tags) != 2 {
		t.Fatalf("tags = %v, want 2 entries", tags)
	}
	set := map[string]bool{}
	for _, tag := range tags {
		set[tag] = true
	}
	if !set["fundamental"] || !set["seed"] {
		t.Errorf("tags = %v, want fundamental and seed", tags)
	}
}

func TestExtractTags_BodyTagsIgnored(t *testing.T) {
	input := []byte("---\nstatus: #seed\n---\nbody with inline #notatag marker\n")
	r, _ := Parse(input)
	if len(r.Tags) != 1 || r.Tags[0] != "seed" {
		t.Errorf("tags = %v, want [seed]", r.Tags)
	}
}

func TestDeriveTitle_MetadataOverH1(t *testing.T) {
	meta := map[string]string{"title": "FM Title"}
	body := "# H1 Title\ntext"
	if got := deriveTitle(meta, body); got != "FM Title" {
		t.Errorf("title = %q, want FM Title", got)
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	if got := deriveTitle(nil, "some text\n# My Heading\nmore"); got != "My Heading" {
		t.Errorf("title = %q, want My Heading", got)
	}
}

func TestParseCreated(t *testing.T) {
	meta := map[string]string{"created": "2025-03-10"}
	got := parseCreated(meta)
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("created = %v, want %v", got, want)
	}
}

func TestParseCreated_Invalid(t *testing.T) {
	if got := parseCreated(map[string]string{"created": "next tuesday"}); !got.IsZero() {
		t.Errorf("expected zero time, got %v", got)
	}
}
