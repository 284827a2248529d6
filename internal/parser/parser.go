// Package parser extracts front-matter, wikilinks, and tags from Markdown content.
package parser

import (
	"regexp"
	"strings"
	"time"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// createdFormats are accepted layouts for the front-matter "created" key.
var createdFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// Result holds the output of parsing a Markdown note.
type Result struct {
	Metadata map[string]string
	Body     string
	Links    []string
	Tags     []string
	Title    string
	Created  time.Time
}

// Parse extracts front-matter, body, wikilinks, and tags from raw note bytes.
//
// Front-matter values like "status: #seed" carry tag markers that a YAML
// decoder would swallow as comments, so the header block is scanned as plain
// "key: value" lines instead of being unmarshalled.
func Parse(data []byte) (*Result, error) {
	meta, body := splitFrontmatter(string(data))

	links := extractLinks(body)
	tags := extractTags(meta)
	title := deriveTitle(meta, body)
	created := parseCreated(meta)

	return &Result{
		Metadata: meta,
		Body:     body,
		Links:    links,
		Tags:     tags,
		Title:    title,
		Created:  created,
	}, nil
}

// splitFrontmatter separates the key-value header (between leading ---
// delimiter lines) from the Markdown body. If no header is found the entire
// content is body.
func splitFrontmatter(data string) (map[string]string, string) {
	const delim = "---"
	trimmed := strings.TrimLeft(data, "\n\r")

	if !strings.HasPrefix(trimmed, delim) {
		return nil, data
	}

	rest := trimmed[len(delim):]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		// No closing delimiter; treat everything as body.
		return nil, data
	}

	header := rest[:idx]
	body := strings.TrimLeft(rest[idx+1+len(delim):], "\n\r")

	meta := make(map[string]string)
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		meta[key] = value
	}
	if len(meta) == 0 {
		return nil, data
	}
	return meta, body
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		raw := m[1]
		// Handle aliases: [[Target|Alias]] → Target.
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects #tag values from front-matter. Any key whose value
// starts with "#" contributes a tag; the vocabulary is open, but in practice
// topic_type and status are the recurring carriers.
func extractTags(meta map[string]string) []string {
	if meta == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, value := range meta {
		for _, field := range strings.Fields(value) {
			if !strings.HasPrefix(field, "#") {
				continue
			}
			tag := strings.TrimPrefix(field, "#")
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// deriveTitle returns the front-matter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(meta map[string]string, body string) string {
	if t := meta["title"]; t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// parseCreated reads the front-matter "created" key. Unparseable or absent
// values yield the zero time; callers substitute ingestion time.
func parseCreated(meta map[string]string) time.Time {
	raw := meta["created"]
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range createdFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
