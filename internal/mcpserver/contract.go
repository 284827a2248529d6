package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Ansuz Note Format Contract

Every Markdown note stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `markdown
---
created: 2024-01-15 10:30           # OPTIONAL – ISO-8601 date or datetime
topic_type: #fundamental            # OPTIONAL – one hash-tag classifying the topic
status: #seed                       # OPTIONAL – maturity: #seed, #growing or #done
source_link: https://example.com    # OPTIONAL – where the material came from
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (the target is a note id,
normally including the .md extension: [[topics/clr.md]]).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Rules

1. **Front-matter fences** are a pair of ` + "`" + `---` + "`" + ` lines, and the opening fence
   must be the very first line of the file (no leading blank lines).
2. **Front-matter lines** are plain ` + "`" + `key: value` + "`" + ` pairs, one per line. No YAML
   lists, no nesting. Unknown keys are preserved verbatim.
3. **Tags** are any front-matter values starting with ` + "`" + `#` + "`" + `. Several tags may
   share one line separated by spaces. Body hash-tags are NOT indexed.
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note.md]]` + "`" + `. A link target does
   not have to exist yet – stub links are allowed and show up in the graph.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Title** comes from a ` + "`" + `title` + "`" + ` front-matter key when present, otherwise
   from the first ` + "`" + `# Heading` + "`" + ` in the body, otherwise from the file name.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
created: 2024-03-02 18:45
topic_type: #fundamental
status: #growing
source_link: https://learn.example.com/dotnet/clr
---

# CLR

The Common Language Runtime executes managed code and provides
[[garbage-collection.md]] and [[jit-compilation.md]].
` + "```" + `
`
