package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func upsert(t *testing.T, db *DB, id string, tags []string, body string, links []string) {
	t.Helper()
	now := time.Now()
	err := db.UpsertNote(NoteRow{
		ID:        id,
		Checksum:  id + "-cs",
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}, body, links)
	if err != nil {
		t.Fatalf("UpsertNote(%s): %v", id, err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	for _, table := range []string{"notes", "links", "note_tags"} {
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetNote(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	row := NoteRow{
		ID:        "topics/clr.md",
		Title:     "CLR",
		Checksum:  "abc123",
		Metadata:  map[string]string{"status": "#seed"},
		Tags:      []string{"seed"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.UpsertNote(row, "The runtime that executes managed code.", []string{"topics/gc.md"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	got, err := db.GetNote("topics/clr.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got == nil {
		t.Fatal("GetNote returned nil for indexed note")
	}
	if got.Checksum != "abc123" {
		t.Errorf("checksum = %q", got.Checksum)
	}
	if got.Metadata["status"] != "#seed" {
		t.Errorf("metadata = %v", got.Metadata)
	}
}

func TestGetNote_Missing(t *testing.T) {
	db := testDB(t)
	got, err := db.GetNote("nope.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil row, got %+v", got)
	}
}

func TestBacklinksAreTranspose(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", nil, "body", []string{"b.md"})
	upsert(t, db, "c.md", nil, "body", []string{"b.md"})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}

	out, err := db.Outbound("a.md")
	if err != nil {
		t.Fatalf("Outbound: %v", err)
	}
	if len(out) != 1 || out[0] != "b.md" {
		t.Errorf("outbound = %v, want [b.md]", out)
	}
}

func TestDuplicateLinksCollapse(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", nil, "body", []string{"b.md", "b.md", "b.md"})

	out, _ := db.Outbound("a.md")
	if len(out) != 1 {
		t.Errorf("outbound = %v, want single edge", out)
	}
}

func TestOutbound_UnknownNoteIsEmpty(t *testing.T) {
	db := testDB(t)
	out, err := db.Outbound("ghost.md")
	if err != nil {
		t.Fatalf("Outbound: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty set, got %v", out)
	}
}

func TestDeleteNote_StubLinksSurvive(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", nil, "links to b", []string{"b.md"})
	upsert(t, db, "b.md", nil, "target", nil)

	if err := db.DeleteNote("b.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}

	// The author of a.md still references b.md; the edge becomes a stub.
	out, _ := db.Outbound("a.md")
	if len(out) != 1 || out[0] != "b.md" {
		t.Errorf("outbound = %v, want stub link [b.md] preserved", out)
	}
	row, _ := db.GetNote("b.md")
	if row != nil {
		t.Error("deleted note still indexed")
	}
}

func TestDeleteNote_PurgesEdgesAndTags(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "del.md", []string{"seed", "fundamental"}, "body", []string{"target.md"})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
	for _, tag := range []string{"seed", "fundamental"} {
		ids, _ := db.ByTag(tag)
		if len(ids) != 0 {
			t.Errorf("tag %q still has members %v after delete", tag, ids)
		}
	}
}

func TestUpsertReplacesEdgesAndTags(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "up.md", []string{"seed"}, "old body", []string{"x.md"})
	upsert(t, db, "up.md", []string{"done"}, "new body", []string{"y.md"})

	if bl, _ := db.Backlinks("x.md"); len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	if bl, _ := db.Backlinks("y.md"); len(bl) != 1 {
		t.Error("new link should exist")
	}
	if ids, _ := db.ByTag("seed"); len(ids) != 0 {
		t.Errorf("stale tag membership survives re-ingestion: %v", ids)
	}
	if ids, _ := db.ByTag("done"); len(ids) != 1 || ids[0] != "up.md" {
		t.Errorf("byTag(done) = %v", ids)
	}
}

func TestByTag_MultipleTagsOneNote(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "n.md", []string{"seed", "fundamental"}, "body", nil)

	for _, tag := range []string{"seed", "fundamental"} {
		ids, err := db.ByTag(tag)
		if err != nil {
			t.Fatalf("ByTag(%s): %v", tag, err)
		}
		if len(ids) != 1 || ids[0] != "n.md" {
			t.Errorf("ByTag(%s) = %v, want [n.md]", tag, ids)
		}
	}
}

func TestByTag_Unknown(t *testing.T) {
	db := testDB(t)
	ids, err := db.ByTag("no-such-tag")
	if err != nil {
		t.Fatalf("ByTag: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty set, got %v", ids)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestGetChecksum_DBErrorSurfaces(t *testing.T) {
	db := testDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := db.GetChecksum("any.md"); err == nil {
		t.Error("expected error from closed database, got nil")
	}
}

func TestListNotes_TagFilter(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", []string{"seed"}, "body", nil)
	upsert(t, db, "b.md", []string{"done"}, "body", nil)
	upsert(t, db, "c.md", []string{"seed"}, "body", nil)

	rows, total, err := db.ListNotes(10, 0, "seed", "id")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total = %d, len = %d, want 2", total, len(rows))
	}
	if rows[0].ID != "a.md" || rows[1].ID != "c.md" {
		t.Errorf("rows = %v", rows)
	}
}

func TestListNotes_Pagination(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", nil, "body", nil)
	upsert(t, db, "b.md", nil, "body", nil)
	upsert(t, db, "c.md", nil, "body", nil)

	rows, total, err := db.ListNotes(2, 2, "", "id")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(rows) != 1 || rows[0].ID != "c.md" {
		t.Errorf("rows = %v, want [c.md]", rows)
	}
}

func TestGraph_StubNodes(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", nil, "body", []string{"missing.md"})

	nodes, edges, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("edges = %v, want 1", edges)
	}
	var foundStub bool
	for _, n := range nodes {
		if n.ID == "missing.md" {
			if !n.Stub {
				t.Error("missing.md should be marked as stub")
			}
			foundStub = true
		}
	}
	if !foundStub {
		t.Error("stub target absent from graph nodes")
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "s.md", nil, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestSearch_EmptyQueryReturnsAll(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", nil, "alpha", nil)
	upsert(t, db, "b.md", nil, "beta", nil)

	results, err := db.Search("", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want all 2", len(results))
	}
}
