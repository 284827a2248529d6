package noteservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestVault(t)
	return NewService(store, testutil.TestDB(t))
}

func mustPut(t *testing.T, svc *Service, id, content string) {
	t.Helper()
	if _, err := svc.PutNote(context.Background(), id, []byte(content)); err != nil {
		t.Fatalf("PutNote(%s): %v", id, err)
	}
}

func TestPutAndGet(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "topics/clr.md", "---\ncreated: 2025-03-10\nstatus: #seed\n---\n# CLR\nSee [[topics/gc.md]].")

	note, err := svc.GetNote(ctx, "topics/clr.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if note.Title != "CLR" {
		t.Errorf("title = %q", note.Title)
	}
	if len(note.Links) != 1 || note.Links[0] != "topics/gc.md" {
		t.Errorf("links = %v", note.Links)
	}
	if len(note.Tags) != 1 || note.Tags[0] != "seed" {
		t.Errorf("tags = %v", note.Tags)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := testService(t)
	_, err := svc.GetNote(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPut_ValidationLeavesStoreUnchanged(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for _, id := range []string{"", "   ", "note.txt"} {
		if _, err := svc.PutNote(ctx, id, []byte("body")); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("PutNote(%q) err = %v, want ErrValidation", id, err)
		}
	}

	if _, total, _ := svc.ListNotes(ctx, 0, 0, "", ""); total != 0 {
		t.Errorf("store changed by invalid put: total = %d", total)
	}
}

func TestPut_ReplacesNotMerges(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "a.md", "links [[x.md]] and [[y.md]]")
	mustPut(t, svc, "a.md", "links [[z.md]] only")

	for _, old := range []string{"x.md", "y.md"} {
		bl, _ := svc.Backlinks(ctx, old)
		if len(bl) != 0 {
			t.Errorf("stale edge to %s survived re-ingestion", old)
		}
	}
	bl, _ := svc.Backlinks(ctx, "z.md")
	if len(bl) != 1 || bl[0] != "a.md" {
		t.Errorf("backlinks(z.md) = %v", bl)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "d.md", "bye")
	if err := svc.DeleteNote(ctx, "d.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	// Deleting again, and deleting something that never existed, both succeed.
	if err := svc.DeleteNote(ctx, "d.md"); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if err := svc.DeleteNote(ctx, "never.md"); err != nil {
		t.Errorf("delete of nonexistent id: %v", err)
	}
}

func TestDelete_StubLinkScenario(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "A.md", "references [[B.md]]")
	mustPut(t, svc, "B.md", "no links here")

	out, _ := svc.Neighbors(ctx, "A.md")
	if len(out) != 1 || out[0] != "B.md" {
		t.Fatalf("neighbors(A) = %v, want [B.md]", out)
	}
	in, _ := svc.Backlinks(ctx, "B.md")
	if len(in) != 1 || in[0] != "A.md" {
		t.Fatalf("backlinks(B) = %v, want [A.md]", in)
	}

	if err := svc.DeleteNote(ctx, "B.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}

	// A's authored link survives as a stub...
	out, _ = svc.Neighbors(ctx, "A.md")
	if len(out) != 1 || out[0] != "B.md" {
		t.Errorf("neighbors(A) after delete = %v, want stub [B.md]", out)
	}
	// ...but B itself is gone.
	if _, err := svc.GetNote(ctx, "B.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetNote(B) err = %v, want ErrNotFound", err)
	}
}

func TestNeighbors_UnionAndNotFound(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "hub.md", "links [[spoke.md]]")
	mustPut(t, svc, "spoke.md", "links back [[hub.md]]")

	n, err := svc.Neighbors(ctx, "hub.md")
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(n) != 1 || n[0] != "spoke.md" {
		t.Errorf("neighbors = %v, want deduplicated [spoke.md]", n)
	}

	if _, err := svc.Neighbors(ctx, "ghost.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for missing id", err)
	}
}

func TestFilterByTag_StatusChangeScenario(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "n.md", "---\nstatus: #seed\ntopic_type: #fundamental\n---\nbody")

	for _, tag := range []string{"seed", "fundamental"} {
		ids, err := svc.FilterByTag(ctx, tag)
		if err != nil {
			t.Fatalf("FilterByTag(%s): %v", tag, err)
		}
		if len(ids) != 1 || ids[0] != "n.md" {
			t.Errorf("filter(%s) = %v, want [n.md]", tag, ids)
		}
	}

	// Re-ingest with status flipped to #done.
	mustPut(t, svc, "n.md", "---\nstatus: #done\ntopic_type: #fundamental\n---\nbody")

	if ids, _ := svc.FilterByTag(ctx, "seed"); len(ids) != 0 {
		t.Errorf("filter(seed) after status change = %v, want empty", ids)
	}
	if ids, _ := svc.FilterByTag(ctx, "done"); len(ids) != 1 {
		t.Errorf("filter(done) = %v, want [n.md]", ids)
	}
}

func TestFilterByTag_HashPrefixAccepted(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "n.md", "---\nstatus: #seed\n---\nbody")

	ids, _ := svc.FilterByTag(ctx, "#seed")
	if len(ids) != 1 {
		t.Errorf("filter(#seed) = %v, want [n.md]", ids)
	}
}

func TestIngestAndRemoveFile(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	err := svc.IngestFile("w.md", []byte("---\nstatus: #seed\n---\nsee [[x.md]]"))
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	ids, err := svc.FilterByTag(ctx, "seed")
	if err != nil {
		t.Fatalf("FilterByTag: %v", err)
	}
	if len(ids) != 1 || ids[0] != "w.md" {
		t.Errorf("filter(seed) = %v, want [w.md]", ids)
	}
	bl, _ := svc.Backlinks(ctx, "x.md")
	if len(bl) != 1 || bl[0] != "w.md" {
		t.Errorf("backlinks(x.md) = %v, want [w.md]", bl)
	}

	if err := svc.RemoveFile("w.md"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	ids, _ = svc.FilterByTag(ctx, "seed")
	if len(ids) != 0 {
		t.Errorf("tag bucket survived removal: %v", ids)
	}
	bl, _ = svc.Backlinks(ctx, "x.md")
	if len(bl) != 0 {
		t.Errorf("backlinks survived removal: %v", bl)
	}
}

func TestSearch_EmptyQueryReturnsAll(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "a.md", "alpha content")
	mustPut(t, svc, "b.md", "beta content")

	results, err := svc.Search(ctx, "", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("search(\"\") = %d results, want 2", len(results))
	}
}

func TestCreate_Conflict(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "c.md", []byte("first")); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if _, err := svc.CreateNote(ctx, "c.md", []byte("second")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdate_ChecksumMismatch(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	mustPut(t, svc, "u.md", "v1")
	if _, err := svc.UpdateNote(ctx, "u.md", []byte("v2"), "wrong-checksum"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}
