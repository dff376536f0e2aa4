package store

import (
	"errors"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestCreateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	created, err := db.CreateDocument(NewDocument{
		Title:   "Meeting Notes",
		Content: "Discussed roadmap",
		Project: "acme",
		Tags:    "a, b ,b",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected a server-assigned id")
	}
	if created.CreatedAt != created.UpdatedAt {
		t.Errorf("fresh document should have created_at == updated_at")
	}

	got, err := db.GetDocument(created.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "Meeting Notes" || got.Content != "Discussed roadmap" || got.Project != "acme" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "a" || got.Tags[1] != "b" {
		t.Errorf("tags should normalize to [a b], got %v", got.Tags)
	}
}

func TestGetMissing(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetDocument(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPartialUpdate(t *testing.T) {
	db := openTestDB(t)

	created, err := db.CreateDocument(NewDocument{
		Title:   "Original",
		Content: "body",
		Project: "p1",
		Tags:    "x,y",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	time.Sleep(5 * time.Millisecond) // updated_at has millisecond resolution

	updated, err := db.UpdateDocument(created.ID, Patch{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title not updated: %q", updated.Title)
	}
	if updated.Content != "body" || updated.Project != "p1" {
		t.Errorf("unsupplied fields changed: %+v", updated)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "x" {
		t.Errorf("tags changed by unrelated update: %v", updated.Tags)
	}
	if !(updated.UpdatedAt > created.UpdatedAt) {
		t.Errorf("updated_at must advance: %q -> %q", created.UpdatedAt, updated.UpdatedAt)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("created_at must never change")
	}
}

func TestUpdateSameValueStillAdvances(t *testing.T) {
	db := openTestDB(t)

	created, err := db.CreateDocument(NewDocument{Title: "Same"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	updated, err := db.UpdateDocument(created.ID, Patch{Title: strPtr("Same")})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if !(updated.UpdatedAt > created.UpdatedAt) {
		t.Errorf("supplying a field must refresh updated_at even when unchanged")
	}
}

func TestEmptyPatchIsRead(t *testing.T) {
	db := openTestDB(t)

	created, err := db.CreateDocument(NewDocument{Title: "Stable"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	got, err := db.UpdateDocument(created.ID, Patch{})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if got.UpdatedAt != created.UpdatedAt {
		t.Errorf("zero-field update must not touch updated_at")
	}
}

func TestUpdateMissing(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.UpdateDocument(7, Patch{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrderedByUpdatedAt(t *testing.T) {
	db := openTestDB(t)

	first, _ := db.CreateDocument(NewDocument{Title: "first"})
	time.Sleep(5 * time.Millisecond)
	second, _ := db.CreateDocument(NewDocument{Title: "second"})
	time.Sleep(5 * time.Millisecond)

	// Editing the oldest bumps it to the top.
	if _, err := db.UpdateDocument(first.ID, Patch{Content: strPtr("edited")}); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}

	docs, err := db.ListDocuments()
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != first.ID || docs[1].ID != second.ID {
		t.Errorf("expected recently edited first, got order %d, %d", docs[0].ID, docs[1].ID)
	}
}

func TestDeleteReturnsFileName(t *testing.T) {
	db := openTestDB(t)

	doc, _ := db.CreateDocument(NewDocument{
		Title:    "report",
		FileName: "report.pdf",
		FileType: "application/pdf",
	})

	fileName, err := db.DeleteDocument(doc.ID)
	if err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if fileName != "report.pdf" {
		t.Errorf("expected prior file name, got %q", fileName)
	}
	if _, err := db.GetDocument(doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("document should be gone, got %v", err)
	}
}

func TestDeleteMissingLeavesStoreUnchanged(t *testing.T) {
	db := openTestDB(t)

	doc, _ := db.CreateDocument(NewDocument{Title: "keeper"})

	if _, err := db.DeleteDocument(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.GetDocument(doc.ID); err != nil {
		t.Errorf("surviving document damaged: %v", err)
	}
	n, _ := db.CountDocuments()
	if n != 1 {
		t.Errorf("expected 1 document, got %d", n)
	}
}

func TestListTags(t *testing.T) {
	db := openTestDB(t)

	db.CreateDocument(NewDocument{Title: "a", Tags: "zeta, alpha"})
	db.CreateDocument(NewDocument{Title: "b", Tags: "alpha,  beta "})
	db.CreateDocument(NewDocument{Title: "c"})

	tags, err := db.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	want := []string{"alpha", "beta", "zeta"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("expected %v, got %v", want, tags)
			break
		}
	}
}
