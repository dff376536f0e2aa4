package store

import (
	"fmt"
	"math/rand"
	"testing"
)

// Drives a random sequence of creates, updates, and deletes, then asks FTS5
// to verify the index against the document table. Any missed or mispaired
// synchronizer call shows up as an integrity failure.
func TestIndexStaysConsistent(t *testing.T) {
	db := openTestDB(t)
	rng := rand.New(rand.NewSource(1))

	var ids []int64
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}

	for i := 0; i < 200; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			doc, err := db.CreateDocument(NewDocument{
				Title:   fmt.Sprintf("doc %d", i),
				Content: words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))],
				Project: words[rng.Intn(len(words))],
				Tags:    words[rng.Intn(len(words))] + ", " + words[rng.Intn(len(words))],
			})
			if err != nil {
				t.Fatalf("create at step %d: %v", i, err)
			}
			ids = append(ids, doc.ID)
		case op == 1:
			id := ids[rng.Intn(len(ids))]
			next := words[rng.Intn(len(words))]
			if _, err := db.UpdateDocument(id, Patch{Content: strPtr(next)}); err != nil {
				t.Fatalf("update at step %d: %v", i, err)
			}
		default:
			j := rng.Intn(len(ids))
			if _, err := db.DeleteDocument(ids[j]); err != nil {
				t.Fatalf("delete at step %d: %v", i, err)
			}
			ids = append(ids[:j], ids[j+1:]...)
		}
	}

	if err := db.CheckIndex(); err != nil {
		t.Fatalf("index diverged from document table: %v", err)
	}
}

func TestIndexConsistentAfterTagUpdate(t *testing.T) {
	db := openTestDB(t)

	doc, err := db.CreateDocument(NewDocument{Title: "t", Content: "c", Tags: " a ,b, a "})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	// The delete-then-insert pair must reconstruct the stored tag string
	// exactly even when the input needed normalizing.
	if _, err := db.UpdateDocument(doc.ID, Patch{Tags: strPtr("c,  d")}); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if err := db.CheckIndex(); err != nil {
		t.Fatalf("index diverged after tag rewrite: %v", err)
	}
}

func TestIndexRebuildOnExistingRows(t *testing.T) {
	db := openTestDB(t)

	// Simulate a database created before the index existed: insert a row
	// behind the synchronizer's back, drop the index, and reopen migrations.
	if _, err := db.conn.Exec(`DROP TABLE documents_fts`); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if _, err := db.conn.Exec(`
		INSERT INTO documents (title, content, created_at, updated_at)
		VALUES ('legacy', 'unindexed xylophone', '2024-01-01 00:00:00.000', '2024-01-01 00:00:00.000')`,
	); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	if err := db.migrateFTS(); err != nil {
		t.Fatalf("migrateFTS: %v", err)
	}
	results, err := db.Search("xylophone", "<mark>", "</mark>")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("pre-existing row not indexed by rebuild, got %d results", len(results))
	}
}
