package store

import (
	"errors"
	"strings"
	"testing"
)

func TestSearchFindsContent(t *testing.T) {
	db := openTestDB(t)

	doc, err := db.CreateDocument(NewDocument{
		Title:   "Learn Python programming",
		Content: "Python is a versatile language for scripting and data work.",
		Project: "learning",
		Tags:    "python,notes",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	db.CreateDocument(NewDocument{Title: "Grocery list", Content: "milk eggs bread"})

	results, err := db.Search("Python", "<mark>", "</mark>")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.ID != doc.ID || r.Title != "Learn Python programming" {
		t.Errorf("wrong document matched: %+v", r)
	}
	if !strings.Contains(r.Snippet, "<mark>Python</mark>") {
		t.Errorf("snippet should highlight the term, got %q", r.Snippet)
	}
	if r.Project != "learning" || len(r.Tags) != 2 {
		t.Errorf("join fields missing: %+v", r)
	}
}

func TestSearchNoMatches(t *testing.T) {
	db := openTestDB(t)

	db.CreateDocument(NewDocument{Title: "only doc", Content: "nothing relevant"})

	results, err := db.Search("quasar", "<mark>", "</mark>")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestSearchBadQuery(t *testing.T) {
	db := openTestDB(t)

	db.CreateDocument(NewDocument{Title: "x", Content: "y"})

	for _, q := range []string{`"AND OR ((`, `NOT`, `(unclosed`} {
		if _, err := db.Search(q, "<mark>", "</mark>"); !errors.Is(err, ErrBadQuery) {
			t.Errorf("query %q: expected ErrBadQuery, got %v", q, err)
		}
	}
}

func TestSearchMatchesTagsAndProject(t *testing.T) {
	db := openTestDB(t)

	db.CreateDocument(NewDocument{
		Title:   "Q3 planning",
		Content: "budget discussion",
		Project: "skunkworks",
		Tags:    "finance",
	})

	for _, q := range []string{"skunkworks", "finance"} {
		results, err := db.Search(q, "<mark>", "</mark>")
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(results) != 1 {
			t.Errorf("query %q should match via indexed column, got %d results", q, len(results))
		}
	}
}

func TestSearchReflectsUpdates(t *testing.T) {
	db := openTestDB(t)

	doc, _ := db.CreateDocument(NewDocument{Title: "draft", Content: "about kubernetes"})

	if _, err := db.UpdateDocument(doc.ID, Patch{Content: strPtr("about terraform")}); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}

	if results, _ := db.Search("kubernetes", "<mark>", "</mark>"); len(results) != 0 {
		t.Errorf("stale index entry survived the update")
	}
	if results, _ := db.Search("terraform", "<mark>", "</mark>"); len(results) != 1 {
		t.Errorf("new content not searchable after update")
	}
}

func TestSearchReflectsDeletes(t *testing.T) {
	db := openTestDB(t)

	doc, _ := db.CreateDocument(NewDocument{Title: "ephemeral", Content: "zanzibar"})
	if _, err := db.DeleteDocument(doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	if results, _ := db.Search("zanzibar", "<mark>", "</mark>"); len(results) != 0 {
		t.Errorf("deleted document still searchable")
	}
}
