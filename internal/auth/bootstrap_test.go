package auth

import (
	"testing"

	"github.com/mdvault/mdvault/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureAdminCreates(t *testing.T) {
	db := openTestDB(t)

	if err := EnsureAdmin(db, "admin", "s3cret"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	hash, err := db.UserHash("admin")
	if err != nil {
		t.Fatalf("UserHash: %v", err)
	}
	if !CheckPassword("s3cret", hash) {
		t.Error("created account does not verify against the configured password")
	}
}

func TestEnsureAdminReconciles(t *testing.T) {
	db := openTestDB(t)

	if err := EnsureAdmin(db, "admin", "old-password"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	// Config changed between restarts.
	if err := EnsureAdmin(db, "admin", "new-password"); err != nil {
		t.Fatalf("EnsureAdmin reconcile: %v", err)
	}
	hash, _ := db.UserHash("admin")
	if !CheckPassword("new-password", hash) {
		t.Error("hash not rehashed to the new password")
	}
	if CheckPassword("old-password", hash) {
		t.Error("old password still verifies")
	}
}

func TestEnsureAdminKeepsMatchingHash(t *testing.T) {
	db := openTestDB(t)

	if err := EnsureAdmin(db, "admin", "stable"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	before, _ := db.UserHash("admin")

	if err := EnsureAdmin(db, "admin", "stable"); err != nil {
		t.Fatalf("EnsureAdmin second run: %v", err)
	}
	after, _ := db.UserHash("admin")
	if before != after {
		t.Error("matching hash must not be rewritten on restart")
	}
}
