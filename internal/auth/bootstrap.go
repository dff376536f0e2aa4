package auth

import (
	"errors"
	"fmt"

	"github.com/mdvault/mdvault/internal/store"
)

// EnsureAdmin reconciles the bootstrap account against the configured
// password on startup. A missing row is created; a hash that no longer
// verifies against the configured value is rehashed and updated. This and
// the authenticated change-password operation are the only credential
// update paths.
func EnsureAdmin(db *store.DB, username, password string) error {
	stored, err := db.UserHash(username)
	if errors.Is(err, store.ErrNotFound) {
		hash, err := HashPassword(password)
		if err != nil {
			return err
		}
		if err := db.CreateUser(username, hash); err != nil {
			return fmt.Errorf("bootstrap %s: %w", username, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if CheckPassword(password, stored) {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := db.SetUserHash(username, hash); err != nil {
		return fmt.Errorf("reconcile %s: %w", username, err)
	}
	return nil
}
