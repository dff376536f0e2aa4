package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// The user table holds exactly one bootstrap row in practice; these accessors
// stay username-keyed so the credential service owns all policy.

// UserHash returns the stored password hash for a username, or ErrNotFound.
func (db *DB) UserHash(username string) (string, error) {
	var hash string
	err := db.conn.QueryRow(
		`SELECT password_hash FROM users WHERE username = ?`, username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("user lookup: %w", err)
	}
	return hash, nil
}

// CreateUser inserts a user row.
func (db *DB) CreateUser(username, hash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, err := db.conn.Exec(
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, hash,
	); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetUserHash replaces a user's password hash.
func (db *DB) SetUserHash(username, hash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	res, err := db.conn.Exec(
		`UPDATE users SET password_hash = ? WHERE username = ?`, hash, username,
	)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
