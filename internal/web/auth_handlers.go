package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mdvault/mdvault/internal/auth"
	"github.com/mdvault/mdvault/internal/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin is the only unauthenticated mutation, so it sits behind the
// sliding-window limiter. Unknown user and wrong password are deliberately
// indistinguishable to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	client := clientIP(r)
	if !s.limiter.Allow(client) {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
		return
	}

	hash, err := s.db.UserHash(req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	if !auth.CheckPassword(req.Password, hash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// One success forgives all prior failures for this client.
	s.limiter.Clear(client)

	token, err := s.tokens.Issue(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// handleChangePassword lets the authenticated user replace their own
// password; changing anyone else's is forbidden.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if req.Username != currentUser(r) {
		writeError(w, http.StatusForbidden, "Cannot change another user's password")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}
	if err := s.db.SetUserHash(req.Username, hash); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
