// Package web serves the vault HTTP API.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mdvault/mdvault/internal/attach"
	"github.com/mdvault/mdvault/internal/auth"
	"github.com/mdvault/mdvault/internal/config"
	"github.com/mdvault/mdvault/internal/store"
)

// Server wires the document store, attachment store, and credential service
// behind the HTTP API.
type Server struct {
	db      *store.DB
	blobs   *attach.Store
	tokens  *auth.TokenService
	limiter *auth.Limiter
	cfg     config.Config
}

// New builds a server and reconciles the bootstrap account against the
// configured admin password.
func New(cfg config.Config, db *store.DB) (*Server, error) {
	if err := auth.EnsureAdmin(db, config.DefaultAdminUser, cfg.Auth.AdminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	return &Server{
		db:      db,
		blobs:   attach.NewStore(cfg.Store.UploadDir),
		tokens:  auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryHours),
		limiter: auth.NewLimiter(cfg.Auth.LoginMaxAttempts, time.Duration(cfg.Auth.LoginWindowSecs)*time.Second),
		cfg:     cfg,
	}, nil
}

// Handler returns the routed API wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("PUT /api/auth/password", s.requireAuth(s.handleChangePassword))

	mux.HandleFunc("GET /api/docs", s.requireAuth(s.handleListDocuments))
	mux.HandleFunc("POST /api/docs", s.requireAuth(s.handleCreateDocument))
	mux.HandleFunc("POST /api/docs/upload", s.requireAuth(s.handleUpload))
	mux.HandleFunc("GET /api/docs/meta/tags", s.requireAuth(s.handleListTags))
	mux.HandleFunc("GET /api/docs/{id}", s.requireAuth(s.handleGetDocument))
	mux.HandleFunc("GET /api/docs/{id}/file", s.requireAuth(s.handleGetDocumentFile))
	mux.HandleFunc("PUT /api/docs/{id}", s.requireAuth(s.handleUpdateDocument))
	mux.HandleFunc("DELETE /api/docs/{id}", s.requireAuth(s.handleDeleteDocument))

	mux.HandleFunc("GET /api/search", s.requireAuth(s.handleSearch))

	mux.HandleFunc("GET /api/healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/system-info", s.requireAuth(s.handleSystemInfo))

	return s.cors(securityHeaders(mux))
}

// ListenAndServe runs the server on the configured address.
func (s *Server) ListenAndServe() error {
	log.Printf("mdvault listening on %s", s.cfg.Server.Addr)
	return http.ListenAndServe(s.cfg.Server.Addr, s.Handler())
}

// --- Middleware ---

type ctxKey int

const userKey ctxKey = iota

// requireAuth validates the bearer token and stores the subject in the
// request context. Expired and malformed tokens surface identically.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		username, err := s.tokens.Validate(header[len(prefix):])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, username)))
	}
}

func currentUser(r *http.Request) string {
	u, _ := r.Context().Value(userKey).(string)
	return u
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range s.cfg.Server.CORSOrigins {
			if origin == allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
				break
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// clientIP keys the login rate limiter. The address, not the username, so a
// spray across usernames from one host still accumulates.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
