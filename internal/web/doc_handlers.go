package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mdvault/mdvault/internal/attach"
	"github.com/mdvault/mdvault/internal/store"
)

func docID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.db.ListDocuments()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	if docs == nil {
		docs = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, docs)
}

type createRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Project string `json:"project"`
	Tags    string `json:"tags"`
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	doc, err := s.db.CreateDocument(store.NewDocument{
		Title:   req.Title,
		Content: req.Content,
		Project: req.Project,
		Tags:    req.Tags,
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

type uploadResponse struct {
	*store.Document
	Warning string `json:"warning,omitempty"`
}

// handleUpload accepts a multipart file, commits the document row and index
// entry, then writes the blob. The blob write happens strictly after commit:
// a failure there is surfaced to the caller but does not undo the metadata.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Headroom over the blob ceiling for multipart framing; oversize payloads
	// are rejected by Accept with a clean 400 rather than a broken read.
	r.Body = http.MaxBytesReader(w, r.Body, attach.MaxFileSize+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	up, err := attach.Accept(header.Filename, data, r.FormValue("project"), r.FormValue("tags"))
	if err != nil {
		if errors.Is(err, attach.ErrRejected) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process file")
		return
	}

	doc, err := s.db.CreateDocument(store.NewDocument{
		Title:    up.Title,
		Content:  up.Content,
		Project:  up.Project,
		Tags:     up.Tags,
		FileName: up.Name,
		FileType: up.MIME,
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}

	resp := uploadResponse{Document: doc}
	if err := s.blobs.Write(doc.ID, up.Name, data); err != nil {
		log.Printf("blob write for document %d failed: %v", doc.ID, err)
		resp.Warning = "document saved but file write failed"
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document id")
		return
	}
	doc, err := s.db.GetDocument(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetDocumentFile(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document id")
		return
	}
	doc, err := s.db.GetDocument(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	if doc.FileName == "" {
		writeError(w, http.StatusNotFound, "No file attached")
		return
	}

	f, err := s.blobs.Open(doc.ID, doc.FileName)
	if err != nil {
		switch {
		case errors.Is(err, attach.ErrDenied):
			writeError(w, http.StatusForbidden, "Access denied")
		case errors.Is(err, attach.ErrMissing):
			writeError(w, http.StatusNotFound, "File not found on disk")
		default:
			writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		}
		return
	}
	defer f.Close()

	modtime := time.Time{}
	if info, err := f.Stat(); err == nil {
		modtime = info.ModTime()
	}
	w.Header().Set("Content-Type", doc.FileType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	http.ServeContent(w, r, doc.FileName, modtime, f)
}

type updateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Project *string `json:"project"`
	Tags    *string `json:"tags"`
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document id")
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title must not be empty")
		return
	}

	doc, err := s.db.UpdateDocument(id, store.Patch{
		Title:   req.Title,
		Content: req.Content,
		Project: req.Project,
		Tags:    req.Tags,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document id")
		return
	}
	fileName, err := s.db.DeleteDocument(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Document not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	// The blob is reclaimed outside the transaction; absence is fine.
	if fileName != "" {
		if err := s.blobs.Remove(id, fileName); err != nil {
			log.Printf("blob cleanup for document %d failed: %v", id, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.db.ListTags()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "Query must not be empty")
		return
	}

	results, err := s.db.Search(query, s.cfg.Search.HighlightStart, s.cfg.Search.HighlightEnd)
	if err != nil {
		if errors.Is(err, store.ErrBadQuery) {
			writeError(w, http.StatusBadRequest, "Invalid search query")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}
