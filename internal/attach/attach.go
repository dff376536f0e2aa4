// Package attach maps documents to on-disk blobs. Filenames are sanitized to
// bare base names, extensions are allow-listed, and every retrieval
// re-resolves the blob path and verifies it is still contained in the
// configured root before any byte is returned.
package attach

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the upload ceiling.
const MaxFileSize = 50 << 20 // 50 MiB

var (
	// ErrRejected reports a disallowed extension or an oversize payload.
	ErrRejected = errors.New("file rejected")
	// ErrDenied reports a blob path that resolves outside the root.
	ErrDenied = errors.New("access denied")
	// ErrMissing reports a blob absent from disk.
	ErrMissing = errors.New("file not found")
)

// allowedExtensions covers common document, spreadsheet, presentation,
// markup, and image formats.
var allowedExtensions = map[string]bool{
	".md": true, ".txt": true, ".pdf": true,
	".doc": true, ".docx": true,
	".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".csv": true, ".json": true,
	".yaml": true, ".yml": true,
	".xml": true, ".html": true, ".htm": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".drawio": true,
}

// textExtensions is the subset whose content is decoded and indexed.
var textExtensions = map[string]bool{
	".md": true, ".txt": true, ".csv": true, ".json": true,
	".yaml": true, ".yml": true, ".xml": true,
	".html": true, ".htm": true, ".drawio": true,
}

// Upload describes an accepted file: the sanitized name plus the document
// fields derived from it. Content is empty for binary types; the payload
// itself lives only in the blob.
type Upload struct {
	Name    string
	Title   string
	Content string
	MIME    string
	Project string
	Tags    string
}

// Accept validates and describes an upload. The filename is reduced to its
// base name before any other use, so directory components in crafted names
// never reach the filesystem. Text-like content is decoded as UTF-8 with
// invalid sequences replaced; decoding never fails, a garbled payload just
// indexes as replacement runes. Markdown may override title/tags/project via
// YAML frontmatter.
func Accept(filename string, data []byte, project, tags string) (*Upload, error) {
	name := sanitize(filename)
	if name == "" {
		return nil, fmt.Errorf("%w: empty filename", ErrRejected)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: file type %s not supported", ErrRejected, ext)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: file too large (max 50MB)", ErrRejected)
	}

	up := &Upload{
		Name:    name,
		Title:   strings.TrimSuffix(name, ext),
		MIME:    mimeType(ext),
		Project: project,
		Tags:    tags,
	}

	if textExtensions[ext] {
		up.Content = strings.ToValidUTF8(string(data), "�")
		if ext == ".md" {
			applyFrontmatter(up)
		}
	}
	return up, nil
}

// sanitize strips directory components from an untrusted filename.
// Backslashes are treated as separators too, so Windows-style traversal
// ("..\\..\\x") cannot survive on a POSIX host.
func sanitize(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func mimeType(ext string) string {
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// Store owns the flat attachment directory. Blob paths are derived
// deterministically from the document id and sanitized filename.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) blobPath(docID int64, name string) string {
	return filepath.Join(s.root, fmt.Sprintf("%d_%s", docID, name))
}

// Write persists the blob. Callers invoke this strictly after the owning
// document transaction commits; a failure here leaves valid metadata with a
// missing blob, which retrieval reports as ErrMissing.
func (s *Store) Write(docID int64, name string, data []byte) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(s.blobPath(docID, name), data, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// Open resolves the blob to its canonical absolute path, verifies that path
// is still contained in the root, and opens it. An escape is ErrDenied, not
// ErrMissing; both surface to clients without detail.
func (s *Store) Open(docID int64, name string) (*os.File, error) {
	root, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}

	real, err := filepath.EvalSymlinks(s.blobPath(docID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("resolve blob: %w", err)
	}

	if real != root && !strings.HasPrefix(real, root+string(filepath.Separator)) {
		return nil, ErrDenied
	}

	f, err := os.Open(real)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Remove deletes the blob, best effort. Already missing is a valid terminal
// state, not an error.
func (s *Store) Remove(docID int64, name string) error {
	err := os.Remove(s.blobPath(docID, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}
