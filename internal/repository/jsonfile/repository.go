package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

// Repository persists the document as an indented JSON file.
type Repository struct {
	path string
}

// NewRepository creates a JSON file repository rooted at path. The parent
// directory is created on first save.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the file backing the repository.
func (r *Repository) Path() string {
	return r.path
}

// Load reads the document; a missing file yields a fresh document.
func (r *Repository) Load(_ context.Context) (*models.Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return doc, nil
}

// Save writes the document to a temporary file and renames it over the
// previous version, so readers never observe a half-written document.
func (r *Repository) Save(_ context.Context, doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	tmpFile := r.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpFile, err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("write %s: %w", tmpFile, err)
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("sync %s: %w", tmpFile, err)
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("close %s: %w", tmpFile, err)
	}

	return os.Rename(tmpFile, r.path)
}
