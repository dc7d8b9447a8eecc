package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

const documentKey = "main"

// Repository keeps the whole document as a single JSON row in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Load reads the stored document; an empty table yields a fresh document.
func (r *Repository) Load(ctx context.Context) (*models.Document, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE id = ?", documentKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Save replaces the stored document in one statement.
func (r *Repository) Save(ctx context.Context, doc *models.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		documentKey, body, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
