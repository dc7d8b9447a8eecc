// Package store owns the in-memory document and serializes every mutation
// behind one lock, saving the whole document after each change.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

// ErrUnchanged is returned by an update function that decided not to mutate
// the document; Update then skips the save and returns nil.
var ErrUnchanged = errors.New("document unchanged")

// Persister loads and saves the whole document. Save must replace the stored
// document atomically.
type Persister interface {
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
}

// Store is the single synchronization boundary around the document.
type Store struct {
	mu        sync.Mutex
	doc       *models.Document
	persister Persister
	logger    *zap.Logger
}

// Open loads the document through the persister and upgrades legacy records.
// Zone-less timestamps from older files are read in now's location.
func Open(ctx context.Context, persister Persister, now time.Time, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	doc, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load document: %v", models.ErrPersistence, err)
	}
	if doc == nil {
		doc = models.NewDocument()
	}

	s := &Store{doc: doc, persister: persister, logger: logger}

	if doc.Normalize(now) {
		logger.Info("upgraded legacy document records")
		if err := persister.Save(ctx, doc); err != nil {
			logger.Warn("failed to save upgraded document", zap.Error(err))
		}
	}

	logger.Info("document loaded", zap.Int("colonies", len(doc.Colonies)))
	return s, nil
}

// New wraps an already loaded document. Used by tests and tools.
func New(doc *models.Document, persister Persister, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if doc == nil {
		doc = models.NewDocument()
	}
	return &Store{doc: doc, persister: persister, logger: logger}
}

// View runs fn with read access to the document. fn must not retain
// references past its return; clone anything handed out.
func (s *Store) View(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc)
}

// Update runs fn with write access and saves the document afterwards.
// fn must validate before mutating: any error other than ErrUnchanged is
// returned as-is and nothing is saved. A failed save is reported wrapped in
// models.ErrPersistence; the in-memory change is kept.
func (s *Store) Update(ctx context.Context, fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.doc); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}

	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, s.doc); err != nil {
		s.logger.Error("failed to save document", zap.Error(err))
		return fmt.Errorf("%w: save document: %v", models.ErrPersistence, err)
	}
	return nil
}

// Snapshot returns a deep copy of the whole document.
func (s *Store) Snapshot() *models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// ColonyNames lists colony names in document order.
func (s *Store) ColonyNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.doc.Colonies))
	for _, c := range s.doc.Colonies {
		names = append(names, c.Name)
	}
	return names
}

// Colony returns a copy of the named colony.
func (s *Store) Colony(name string) (models.Colony, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.doc.Colony(name)
	if c == nil {
		return models.Colony{}, fmt.Errorf("%w: colony %q", models.ErrNotFound, name)
	}
	return c.Clone(), nil
}

// UpdateColony is Update scoped to one colony; a missing colony yields ErrNotFound.
func (s *Store) UpdateColony(ctx context.Context, name string, fn func(c *models.Colony) error) error {
	return s.Update(ctx, func(doc *models.Document) error {
		c := doc.Colony(name)
		if c == nil {
			return fmt.Errorf("%w: colony %q", models.ErrNotFound, name)
		}
		return fn(c)
	})
}
