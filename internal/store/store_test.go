package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

type memoryPersister struct {
	mu      sync.Mutex
	doc     *models.Document
	saves   int
	saveErr error
	loadErr error
}

func (m *memoryPersister) Load(context.Context) (*models.Document, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.doc == nil {
		return nil, nil
	}
	return m.doc.Clone(), nil
}

func (m *memoryPersister) Save(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.doc = doc.Clone()
	return nil
}

func TestOpen_EmptyPersisterGivesDefaultDocument(t *testing.T) {
	p := &memoryPersister{}
	s, err := Open(context.Background(), p, time.Now(), nil)
	require.NoError(t, err)

	doc := s.Snapshot()
	assert.Empty(t, doc.Colonies)
	assert.Equal(t, models.DefaultSettings(), doc.Settings)
}

func TestOpen_LoadFailure(t *testing.T) {
	_, err := Open(context.Background(), &memoryPersister{loadErr: errors.New("disk gone")}, time.Now(), nil)
	assert.True(t, errors.Is(err, models.ErrPersistence))
}

func TestUpdate_WriteThrough(t *testing.T) {
	p := &memoryPersister{}
	s := New(nil, p, nil)

	err := s.Update(context.Background(), func(doc *models.Document) error {
		doc.Colonies = append(doc.Colonies, models.Colony{Name: "A"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.saves)
	require.NotNil(t, p.doc.Colony("A"))
}

func TestUpdate_UnchangedSkipsSave(t *testing.T) {
	p := &memoryPersister{}
	s := New(nil, p, nil)

	err := s.Update(context.Background(), func(*models.Document) error { return ErrUnchanged })
	require.NoError(t, err)
	assert.Equal(t, 0, p.saves)
}

func TestUpdate_ErrorSkipsSave(t *testing.T) {
	p := &memoryPersister{}
	s := New(nil, p, nil)

	err := s.Update(context.Background(), func(*models.Document) error { return models.ErrValidation })
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Equal(t, 0, p.saves)
}

func TestUpdate_SaveFailureKeepsMemoryState(t *testing.T) {
	p := &memoryPersister{saveErr: errors.New("read-only filesystem")}
	s := New(nil, p, nil)

	err := s.Update(context.Background(), func(doc *models.Document) error {
		doc.Colonies = append(doc.Colonies, models.Colony{Name: "A"})
		return nil
	})
	assert.True(t, errors.Is(err, models.ErrPersistence))

	_, err = s.Colony("A")
	assert.NoError(t, err, "in-memory state stays authoritative after a failed save")
}

func TestUpdateColony_NotFound(t *testing.T) {
	s := New(nil, nil, nil)
	err := s.UpdateColony(context.Background(), "missing", func(*models.Colony) error { return nil })
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestColony_ReturnsCopy(t *testing.T) {
	doc := models.NewDocument()
	doc.Colonies = append(doc.Colonies, models.Colony{Name: "A", History: []models.Observation{{Population: 5}}})
	s := New(doc, nil, nil)

	c, err := s.Colony("A")
	require.NoError(t, err)
	c.History[0].Population = 500

	again, err := s.Colony("A")
	require.NoError(t, err)
	assert.Equal(t, 5, again.History[0].Population)
	assert.Equal(t, []string{"A"}, s.ColonyNames())
}
