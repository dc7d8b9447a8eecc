package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

func TestRepository_EmptyDatabase(t *testing.T) {
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Colonies)
}

func TestRepository_SaveReplacesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "antkeeper.db")
	repo, err := NewRepository(path)
	require.NoError(t, err)

	doc := models.NewDocument()
	doc.Colonies = append(doc.Colonies, models.Colony{Name: "A", CollectionDate: models.NewDate(2024, time.March, 3)})
	require.NoError(t, repo.Save(context.Background(), doc))

	doc.Colonies = append(doc.Colonies, models.Colony{Name: "B"})
	doc.Settings.Theme = "light"
	require.NoError(t, repo.Save(context.Background(), doc))
	require.NoError(t, repo.Close())

	reopened, err := NewRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Colonies, 2)
	assert.Equal(t, models.NewDate(2024, time.March, 3), loaded.Colonies[0].CollectionDate)
	assert.Equal(t, "light", loaded.Settings.Theme)
}
