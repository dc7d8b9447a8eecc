package colonies

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/store"
)

var now = time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(store.New(models.NewDocument(), nil, nil), clockwork.NewFakeClockAt(now), time.UTC, nil)
}

func TestCreate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateInput{Name: " Messor barbarus ", CollectionDate: models.NewDate(2024, time.January, 1), Population: 12})
	require.NoError(t, err)
	assert.Equal(t, "Messor barbarus", c.Name)
	assert.Equal(t, now, c.CreatedAt)
	require.Len(t, c.History, 1)
	assert.Equal(t, 12, c.History[0].Population)
	assert.Equal(t, models.HealthUnrecorded, c.History[0].Health)

	_, err = svc.Create(ctx, CreateInput{Name: "Messor barbarus"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = svc.Create(ctx, CreateInput{Name: "  "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Name: "Lasius", Population: -1})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreate_DefaultsCollectionDateToToday(t *testing.T) {
	svc := newService(t)

	c, err := svc.Create(context.Background(), CreateInput{Name: "Lasius"})
	require.NoError(t, err)
	assert.Equal(t, models.NewDate(2024, time.March, 2), c.CollectionDate)
}

func TestCreate_RejectsControlCharacters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Messor\r\nBcc: spy@example.com"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Name: "Lasius"})
	require.NoError(t, err)
	renamed := "Lasius\tniger\n"
	_, err = svc.Update(ctx, "Lasius", UpdateInput{Name: &renamed})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Name: "Messor"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Lasius"})
	require.NoError(t, err)

	taken := "Lasius"
	_, err = svc.Update(ctx, "Messor", UpdateInput{Name: &taken})
	assert.ErrorIs(t, err, models.ErrConflict)

	renamed := "Messor structor"
	notes := "moved to a bigger nest"
	collected := models.NewDate(2023, time.September, 15)
	c, err := svc.Update(ctx, "Messor", UpdateInput{Name: &renamed, Notes: &notes, CollectionDate: &collected})
	require.NoError(t, err)
	assert.Equal(t, renamed, c.Name)
	assert.Equal(t, notes, c.Notes)
	assert.Equal(t, collected, c.CollectionDate)

	_, err = svc.Get("Messor")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Update(ctx, "Pheidole", UpdateInput{Notes: &notes})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Name: "Messor"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "Messor"))
	assert.ErrorIs(t, svc.Delete(ctx, "Messor"), models.ErrNotFound)
	assert.Empty(t, svc.List())
}

func TestList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Name: "Messor", CollectionDate: models.NewDate(2024, time.January, 1), Population: 40})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Lasius", CollectionDate: models.NewDate(2024, time.March, 1), Population: 1})
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, Summary{Name: "Messor", Age: "2 months", AgeDays: 61, LatestPopulation: 40}, list[0])
	assert.Equal(t, Summary{Name: "Lasius", Age: "1 day", AgeDays: 1, LatestPopulation: 1}, list[1])
}
