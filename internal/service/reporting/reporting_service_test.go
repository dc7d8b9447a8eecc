package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/store"
)

func fixture() *models.Document {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC) }
	doc := models.NewDocument()
	doc.Colonies = append(doc.Colonies, models.Colony{
		Name:           "Messor",
		CollectionDate: models.NewDate(2024, time.January, 1),
		History: []models.Observation{
			{Timestamp: day(1), Population: 100},
			{Timestamp: day(10), Population: 110, Mortality: 2},
			{Timestamp: day(14), Population: 120, Mortality: 4, Health: models.HealthGood},
		},
		FeedingSchedule: []models.Reminder{{ID: "p"}},
		FeedingHistory: []models.FeedingRecord{
			{CompletedAt: day(2)},
			{CompletedAt: day(12)},
			{CompletedAt: day(13)},
		},
	}, models.Colony{
		Name:           "Lasius",
		CollectionDate: models.NewDate(2024, time.March, 10),
	})
	return doc
}

func TestCollect(t *testing.T) {
	svc := NewService(store.New(fixture(), nil, nil), time.UTC, nil)
	now := time.Date(2024, time.March, 15, 20, 0, 0, 0, time.UTC)

	start, end := svc.Period(now)
	assert.Equal(t, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC), start)

	digests := svc.Collect(start, end)
	require.Len(t, digests, 2)

	messor := digests[0]
	assert.Equal(t, 120, messor.Population)
	assert.Equal(t, 20, messor.PopulationChange)
	assert.Equal(t, 2, messor.Observations)
	assert.Equal(t, 6, messor.Deaths)
	assert.Equal(t, 5.0, messor.MortalityRate)
	assert.Equal(t, 2, messor.Feedings)
	assert.Equal(t, 1, messor.PendingReminders)
	assert.Equal(t, models.HealthGood, messor.Health)

	assert.Equal(t, 0, digests[1].Observations)
}

func TestGenerateWeeklyDigest(t *testing.T) {
	svc := NewService(store.New(fixture(), nil, nil), time.UTC, nil)

	text, err := svc.GenerateWeeklyDigest(context.Background(), time.Date(2024, time.March, 15, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, text, "Weekly colony digest (2024-03-08 - 2024-03-15)")
	assert.Contains(t, text, "Messor (2 months)")
	assert.Contains(t, text, "- Population 120 (+20 this week)")
	assert.Contains(t, text, "- 2 observations, 6 deaths (5.00%)")
	assert.Contains(t, text, "- 2 feedings completed, 1 pending")
	assert.Contains(t, text, "- Health: good")
	assert.Contains(t, text, "Lasius (5 days)")
	assert.Contains(t, text, "- No observations logged")
}

func TestRender_NoColonies(t *testing.T) {
	start := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)
	text := Render(nil, start, start.AddDate(0, 0, 7))
	assert.Equal(t, "Weekly colony digest (2024-03-08 - 2024-03-15)\nNo colonies registered yet.", text)
}
