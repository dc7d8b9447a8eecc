package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_NormalizeLegacy(t *testing.T) {
	raw := `{
		"colonies": [{
			"name": "Messor barbarus",
			"collection_date": "2023-05-01",
			"population": 40,
			"feeding_schedule": [{"datetime": "2024-01-07T09:00:00Z", "description": "", "food_type": "", "quantity": ""}]
		}],
		"settings": {"notifications_email": true}
	}`
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, doc.Normalize(now))

	c := doc.Colony("Messor barbarus")
	require.NotNil(t, c)
	require.Len(t, c.History, 1)
	assert.Equal(t, 40, c.History[0].Population)
	assert.Equal(t, now, c.History[0].Timestamp)
	assert.Nil(t, c.LegacyPopulation)
	require.Len(t, c.FeedingSchedule, 1)
	assert.NotEmpty(t, c.FeedingSchedule[0].ID)
	assert.Equal(t, FoodOther, c.FeedingSchedule[0].FoodType)
	assert.NotNil(t, c.RecurringSchedule)
	assert.NotNil(t, c.FeedingHistory)
	assert.Equal(t, "smtp.gmail.com", doc.Settings.SMTPServer)
	assert.Equal(t, 587, doc.Settings.SMTPPort)

	assert.False(t, doc.Normalize(now), "second pass has nothing to upgrade")
}

func TestDocument_CloneIsDeep(t *testing.T) {
	notified := time.Now()
	doc := NewDocument()
	doc.Colonies = append(doc.Colonies, Colony{
		Name:            "A",
		History:         []Observation{{Population: 1}},
		FeedingSchedule: []Reminder{{ID: "r", LastNotifiedAt: &notified}},
	})

	clone := doc.Clone()
	clone.Colonies[0].History[0].Population = 99
	*clone.Colonies[0].FeedingSchedule[0].LastNotifiedAt = notified.Add(time.Hour)

	assert.Equal(t, 1, doc.Colonies[0].History[0].Population)
	assert.Equal(t, notified, *doc.Colonies[0].FeedingSchedule[0].LastNotifiedAt)
}
