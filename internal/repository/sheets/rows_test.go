package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

func TestFeedingRow(t *testing.T) {
	rec := models.FeedingRecord{
		CompletedAt: time.Date(2024, time.January, 7, 8, 5, 0, 0, time.UTC),
		FoodType:    models.FoodProtein,
		Quantity:    "2g",
		Description: "cricket",
	}
	assert.Equal(t, []interface{}{"Messor", "2024-01-07 08:05", "protein", "2g", "cricket"}, FeedingRow("Messor", rec))
}

func TestObservationRow(t *testing.T) {
	obs := models.Observation{
		Timestamp:  time.Date(2024, time.January, 7, 18, 0, 0, 0, time.UTC),
		Population: 120,
		Mortality:  2,
		EggsLarvae: models.EggsAbundant,
		Health:     models.HealthGood,
	}
	assert.Equal(t, []interface{}{"Messor", "2024-01-07 18:00", 120, 2, "abundant", "good"}, ObservationRow("Messor", obs))
}
