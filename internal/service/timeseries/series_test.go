package timeseries

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

var t0 = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

func TestSeries_InsufficientData(t *testing.T) {
	_, err := Series([]models.Observation{{Timestamp: t0, Population: 10}})
	assert.True(t, errors.Is(err, ErrInsufficientData))

	_, err = Series(nil)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestSeries_KeepsValuesInTimeOrder(t *testing.T) {
	history := []models.Observation{
		{Timestamp: t0, Population: 100},
		{Timestamp: t0.Add(24 * time.Hour), Population: 120},
		{Timestamp: t0.Add(48 * time.Hour), Population: 90},
	}
	points, err := Series(history)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []int{100, 120, 90}, []int{points[0].Population, points[1].Population, points[2].Population})
	assert.Equal(t, []int{20, -30}, Deltas(points))
}

func TestSeries_SortsOutOfOrderHistory(t *testing.T) {
	history := []models.Observation{
		{Timestamp: t0.Add(48 * time.Hour), Population: 3},
		{Timestamp: t0, Population: 1},
		{Timestamp: t0.Add(24 * time.Hour), Population: 2},
	}
	points, err := Series(history)
	require.NoError(t, err)
	for i, p := range points {
		assert.Equal(t, i+1, p.Population)
	}
}

func TestComputeStats(t *testing.T) {
	c := models.Colony{
		Name:           "Messor",
		CollectionDate: models.NewDate(2023, time.January, 1),
		History: []models.Observation{
			{Timestamp: t0.Add(24 * time.Hour), Population: 120, Mortality: 2, Health: models.HealthGood},
			{Timestamp: t0, Population: 100, Mortality: 1},
		},
		FeedingSchedule: []models.Reminder{{ID: "a"}},
	}
	st := ComputeStats(c, models.NewDate(2024, time.January, 1))

	assert.Equal(t, 2, st.Observations)
	assert.Equal(t, 120, st.LatestPopulation)
	assert.Equal(t, 100, st.PreviousPopulation)
	assert.Equal(t, 20, st.PopulationDelta)
	assert.Equal(t, 3, st.TotalMortality)
	assert.Equal(t, models.HealthGood, st.LatestHealth)
	assert.Equal(t, 365, st.AgeDays)
	assert.Equal(t, "1 year, 0 months", st.Age)
	assert.Equal(t, 1, st.PendingReminders)
}

func TestDeltas_Short(t *testing.T) {
	assert.Empty(t, Deltas([]Point{{Population: 1}}))
}
