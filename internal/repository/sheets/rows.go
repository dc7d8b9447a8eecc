package sheets

import (
	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

const rowTimeLayout = "2006-01-02 15:04"

// FeedingRow lays out a completed feeding as colony, time, food, quantity, notes.
func FeedingRow(colony string, rec models.FeedingRecord) []interface{} {
	return []interface{}{colony, rec.CompletedAt.Format(rowTimeLayout), string(rec.FoodType), rec.Quantity, rec.Description}
}

// ObservationRow lays out an observation as colony, time, population, mortality, brood, health.
func ObservationRow(colony string, obs models.Observation) []interface{} {
	return []interface{}{colony, obs.Timestamp.Format(rowTimeLayout), obs.Population, obs.Mortality, string(obs.EggsLarvae), string(obs.Health)}
}
