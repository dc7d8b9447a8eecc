package timeseries

import (
	"errors"
	"sort"
	"time"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

// ErrInsufficientData is returned when fewer than two observations exist,
// so callers can render a "need more data" state.
var ErrInsufficientData = errors.New("at least two observations are needed")

// Point is one population sample of a colony.
type Point struct {
	Timestamp  time.Time `json:"timestamp"`
	Population int       `json:"population"`
}

// Series returns population points sorted by ascending timestamp. Equal
// timestamps keep their recording order.
func Series(history []models.Observation) ([]Point, error) {
	if len(history) < 2 {
		return nil, ErrInsufficientData
	}
	points := make([]Point, len(history))
	for i, obs := range history {
		points[i] = Point{Timestamp: obs.Timestamp, Population: obs.Population}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// Deltas returns the population change between consecutive points.
func Deltas(points []Point) []int {
	if len(points) < 2 {
		return []int{}
	}
	out := make([]int, len(points)-1)
	for i := 1; i < len(points); i++ {
		out[i-1] = points[i].Population - points[i-1].Population
	}
	return out
}

// Stats summarizes a colony for cards and digests.
type Stats struct {
	Observations       int                     `json:"observations"`
	LatestPopulation   int                     `json:"latest_population"`
	PreviousPopulation int                     `json:"previous_population"`
	PopulationDelta    int                     `json:"population_delta"`
	TotalMortality     int                     `json:"total_mortality"`
	LatestEggsLarvae   models.EggsLarvaeStatus `json:"latest_eggs_larvae"`
	LatestHealth       models.HealthStatus     `json:"latest_health"`
	LastObservedAt     time.Time               `json:"last_observed_at"`
	AgeDays            int                     `json:"age_days"`
	Age                string                  `json:"age"`
	PendingReminders   int                     `json:"pending_reminders"`
	CompletedFeedings  int                     `json:"completed_feedings"`
}

// ComputeStats derives Stats from a colony as of the given calendar day.
func ComputeStats(c models.Colony, today models.Date) Stats {
	st := Stats{
		Observations:      len(c.History),
		PendingReminders:  len(c.FeedingSchedule),
		CompletedFeedings: len(c.FeedingHistory),
	}
	if !c.CollectionDate.IsZero() {
		st.AgeDays = today.DaysSince(c.CollectionDate)
	}
	st.Age = FormatAge(st.AgeDays)

	history := append([]models.Observation(nil), c.History...)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
	for _, obs := range history {
		st.TotalMortality += obs.Mortality
	}
	if n := len(history); n > 0 {
		latest := history[n-1]
		st.LatestPopulation = latest.Population
		st.PreviousPopulation = latest.Population
		st.LatestEggsLarvae = latest.EggsLarvae
		st.LatestHealth = latest.Health
		st.LastObservedAt = latest.Timestamp
		if n > 1 {
			st.PreviousPopulation = history[n-2].Population
		}
		st.PopulationDelta = st.LatestPopulation - st.PreviousPopulation
	}
	return st
}
