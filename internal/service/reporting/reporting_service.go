package reporting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/service/timeseries"
	"github.com/mamadbah2/antkeeper/internal/store"
)

const digestDays = 7

// ColonyDigest aggregates one colony's activity over the digest period.
type ColonyDigest struct {
	Name             string
	Age              string
	Population       int
	PopulationChange int
	Observations     int
	Deaths           int
	MortalityRate    float64
	Feedings         int
	PendingReminders int
	Health           models.HealthStatus
}

// Service builds periodic summaries from the colony document.
type Service struct {
	store  *store.Store
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(st *store.Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: st, loc: loc, logger: logger}
}

// Period returns the digest window ending at now: the previous seven calendar
// days plus today.
func (s *Service) Period(now time.Time) (time.Time, time.Time) {
	today := models.DateOf(now, s.loc)
	return today.AddDays(-digestDays).Midnight(s.loc), now
}

// Collect computes per-colony digests for [start, end].
func (s *Service) Collect(start, end time.Time) []ColonyDigest {
	doc := s.store.Snapshot()
	today := models.DateOf(end, s.loc)

	out := make([]ColonyDigest, 0, len(doc.Colonies))
	for _, c := range doc.Colonies {
		stats := timeseries.ComputeStats(c, today)
		d := ColonyDigest{
			Name:             c.Name,
			Age:              stats.Age,
			Population:       stats.LatestPopulation,
			PendingReminders: stats.PendingReminders,
			Health:           stats.LatestHealth,
		}

		history := append([]models.Observation(nil), c.History...)
		sort.SliceStable(history, func(i, j int) bool { return history[i].Timestamp.Before(history[j].Timestamp) })

		baseline, hasBaseline := 0, false
		for _, obs := range history {
			if obs.Timestamp.Before(start) {
				baseline, hasBaseline = obs.Population, true
				continue
			}
			if obs.Timestamp.After(end) {
				continue
			}
			if !hasBaseline {
				baseline, hasBaseline = obs.Population, true
			}
			d.Observations++
			d.Deaths += obs.Mortality
		}
		if hasBaseline {
			d.PopulationChange = d.Population - baseline
		}
		if d.Deaths > 0 && d.Population > 0 {
			rate := float64(d.Deaths) / float64(d.Population) * 100
			d.MortalityRate = math.Round(rate*100) / 100
		}

		for _, f := range c.FeedingHistory {
			if !f.CompletedAt.Before(start) && !f.CompletedAt.After(end) {
				d.Feedings++
			}
		}
		out = append(out, d)
	}
	return out
}

// GenerateWeeklyDigest renders the digest text for the week ending at now.
func (s *Service) GenerateWeeklyDigest(ctx context.Context, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start, end := s.Period(now)
	digests := s.Collect(start, end)

	s.logger.Debug("weekly digest collected", zap.Int("colonies", len(digests)))
	return Render(digests, start.In(s.loc), end.In(s.loc)), nil
}

// Render formats digests as a chat-friendly message.
func Render(digests []ColonyDigest, start, end time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly colony digest (%s - %s)\n", start.Format(models.DateLayout), end.Format(models.DateLayout))

	if len(digests) == 0 {
		b.WriteString("No colonies registered yet.")
		return b.String()
	}

	for _, d := range digests {
		fmt.Fprintf(&b, "\n%s (%s)\n", d.Name, d.Age)
		fmt.Fprintf(&b, "- Population %d (%+d this week)\n", d.Population, d.PopulationChange)
		if d.Observations == 0 {
			b.WriteString("- No observations logged\n")
		} else if d.Deaths == 0 {
			fmt.Fprintf(&b, "- %d observations, no deaths\n", d.Observations)
		} else {
			fmt.Fprintf(&b, "- %d observations, %d deaths (%.2f%%)\n", d.Observations, d.Deaths, d.MortalityRate)
		}
		fmt.Fprintf(&b, "- %d feedings completed, %d pending\n", d.Feedings, d.PendingReminders)
		if d.Health != "" && d.Health != models.HealthUnrecorded {
			fmt.Fprintf(&b, "- Health: %s\n", d.Health)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
