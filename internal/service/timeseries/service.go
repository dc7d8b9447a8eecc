package timeseries

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/repository/sheets"
	"github.com/mamadbah2/antkeeper/internal/store"
)

// ObservationInput is a raw observation as entered by a keeper.
type ObservationInput struct {
	Population int    `json:"population"`
	Mortality  int    `json:"mortality"`
	EggsLarvae string `json:"eggs_larvae"`
	Health     string `json:"health"`
}

// Service records observations and derives statistics from them.
type Service struct {
	store   *store.Store
	journal sheets.Journal
	clock   clockwork.Clock
	loc     *time.Location
	logger  *zap.Logger
}

// NewService wires a time-series service.
func NewService(st *store.Store, journal sheets.Journal, clock clockwork.Clock, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if journal == nil {
		journal = sheets.Discard{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: st, journal: journal, clock: clock, loc: loc, logger: logger}
}

// RecordObservation validates and appends an observation stamped with the
// current time. Invalid input leaves the history untouched.
func (s *Service) RecordObservation(ctx context.Context, colony string, in ObservationInput) (models.Observation, error) {
	eggs, err := models.ParseEggsLarvaeStatus(in.EggsLarvae)
	if err != nil {
		return models.Observation{}, err
	}
	health, err := models.ParseHealthStatus(in.Health)
	if err != nil {
		return models.Observation{}, err
	}

	obs := models.Observation{
		Timestamp:  s.clock.Now(),
		Population: in.Population,
		Mortality:  in.Mortality,
		EggsLarvae: eggs,
		Health:     health,
	}
	if err := obs.Validate(); err != nil {
		return models.Observation{}, err
	}

	err = s.store.UpdateColony(ctx, colony, func(c *models.Colony) error {
		c.History = append(c.History, obs)
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return models.Observation{}, err
	}

	s.logger.Info("observation recorded",
		zap.String("colony", colony),
		zap.Int("population", obs.Population),
		zap.Int("mortality", obs.Mortality))

	if jerr := s.journal.WriteRow(ctx, sheets.ObservationsRange, sheets.ObservationRow(colony, localized(obs, s.loc))); jerr != nil {
		s.logger.Warn("failed to mirror observation", zap.String("colony", colony), zap.Error(jerr))
	}

	return obs, err
}

// GraphSeries returns the colony's population points in time order.
func (s *Service) GraphSeries(colony string) ([]Point, error) {
	c, err := s.store.Colony(colony)
	if err != nil {
		return nil, err
	}
	return Series(c.History)
}

// Graph lays the colony's series out on a canvas.
func (s *Service) Graph(colony string, canvas Canvas) (Plot, error) {
	points, err := s.GraphSeries(colony)
	if err != nil {
		return Plot{}, err
	}
	return Layout(points, canvas)
}

// Stats summarizes the colony as of today in the configured location.
func (s *Service) Stats(colony string) (Stats, error) {
	c, err := s.store.Colony(colony)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(c, models.DateOf(s.clock.Now(), s.loc)), nil
}

func localized(obs models.Observation, loc *time.Location) models.Observation {
	obs.Timestamp = obs.Timestamp.In(loc)
	return obs
}
