// Package colonies implements colony creation, editing, deletion and export.
package colonies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/service/timeseries"
	"github.com/mamadbah2/antkeeper/internal/store"
)

// CreateInput is a new colony as entered by a keeper.
type CreateInput struct {
	Name           string      `json:"name"`
	CollectionDate models.Date `json:"collection_date"`
	Description    string      `json:"description"`
	Population     int         `json:"population"`
}

// UpdateInput edits colony metadata; nil fields are left untouched.
type UpdateInput struct {
	Name           *string      `json:"name"`
	Description    *string      `json:"description"`
	CollectionDate *models.Date `json:"collection_date"`
	Notes          *string      `json:"notes"`
}

// Summary is one line of the colony list.
type Summary struct {
	Name             string `json:"name"`
	Age              string `json:"age"`
	AgeDays          int    `json:"age_days"`
	LatestPopulation int    `json:"latest_population"`
	PendingReminders int    `json:"pending_reminders"`
}

// Service manages colonies inside the document.
type Service struct {
	store  *store.Store
	clock  clockwork.Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a colony service.
func NewService(st *store.Store, clock clockwork.Clock, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: st, clock: clock, loc: loc, logger: logger}
}

// Create adds a colony with a seed observation of its starting population.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Colony, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return models.Colony{}, err
	}
	if in.Population < 0 {
		return models.Colony{}, fmt.Errorf("%w: population must not be negative (got %d)", models.ErrValidation, in.Population)
	}

	now := s.clock.Now()
	collected := in.CollectionDate
	if collected.IsZero() {
		collected = models.DateOf(now, s.loc)
	}

	colony := models.Colony{
		Name:           name,
		CollectionDate: collected,
		Description:    in.Description,
		CreatedAt:      now,
		History: []models.Observation{{
			Timestamp:  now,
			Population: in.Population,
			EggsLarvae: models.EggsUnrecorded,
			Health:     models.HealthUnrecorded,
		}},
		FeedingSchedule:   []models.Reminder{},
		RecurringSchedule: []models.RecurrenceRule{},
		FeedingHistory:    []models.FeedingRecord{},
	}

	err = s.store.Update(ctx, func(doc *models.Document) error {
		if doc.Colony(name) != nil {
			return fmt.Errorf("%w: colony %q already exists", models.ErrConflict, name)
		}
		doc.Colonies = append(doc.Colonies, colony)
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return models.Colony{}, err
	}

	s.logger.Info("colony created", zap.String("colony", name), zap.Int("population", in.Population))
	return colony.Clone(), err
}

// Update edits a colony's metadata. Renaming onto an existing name is a conflict.
func (s *Service) Update(ctx context.Context, name string, in UpdateInput) (models.Colony, error) {
	var newName string
	if in.Name != nil {
		cleaned, err := cleanName(*in.Name)
		if err != nil {
			return models.Colony{}, err
		}
		newName = cleaned
	}

	var updated models.Colony
	err := s.store.Update(ctx, func(doc *models.Document) error {
		c := doc.Colony(name)
		if c == nil {
			return fmt.Errorf("%w: colony %q", models.ErrNotFound, name)
		}
		if newName != "" && newName != name && doc.Colony(newName) != nil {
			return fmt.Errorf("%w: colony %q already exists", models.ErrConflict, newName)
		}

		if newName != "" {
			c.Name = newName
		}
		if in.Description != nil {
			c.Description = *in.Description
		}
		if in.CollectionDate != nil && !in.CollectionDate.IsZero() {
			c.CollectionDate = *in.CollectionDate
		}
		if in.Notes != nil {
			c.Notes = *in.Notes
		}
		updated = c.Clone()
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return models.Colony{}, err
	}

	s.logger.Info("colony updated", zap.String("colony", name), zap.String("name", updated.Name))
	return updated, err
}

// Delete removes a colony with everything it owns.
func (s *Service) Delete(ctx context.Context, name string) error {
	err := s.store.Update(ctx, func(doc *models.Document) error {
		for i := range doc.Colonies {
			if doc.Colonies[i].Name == name {
				doc.Colonies = append(doc.Colonies[:i], doc.Colonies[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: colony %q", models.ErrNotFound, name)
	})
	if err == nil || errors.Is(err, models.ErrPersistence) {
		s.logger.Info("colony deleted", zap.String("colony", name))
	}
	return err
}

// Get exports the full colony record.
func (s *Service) Get(name string) (models.Colony, error) {
	return s.store.Colony(name)
}

// List summarizes every colony in document order.
func (s *Service) List() []Summary {
	doc := s.store.Snapshot()
	today := models.DateOf(s.clock.Now(), s.loc)

	out := make([]Summary, 0, len(doc.Colonies))
	for _, c := range doc.Colonies {
		stats := timeseries.ComputeStats(c, today)
		out = append(out, Summary{
			Name:             c.Name,
			Age:              stats.Age,
			AgeDays:          stats.AgeDays,
			LatestPopulation: stats.LatestPopulation,
			PendingReminders: stats.PendingReminders,
		})
	}
	return out
}

// cleanName trims a colony name and rejects control characters, since names
// end up in message titles and mail headers.
func cleanName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: colony name is required", models.ErrValidation)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: colony name contains control characters", models.ErrValidation)
	}
	return name, nil
}
