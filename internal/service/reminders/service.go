// Package reminders manages a colony's single reminders, recurring rules and
// feeding history.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/repository/sheets"
	"github.com/mamadbah2/antkeeper/internal/store"
)

// ReminderInput describes a one-off feeding.
type ReminderInput struct {
	DueAt       time.Time `json:"due_at"`
	Description string    `json:"description"`
	FoodType    string    `json:"food_type"`
	Quantity    string    `json:"quantity"`
}

// RuleInput describes a recurring feeding.
type RuleInput struct {
	StartDate    models.Date `json:"start_date"`
	IntervalDays int         `json:"interval_days"`
	FoodType     string      `json:"food_type"`
	Quantity     string      `json:"quantity"`
}

// Service owns reminder mutations for every colony.
type Service struct {
	store   *store.Store
	journal sheets.Journal
	clock   clockwork.Clock
	loc     *time.Location
	logger  *zap.Logger
	newID   func() string
}

// NewService wires a reminder service.
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
	return &Service{store: st, journal: journal, clock: clock, loc: loc, logger: logger, newID: models.NewID}
}

// AddSingle appends a reminder. Two reminders at the same instant are both kept.
func (s *Service) AddSingle(ctx context.Context, colony string, in ReminderInput) (models.Reminder, error) {
	if in.DueAt.IsZero() {
		return models.Reminder{}, fmt.Errorf("%w: due time is required", models.ErrValidation)
	}
	food, err := models.ParseFoodType(in.FoodType)
	if err != nil {
		return models.Reminder{}, err
	}

	reminder := models.Reminder{
		ID:          s.newID(),
		DueAt:       in.DueAt.In(s.loc).Truncate(time.Minute),
		Description: in.Description,
		FoodType:    food,
		Quantity:    in.Quantity,
	}

	err = s.store.UpdateColony(ctx, colony, func(c *models.Colony) error {
		c.FeedingSchedule = append(c.FeedingSchedule, reminder)
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return models.Reminder{}, err
	}

	s.logger.Info("reminder added",
		zap.String("colony", colony),
		zap.String("id", reminder.ID),
		zap.Time("due_at", reminder.DueAt))
	return reminder, err
}

// AddRecurring appends a recurrence rule.
func (s *Service) AddRecurring(ctx context.Context, colony string, in RuleInput) (models.RecurrenceRule, error) {
	if in.StartDate.IsZero() {
		return models.RecurrenceRule{}, fmt.Errorf("%w: start date is required", models.ErrValidation)
	}
	if in.IntervalDays < 1 {
		return models.RecurrenceRule{}, fmt.Errorf("%w: interval must be at least 1 day (got %d)", models.ErrValidation, in.IntervalDays)
	}
	food, err := models.ParseFoodType(in.FoodType)
	if err != nil {
		return models.RecurrenceRule{}, err
	}

	rule := models.RecurrenceRule{
		ID:           s.newID(),
		StartDate:    in.StartDate,
		IntervalDays: in.IntervalDays,
		FoodType:     food,
		Quantity:     in.Quantity,
	}

	err = s.store.UpdateColony(ctx, colony, func(c *models.Colony) error {
		c.RecurringSchedule = append(c.RecurringSchedule, rule)
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return models.RecurrenceRule{}, err
	}

	s.logger.Info("recurring rule added",
		zap.String("colony", colony),
		zap.String("id", rule.ID),
		zap.Int("interval_days", rule.IntervalDays))
	return rule, err
}

// RemoveSingle deletes a reminder without recording a feeding.
func (s *Service) RemoveSingle(ctx context.Context, colony, id string) error {
	return s.store.UpdateColony(ctx, colony, func(c *models.Colony) error {
		i := c.ReminderIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: reminder %s", models.ErrNotFound, id)
		}
		c.RemoveReminderAt(i)
		return nil
	})
}

// RemoveRecurring deletes a rule. Reminders it already produced stay.
func (s *Service) RemoveRecurring(ctx context.Context, colony, id string) error {
	return s.store.UpdateColony(ctx, colony, func(c *models.Colony) error {
		i := c.RuleIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: recurring rule %s", models.ErrNotFound, id)
		}
		c.RemoveRuleAt(i)
		return nil
	})
}

// Complete turns a pending reminder into a feeding record. Removal and append
// happen in one update, so a second completion finds nothing.
func (s *Service) Complete(ctx context.Context, colony, id string) (models.FeedingRecord, error) {
	return s.complete(ctx, colony, func(c *models.Colony) (int, error) {
		i := c.ReminderIndex(id)
		if i < 0 {
			return -1, fmt.Errorf("%w: reminder %s", models.ErrNotFound, id)
		}
		return i, nil
	})
}

// CompleteNext completes the earliest reminder that is already due.
func (s *Service) CompleteNext(ctx context.Context, colony string) (models.FeedingRecord, error) {
	now := s.clock.Now()
	return s.complete(ctx, colony, func(c *models.Colony) (int, error) {
		best := -1
		for i, r := range c.FeedingSchedule {
			if r.DueAt.After(now) {
				continue
			}
			if best < 0 || r.DueAt.Before(c.FeedingSchedule[best].DueAt) {
				best = i
			}
		}
		if best < 0 {
			return -1, fmt.Errorf("%w: no reminder due for %s", models.ErrNotFound, c.Name)
		}
		return best, nil
	})
}

func (s *Service) complete(ctx context.Context, colony string, pick func(c *models.Colony) (int, error)) (models.FeedingRecord, error) {
	var record models.FeedingRecord
	err := s.store.UpdateColony(ctx, colony, func(c *models.Colony) error {
		i, err := pick(c)
		if err != nil {
			return err
		}
		reminder := c.RemoveReminderAt(i)
		record = models.FeedingRecord{
			CompletedAt: s.clock.Now(),
			FoodType:    reminder.FoodType,
			Quantity:    reminder.Quantity,
			Description: reminder.Description,
			ReminderID:  reminder.ID,
		}
		c.FeedingHistory = append(c.FeedingHistory, record)
		return nil
	})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return models.FeedingRecord{}, err
	}

	s.logger.Info("feeding completed",
		zap.String("colony", colony),
		zap.String("reminder_id", record.ReminderID),
		zap.String("food_type", string(record.FoodType)))

	row := record
	row.CompletedAt = row.CompletedAt.In(s.loc)
	if jerr := s.journal.WriteRow(ctx, sheets.FeedingsRange, sheets.FeedingRow(colony, row)); jerr != nil {
		s.logger.Warn("failed to mirror feeding", zap.String("colony", colony), zap.Error(jerr))
	}

	return record, err
}

// Pending lists the colony's reminders by due time.
func (s *Service) Pending(colony string) ([]models.Reminder, error) {
	c, err := s.store.Colony(colony)
	if err != nil {
		return nil, err
	}
	out := c.FeedingSchedule
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

// Rules lists the colony's recurrence rules by start date.
func (s *Service) Rules(colony string) ([]models.RecurrenceRule, error) {
	c, err := s.store.Colony(colony)
	if err != nil {
		return nil, err
	}
	out := c.RecurringSchedule
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// History lists completed feedings, most recent first.
func (s *Service) History(colony string) ([]models.FeedingRecord, error) {
	c, err := s.store.Colony(colony)
	if err != nil {
		return nil, err
	}
	out := c.FeedingHistory
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}
