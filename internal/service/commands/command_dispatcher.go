package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/service/colonies"
	"github.com/mamadbah2/antkeeper/internal/service/timeseries"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const timeFormat = "02/01 15:04"

// HelpText lists the chat commands.
const HelpText = "Supported commands:\n" +
	"/colonies - list colonies\n" +
	"/reminders <colony> - pending feedings\n" +
	"/done <colony> - complete the feeding that is due\n" +
	"/pop <population> <mortality> <colony> - log an observation\n" +
	"/help - this message"

// ColonyLister lists colony summaries.
type ColonyLister interface {
	List() []colonies.Summary
}

// ReminderBook reads and completes reminders.
type ReminderBook interface {
	Pending(colony string) ([]models.Reminder, error)
	Rules(colony string) ([]models.RecurrenceRule, error)
	CompleteNext(ctx context.Context, colony string) (models.FeedingRecord, error)
}

// ObservationRecorder appends observations.
type ObservationRecorder interface {
	RecordObservation(ctx context.Context, colony string, in timeseries.ObservationInput) (models.Observation, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	colonies     ColonyLister
	reminders    ReminderBook
	observations ObservationRecorder
	loc          *time.Location
	logger       *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(colonyList ColonyLister, reminders ReminderBook, observations ObservationRecorder, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		colonies:     colonyList,
		reminders:    reminders,
		observations: observations,
		loc:          loc,
		logger:       logger,
	}
}

// HandleCommand runs the command against the colony services.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandColonies:
		return s.listColonies(), nil
	case models.CommandReminders:
		return s.listReminders(cmd)
	case models.CommandDone:
		return s.completeNext(ctx, cmd)
	case models.CommandObserve:
		return s.recordObservation(ctx, cmd)
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) listColonies() string {
	list := s.colonies.List()
	if len(list) == 0 {
		return "No colonies registered yet."
	}

	var b strings.Builder
	b.WriteString("Colonies:")
	for _, c := range list {
		fmt.Fprintf(&b, "\n- %s: %d ants, %s old", c.Name, c.LatestPopulation, c.Age)
		if c.PendingReminders > 0 {
			fmt.Fprintf(&b, ", %d pending", c.PendingReminders)
		}
	}
	return b.String()
}

func (s *Service) listReminders(cmd models.Command) (string, error) {
	colony := cmd.Rest(0)
	if colony == "" {
		return "", ErrInvalidArguments
	}

	pending, err := s.reminders.Pending(colony)
	if err != nil {
		return "", err
	}
	rules, err := s.reminders.Rules(colony)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if len(pending) == 0 {
		fmt.Fprintf(&b, "No pending feedings for %s.", colony)
	} else {
		fmt.Fprintf(&b, "Pending feedings for %s:", colony)
		for _, r := range pending {
			fmt.Fprintf(&b, "\n- %s %s", r.DueAt.In(s.loc).Format(timeFormat), describe(r.FoodType, r.Quantity))
			if r.Description != "" {
				fmt.Fprintf(&b, " (%s)", r.Description)
			}
		}
	}
	if len(rules) > 0 {
		b.WriteString("\nRecurring:")
		for _, rule := range rules {
			fmt.Fprintf(&b, "\n- every %d days from %s: %s", rule.IntervalDays, rule.StartDate, describe(rule.FoodType, rule.Quantity))
		}
	}
	return b.String(), nil
}

func (s *Service) completeNext(ctx context.Context, cmd models.Command) (string, error) {
	colony := cmd.Rest(0)
	if colony == "" {
		return "", ErrInvalidArguments
	}

	record, err := s.reminders.CompleteNext(ctx, colony)
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return "", err
	}
	if err != nil {
		s.logger.Warn("feeding completed but not saved", zap.String("colony", colony), zap.Error(err))
	}
	return fmt.Sprintf("Feeding recorded for %s: %s at %s.", colony, describe(record.FoodType, record.Quantity), record.CompletedAt.In(s.loc).Format(timeFormat)), nil
}

func (s *Service) recordObservation(ctx context.Context, cmd models.Command) (string, error) {
	if len(cmd.Args) < 3 {
		return "", ErrInvalidArguments
	}

	population, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return "", ErrInvalidArguments
	}
	mortality, err := strconv.Atoi(cmd.Args[1])
	if err != nil {
		return "", ErrInvalidArguments
	}
	colony := cmd.Rest(2)

	obs, err := s.observations.RecordObservation(ctx, colony, timeseries.ObservationInput{Population: population, Mortality: mortality})
	if err != nil && !errors.Is(err, models.ErrPersistence) {
		return "", err
	}
	if err != nil {
		s.logger.Warn("observation recorded but not saved", zap.String("colony", colony), zap.Error(err))
	}
	return fmt.Sprintf("Observation saved for %s: population %d, mortality %d.", colony, obs.Population, obs.Mortality), nil
}

func describe(food models.FoodType, quantity string) string {
	if quantity == "" {
		return string(food)
	}
	return fmt.Sprintf("%s %s", quantity, food)
}
