package models

import (
	"fmt"
	"strings"
	"time"
)

// EggsLarvaeStatus describes the brood observed during a check.
type EggsLarvaeStatus string

const (
	EggsUnrecorded EggsLarvaeStatus = "unrecorded"
	EggsNone       EggsLarvaeStatus = "none"
	EggsFew        EggsLarvaeStatus = "few"
	EggsAbundant   EggsLarvaeStatus = "abundant"
)

// ParseEggsLarvaeStatus maps free text onto a status; empty input means unrecorded.
func ParseEggsLarvaeStatus(value string) (EggsLarvaeStatus, error) {
	switch EggsLarvaeStatus(strings.ToLower(strings.TrimSpace(value))) {
	case "", EggsUnrecorded:
		return EggsUnrecorded, nil
	case EggsNone:
		return EggsNone, nil
	case EggsFew:
		return EggsFew, nil
	case EggsAbundant:
		return EggsAbundant, nil
	}
	return "", fmt.Errorf("%w: unknown eggs/larvae status %q", ErrValidation, value)
}

// HealthStatus is the overall condition of a colony.
type HealthStatus string

const (
	HealthUnrecorded HealthStatus = "unrecorded"
	HealthExcellent  HealthStatus = "excellent"
	HealthGood       HealthStatus = "good"
	HealthAverage    HealthStatus = "average"
	HealthPoor       HealthStatus = "poor"
)

// ParseHealthStatus maps free text onto a status; empty input means unrecorded.
func ParseHealthStatus(value string) (HealthStatus, error) {
	switch HealthStatus(strings.ToLower(strings.TrimSpace(value))) {
	case "", HealthUnrecorded:
		return HealthUnrecorded, nil
	case HealthExcellent:
		return HealthExcellent, nil
	case HealthGood:
		return HealthGood, nil
	case HealthAverage:
		return HealthAverage, nil
	case HealthPoor:
		return HealthPoor, nil
	}
	return "", fmt.Errorf("%w: unknown health status %q", ErrValidation, value)
}

// Observation is one snapshot of a colony's population and health.
type Observation struct {
	Timestamp  time.Time        `json:"timestamp" bson:"timestamp"`
	Population int              `json:"population" bson:"population"`
	Mortality  int              `json:"mortality" bson:"mortality"`
	EggsLarvae EggsLarvaeStatus `json:"eggs_larvae" bson:"eggs_larvae"`
	Health     HealthStatus     `json:"health" bson:"health"`

	naive bool
}

// Validate enforces the non-negative counters.
func (o Observation) Validate() error {
	if o.Population < 0 {
		return fmt.Errorf("%w: population must not be negative (got %d)", ErrValidation, o.Population)
	}
	if o.Mortality < 0 {
		return fmt.Errorf("%w: mortality must not be negative (got %d)", ErrValidation, o.Mortality)
	}
	return nil
}

// FeedingRecord is a completed feeding, produced by completing a Reminder.
type FeedingRecord struct {
	CompletedAt time.Time `json:"datetime" bson:"datetime"`
	FoodType    FoodType  `json:"food_type" bson:"food_type"`
	Quantity    string    `json:"quantity" bson:"quantity"`
	Description string    `json:"description" bson:"description"`
	ReminderID  string    `json:"reminder_id,omitempty" bson:"reminder_id,omitempty"`

	naive bool
}

// Colony owns its observation history, reminders, rules and feeding history.
type Colony struct {
	Name              string           `json:"name" bson:"name"`
	CollectionDate    Date             `json:"collection_date" bson:"collection_date"`
	Description       string           `json:"description" bson:"description"`
	Notes             string           `json:"notes" bson:"notes"`
	CreatedAt         time.Time        `json:"created_at" bson:"created_at"`
	History           []Observation    `json:"history" bson:"history"`
	FeedingSchedule   []Reminder       `json:"feeding_schedule" bson:"feeding_schedule"`
	RecurringSchedule []RecurrenceRule `json:"recurring_schedule" bson:"recurring_schedule"`
	FeedingHistory    []FeedingRecord  `json:"feeding_history" bson:"feeding_history"`

	// LegacyPopulation is only read from documents written before history existed.
	LegacyPopulation *int `json:"population,omitempty" bson:"population,omitempty"`
}

// Clone returns a deep copy safe to hand out of the store lock.
func (c Colony) Clone() Colony {
	out := c
	out.History = append([]Observation(nil), c.History...)
	out.FeedingSchedule = make([]Reminder, len(c.FeedingSchedule))
	for i, r := range c.FeedingSchedule {
		out.FeedingSchedule[i] = r.Clone()
	}
	out.RecurringSchedule = append([]RecurrenceRule(nil), c.RecurringSchedule...)
	out.FeedingHistory = append([]FeedingRecord(nil), c.FeedingHistory...)
	if c.LegacyPopulation != nil {
		v := *c.LegacyPopulation
		out.LegacyPopulation = &v
	}
	return out
}

// ReminderIndex returns the position of the reminder with the given id, or -1.
func (c *Colony) ReminderIndex(id string) int {
	for i := range c.FeedingSchedule {
		if c.FeedingSchedule[i].ID == id {
			return i
		}
	}
	return -1
}

// RuleIndex returns the position of the rule with the given id, or -1.
func (c *Colony) RuleIndex(id string) int {
	for i := range c.RecurringSchedule {
		if c.RecurringSchedule[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveReminderAt deletes the reminder at index i, preserving order.
func (c *Colony) RemoveReminderAt(i int) Reminder {
	removed := c.FeedingSchedule[i]
	c.FeedingSchedule = append(c.FeedingSchedule[:i], c.FeedingSchedule[i+1:]...)
	return removed
}

// RemoveRuleAt deletes the rule at index i, preserving order.
func (c *Colony) RemoveRuleAt(i int) RecurrenceRule {
	removed := c.RecurringSchedule[i]
	c.RecurringSchedule = append(c.RecurringSchedule[:i], c.RecurringSchedule[i+1:]...)
	return removed
}
