package models

import (
	"fmt"
	"strings"
	"time"
)

// FoodType enumerates what a colony is fed.
type FoodType string

const (
	FoodProtein FoodType = "protein"
	FoodSugar   FoodType = "sugar"
	FoodInsect  FoodType = "insect"
	FoodHoney   FoodType = "honey"
	FoodWater   FoodType = "water"
	FoodOther   FoodType = "other"
)

var foodTypes = []FoodType{FoodProtein, FoodSugar, FoodInsect, FoodHoney, FoodWater, FoodOther}

// ParseFoodType accepts any casing of a known food type.
func ParseFoodType(value string) (FoodType, error) {
	normalized := FoodType(strings.ToLower(strings.TrimSpace(value)))
	if normalized.Valid() {
		return normalized, nil
	}
	return "", fmt.Errorf("%w: unknown food type %q", ErrValidation, value)
}

// Valid reports whether f is one of the known food types.
func (f FoodType) Valid() bool {
	for _, known := range foodTypes {
		if f == known {
			return true
		}
	}
	return false
}

// Reminder is a single scheduled feeding with a concrete due instant.
type Reminder struct {
	ID          string    `json:"id" bson:"id"`
	DueAt       time.Time `json:"datetime" bson:"datetime"`
	Description string    `json:"description" bson:"description"`
	FoodType    FoodType  `json:"food_type" bson:"food_type"`
	Quantity    string    `json:"quantity" bson:"quantity"`
	RuleID      string    `json:"rule_id,omitempty" bson:"rule_id,omitempty"`

	// LastNotifiedAt is set when a notification went out for the current due window.
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty" bson:"last_notified_at,omitempty"`

	naive   bool
	corrupt string
}

// Clone copies the reminder including its notification marker.
func (r Reminder) Clone() Reminder {
	out := r
	if r.LastNotifiedAt != nil {
		t := *r.LastNotifiedAt
		out.LastNotifiedAt = &t
	}
	return out
}

// Check reports whether a stored reminder can be scheduled at all.
func (r Reminder) Check() error {
	switch {
	case r.corrupt != "":
		return fmt.Errorf("%w: reminder %q unreadable: %s", ErrCorruptRecord, r.ID, r.corrupt)
	case r.ID == "":
		return fmt.Errorf("%w: reminder without id", ErrCorruptRecord)
	case r.DueAt.IsZero():
		return fmt.Errorf("%w: reminder %s has no due time", ErrCorruptRecord, r.ID)
	case !r.FoodType.Valid():
		return fmt.Errorf("%w: reminder %s has food type %q", ErrCorruptRecord, r.ID, r.FoodType)
	}
	return nil
}

// InWindow reports whether now falls in [DueAt, DueAt+window).
func (r Reminder) InWindow(now time.Time, window time.Duration) bool {
	return !now.Before(r.DueAt) && now.Before(r.DueAt.Add(window))
}

// NotifiedInWindow reports whether a notification already went out for the current due instant.
func (r Reminder) NotifiedInWindow() bool {
	return r.LastNotifiedAt != nil && !r.LastNotifiedAt.Before(r.DueAt)
}

// RecurrenceRule generates a reminder every IntervalDays starting at StartDate.
type RecurrenceRule struct {
	ID           string   `json:"id" bson:"id"`
	StartDate    Date     `json:"start_date" bson:"start_date"`
	IntervalDays int      `json:"interval" bson:"interval"`
	FoodType     FoodType `json:"food_type" bson:"food_type"`
	Quantity     string   `json:"quantity" bson:"quantity"`

	corrupt string
}

// Check reports whether a stored rule can be expanded.
func (r RecurrenceRule) Check() error {
	switch {
	case r.corrupt != "":
		return fmt.Errorf("%w: recurring rule %q unreadable: %s", ErrCorruptRecord, r.ID, r.corrupt)
	case r.ID == "":
		return fmt.Errorf("%w: recurring rule without id", ErrCorruptRecord)
	case r.StartDate.IsZero():
		return fmt.Errorf("%w: recurring rule %s has no start date", ErrCorruptRecord, r.ID)
	case r.IntervalDays < 1:
		return fmt.Errorf("%w: recurring rule %s has interval %d", ErrCorruptRecord, r.ID, r.IntervalDays)
	case !r.FoodType.Valid():
		return fmt.Errorf("%w: recurring rule %s has food type %q", ErrCorruptRecord, r.ID, r.FoodType)
	}
	return nil
}
