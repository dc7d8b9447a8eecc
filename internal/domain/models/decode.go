package models

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// naiveLayouts are the zone-less timestamp forms older releases wrote.
// Document.Normalize moves such instants into the configured location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseStoredTime reads an RFC 3339 or zone-less instant. naive reports the
// latter, parsed as UTC wall clock.
func parseStoredTime(value string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, false, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: unreadable time %q", ErrCorruptRecord, value)
}

// inLocation keeps the wall clock of t and pins it to loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

type reminderJSON struct {
	ID             string     `json:"id"`
	DueAt          string     `json:"datetime"`
	Description    string     `json:"description"`
	FoodType       FoodType   `json:"food_type"`
	Quantity       string     `json:"quantity"`
	RuleID         string     `json:"rule_id"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
}

// UnmarshalJSON also accepts zone-less due times.
func (r *Reminder) UnmarshalJSON(data []byte) error {
	var wire reminderJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	due, naive, err := parseStoredTime(wire.DueAt)
	if err != nil {
		return err
	}
	*r = Reminder{
		ID:             wire.ID,
		DueAt:          due,
		Description:    wire.Description,
		FoodType:       wire.FoodType,
		Quantity:       wire.Quantity,
		RuleID:         wire.RuleID,
		LastNotifiedAt: wire.LastNotifiedAt,
		naive:          naive,
	}
	return nil
}

type observationJSON struct {
	Timestamp  string           `json:"timestamp"`
	Population int              `json:"population"`
	Mortality  int              `json:"mortality"`
	EggsLarvae EggsLarvaeStatus `json:"eggs_larvae"`
	Health     HealthStatus     `json:"health"`
}

// UnmarshalJSON also accepts zone-less timestamps.
func (o *Observation) UnmarshalJSON(data []byte) error {
	var wire observationJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	ts, naive, err := parseStoredTime(wire.Timestamp)
	if err != nil {
		return err
	}
	*o = Observation{
		Timestamp:  ts,
		Population: wire.Population,
		Mortality:  wire.Mortality,
		EggsLarvae: wire.EggsLarvae,
		Health:     wire.Health,
		naive:      naive,
	}
	return nil
}

type feedingRecordJSON struct {
	CompletedAt string   `json:"datetime"`
	FoodType    FoodType `json:"food_type"`
	Quantity    string   `json:"quantity"`
	Description string   `json:"description"`
	ReminderID  string   `json:"reminder_id"`
}

// UnmarshalJSON also accepts zone-less completion times.
func (f *FeedingRecord) UnmarshalJSON(data []byte) error {
	var wire feedingRecordJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	at, naive, err := parseStoredTime(wire.CompletedAt)
	if err != nil {
		return err
	}
	*f = FeedingRecord{
		CompletedAt: at,
		FoodType:    wire.FoodType,
		Quantity:    wire.Quantity,
		Description: wire.Description,
		ReminderID:  wire.ReminderID,
		naive:       naive,
	}
	return nil
}

// UnmarshalJSON decodes the schedules one entry at a time. An entry that
// cannot be read is kept as a corrupt placeholder, which Check reports, so a
// single bad record never fails the whole document.
func (c *Colony) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	schedule, rules := fields["feeding_schedule"], fields["recurring_schedule"]
	delete(fields, "feeding_schedule")
	delete(fields, "recurring_schedule")

	rest, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	type colonyFields Colony
	var out colonyFields
	if err := json.Unmarshal(rest, &out); err != nil {
		return err
	}

	if out.FeedingSchedule, err = decodeEntries(schedule, corruptReminder); err != nil {
		return fmt.Errorf("feeding_schedule: %w", err)
	}
	if out.RecurringSchedule, err = decodeEntries(rules, corruptRule); err != nil {
		return fmt.Errorf("recurring_schedule: %w", err)
	}

	*c = Colony(out)
	return nil
}

func decodeEntries[T any](raw json.RawMessage, broken func(json.RawMessage, error) T) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			v = broken(item, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// storedID recovers the id of an entry that otherwise failed to decode.
func storedID(raw json.RawMessage) string {
	var ref struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &ref)
	return ref.ID
}

func corruptReminder(raw json.RawMessage, err error) Reminder {
	return Reminder{ID: storedID(raw), corrupt: err.Error()}
}

func corruptRule(raw json.RawMessage, err error) RecurrenceRule {
	return RecurrenceRule{ID: storedID(raw), corrupt: err.Error()}
}
