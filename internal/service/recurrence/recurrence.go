// Package recurrence expands recurring feeding rules into concrete reminders
// and projects them onto calendar windows.
package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

// IsDue reports whether day is an occurrence of a rule starting at start and
// repeating every interval days. The start day itself is always due.
func IsDue(start models.Date, interval int, day models.Date) bool {
	if interval < 1 || day.Before(start) {
		return false
	}
	return day.DaysSince(start)%interval == 0
}

// Description is the text given to materialized reminders.
func Description(interval int) string {
	return fmt.Sprintf("Recurring reminder (every %d days)", interval)
}

// HasReminderOn reports whether the schedule already holds a reminder on day,
// whatever produced it. This is the dedup key for materialization.
func HasReminderOn(schedule []models.Reminder, day models.Date, loc *time.Location) bool {
	for _, r := range schedule {
		if models.DateOf(r.DueAt, loc) == day {
			return true
		}
	}
	return false
}

// Materialize appends today's reminder for rule when today is due and the
// colony has no reminder on that date yet. It is idempotent per day and must
// run under the document lock.
func Materialize(c *models.Colony, rule models.RecurrenceRule, today models.Date, loc *time.Location, newID func() string) (models.Reminder, bool) {
	if !IsDue(rule.StartDate, rule.IntervalDays, today) {
		return models.Reminder{}, false
	}
	if HasReminderOn(c.FeedingSchedule, today, loc) {
		return models.Reminder{}, false
	}

	reminder := models.Reminder{
		ID:          newID(),
		DueAt:       today.Midnight(loc),
		Description: Description(rule.IntervalDays),
		FoodType:    rule.FoodType,
		Quantity:    rule.Quantity,
		RuleID:      rule.ID,
	}
	c.FeedingSchedule = append(c.FeedingSchedule, reminder)
	return reminder, true
}

// Window is an inclusive range of calendar days.
type Window struct {
	From models.Date
	To   models.Date
}

// MonthWindow covers every day of the given month.
func MonthWindow(year int, month time.Month) Window {
	first := models.NewDate(year, month, 1)
	return Window{From: first, To: models.NewDate(year, month+1, 1).AddDays(-1)}
}

// Contains reports whether day lies inside the window.
func (w Window) Contains(day models.Date) bool {
	return !day.Before(w.From) && !day.After(w.To)
}

// DueDates lists the occurrences of rule inside the window, in order.
func DueDates(rule models.RecurrenceRule, w Window) []models.Date {
	if rule.IntervalDays < 1 || rule.StartDate.IsZero() || w.To.Before(rule.StartDate) {
		return nil
	}

	day := rule.StartDate
	if day.Before(w.From) {
		// Jump to the first occurrence on or after the window start.
		gap := w.From.DaysSince(rule.StartDate)
		steps := (gap + rule.IntervalDays - 1) / rule.IntervalDays
		day = rule.StartDate.AddDays(steps * rule.IntervalDays)
	}

	var out []models.Date
	for !day.After(w.To) {
		out = append(out, day)
		day = day.AddDays(rule.IntervalDays)
	}
	return out
}

// DatesWithActivity returns the single-reminder dates and rule occurrences
// that fall inside the window. It never creates reminders.
func DatesWithActivity(colonies []models.Colony, w Window, loc *time.Location) map[models.Date]struct{} {
	dates := make(map[models.Date]struct{})
	for _, c := range colonies {
		for _, r := range c.FeedingSchedule {
			if r.DueAt.IsZero() {
				continue
			}
			if d := models.DateOf(r.DueAt, loc); w.Contains(d) {
				dates[d] = struct{}{}
			}
		}
		for _, rule := range c.RecurringSchedule {
			for _, d := range DueDates(rule, w) {
				dates[d] = struct{}{}
			}
		}
	}
	return dates
}

// SortedDates flattens a date set in ascending order.
func SortedDates(set map[models.Date]struct{}) []models.Date {
	out := make([]models.Date, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Event is one entry of a day view.
type Event struct {
	Colony      string          `json:"colony"`
	ReminderID  string          `json:"reminder_id,omitempty"`
	RuleID      string          `json:"rule_id,omitempty"`
	At          time.Time       `json:"at"`
	Description string          `json:"description"`
	FoodType    models.FoodType `json:"food_type"`
	Quantity    string          `json:"quantity"`
	Recurring   bool            `json:"recurring"`
}

// EventsOn lists the single reminders due on day plus the rule occurrences
// that have not been materialized yet, ordered by time then colony.
func EventsOn(colonies []models.Colony, day models.Date, loc *time.Location) []Event {
	var events []Event
	for _, c := range colonies {
		materialized := make(map[string]bool)
		for _, r := range c.FeedingSchedule {
			if r.DueAt.IsZero() || models.DateOf(r.DueAt, loc) != day {
				continue
			}
			if r.RuleID != "" {
				materialized[r.RuleID] = true
			}
			events = append(events, Event{
				Colony:      c.Name,
				ReminderID:  r.ID,
				RuleID:      r.RuleID,
				At:          r.DueAt.In(loc),
				Description: r.Description,
				FoodType:    r.FoodType,
				Quantity:    r.Quantity,
			})
		}
		for _, rule := range c.RecurringSchedule {
			if materialized[rule.ID] || !IsDue(rule.StartDate, rule.IntervalDays, day) {
				continue
			}
			events = append(events, Event{
				Colony:      c.Name,
				RuleID:      rule.ID,
				At:          day.Midnight(loc),
				Description: Description(rule.IntervalDays),
				FoodType:    rule.FoodType,
				Quantity:    rule.Quantity,
				Recurring:   true,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].At.Equal(events[j].At) {
			return events[i].At.Before(events[j].At)
		}
		return events[i].Colony < events[j].Colony
	})
	return events
}
