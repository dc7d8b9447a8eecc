// Package notify fans reminder notifications out to the configured channels.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

// AppName signs outgoing messages.
const AppName = "Ant Colony Monitor"

// Notification is a message ready for any channel. Title and Body suit short
// pop-up style channels; Subject and EmailBody are the mail rendering.
type Notification struct {
	Colony      string
	ReminderID  string
	DueAt       time.Time
	Description string
	Title       string
	Body        string
	Subject     string
	EmailBody   string
}

// ForReminder renders the feeding reminder texts. DueAt is shown in loc.
func ForReminder(colony string, r models.Reminder, loc *time.Location) Notification {
	if loc == nil {
		loc = time.Local
	}
	due := r.DueAt.In(loc)

	body := fmt.Sprintf("Time to feed the colony '%s'! (At %s)", colony, due.Format("15:04"))
	if r.Description != "" {
		body += "\nNotes: " + r.Description
	}
	if food := foodLine(r); food != "" {
		body += "\n" + food
	}

	var mail strings.Builder
	fmt.Fprintf(&mail, "Hello,\n\nThis is a feeding reminder for the colony '%s'.\n", colony)
	fmt.Fprintf(&mail, "Feeding is due at %s today, %s.\n", due.Format("15:04"), due.Format("02-01-2006"))
	if r.Description != "" {
		fmt.Fprintf(&mail, "Notes: %s\n", r.Description)
	}
	if food := foodLine(r); food != "" {
		fmt.Fprintf(&mail, "%s\n", food)
	}
	fmt.Fprintf(&mail, "\nRegards,\n%s", AppName)

	return Notification{
		Colony:      colony,
		ReminderID:  r.ID,
		DueAt:       r.DueAt,
		Description: r.Description,
		Title:       "Feeding reminder - " + colony,
		Body:        body,
		Subject:     "Feeding reminder: " + colony,
		EmailBody:   mail.String(),
	}
}

func foodLine(r models.Reminder) string {
	if r.FoodType == "" || (r.FoodType == models.FoodOther && r.Quantity == "") {
		return ""
	}
	if r.Quantity == "" {
		return fmt.Sprintf("Food: %s", r.FoodType)
	}
	return fmt.Sprintf("Food: %s (%s)", r.FoodType, r.Quantity)
}

// Digest wraps a free-form report as a notification.
func Digest(title, body string) Notification {
	return Notification{
		Title:     title,
		Body:      body,
		Subject:   title,
		EmailBody: body + "\n\n" + AppName,
	}
}

// Text is the single-message rendering used by chat channels.
func (n Notification) Text() string {
	if n.Title == "" {
		return n.Body
	}
	return n.Title + "\n" + n.Body
}
