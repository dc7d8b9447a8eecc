package models

import (
	"time"

	"github.com/google/uuid"
)

// Settings holds notification toggles, channel credentials and display preferences.
type Settings struct {
	Notifications         bool   `json:"notifications" bson:"notifications"`
	NotificationsDesktop  bool   `json:"notifications_desktop" bson:"notifications_desktop"`
	NotificationsEmail    bool   `json:"notifications_email" bson:"notifications_email"`
	NotificationsWhatsApp bool   `json:"notifications_whatsapp" bson:"notifications_whatsapp"`
	NotificationsTelegram bool   `json:"notifications_telegram" bson:"notifications_telegram"`
	EmailSender           string `json:"email_sender" bson:"email_sender"`
	EmailPassword         string `json:"email_password" bson:"email_password"`
	EmailRecipient        string `json:"email_recipient" bson:"email_recipient"`
	SMTPServer            string `json:"smtp_server" bson:"smtp_server"`
	SMTPPort              int    `json:"smtp_port" bson:"smtp_port"`
	WhatsAppRecipient     string `json:"whatsapp_recipient" bson:"whatsapp_recipient"`
	TelegramChatID        int64  `json:"telegram_chat_id" bson:"telegram_chat_id"`
	Theme                 string `json:"theme" bson:"theme"`
	BackgroundImagePath   string `json:"background_image_path" bson:"background_image_path"`
}

// DefaultSettings mirrors the values a fresh installation starts with.
func DefaultSettings() Settings {
	return Settings{
		Notifications:        true,
		NotificationsDesktop: true,
		SMTPServer:           "smtp.gmail.com",
		SMTPPort:             587,
		Theme:                "dark",
	}
}

// Document is the whole persisted state: every colony plus the settings.
type Document struct {
	Colonies []Colony `json:"colonies" bson:"colonies"`
	Settings Settings `json:"settings" bson:"settings"`
}

// NewDocument returns an empty document with default settings.
func NewDocument() *Document {
	return &Document{Colonies: []Colony{}, Settings: DefaultSettings()}
}

// Colony returns a pointer into the document for the named colony, or nil.
func (d *Document) Colony(name string) *Colony {
	for i := range d.Colonies {
		if d.Colonies[i].Name == name {
			return &d.Colonies[i]
		}
	}
	return nil
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	out := &Document{Settings: d.Settings, Colonies: make([]Colony, len(d.Colonies))}
	for i, c := range d.Colonies {
		out.Colonies[i] = c.Clone()
	}
	return out
}

// Normalize upgrades documents written by older releases in place: missing
// collections become empty, records get surrogate ids, a legacy population
// field becomes the seed observation, an empty food type becomes "other" and
// zone-less timestamps are read in now's location. It reports whether
// anything changed.
func (d *Document) Normalize(now time.Time) bool {
	changed := false
	loc := now.Location()
	if d.Colonies == nil {
		d.Colonies = []Colony{}
		changed = true
	}
	if d.Settings.SMTPServer == "" {
		d.Settings.SMTPServer = DefaultSettings().SMTPServer
		changed = true
	}
	if d.Settings.SMTPPort == 0 {
		d.Settings.SMTPPort = DefaultSettings().SMTPPort
		changed = true
	}

	for i := range d.Colonies {
		c := &d.Colonies[i]
		if c.LegacyPopulation != nil {
			if len(c.History) == 0 {
				c.History = []Observation{{
					Timestamp:  now,
					Population: *c.LegacyPopulation,
					EggsLarvae: EggsUnrecorded,
					Health:     HealthUnrecorded,
				}}
			}
			c.LegacyPopulation = nil
			changed = true
		}
		if c.History == nil {
			c.History = []Observation{}
			changed = true
		}
		if c.FeedingSchedule == nil {
			c.FeedingSchedule = []Reminder{}
			changed = true
		}
		if c.RecurringSchedule == nil {
			c.RecurringSchedule = []RecurrenceRule{}
			changed = true
		}
		if c.FeedingHistory == nil {
			c.FeedingHistory = []FeedingRecord{}
			changed = true
		}
		for j := range c.History {
			if o := &c.History[j]; o.naive {
				o.Timestamp, o.naive = inLocation(o.Timestamp, loc), false
				changed = true
			}
		}
		for j := range c.FeedingSchedule {
			r := &c.FeedingSchedule[j]
			if r.naive {
				r.DueAt, r.naive = inLocation(r.DueAt, loc), false
				changed = true
			}
			if r.ID == "" {
				r.ID = NewID()
				changed = true
			}
			if r.FoodType == "" {
				r.FoodType = FoodOther
				changed = true
			}
		}
		for j := range c.RecurringSchedule {
			r := &c.RecurringSchedule[j]
			if r.ID == "" {
				r.ID = NewID()
				changed = true
			}
			if r.FoodType == "" {
				r.FoodType = FoodOther
				changed = true
			}
		}
		for j := range c.FeedingHistory {
			f := &c.FeedingHistory[j]
			if f.naive {
				f.CompletedAt, f.naive = inLocation(f.CompletedAt, loc), false
				changed = true
			}
			if f.FoodType == "" {
				f.FoodType = FoodOther
				changed = true
			}
		}
	}
	return changed
}

// NewID returns a fresh surrogate identifier for reminders and rules.
func NewID() string {
	return uuid.NewString()
}
