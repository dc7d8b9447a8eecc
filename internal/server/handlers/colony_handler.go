package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/service/colonies"
	"github.com/mamadbah2/antkeeper/internal/service/recurrence"
	"github.com/mamadbah2/antkeeper/internal/service/reminders"
	"github.com/mamadbah2/antkeeper/internal/service/timeseries"
)

const (
	defaultGraphWidth  = 600
	defaultGraphHeight = 300
	defaultGraphMargin = 40
)

// ColonyService is the colony lifecycle used by the HTTP layer.
type ColonyService interface {
	Create(ctx context.Context, in colonies.CreateInput) (models.Colony, error)
	Update(ctx context.Context, name string, in colonies.UpdateInput) (models.Colony, error)
	Delete(ctx context.Context, name string) error
	Get(name string) (models.Colony, error)
	List() []colonies.Summary
}

// ObservationService records and summarizes observations.
type ObservationService interface {
	RecordObservation(ctx context.Context, colony string, in timeseries.ObservationInput) (models.Observation, error)
	GraphSeries(colony string) ([]timeseries.Point, error)
	Graph(colony string, canvas timeseries.Canvas) (timeseries.Plot, error)
	Stats(colony string) (timeseries.Stats, error)
}

// ReminderService manages reminders and rules.
type ReminderService interface {
	AddSingle(ctx context.Context, colony string, in reminders.ReminderInput) (models.Reminder, error)
	AddRecurring(ctx context.Context, colony string, in reminders.RuleInput) (models.RecurrenceRule, error)
	RemoveSingle(ctx context.Context, colony, id string) error
	RemoveRecurring(ctx context.Context, colony, id string) error
	Complete(ctx context.Context, colony, id string) (models.FeedingRecord, error)
	Pending(colony string) ([]models.Reminder, error)
	Rules(colony string) ([]models.RecurrenceRule, error)
	History(colony string) ([]models.FeedingRecord, error)
}

// ColonyHandler serves the colony, observation and reminder routes.
type ColonyHandler struct {
	colonies     ColonyService
	observations ObservationService
	reminders    ReminderService
	logger       *zap.Logger
}

// NewColonyHandler constructs the HTTP handler adapter.
func NewColonyHandler(colonySvc ColonyService, observationSvc ObservationService, reminderSvc ReminderService, logger *zap.Logger) *ColonyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ColonyHandler{colonies: colonySvc, observations: observationSvc, reminders: reminderSvc, logger: logger}
}

func (h *ColonyHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// List returns colony summaries.
func (h *ColonyHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.colonies.List())
}

// Create adds a colony.
func (h *ColonyHandler) Create(c *gin.Context) {
	var in colonies.CreateInput
	if !h.bind(c, &in) {
		return
	}
	colony, err := h.colonies.Create(c.Request.Context(), in)
	respond(c, h.logger, http.StatusCreated, colony, err)
}

// Export returns the full colony record.
func (h *ColonyHandler) Export(c *gin.Context) {
	colony, err := h.colonies.Get(c.Param("name"))
	respond(c, h.logger, http.StatusOK, colony, err)
}

// Update edits colony metadata.
func (h *ColonyHandler) Update(c *gin.Context) {
	var in colonies.UpdateInput
	if !h.bind(c, &in) {
		return
	}
	colony, err := h.colonies.Update(c.Request.Context(), c.Param("name"), in)
	respond(c, h.logger, http.StatusOK, colony, err)
}

// Delete removes a colony.
func (h *ColonyHandler) Delete(c *gin.Context) {
	err := h.colonies.Delete(c.Request.Context(), c.Param("name"))
	respond(c, h.logger, http.StatusNoContent, nil, err)
}

// RecordObservation appends an observation.
func (h *ColonyHandler) RecordObservation(c *gin.Context) {
	var in timeseries.ObservationInput
	if !h.bind(c, &in) {
		return
	}
	obs, err := h.observations.RecordObservation(c.Request.Context(), c.Param("name"), in)
	respond(c, h.logger, http.StatusCreated, obs, err)
}

// Graph returns the laid-out population graph, or insufficient_data when the
// colony has fewer than two observations.
func (h *ColonyHandler) Graph(c *gin.Context) {
	canvas := timeseries.Canvas{
		Width:  queryFloat(c, "width", defaultGraphWidth),
		Height: queryFloat(c, "height", defaultGraphHeight),
		Margin: queryFloat(c, "margin", defaultGraphMargin),
	}
	if canvas.Width <= 2*canvas.Margin || canvas.Height <= 2*canvas.Margin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "canvas is smaller than its margins"})
		return
	}

	name := c.Param("name")
	plot, err := h.observations.Graph(name, canvas)
	if errors.Is(err, timeseries.ErrInsufficientData) {
		c.JSON(http.StatusOK, gin.H{"insufficient_data": true})
		return
	}
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	points, err := h.observations.GraphSeries(name)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"insufficient_data": false,
		"points":            points,
		"deltas":            timeseries.Deltas(points),
		"plot":              plot,
	})
}

// Stats returns the colony statistics.
func (h *ColonyHandler) Stats(c *gin.Context) {
	stats, err := h.observations.Stats(c.Param("name"))
	respond(c, h.logger, http.StatusOK, stats, err)
}

// Reminders lists pending single reminders.
func (h *ColonyHandler) Reminders(c *gin.Context) {
	pending, err := h.reminders.Pending(c.Param("name"))
	respond(c, h.logger, http.StatusOK, pending, err)
}

// AddReminder schedules a single reminder.
func (h *ColonyHandler) AddReminder(c *gin.Context) {
	var in reminders.ReminderInput
	if !h.bind(c, &in) {
		return
	}
	r, err := h.reminders.AddSingle(c.Request.Context(), c.Param("name"), in)
	respond(c, h.logger, http.StatusCreated, r, err)
}

// RemoveReminder deletes a single reminder.
func (h *ColonyHandler) RemoveReminder(c *gin.Context) {
	err := h.reminders.RemoveSingle(c.Request.Context(), c.Param("name"), c.Param("id"))
	respond(c, h.logger, http.StatusNoContent, nil, err)
}

// CompleteReminder turns a reminder into a feeding record.
func (h *ColonyHandler) CompleteReminder(c *gin.Context) {
	record, err := h.reminders.Complete(c.Request.Context(), c.Param("name"), c.Param("id"))
	respond(c, h.logger, http.StatusOK, record, err)
}

// Rules lists recurring rules.
func (h *ColonyHandler) Rules(c *gin.Context) {
	rules, err := h.reminders.Rules(c.Param("name"))
	respond(c, h.logger, http.StatusOK, rules, err)
}

// AddRule creates a recurring rule.
func (h *ColonyHandler) AddRule(c *gin.Context) {
	var in reminders.RuleInput
	if !h.bind(c, &in) {
		return
	}
	rule, err := h.reminders.AddRecurring(c.Request.Context(), c.Param("name"), in)
	respond(c, h.logger, http.StatusCreated, rule, err)
}

// RemoveRule deletes a recurring rule.
func (h *ColonyHandler) RemoveRule(c *gin.Context) {
	err := h.reminders.RemoveRecurring(c.Request.Context(), c.Param("name"), c.Param("id"))
	respond(c, h.logger, http.StatusNoContent, nil, err)
}

// Feedings lists completed feedings.
func (h *ColonyHandler) Feedings(c *gin.Context) {
	history, err := h.reminders.History(c.Param("name"))
	respond(c, h.logger, http.StatusOK, history, err)
}

// Snapshotter hands out a copy of the whole document.
type Snapshotter interface {
	Snapshot() *models.Document
}

// CalendarHandler serves the month and day views.
type CalendarHandler struct {
	store  Snapshotter
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewCalendarHandler constructs the calendar handler.
func NewCalendarHandler(store Snapshotter, loc *time.Location, now func() time.Time, logger *zap.Logger) *CalendarHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{store: store, loc: loc, now: now, logger: logger}
}

// Month lists the dates with activity in ?month=YYYY-MM (default: this month).
func (h *CalendarHandler) Month(c *gin.Context) {
	year, month := h.now().In(h.loc).Year(), h.now().In(h.loc).Month()
	if raw := c.Query("month"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid month %q", raw)})
			return
		}
		year, month = t.Year(), t.Month()
	}

	window := recurrence.MonthWindow(year, month)
	doc := h.store.Snapshot()
	dates := recurrence.SortedDates(recurrence.DatesWithActivity(doc.Colonies, window, h.loc))

	c.JSON(http.StatusOK, gin.H{
		"month": fmt.Sprintf("%04d-%02d", year, int(month)),
		"dates": dates,
	})
}

// Day lists the events on :date.
func (h *CalendarHandler) Day(c *gin.Context) {
	day, err := models.ParseDate(c.Param("date"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	doc := h.store.Snapshot()
	events := recurrence.EventsOn(doc.Colonies, day, h.loc)
	if events == nil {
		events = []recurrence.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"date": day, "events": events})
}

func queryFloat(c *gin.Context, key string, fallback float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
