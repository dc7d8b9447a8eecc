// Package scheduler runs the periodic reminder cycle and the weekly digest.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
	"github.com/mamadbah2/antkeeper/internal/notify"
	"github.com/mamadbah2/antkeeper/internal/service/recurrence"
	"github.com/mamadbah2/antkeeper/internal/service/reporting"
	"github.com/mamadbah2/antkeeper/internal/store"
)

// DefaultDueWindow is how long after its due instant a reminder still fires.
const DefaultDueWindow = 5 * time.Minute

// Dispatcher delivers a notification to every configured channel.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notify.Notification) error
	SetChannels(channels []notify.Channel)
}

// Options configures a Scheduler. Zero values select the defaults.
type Options struct {
	Interval       time.Duration
	DueWindow      time.Duration
	DigestSchedule string
	Location       *time.Location
	Clock          clockwork.Clock
}

// Due is a reminder selected for notification during a cycle.
type Due struct {
	Colony   string
	Reminder models.Reminder
}

// CycleReport summarizes one pass over the document.
type CycleReport struct {
	Materialized     int
	CorruptRules     int
	CorruptReminders int
	Due              []Due
	Notified         int
	Failed           int
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	store      *store.Store
	dispatcher Dispatcher
	digest     *reporting.Service
	opts       Options
	logger     *zap.Logger
	newID      func() string

	mu         sync.Mutex
	wg         sync.WaitGroup
	running    bool
	cycleCtx   context.Context
	cancelRuns context.CancelFunc
}

// NewScheduler creates a new scheduler instance. digest may be nil to skip
// the weekly report.
func NewScheduler(st *store.Store, dispatcher Dispatcher, digest *reporting.Service, opts Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.DueWindow <= 0 {
		opts.DueWindow = DefaultDueWindow
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Scheduler{
		store:      st,
		dispatcher: dispatcher,
		digest:     digest,
		opts:       opts,
		logger:     logger,
		newID:      models.NewID,
	}
}

// Start registers the jobs on a fresh cron loop, runs a first cycle right
// away and starts the loop. Calling Start while running is a no-op; Start
// after Stop begins a new loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.logger.Info("starting scheduler",
		zap.Duration("interval", s.opts.Interval),
		zap.Duration("due_window", s.opts.DueWindow))

	c := s.newCron()
	c.Schedule(cron.Every(s.opts.Interval), cron.FuncJob(s.tick))

	if s.digest != nil && s.opts.DigestSchedule != "" {
		if _, err := c.AddFunc(s.opts.DigestSchedule, s.sendWeeklyDigest); err != nil {
			return err
		}
	}

	s.cron = c
	s.cycleCtx, s.cancelRuns = context.WithCancel(context.Background())
	s.cron.Start()
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick()
	}()
	return nil
}

// Stop stops the loop, cancels a running cycle between colonies and waits
// for it to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancelRuns
	c := s.cron
	s.mu.Unlock()

	s.logger.Info("stopping scheduler")
	cancel()
	cronDone := c.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restart swaps the notification channels after a settings change. The next
// cycle uses the new set.
func (s *Scheduler) Restart(channels []notify.Channel) {
	s.dispatcher.SetChannels(channels)
	s.logger.Info("scheduler channels reloaded", zap.Int("channels", len(channels)))
}

func (s *Scheduler) newCron() *cron.Cron {
	cronLogger := cronLog{logger: s.logger.Named("cron")}
	return cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.cycleCtx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	report := s.RunCycle(ctx)
	if report.Materialized+report.CorruptRules+report.CorruptReminders+len(report.Due) > 0 {
		s.logger.Info("reminder cycle finished",
			zap.Int("materialized", report.Materialized),
			zap.Int("corrupt_rules", report.CorruptRules),
			zap.Int("corrupt_reminders", report.CorruptReminders),
			zap.Int("due", len(report.Due)),
			zap.Int("notified", report.Notified),
			zap.Int("failed", report.Failed))
	}
}

// RunCycle performs one scheduling pass: materialize recurring rules, select
// due reminders, then dispatch them after the document lock is released.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	var report CycleReport
	now := s.opts.Clock.Now()
	today := models.DateOf(now, s.opts.Location)

	names := s.store.ColonyNames()

	for _, name := range names {
		if ctx.Err() != nil {
			return report
		}
		s.expandRules(ctx, name, today, &report)
	}

	for _, name := range names {
		if ctx.Err() != nil {
			return report
		}
		s.collectDue(ctx, name, now, &report)
	}

	for i, due := range report.Due {
		if ctx.Err() != nil {
			s.logger.Info("cycle cancelled before dispatch", zap.Int("pending", len(report.Due)-i))
			s.releaseMarkers(ctx, report.Due[i:])
			break
		}
		n := notify.ForReminder(due.Colony, due.Reminder, s.opts.Location)
		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			report.Failed++
			s.logger.Warn("reminder notification failed",
				zap.String("colony", due.Colony),
				zap.String("reminder_id", due.Reminder.ID),
				zap.Error(err))
			if errors.Is(err, notify.ErrUndelivered) {
				s.releaseMarkers(ctx, report.Due[i:i+1])
			}
			continue
		}
		report.Notified++
	}

	return report
}

// releaseMarkers clears the notification marker set for dues nothing was
// delivered for, so a later cycle inside the same window picks them up again.
// A reminder delivered on at least one channel stays marked.
func (s *Scheduler) releaseMarkers(ctx context.Context, dues []Due) {
	ctx = context.WithoutCancel(ctx)
	for _, due := range dues {
		marked := due.Reminder.LastNotifiedAt
		if marked == nil {
			continue
		}
		err := s.store.UpdateColony(ctx, due.Colony, func(c *models.Colony) error {
			i := c.ReminderIndex(due.Reminder.ID)
			if i < 0 {
				return store.ErrUnchanged
			}
			r := &c.FeedingSchedule[i]
			if r.LastNotifiedAt == nil || !r.LastNotifiedAt.Equal(*marked) {
				return store.ErrUnchanged
			}
			r.LastNotifiedAt = nil
			return nil
		})
		s.logUpdateError("release notification marker", due.Colony, err)
	}
}

func (s *Scheduler) expandRules(ctx context.Context, name string, today models.Date, report *CycleReport) {
	err := s.store.UpdateColony(ctx, name, func(c *models.Colony) error {
		changed := false
		kept := c.RecurringSchedule[:0]
		for _, rule := range c.RecurringSchedule {
			if err := rule.Check(); err != nil {
				s.logger.Warn("removing corrupt recurring rule", zap.String("colony", name), zap.Error(err))
				report.CorruptRules++
				changed = true
				continue
			}
			kept = append(kept, rule)
		}
		c.RecurringSchedule = kept

		for _, rule := range c.RecurringSchedule {
			if r, ok := recurrence.Materialize(c, rule, today, s.opts.Location, s.newID); ok {
				s.logger.Info("recurring reminder generated",
					zap.String("colony", name),
					zap.String("rule_id", rule.ID),
					zap.Time("due_at", r.DueAt))
				report.Materialized++
				changed = true
			}
		}

		if !changed {
			return store.ErrUnchanged
		}
		return nil
	})
	s.logUpdateError("expand recurring rules", name, err)
}

func (s *Scheduler) collectDue(ctx context.Context, name string, now time.Time, report *CycleReport) {
	err := s.store.UpdateColony(ctx, name, func(c *models.Colony) error {
		changed := false
		kept := c.FeedingSchedule[:0]
		for _, r := range c.FeedingSchedule {
			if err := r.Check(); err != nil {
				s.logger.Warn("removing corrupt reminder", zap.String("colony", name), zap.Error(err))
				report.CorruptReminders++
				changed = true
				continue
			}
			kept = append(kept, r)
		}
		c.FeedingSchedule = kept

		for i := range c.FeedingSchedule {
			r := &c.FeedingSchedule[i]
			if !r.InWindow(now, s.opts.DueWindow) || r.NotifiedInWindow() {
				continue
			}
			marked := now
			r.LastNotifiedAt = &marked
			report.Due = append(report.Due, Due{Colony: name, Reminder: r.Clone()})
			changed = true
		}

		if !changed {
			return store.ErrUnchanged
		}
		return nil
	})
	s.logUpdateError("collect due reminders", name, err)
}

func (s *Scheduler) logUpdateError(step, colony string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, models.ErrPersistence):
		s.logger.Error("cycle changes kept in memory only", zap.String("step", step), zap.String("colony", colony), zap.Error(err))
	case errors.Is(err, models.ErrNotFound):
		s.logger.Debug("colony removed during cycle", zap.String("colony", colony))
	default:
		s.logger.Error("cycle step failed", zap.String("step", step), zap.String("colony", colony), zap.Error(err))
	}
}

func (s *Scheduler) sendWeeklyDigest() {
	s.logger.Info("generating weekly digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	text, err := s.digest.GenerateWeeklyDigest(ctx, s.opts.Clock.Now())
	if err != nil {
		s.logger.Error("failed to generate weekly digest", zap.Error(err))
		return
	}

	if err := s.dispatcher.Dispatch(ctx, notify.Digest("Weekly colony digest", text)); err != nil {
		s.logger.Error("failed to send weekly digest", zap.Error(err))
	} else {
		s.logger.Info("weekly digest sent successfully")
	}
}

// cronLog adapts zap to cron.Logger.
type cronLog struct {
	logger *zap.Logger
}

func (l cronLog) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLog) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
