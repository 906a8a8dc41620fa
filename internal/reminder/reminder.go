// Package reminder fires event reminders on a cron schedule.
package reminder

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sadopc/mindjournal/internal/logger"
	"github.com/sadopc/mindjournal/internal/store"
)

type Reminder struct {
	Event store.Event
	At    time.Time
}

// Due returns the reminders of enabled events whose instant falls in
// (from, to], earliest first.
func Due(events []store.Event, from, to time.Time) []Reminder {
	var out []Reminder
	for _, e := range events {
		if !e.NotificationEnabled {
			continue
		}
		at := e.ReminderAt()
		if at.After(from) && !at.After(to) {
			out = append(out, Reminder{Event: e, At: at})
		}
	}
	slices.SortStableFunc(out, func(a, b Reminder) int { return a.At.Compare(b.At) })
	return out
}

// Notifier delivers one reminder.
type Notifier interface {
	Notify(r Reminder) error
}

// NotifierFunc adapts a plain func.
type NotifierFunc func(Reminder) error

func (f NotifierFunc) Notify(r Reminder) error { return f(r) }

// LogNotifier writes reminders to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(r Reminder) error {
	logger.Info("reminder",
		"event", r.Event.Title,
		"user", r.Event.UserID,
		"starts", r.Event.StartDate.Local().Format("2006-01-02 15:04"),
		"minutes_before", r.Event.NotificationMinutes,
	)
	return nil
}

// Source lists events whose reminders may still fire.
type Source interface {
	PendingNotifications(after time.Time) ([]store.Event, error)
}

type Scheduler struct {
	src      Source
	notifier Notifier
	cron     *cron.Cron
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler registers a job on spec (standard cron or @every
// descriptors). Reminders already due before the scheduler was created are
// not replayed.
func NewScheduler(src Source, n Notifier, spec string, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{src: src, notifier: n, now: time.Now, cron: cron.New()}
	for _, opt := range opts {
		opt(s)
	}
	s.last = s.now()
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Tick(); err != nil {
			logger.Error("reminder tick failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Tick delivers every reminder that became due since the previous tick and
// returns how many were sent. A failed lookup keeps the window open so the
// next tick retries it.
func (s *Scheduler) Tick() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	events, err := s.src.PendingNotifications(s.last)
	if err != nil {
		return 0, fmt.Errorf("pending notifications: %w", err)
	}
	sent := 0
	for _, r := range Due(events, s.last, now) {
		if err := s.notifier.Notify(r); err != nil {
			logger.Warn("reminder not delivered", "event", r.Event.ID, "error", err)
			continue
		}
		sent++
	}
	s.last = now
	return sent, nil
}
