package reminder

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/mindjournal/internal/store"
)

var base = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func event(title string, start time.Time, minutes int, enabled bool) store.Event {
	return store.Event{
		ID:                  title,
		Title:               title,
		StartDate:           start,
		EndDate:             start.Add(time.Hour),
		NotificationEnabled: enabled,
		NotificationMinutes: minutes,
	}
}

func TestDue(t *testing.T) {
	events := []store.Event{
		event("later", base.Add(30*time.Minute), 15, true),     // 09:15
		event("now", base.Add(20*time.Minute), 15, true),       // 09:05
		event("edge", base.Add(15*time.Minute), 15, true),      // 09:00, excluded (from is open)
		event("disabled", base.Add(20*time.Minute), 15, false), // off
		event("far", base.Add(48*time.Hour), 1440, true),       // tomorrow
		event("at-start", base.Add(10*time.Minute), 0, true),   // 09:10
	}
	got := Due(events, base, base.Add(15*time.Minute))
	want := []string{"now", "at-start", "later"}
	if len(got) != len(want) {
		t.Fatalf("Due = %d reminders, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Event.Title != w {
			t.Fatalf("reminder[%d] = %s, want %s", i, got[i].Event.Title, w)
		}
	}
	if !got[0].At.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("At = %v", got[0].At)
	}
}

type fakeSource struct {
	events []store.Event
	err    error
	after  []time.Time
}

func (f *fakeSource) PendingNotifications(after time.Time) ([]store.Event, error) {
	f.after = append(f.after, after)
	var out []store.Event
	for _, e := range f.events {
		if e.StartDate.After(after) {
			out = append(out, e)
		}
	}
	return out, f.err
}

func TestSchedulerTick(t *testing.T) {
	now := base
	src := &fakeSource{events: []store.Event{
		event("a", base.Add(20*time.Minute), 15, true), // 09:05
		event("b", base.Add(40*time.Minute), 15, true), // 09:25
	}}
	var sent []string
	n := NotifierFunc(func(r Reminder) error {
		sent = append(sent, r.Event.Title)
		return nil
	})

	s, err := NewScheduler(src, n, "@every 1m", WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}

	now = base.Add(10 * time.Minute)
	if c, err := s.Tick(); err != nil || c != 1 {
		t.Fatalf("first tick: %d, %v", c, err)
	}
	now = base.Add(20 * time.Minute)
	if c, _ := s.Tick(); c != 0 {
		t.Fatalf("second tick should send nothing, sent %d", c)
	}
	now = base.Add(30 * time.Minute)
	if c, _ := s.Tick(); c != 1 {
		t.Fatalf("third tick: %d", c)
	}
	if len(sent) != 2 || sent[0] != "a" || sent[1] != "b" {
		t.Fatalf("sent = %v", sent)
	}
	if !src.after[1].Equal(base.Add(10 * time.Minute)) {
		t.Fatalf("window did not advance: %v", src.after)
	}
}

func TestSchedulerTickErrorKeepsWindow(t *testing.T) {
	now := base
	src := &fakeSource{events: []store.Event{event("a", base.Add(20*time.Minute), 15, true)}}
	count := 0
	s, _ := NewScheduler(src, NotifierFunc(func(Reminder) error { count++; return nil }), "@every 1m",
		WithClock(func() time.Time { return now }))

	src.err = errors.New("db down")
	now = base.Add(10 * time.Minute)
	if _, err := s.Tick(); err == nil {
		t.Fatal("expected error")
	}

	src.err = nil
	if c, err := s.Tick(); err != nil || c != 1 {
		t.Fatalf("retry tick: %d, %v", c, err)
	}
	if count != 1 {
		t.Fatalf("notified %d times", count)
	}
}

func TestNotifierFailureSkipped(t *testing.T) {
	now := base
	src := &fakeSource{events: []store.Event{event("a", base.Add(20*time.Minute), 15, true)}}
	s, _ := NewScheduler(src, NotifierFunc(func(Reminder) error { return errors.New("nope") }), "@every 1m",
		WithClock(func() time.Time { return now }))
	now = base.Add(10 * time.Minute)
	if c, err := s.Tick(); err != nil || c != 0 {
		t.Fatalf("tick: %d, %v", c, err)
	}
}

func TestNewSchedulerInvalidSpec(t *testing.T) {
	if _, err := NewScheduler(&fakeSource{}, LogNotifier{}, "every so often"); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(&fakeSource{}, LogNotifier{}, "*/5 * * * *")
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(Reminder{Event: event("x", base, 5, true), At: base}); err != nil {
		t.Fatal(err)
	}
}
