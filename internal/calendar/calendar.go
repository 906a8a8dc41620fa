// Package calendar selects events for month views, day views and grid cells.
package calendar

import (
	"slices"
	"time"

	"github.com/sadopc/mindjournal/internal/store"
)

// EventSource is the part of the store the calendar reads from.
type EventSource interface {
	ListEvents(userID string, r *store.Range) ([]store.Event, error)
	EventsTouching(userID string, from, to time.Time) ([]store.Event, error)
}

// MonthRange returns the first and last instant of ref's month in ref's
// location. The last instant is 23:59:59.999 of the final day.
func MonthRange(ref time.Time) store.Range {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return store.Range{From: first, To: first.AddDate(0, 1, 0).Add(-time.Millisecond)}
}

// DayBounds returns 00:00:00.000 and 23:59:59.999 of day in day's location.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}

// MonthEvents fetches events overlapping ref's month.
func MonthEvents(src EventSource, userID string, ref time.Time) ([]store.Event, error) {
	r := MonthRange(ref)
	return src.ListEvents(userID, &r)
}

// ForDate fetches events that start on, end on, or span day.
func ForDate(src EventSource, userID string, day time.Time) ([]store.Event, error) {
	start, end := DayBounds(day)
	return src.EventsTouching(userID, start, end)
}

// OnDate is the in-memory form of ForDate.
func OnDate(events []store.Event, day time.Time) []store.Event {
	start, end := DayBounds(day)
	return filter(events, func(e store.Event) bool {
		return within(e.StartDate, start, end) ||
			within(e.EndDate, start, end) ||
			(!e.StartDate.After(start) && !e.EndDate.Before(end))
	})
}

// OnGridDay buckets an already fetched month into one grid cell. All-day
// events cover every date from start to end inclusive; timed events appear
// only on the day they start.
func OnGridDay(events []store.Event, day time.Time) []store.Event {
	loc := day.Location()
	return filter(events, func(e store.Event) bool {
		if e.AllDay {
			return !dateOf(day, loc).Before(dateOf(e.StartDate, loc)) &&
				!dateOf(day, loc).After(dateOf(e.EndDate, loc))
		}
		return SameDay(e.StartDate, day)
	})
}

// InRange keeps events whose [start, end] overlaps r.
func InRange(events []store.Event, r store.Range) []store.Event {
	return filter(events, func(e store.Event) bool {
		return !e.StartDate.After(r.To) && !e.EndDate.Before(r.From)
	})
}

// SortByStart orders events ascending by start, keeping the input order for
// equal starts.
func SortByStart(events []store.Event) {
	slices.SortStableFunc(events, func(a, b store.Event) int {
		return a.StartDate.Compare(b.StartDate)
	})
}

// GridDays returns every day from the start of the week containing the 1st
// of ref's month to the end of the week containing its last day.
func GridDays(ref time.Time, weekStart time.Weekday) []time.Time {
	loc := ref.Location()
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -((int(first.Weekday()) - int(weekStart) + 7) % 7))
	end := last.AddDate(0, 0, (int(weekStart)+6-int(last.Weekday())+7)%7)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// SameDay reports whether a and b fall on the same calendar date in b's
// location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func filter(events []store.Event, keep func(store.Event) bool) []store.Event {
	out := []store.Event{}
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	SortByStart(out)
	return out
}
