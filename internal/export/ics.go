package export

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sadopc/mindjournal/internal/store"
)

const productID = "-//mindjournal//calendar export//EN"

// BuildICS converts events to a VCALENDAR. All-day events use DATE values
// in loc with an exclusive DTEND; events with reminders get a display VALARM.
func BuildICS(events []store.Event, loc *time.Location) *ical.Calendar {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		ve := cal.AddEvent(e.ID + "@mindjournal")
		ve.SetCreatedTime(e.CreatedAt)
		ve.SetDtStampTime(e.UpdatedAt)
		ve.SetModifiedAt(e.UpdatedAt)
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		if e.AllDay {
			ve.SetAllDayStartAt(e.StartDate.In(loc))
			ve.SetAllDayEndAt(e.EndDate.In(loc).AddDate(0, 0, 1))
		} else {
			ve.SetStartAt(e.StartDate)
			ve.SetEndAt(e.EndDate)
		}
		if e.NotificationEnabled {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(trigger(e.NotificationMinutes))
			alarm.SetProperty(ical.ComponentPropertyDescription, e.Title)
		}
	}
	return cal
}

// trigger renders a negative duration such as -PT15M.
func trigger(minutes int) string {
	if minutes <= 0 {
		return "PT0M"
	}
	return "-PT" + strconv.Itoa(minutes) + "M"
}

func WriteICS(w io.Writer, events []store.Event, loc *time.Location) error {
	if _, err := io.WriteString(w, BuildICS(events, loc).Serialize()); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}

func ToICS(events []store.Event, loc *time.Location, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ics file: %w", err)
	}
	defer f.Close()
	return WriteICS(f, events, loc)
}
