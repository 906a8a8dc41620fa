package store

import (
	"time"

	"github.com/google/uuid"
)

const eventColumns = `id, user_id, title, description, location, start_date, end_date, all_day,
	notification_enabled, notification_minutes, created_at, updated_at`

func (s *Store) CreateEvent(e Event) (*Event, error) {
	now := time.Now()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.exec(
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Description, e.Location,
		formatTime(e.StartDate), formatTime(e.EndDate), boolToInt(e.AllDay),
		boolToInt(e.NotificationEnabled), e.NotificationMinutes,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return nil, wrap("create event", err)
	}
	return s.GetEvent(e.ID)
}

func (s *Store) GetEvent(id string) (*Event, error) {
	e, err := scanEvent(s.queryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get event", err)
	}
	return e, nil
}

// ListEvents returns the user's events ascending by start_date. A non-nil
// range keeps only events whose [start_date, end_date] overlaps it.
func (s *Store) ListEvents(userID string, r *Range) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE user_id = ?`
	args := []any{userID}
	if r != nil {
		query += ` AND start_date <= ? AND end_date >= ?`
		args = append(args, formatTime(r.To), formatTime(r.From))
	}
	query += ` ORDER BY start_date, id`
	return s.listEvents("list events", query, args...)
}

// EventsTouching returns events that start inside [from, to], end inside
// it, or span the whole window.
func (s *Store) EventsTouching(userID string, from, to time.Time) ([]Event, error) {
	f, t := formatTime(from), formatTime(to)
	return s.listEvents("events for date", `SELECT `+eventColumns+` FROM events
		WHERE user_id = ?
		  AND ((start_date >= ? AND start_date <= ?)
		    OR (end_date >= ? AND end_date <= ?)
		    OR (start_date <= ? AND end_date >= ?))
		ORDER BY start_date, id`,
		userID, f, t, f, t, f, t,
	)
}

// PendingNotifications returns events with reminders enabled that start
// after the given instant, skipping owners who turned notifications off.
func (s *Store) PendingNotifications(after time.Time) ([]Event, error) {
	return s.listEvents("pending notifications", `SELECT e.id, e.user_id, e.title, e.description, e.location,
		       e.start_date, e.end_date, e.all_day, e.notification_enabled, e.notification_minutes,
		       e.created_at, e.updated_at
		FROM events e
		LEFT JOIN user_settings us ON us.user_id = e.user_id
		WHERE e.notification_enabled = 1
		  AND e.start_date > ?
		  AND (us.notifications_enabled IS NULL OR us.notifications_enabled = 1)
		ORDER BY e.start_date, e.id`,
		formatTime(after),
	)
}

func (s *Store) UpdateEvent(id string, p EventPatch) (*Event, error) {
	var set setClause
	if p.Title != nil {
		set.add("title", *p.Title)
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Location != nil {
		set.add("location", *p.Location)
	}
	if p.StartDate != nil {
		set.add("start_date", formatTime(*p.StartDate))
	}
	if p.EndDate != nil {
		set.add("end_date", formatTime(*p.EndDate))
	}
	if p.AllDay != nil {
		set.add("all_day", boolToInt(*p.AllDay))
	}
	if p.NotificationEnabled != nil {
		set.add("notification_enabled", boolToInt(*p.NotificationEnabled))
	}
	if p.NotificationMinutes != nil {
		set.add("notification_minutes", *p.NotificationMinutes)
	}
	set.add("updated_at", formatTime(time.Now()))

	res, err := s.exec(`UPDATE events SET `+set.sql()+` WHERE id = ?`, append(set.args, id)...)
	if err := checkAffected("update event", res, err); err != nil {
		return nil, err
	}
	return s.GetEvent(id)
}

func (s *Store) DeleteEvent(id string) error {
	res, err := s.exec(`DELETE FROM events WHERE id = ?`, id)
	return checkAffected("delete event", res, err)
}

func (s *Store) listEvents(op, query string, args ...any) ([]Event, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		events = append(events, *e)
	}
	return events, wrap(op, rows.Err())
}

func scanEvent(row scanner) (*Event, error) {
	e := &Event{}
	var start, end, createdAt, updatedAt string
	var allDay, notify int64
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Description, &e.Location,
		&start, &end, &allDay, &notify, &e.NotificationMinutes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.AllDay = allDay != 0
	e.NotificationEnabled = notify != 0
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&e.StartDate, start},
		{&e.EndDate, end},
		{&e.CreatedAt, createdAt},
		{&e.UpdatedAt, updatedAt},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, err
		}
	}
	return e, nil
}
