package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const settingsColumns = `id, user_id, theme, language, notifications_enabled, email_notifications,
	default_notification_minutes, timezone, created_at, updated_at`

// GetSettings returns the user's settings, or nil with no error when the
// record has not been created yet.
func (s *Store) GetSettings(userID string) (*UserSettings, error) {
	st, err := scanSettings(s.queryRow(`SELECT `+settingsColumns+` FROM user_settings WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get settings", err)
	}
	return st, nil
}

func (s *Store) CreateSettings(st UserSettings) (*UserSettings, error) {
	now := formatTime(time.Now())
	st.ID = uuid.NewString()
	_, err := s.exec(
		`INSERT INTO user_settings (`+settingsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.UserID, st.Theme, st.Language,
		boolToInt(st.NotificationsEnabled), boolToInt(st.EmailNotifications),
		st.DefaultNotificationMinutes, st.Timezone, now, now,
	)
	if err != nil {
		return nil, wrap("create settings", err)
	}
	return s.mustGetSettings("create settings", st.UserID)
}

// GetOrCreateSettings lazily creates the default record on first access.
func (s *Store) GetOrCreateSettings(userID string) (*UserSettings, error) {
	st, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		return st, nil
	}
	return s.CreateSettings(DefaultSettings(userID))
}

func (s *Store) UpdateSettings(userID string, p SettingsPatch) (*UserSettings, error) {
	var set setClause
	if p.Theme != nil {
		set.add("theme", *p.Theme)
	}
	if p.Language != nil {
		set.add("language", *p.Language)
	}
	if p.NotificationsEnabled != nil {
		set.add("notifications_enabled", boolToInt(*p.NotificationsEnabled))
	}
	if p.EmailNotifications != nil {
		set.add("email_notifications", boolToInt(*p.EmailNotifications))
	}
	if p.DefaultNotificationMinutes != nil {
		set.add("default_notification_minutes", *p.DefaultNotificationMinutes)
	}
	if p.Timezone != nil {
		set.add("timezone", *p.Timezone)
	}
	set.add("updated_at", formatTime(time.Now()))

	res, err := s.exec(`UPDATE user_settings SET `+set.sql()+` WHERE user_id = ?`, append(set.args, userID)...)
	if err := checkAffected("update settings", res, err); err != nil {
		return nil, err
	}
	return s.mustGetSettings("update settings", userID)
}

func (s *Store) mustGetSettings(op, userID string) (*UserSettings, error) {
	st, err := s.GetSettings(userID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, wrap(op, ErrNotFound)
	}
	return st, nil
}

func scanSettings(row scanner) (*UserSettings, error) {
	st := &UserSettings{}
	var notify, email int64
	var createdAt, updatedAt string
	err := row.Scan(&st.ID, &st.UserID, &st.Theme, &st.Language, &notify, &email,
		&st.DefaultNotificationMinutes, &st.Timezone, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	st.NotificationsEnabled = notify != 0
	st.EmailNotifications = email != 0
	if st.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return st, nil
}
