package store

import (
	"strings"
	"time"
)

// Theme values accepted by UserSettings.Theme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Language values accepted by UserSettings.Language.
const (
	LangJA = "ja"
	LangEN = "en"
)

const (
	MinEmotionScore = 1
	MaxEmotionScore = 10
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	PasswordHash   string    `json:"-"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type JournalEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	EmotionScore int       `json:"emotion_score"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Matches reports whether q appears in the title, content or any tag,
// ignoring case. An empty query matches everything.
func (e JournalEntry) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Content), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

type Event struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Location            string    `json:"location"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	AllDay              bool      `json:"all_day"`
	NotificationEnabled bool      `json:"notification_enabled"`
	NotificationMinutes int       `json:"notification_minutes"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ReminderAt is the instant a reminder for the event should fire.
func (e Event) ReminderAt() time.Time {
	return e.StartDate.Add(-time.Duration(e.NotificationMinutes) * time.Minute)
}

type UserSettings struct {
	ID                         string    `json:"id"`
	UserID                     string    `json:"user_id"`
	Theme                      string    `json:"theme"`
	Language                   string    `json:"language"`
	NotificationsEnabled       bool      `json:"notifications_enabled"`
	EmailNotifications         bool      `json:"email_notifications"`
	DefaultNotificationMinutes int       `json:"default_notification_minutes"`
	Timezone                   string    `json:"timezone"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// Location resolves the settings timezone, falling back to time.Local.
func (s UserSettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DefaultSettings returns the record created lazily on first settings access.
func DefaultSettings(userID string) UserSettings {
	return UserSettings{
		UserID:                     userID,
		Theme:                      ThemeLight,
		Language:                   LangJA,
		NotificationsEnabled:       true,
		EmailNotifications:         true,
		DefaultNotificationMinutes: 15,
		Timezone:                   "Asia/Tokyo",
	}
}

// EntryPatch is a partial update; nil fields are left unchanged.
type EntryPatch struct {
	Title        *string
	Content      *string
	EmotionScore *int
	Tags         *[]string
}

// EventPatch is a partial update; nil fields are left unchanged.
type EventPatch struct {
	Title               *string
	Description         *string
	Location            *string
	StartDate           *time.Time
	EndDate             *time.Time
	AllDay              *bool
	NotificationEnabled *bool
	NotificationMinutes *int
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	Theme                      *string
	Language                   *string
	NotificationsEnabled       *bool
	EmailNotifications         *bool
	DefaultNotificationMinutes *int
	Timezone                   *string
}

// Range is an inclusive time window used for event range queries.
type Range struct {
	From time.Time
	To   time.Time
}
