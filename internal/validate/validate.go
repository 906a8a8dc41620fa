// Package validate holds the form rules for entries, events, accounts and
// settings. Every validator returns the normalized input or an Errors list.
package validate

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sadopc/mindjournal/internal/store"
)

const (
	MinContentLength  = 10
	MinPasswordLength = 6
	MinFullNameLength = 2
)

// NotificationChoices are the reminder offsets offered by the forms, in
// minutes before the event.
var NotificationChoices = []int{0, 5, 15, 30, 60, 1440}

type EntryInput struct {
	Title        string
	Content      string
	EmotionScore int
	Tags         []string
}

func Entry(in EntryInput) (EntryInput, error) {
	var errs Errors
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)

	if in.Title == "" {
		errs.add("title", CodeRequired)
	}
	switch {
	case in.Content == "":
		errs.add("content", CodeRequired)
	case utf8.RuneCountInString(in.Content) < MinContentLength:
		errs.addBound("content", CodeMinLength, MinContentLength, 0)
	}
	if in.EmotionScore < store.MinEmotionScore || in.EmotionScore > store.MaxEmotionScore {
		errs.addBound("emotion_score", CodeOutOfRange, store.MinEmotionScore, store.MaxEmotionScore)
	}
	in.Tags = NormalizeTags(in.Tags)
	return in, errs.err()
}

// NormalizeTags trims and lowercases tags, drops empties and duplicates, and
// keeps first-seen order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag field.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

type EventInput struct {
	Title               string
	Description         string
	Location            string
	StartDate           time.Time
	EndDate             time.Time
	AllDay              bool
	NotificationEnabled bool
	NotificationMinutes int
}

// Event validates in. All-day events are truncated to midnight in loc.
func Event(in EventInput, loc *time.Location) (EventInput, error) {
	var errs Errors
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)

	if in.Title == "" {
		errs.add("title", CodeRequired)
	}
	if in.StartDate.IsZero() {
		errs.add("start_date", CodeRequired)
	}
	if in.EndDate.IsZero() {
		errs.add("end_date", CodeRequired)
	}
	if in.AllDay {
		in.StartDate = TruncateDay(in.StartDate, loc)
		in.EndDate = TruncateDay(in.EndDate, loc)
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		errs.add("end_date", CodeEndBeforeStart)
	}
	if in.NotificationMinutes < 0 {
		errs.add("notification_minutes", CodeNegative)
	}
	return in, errs.err()
}

// TruncateDay returns midnight of t's calendar day in loc. The zero time is
// returned unchanged.
func TruncateDay(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Form layouts for event dates.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// EventForm is the text form of an event as typed into the TUI.
type EventForm struct {
	Title               string
	Description         string
	Location            string
	Start               string
	End                 string
	AllDay              bool
	NotificationEnabled bool
	NotificationMinutes int
}

// EventFromForm parses the date fields in loc and validates the result.
// Date-only input is accepted for timed events too.
func EventFromForm(f EventForm, loc *time.Location) (EventInput, error) {
	var errs Errors
	in := EventInput{
		Title:               f.Title,
		Description:         f.Description,
		Location:            f.Location,
		AllDay:              f.AllDay,
		NotificationEnabled: f.NotificationEnabled,
		NotificationMinutes: f.NotificationMinutes,
	}
	var ok bool
	if in.StartDate, ok = parseFormTime(f.Start, loc); !ok {
		errs.add("start_date", CodeInvalidDate)
	}
	if in.EndDate, ok = parseFormTime(f.End, loc); !ok {
		errs.add("end_date", CodeInvalidDate)
	}

	out, err := Event(in, loc)
	if err != nil {
		for _, fe := range err.(Errors) {
			if _, dup := errs.Field(fe.Field); !dup {
				errs = append(errs, fe)
			}
		}
	}
	return out, errs.err()
}

// parseFormTime returns the zero time with ok=true for blank input so the
// required rule reports it.
func parseFormTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{DateTimeLayout, "2006-01-02T15:04", DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type SignInInput struct {
	Email    string
	Password string
}

func SignIn(in SignInInput) (SignInInput, error) {
	var errs Errors
	in.Email = checkEmail(&errs, in.Email)
	checkPassword(&errs, "password", in.Password)
	return in, errs.err()
}

type SignUpInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

func SignUp(in SignUpInput) (SignUpInput, error) {
	var errs Errors
	in.FullName = strings.TrimSpace(in.FullName)
	switch {
	case in.FullName == "":
		errs.add("full_name", CodeRequired)
	case utf8.RuneCountInString(in.FullName) < MinFullNameLength:
		errs.addBound("full_name", CodeMinLength, MinFullNameLength, 0)
	}
	in.Email = checkEmail(&errs, in.Email)
	checkPassword(&errs, "password", in.Password)
	switch {
	case in.ConfirmPassword == "":
		errs.add("confirm_password", CodeRequired)
	case in.ConfirmPassword != in.Password:
		errs.add("confirm_password", CodeMismatch)
	}
	return in, errs.err()
}

type ProfileInput struct {
	FullName string
	Email    string
}

func Profile(in ProfileInput) (ProfileInput, error) {
	var errs Errors
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		errs.add("full_name", CodeRequired)
	}
	in.Email = checkEmail(&errs, in.Email)
	return in, errs.err()
}

type PasswordChangeInput struct {
	Current string
	New     string
	Confirm string
}

func PasswordChange(in PasswordChangeInput) (PasswordChangeInput, error) {
	var errs Errors
	if in.Current == "" {
		errs.add("password", CodeRequired)
	}
	checkPassword(&errs, "new_password", in.New)
	switch {
	case in.Confirm == "":
		errs.add("confirm_password", CodeRequired)
	case in.Confirm != in.New:
		errs.add("confirm_password", CodeMismatch)
	}
	return in, errs.err()
}

// Settings checks the fields present in p.
func Settings(p store.SettingsPatch) (store.SettingsPatch, error) {
	var errs Errors
	if p.Theme != nil {
		switch *p.Theme {
		case store.ThemeLight, store.ThemeDark, store.ThemeAuto:
		default:
			errs.add("theme", CodeInvalidChoice)
		}
	}
	if p.Language != nil {
		switch *p.Language {
		case store.LangJA, store.LangEN:
		default:
			errs.add("language", CodeInvalidChoice)
		}
	}
	if p.DefaultNotificationMinutes != nil && *p.DefaultNotificationMinutes < 0 {
		errs.add("default_notification_minutes", CodeNegative)
	}
	if p.Timezone != nil {
		tz := strings.TrimSpace(*p.Timezone)
		p.Timezone = &tz
		if _, err := time.LoadLocation(tz); tz == "" || err != nil {
			errs.add("timezone", CodeInvalidTimezone)
		}
	}
	return p, errs.err()
}

func checkEmail(errs *Errors, email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.add("email", CodeRequired)
		return email
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		errs.add("email", CodeInvalidEmail)
	}
	return email
}

func checkPassword(errs *Errors, field, pw string) {
	switch {
	case pw == "":
		errs.add(field, CodeRequired)
	case utf8.RuneCountInString(pw) < MinPasswordLength:
		errs.addBound(field, CodeMinLength, MinPasswordLength, 0)
	}
}
