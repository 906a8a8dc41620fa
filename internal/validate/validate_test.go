package validate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/mindjournal/internal/store"
)

func fieldErrors(t *testing.T, err error) Errors {
	t.Helper()
	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validate.Errors, got %v", err)
	}
	return errs
}

func hasCode(errs Errors, field string, code Code) bool {
	for _, fe := range errs {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

// ============================================================
// Entries
// ============================================================

func TestEntryValid(t *testing.T) {
	out, err := Entry(EntryInput{
		Title:        "  Good day ",
		Content:      "  the sun was out all afternoon  ",
		EmotionScore: 8,
		Tags:         []string{" Work", "work", "", "家族"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "Good day" {
		t.Fatalf("title = %q", out.Title)
	}
	if strings.HasPrefix(out.Content, " ") {
		t.Fatal("content should be trimmed")
	}
	if len(out.Tags) != 2 || out.Tags[0] != "work" || out.Tags[1] != "家族" {
		t.Fatalf("tags = %v", out.Tags)
	}
}

func TestEntryInvalid(t *testing.T) {
	tests := []struct {
		name  string
		in    EntryInput
		field string
		code  Code
	}{
		{"blank title", EntryInput{Title: "   ", Content: "0123456789", EmotionScore: 5}, "title", CodeRequired},
		{"empty content", EntryInput{Title: "t", Content: "", EmotionScore: 5}, "content", CodeRequired},
		{"short content", EntryInput{Title: "t", Content: "   short    ", EmotionScore: 5}, "content", CodeMinLength},
		{"score low", EntryInput{Title: "t", Content: "0123456789", EmotionScore: 0}, "emotion_score", CodeOutOfRange},
		{"score high", EntryInput{Title: "t", Content: "0123456789", EmotionScore: 11}, "emotion_score", CodeOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Entry(tt.in)
			errs := fieldErrors(t, err)
			if !hasCode(errs, tt.field, tt.code) {
				t.Fatalf("expected %s/%s, got %v", tt.field, tt.code, errs)
			}
		})
	}
}

func TestEntryContentCountsRunes(t *testing.T) {
	// Ten Japanese characters are 30 bytes but exactly the minimum length.
	_, err := Entry(EntryInput{Title: "日記", Content: "今日はとても良い天気", EmotionScore: 7})
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	_, err = Entry(EntryInput{Title: "日記", Content: "今日は良い天気", EmotionScore: 7})
	if err == nil {
		t.Fatal("expected min length error")
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags("感謝, Work ,work,,")
	if len(got) != 2 || got[0] != "感謝" || got[1] != "work" {
		t.Fatalf("SplitTags = %v", got)
	}
	if NormalizeTags(nil) == nil {
		t.Fatal("NormalizeTags must not return nil")
	}
}

// ============================================================
// Events
// ============================================================

func TestEventValid(t *testing.T) {
	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	out, err := Event(EventInput{
		Title:               " Dentist ",
		StartDate:           start,
		EndDate:             start.Add(time.Hour),
		NotificationEnabled: true,
		NotificationMinutes: 15,
	}, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "Dentist" {
		t.Fatalf("title = %q", out.Title)
	}
}

func TestEventAllDayTruncates(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	out, err := Event(EventInput{
		Title:     "Holiday",
		StartDate: time.Date(2026, 10, 19, 13, 30, 0, 0, loc),
		EndDate:   time.Date(2026, 10, 20, 9, 0, 0, 0, loc),
		AllDay:    true,
	}, loc)
	if err != nil {
		t.Fatal(err)
	}
	if out.StartDate.Hour() != 0 || out.StartDate.Day() != 19 {
		t.Fatalf("start = %v", out.StartDate)
	}
	if out.EndDate.Hour() != 0 || out.EndDate.Day() != 20 {
		t.Fatalf("end = %v", out.EndDate)
	}
}

func TestEventAllDaySameDayAllowed(t *testing.T) {
	// End earlier in the same day becomes equal after truncation.
	day := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)
	_, err := Event(EventInput{Title: "x", StartDate: day, EndDate: day.Add(-2 * time.Hour), AllDay: true}, time.UTC)
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestEventInvalid(t *testing.T) {
	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	_, err := Event(EventInput{
		StartDate:           start,
		EndDate:             start.Add(-time.Hour),
		NotificationMinutes: -5,
	}, time.UTC)
	errs := fieldErrors(t, err)
	for _, want := range []struct {
		field string
		code  Code
	}{
		{"title", CodeRequired},
		{"end_date", CodeEndBeforeStart},
		{"notification_minutes", CodeNegative},
	} {
		if !hasCode(errs, want.field, want.code) {
			t.Errorf("missing %s/%s in %v", want.field, want.code, errs)
		}
	}

	_, err = Event(EventInput{Title: "x"}, time.UTC)
	errs = fieldErrors(t, err)
	if !hasCode(errs, "start_date", CodeRequired) || !hasCode(errs, "end_date", CodeRequired) {
		t.Fatalf("expected required dates, got %v", errs)
	}
}

func TestEventFromForm(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	out, err := EventFromForm(EventForm{
		Title:               "Lunch",
		Start:               "2026-10-19 12:00",
		End:                 "2026-10-19T13:00",
		NotificationEnabled: true,
		NotificationMinutes: 30,
	}, loc)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 10, 19, 12, 0, 0, 0, loc)
	if !out.StartDate.Equal(want) {
		t.Fatalf("start = %v, want %v", out.StartDate, want)
	}

	_, err = EventFromForm(EventForm{Title: "x", Start: "tomorrow", End: ""}, loc)
	errs := fieldErrors(t, err)
	if !hasCode(errs, "start_date", CodeInvalidDate) {
		t.Fatalf("expected invalid start date, got %v", errs)
	}
	if !hasCode(errs, "end_date", CodeRequired) {
		t.Fatalf("expected required end date, got %v", errs)
	}
	if len(errs) != 2 {
		t.Fatalf("expected one error per field, got %v", errs)
	}
}

// ============================================================
// Accounts
// ============================================================

func TestSignIn(t *testing.T) {
	out, err := SignIn(SignInInput{Email: " a@example.com ", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Email != "a@example.com" {
		t.Fatalf("email = %q", out.Email)
	}

	tests := []struct {
		in    SignInInput
		field string
		code  Code
	}{
		{SignInInput{Password: "secret1"}, "email", CodeRequired},
		{SignInInput{Email: "not-an-email", Password: "secret1"}, "email", CodeInvalidEmail},
		{SignInInput{Email: "Bob <b@example.com>", Password: "secret1"}, "email", CodeInvalidEmail},
		{SignInInput{Email: "a@example.com"}, "password", CodeRequired},
		{SignInInput{Email: "a@example.com", Password: "12345"}, "password", CodeMinLength},
	}
	for _, tt := range tests {
		_, err := SignIn(tt.in)
		if !hasCode(fieldErrors(t, err), tt.field, tt.code) {
			t.Errorf("SignIn(%+v): expected %s/%s, got %v", tt.in, tt.field, tt.code, err)
		}
	}
}

func TestSignUp(t *testing.T) {
	valid := SignUpInput{FullName: "Hanako", Email: "h@example.com", Password: "secret1", ConfirmPassword: "secret1"}
	if _, err := SignUp(valid); err != nil {
		t.Fatal(err)
	}

	short := valid
	short.FullName = "H"
	_, err := SignUp(short)
	if !hasCode(fieldErrors(t, err), "full_name", CodeMinLength) {
		t.Fatal("expected full name min length")
	}

	mismatch := valid
	mismatch.ConfirmPassword = "secret2"
	_, err = SignUp(mismatch)
	if !hasCode(fieldErrors(t, err), "confirm_password", CodeMismatch) {
		t.Fatal("expected mismatch")
	}

	blank := valid
	blank.ConfirmPassword = ""
	_, err = SignUp(blank)
	if !hasCode(fieldErrors(t, err), "confirm_password", CodeRequired) {
		t.Fatal("expected confirm required")
	}
}

func TestProfile(t *testing.T) {
	if _, err := Profile(ProfileInput{FullName: "Taro", Email: "t@example.com"}); err != nil {
		t.Fatal(err)
	}
	_, err := Profile(ProfileInput{})
	errs := fieldErrors(t, err)
	if !hasCode(errs, "full_name", CodeRequired) || !hasCode(errs, "email", CodeRequired) {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestPasswordChange(t *testing.T) {
	if _, err := PasswordChange(PasswordChangeInput{Current: "old", New: "newpass", Confirm: "newpass"}); err != nil {
		t.Fatal(err)
	}
	_, err := PasswordChange(PasswordChangeInput{New: "abc", Confirm: "abd"})
	errs := fieldErrors(t, err)
	for _, want := range []struct {
		field string
		code  Code
	}{
		{"password", CodeRequired},
		{"new_password", CodeMinLength},
		{"confirm_password", CodeMismatch},
	} {
		if !hasCode(errs, want.field, want.code) {
			t.Errorf("missing %s/%s in %v", want.field, want.code, errs)
		}
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettings(t *testing.T) {
	theme, lang, tz := "dark", "en", " Europe/Berlin "
	out, err := Settings(store.SettingsPatch{Theme: &theme, Language: &lang, Timezone: &tz})
	if err != nil {
		t.Fatal(err)
	}
	if *out.Timezone != "Europe/Berlin" {
		t.Fatalf("timezone = %q", *out.Timezone)
	}

	badTheme, badLang, badTZ, neg := "neon", "fr", "Mars/Olympus", -1
	_, err = Settings(store.SettingsPatch{
		Theme: &badTheme, Language: &badLang, Timezone: &badTZ, DefaultNotificationMinutes: &neg,
	})
	errs := fieldErrors(t, err)
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %v", errs)
	}

	if _, err := Settings(store.SettingsPatch{}); err != nil {
		t.Fatalf("empty patch should be valid: %v", err)
	}
}

// ============================================================
// Messages
// ============================================================

func TestMessages(t *testing.T) {
	tests := []struct {
		fe   FieldError
		lang string
		want string
	}{
		{FieldError{Field: "title", Code: CodeRequired}, "ja", "タイトルを入力してください"},
		{FieldError{Field: "content", Code: CodeMinLength, Min: 10}, "ja", "内容は10文字以上で入力してください"},
		{FieldError{Field: "password", Code: CodeMinLength, Min: 6}, "ja", "パスワードは6文字以上で入力してください"},
		{FieldError{Field: "confirm_password", Code: CodeMismatch}, "ja", "パスワードが一致しません"},
		{FieldError{Field: "email", Code: CodeInvalidEmail}, "en", "Enter a valid email address"},
		{FieldError{Field: "title", Code: CodeRequired}, "en", "Title is required"},
		{FieldError{Field: "emotion_score", Code: CodeOutOfRange, Min: 1, Max: 10}, "en", "Emotion score must be between 1 and 10"},
	}
	for _, tt := range tests {
		if got := tt.fe.Message(tt.lang); got != tt.want {
			t.Errorf("Message(%s) = %q, want %q", tt.lang, got, tt.want)
		}
	}
}

func TestErrorsHelpers(t *testing.T) {
	errs := Errors{
		{Field: "title", Code: CodeRequired},
		{Field: "title", Code: CodeMinLength, Min: 3},
		{Field: "content", Code: CodeRequired},
	}
	if !strings.Contains(errs.Error(), "title: required") {
		t.Fatalf("Error() = %q", errs.Error())
	}
	msgs := errs.Messages("en")
	if len(msgs) != 2 || msgs["title"] != "Title is required" {
		t.Fatalf("Messages = %v", msgs)
	}
	if _, ok := errs.Field("missing"); ok {
		t.Fatal("unexpected field")
	}
}
