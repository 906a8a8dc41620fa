package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

func sampleData() (*store.User, []store.JournalEntry, []store.Event) {
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	user := &store.User{ID: "u1", Email: "hana@example.com", FullName: "Hana"}

	entries := []store.JournalEntry{
		{
			ID:           "e1",
			UserID:       "u1",
			Title:        "Morning walk",
			Content:      "walked along the river, felt calm",
			EmotionScore: 8,
			Tags:         []string{"walk", "感謝"},
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           "e2",
			UserID:       "u1",
			Title:        "Deadline",
			Content:      `long day, "stressful", many meetings`,
			EmotionScore: 3,
			Tags:         []string{},
			CreatedAt:    now.Add(-24 * time.Hour),
			UpdatedAt:    now.Add(-20 * time.Hour),
		},
	}

	events := []store.Event{
		{
			ID:                  "ev1",
			UserID:              "u1",
			Title:               "Dentist",
			Description:         "checkup",
			Location:            "Shibuya",
			StartDate:           now.Add(48 * time.Hour),
			EndDate:             now.Add(49 * time.Hour),
			NotificationEnabled: true,
			NotificationMinutes: 30,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		{
			ID:        "ev2",
			UserID:    "u1",
			Title:     "Holiday",
			StartDate: time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
			AllDay:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	return user, entries, events
}

// ============================================================
// JSON
// ============================================================

func TestBuildAndFilename(t *testing.T) {
	user, entries, events := sampleData()
	at := time.Date(2026, 10, 19, 23, 0, 0, 0, time.FixedZone("JST", 9*3600))
	doc := Build(user, entries, events, at)

	if doc.User.FullName != "Hana" || doc.User.Email != "hana@example.com" {
		t.Fatalf("user = %+v", doc.User)
	}
	if doc.ExportedAt.Location() != time.UTC {
		t.Fatal("exported_at should be UTC")
	}
	if got := Filename(at); got != "mindjournal-data-2026-10-19.json" {
		t.Fatalf("Filename = %q", got)
	}

	empty := Build(user, nil, nil, at)
	if empty.JournalEntries == nil || empty.Events == nil {
		t.Fatal("nil slices should become empty arrays")
	}
}

func TestJSONKeys(t *testing.T) {
	user, entries, events := sampleData()
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, Build(user, entries, events, time.Now())); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, key := range []string{`"user"`, `"journal_entries"`, `"events"`, `"exported_at"`, `"full_name"`, `"emotion_score"`, `"notification_minutes"`} {
		if !strings.Contains(out, key) {
			t.Errorf("missing key %s", key)
		}
	}
	if strings.Contains(out, "password") {
		t.Fatal("export must not contain password data")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	user, entries, events := sampleData()
	path := filepath.Join(t.TempDir(), Filename(time.Now()))

	if err := WriteJSON(Build(user, entries, events, time.Now()), path); err != nil {
		t.Fatal(err)
	}
	doc, err := ReadJSONFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(doc.JournalEntries, entries) {
		t.Fatalf("entries differ:\n got %+v\nwant %+v", doc.JournalEntries, entries)
	}
	if !reflect.DeepEqual(doc.Events, events) {
		t.Fatalf("events differ:\n got %+v\nwant %+v", doc.Events, events)
	}
}

func TestParseJSONInvalid(t *testing.T) {
	tests := []string{
		"not json",
		`{"user": {}}`,
		`[]`,
	}
	for _, in := range tests {
		if _, err := ParseJSON(strings.NewReader(in)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("ParseJSON(%q) = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestWriteJSONBadPath(t *testing.T) {
	user, entries, events := sampleData()
	if err := WriteJSON(Build(user, entries, events, time.Now()), "/nonexistent/dir/x.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	_, entries, _ := sampleData()
	path := filepath.Join(t.TempDir(), "entries.csv")

	if err := ToCSV(entries, time.UTC, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}
	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}
	row := records[1]
	if row[0] != "e1" || row[3] != "Morning walk" || row[4] != "8" || row[5] != "walk;感謝" {
		t.Fatalf("unexpected row: %v", row)
	}
	if records[2][6] != `long day, "stressful", many meetings` {
		t.Fatalf("content not preserved: %q", records[2][6])
	}
}

func TestToCSVUsesLocation(t *testing.T) {
	_, entries, _ := sampleData()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries[:1], tokyo); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// 09:30 UTC is 18:30 in Tokyo.
	if got := records[1][1]; got != "2026-10-19T18:30:00+09:00" {
		t.Fatalf("created = %q", got)
	}
}

func TestToCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, time.UTC); err != nil {
		t.Fatal(err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, time.UTC, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// ICS
// ============================================================

func TestWriteICS(t *testing.T) {
	_, _, events := sampleData()
	var buf bytes.Buffer
	if err := WriteICS(&buf, events, time.UTC); err != nil {
		t.Fatal(err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse generated ics: %v", err)
	}
	parsed := cal.Events()
	if len(parsed) != 2 {
		t.Fatalf("expected 2 events, got %d", len(parsed))
	}

	dentist := parsed[0]
	if p := dentist.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Dentist" {
		t.Fatal("summary missing")
	}
	start, err := dentist.GetStartAt()
	if err != nil || !start.Equal(events[0].StartDate) {
		t.Fatalf("start = %v (%v)", start, err)
	}
	alarms := dentist.Alarms()
	if len(alarms) != 1 {
		t.Fatalf("expected 1 alarm, got %d", len(alarms))
	}
	if p := alarms[0].GetProperty(ical.ComponentPropertyTrigger); p == nil || p.Value != "-PT30M" {
		t.Fatal("trigger should be -PT30M")
	}

	holiday := parsed[1]
	if len(holiday.Alarms()) != 0 {
		t.Fatal("event without reminder should have no alarm")
	}
	dtstart := holiday.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil || dtstart.Value != "20261103" {
		t.Fatalf("all-day DTSTART = %+v", dtstart)
	}
	dtend := holiday.GetProperty(ical.ComponentPropertyDtEnd)
	if dtend == nil || dtend.Value != "20261104" {
		t.Fatalf("all-day DTEND should be exclusive, got %+v", dtend)
	}
}

func TestWriteICSAllDayInUserZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	u, err := s.CreateUser("hana@example.com", "Hana", "hash", true)
	if err != nil {
		t.Fatal(err)
	}

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, tokyo)
	in, err := validate.Event(validate.EventInput{
		Title:     "Hanami",
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 1),
		AllDay:    true,
	}, tokyo)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateEvent(store.Event{
		UserID:    u.ID,
		Title:     in.Title,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		AllDay:    true,
	}); err != nil {
		t.Fatal(err)
	}
	events, err := s.ListEvents(u.ID, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteICS(&buf, events, tokyo); err != nil {
		t.Fatal(err)
	}
	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	ev := cal.Events()[0]
	if p := ev.GetProperty(ical.ComponentPropertyDtStart); p == nil || p.Value != "20250310" {
		t.Fatalf("DTSTART = %+v, want 20250310", p)
	}
	if p := ev.GetProperty(ical.ComponentPropertyDtEnd); p == nil || p.Value != "20250312" {
		t.Fatalf("DTEND = %+v, want 20250312", p)
	}
}

func TestTrigger(t *testing.T) {
	if trigger(0) != "PT0M" || trigger(1440) != "-PT1440M" {
		t.Fatalf("trigger = %q / %q", trigger(0), trigger(1440))
	}
}

func TestToICSBadPath(t *testing.T) {
	if err := ToICS(nil, time.UTC, "/nonexistent/dir/x.ics"); err == nil {
		t.Fatal("expected error for bad path")
	}
}
