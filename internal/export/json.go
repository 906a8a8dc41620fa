package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/mindjournal/internal/store"
)

// ErrInvalidFormat is returned by ParseJSON for files that are not exports.
var ErrInvalidFormat = errors.New("invalid export file format")

type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Document is the full-account export.
type Document struct {
	User           UserInfo             `json:"user"`
	JournalEntries []store.JournalEntry `json:"journal_entries"`
	Events         []store.Event        `json:"events"`
	ExportedAt     time.Time            `json:"exported_at"`
}

func Build(u *store.User, entries []store.JournalEntry, events []store.Event, now time.Time) Document {
	if entries == nil {
		entries = []store.JournalEntry{}
	}
	if events == nil {
		events = []store.Event{}
	}
	return Document{
		User:           UserInfo{ID: u.ID, Email: u.Email, FullName: u.FullName},
		JournalEntries: entries,
		Events:         events,
		ExportedAt:     now.UTC(),
	}
}

// Filename returns mindjournal-data-<YYYY-MM-DD>.json for the UTC date of now.
func Filename(now time.Time) string {
	return "mindjournal-data-" + now.UTC().Format("2006-01-02") + ".json"
}

func EncodeJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

func WriteJSON(doc Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// ParseJSON decodes an export. Nothing is written back to the store.
func ParseJSON(r io.Reader) (*Document, error) {
	var raw map[string]json.RawMessage
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, key := range []string{"user", "journal_entries", "events", "exported_at"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrInvalidFormat, key)
		}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return &doc, nil
}

// ReadJSONFile opens path and parses it with ParseJSON.
func ReadJSONFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return ParseJSON(f)
}
