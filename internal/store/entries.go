package store

import (
	"time"

	"github.com/google/uuid"
)

const entryColumns = `id, user_id, title, content, emotion_score, tags, created_at, updated_at`

// CreateEntry inserts e with a fresh id. A zero CreatedAt is set to now.
func (s *Store) CreateEntry(e JournalEntry) (*JournalEntry, error) {
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.ID = uuid.NewString()

	tags, err := encodeTags(e.Tags)
	if err != nil {
		return nil, wrap("create entry", err)
	}
	_, err = s.exec(
		`INSERT INTO journal_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Content, e.EmotionScore, tags, formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return nil, wrap("create entry", err)
	}
	return s.GetEntry(e.ID)
}

func (s *Store) GetEntry(id string) (*JournalEntry, error) {
	e, err := scanEntry(s.queryRow(`SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get entry", err)
	}
	return e, nil
}

// ListEntries returns the user's entries newest-first.
func (s *Store) ListEntries(userID string) ([]JournalEntry, error) {
	rows, err := s.query(
		`SELECT `+entryColumns+` FROM journal_entries WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, wrap("list entries", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrap("list entries", err)
		}
		entries = append(entries, *e)
	}
	return entries, wrap("list entries", rows.Err())
}

// SearchEntries filters the user's entries by a case-insensitive match on
// title, content or tags. Order is newest-first.
func (s *Store) SearchEntries(userID, q string) ([]JournalEntry, error) {
	entries, err := s.ListEntries(userID)
	if err != nil {
		return nil, err
	}
	var out []JournalEntry
	for _, e := range entries {
		if e.Matches(q) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) UpdateEntry(id string, p EntryPatch) (*JournalEntry, error) {
	var set setClause
	if p.Title != nil {
		set.add("title", *p.Title)
	}
	if p.Content != nil {
		set.add("content", *p.Content)
	}
	if p.EmotionScore != nil {
		set.add("emotion_score", *p.EmotionScore)
	}
	if p.Tags != nil {
		tags, err := encodeTags(*p.Tags)
		if err != nil {
			return nil, wrap("update entry", err)
		}
		set.add("tags", tags)
	}
	set.add("updated_at", formatTime(time.Now()))

	res, err := s.exec(`UPDATE journal_entries SET `+set.sql()+` WHERE id = ?`, append(set.args, id)...)
	if err := checkAffected("update entry", res, err); err != nil {
		return nil, err
	}
	return s.GetEntry(id)
}

func (s *Store) DeleteEntry(id string) error {
	res, err := s.exec(`DELETE FROM journal_entries WHERE id = ?`, id)
	return checkAffected("delete entry", res, err)
}

func scanEntry(row scanner) (*JournalEntry, error) {
	e := &JournalEntry{}
	var tags, createdAt, updatedAt string
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.EmotionScore, &tags, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return e, nil
}
