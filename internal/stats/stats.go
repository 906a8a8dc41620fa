// Package stats computes the dashboard figures from a user's entries.
package stats

import (
	"fmt"
	"time"

	"github.com/sadopc/mindjournal/internal/store"
)

const (
	maxTopTags    = 5
	maxTrendPoint = 30
)

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type TrendPoint struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

type Dashboard struct {
	TotalEntries   int          `json:"total_entries"`
	AverageEmotion float64      `json:"average_emotion"`
	StreakDays     int          `json:"streak_days"`
	TopTags        []TagCount   `json:"top_tags"`
	EmotionTrend   []TrendPoint `json:"emotion_trend"`
}

// Compute derives the dashboard from entries sorted newest-first. now fixes
// "today" for the streak, in now's location. A zero created_at is reported
// as an error.
func Compute(entries []store.JournalEntry, now time.Time) (Dashboard, error) {
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			return Dashboard{}, fmt.Errorf("entry %s: malformed created_at", e.ID)
		}
	}

	d := Dashboard{
		TotalEntries: len(entries),
		TopTags:      TopTags(entries, maxTopTags),
		EmotionTrend: Trend(entries, maxTrendPoint),
		StreakDays:   Streak(entries, now),
	}
	if len(entries) > 0 {
		sum := 0
		for _, e := range entries {
			sum += e.EmotionScore
		}
		d.AverageEmotion = float64(sum) / float64(len(entries))
	}
	return d, nil
}

// TopTags returns up to limit tags by descending count. Ties keep the order
// in which tags were first seen.
func TopTags(entries []store.JournalEntry, limit int) []TagCount {
	idx := make(map[string]int)
	counts := []TagCount{}
	for _, e := range entries {
		for _, tag := range e.Tags {
			if i, ok := idx[tag]; ok {
				counts[i].Count++
				continue
			}
			idx[tag] = len(counts)
			counts = append(counts, TagCount{Tag: tag, Count: 1})
		}
	}

	// Stable insertion sort; tag sets are small.
	for i := 1; i < len(counts); i++ {
		for j := i; j > 0 && counts[j].Count > counts[j-1].Count; j-- {
			counts[j], counts[j-1] = counts[j-1], counts[j]
		}
	}
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// Trend maps the first limit entries to points and returns them oldest first.
func Trend(entries []store.JournalEntry, limit int) []TrendPoint {
	n := min(limit, len(entries))
	points := make([]TrendPoint, n)
	for i := 0; i < n; i++ {
		points[n-1-i] = TrendPoint{Date: entries[i].CreatedAt, Score: entries[i].EmotionScore}
	}
	return points
}

// Streak walks entries newest-first. An entry counts when its calendar-day
// offset from today equals the streak so far; the first entry that does not
// match ends the walk.
func Streak(entries []store.JournalEntry, now time.Time) int {
	today := dayNumber(now, now.Location())
	streak := 0
	for _, e := range entries {
		if today-dayNumber(e.CreatedAt, now.Location()) != streak {
			break
		}
		streak++
	}
	return streak
}

// dayNumber counts calendar days since the epoch for t's date in loc, so
// daylight-saving transitions never shift the offset.
func dayNumber(t time.Time, loc *time.Location) int {
	t = t.In(loc)
	return int(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
