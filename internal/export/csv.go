package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/mindjournal/internal/store"
)

var csvHeader = []string{"ID", "Created", "Updated", "Title", "Emotion", "Tags", "Content"}

// ToCSV writes one row per journal entry with timestamps in loc. Tags are
// joined with ";".
func ToCSV(entries []store.JournalEntry, loc *time.Location, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, entries, loc)
}

func WriteCSV(out io.Writer, entries []store.JournalEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.ID,
			e.CreatedAt.In(loc).Format(time.RFC3339),
			e.UpdatedAt.In(loc).Format(time.RFC3339),
			e.Title,
			strconv.Itoa(e.EmotionScore),
			strings.Join(e.Tags, ";"),
			e.Content,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
