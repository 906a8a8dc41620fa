package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sadopc/mindjournal/internal/export"
	"github.com/sadopc/mindjournal/internal/stats"
	"github.com/sadopc/mindjournal/internal/store"
)

type ExportCmd struct {
	Credentials
	Format string `help:"Output format." enum:"json,csv,ics" default:"json" short:"f"`
	Out    string `help:"Output file. Defaults to export_dir/mindjournal-data-<date>.<format>." short:"o" type:"path"`
}

func (c *ExportCmd) Run(ctx *Context) error {
	u, err := c.user(ctx)
	if err != nil {
		return err
	}
	entries, err := ctx.Store.ListEntries(u.ID)
	if err != nil {
		return err
	}
	events, err := ctx.Store.ListEvents(u.ID, nil)
	if err != nil {
		return err
	}
	settings, err := ctx.Store.GetOrCreateSettings(u.ID)
	if err != nil {
		return err
	}
	loc := settings.Location()

	now := time.Now()
	path := c.Out
	if path == "" {
		base := strings.TrimSuffix(export.Filename(now), ".json")
		path = filepath.Join(ctx.Config.ExportDir, base+"."+c.Format)
	}

	switch c.Format {
	case "csv":
		err = export.ToCSV(entries, loc, path)
	case "ics":
		err = export.ToICS(events, loc, path)
	default:
		err = export.WriteJSON(export.Build(u, entries, events, now), path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.out(), "Exported %d entries and %d events to %s\n", len(entries), len(events), path)
	return nil
}

// ImportCmd checks an export file and summarizes it. Nothing is written.
type ImportCmd struct {
	File string `arg:"" help:"JSON export to read." type:"existingfile"`
}

func (c *ImportCmd) Run(ctx *Context) error {
	doc, err := export.ReadJSONFile(c.File)
	if err != nil {
		return err
	}
	w := ctx.out()
	fmt.Fprintf(w, "Export of %s (%s), taken %s\n", doc.User.Email, doc.User.FullName, doc.ExportedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  %d journal entries\n", len(doc.JournalEntries))
	fmt.Fprintf(w, "  %d events\n", len(doc.Events))
	return nil
}

type StatsCmd struct {
	Credentials
}

func (c *StatsCmd) Run(ctx *Context) error {
	u, err := c.user(ctx)
	if err != nil {
		return err
	}
	entries, err := ctx.Store.ListEntries(u.ID)
	if err != nil {
		return err
	}
	settings, err := ctx.Store.GetOrCreateSettings(u.ID)
	if err != nil {
		return err
	}
	loc := settings.Location()
	dash, err := stats.Compute(entries, time.Now().In(loc))
	if err != nil {
		return err
	}
	printStats(ctx, dash, loc)
	return nil
}

func printStats(ctx *Context, d stats.Dashboard, loc *time.Location) {
	tw := tabwriter.NewWriter(ctx.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Entries\t%d\n", d.TotalEntries)
	if d.TotalEntries > 0 {
		fmt.Fprintf(tw, "Average mood\t%.1f / %d\n", d.AverageEmotion, store.MaxEmotionScore)
	}
	fmt.Fprintf(tw, "Streak\t%d days\n", d.StreakDays)

	if len(d.TopTags) > 0 {
		tags := make([]string, len(d.TopTags))
		for i, tc := range d.TopTags {
			tags[i] = fmt.Sprintf("#%s (%d)", tc.Tag, tc.Count)
		}
		fmt.Fprintf(tw, "Top tags\t%s\n", strings.Join(tags, ", "))
	}
	for _, p := range d.EmotionTrend {
		fmt.Fprintf(tw, "  %s\t%s %d\n", p.Date.In(loc).Format("2006-01-02"), strings.Repeat("■", p.Score), p.Score)
	}
	tw.Flush()
}
