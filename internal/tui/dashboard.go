package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/stats"
	"github.com/sadopc/mindjournal/internal/store"
)

const recentOnDashboard = 3

type dashboardModel struct {
	deps   *Deps
	width  int
	height int

	loaded bool
	stats  stats.Dashboard
	recent []store.JournalEntry
	chart  barchart.Model
}

func newDashboardModel(d *Deps) dashboardModel {
	return dashboardModel{
		deps:  d,
		chart: barchart.New(60, 10),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.buildChart()
}

type dashboardDataMsg struct {
	stats  stats.Dashboard
	recent []store.JournalEntry
}

func (d dashboardModel) loadData() tea.Cmd {
	deps := d.deps
	uid := deps.userID()
	if uid == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := deps.Store.ListEntries(uid)
		if err != nil {
			return statusMsg{text: errorLines(err, deps.lang()), isError: true}
		}
		dash, err := stats.Compute(entries, deps.today())
		if err != nil {
			return statusMsg{text: errorLines(err, deps.lang()), isError: true}
		}
		recent := entries
		if len(recent) > recentOnDashboard {
			recent = recent[:recentOnDashboard]
		}
		return dashboardDataMsg{stats: dash, recent: recent}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.loaded = true
		d.stats = msg.stats
		d.recent = msg.recent
		d.buildChart()
		return d, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.New) {
			return d, func() tea.Msg { return switchViewMsg{view: viewWrite} }
		}
	}
	return d, nil
}

func (d *dashboardModel) buildChart() {
	chartWidth := d.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 8
	if d.height > 36 {
		chartHeight = 12
	}
	d.chart = barchart.New(chartWidth, chartHeight)

	loc := d.deps.location()
	bars := make([]barchart.BarData, 0, len(d.stats.EmotionTrend))
	for _, p := range d.stats.EmotionTrend {
		bars = append(bars, barchart.BarData{
			Label: p.Date.In(loc).Format("1/2"),
			Values: []barchart.BarValue{{
				Name:  p.Date.In(loc).Format("2006-01-02"),
				Value: float64(p.Score),
				Style: lipgloss.NewStyle().Foreground(emotionColor(p.Score)),
			}},
		})
	}
	if len(bars) == 0 {
		return
	}
	d.chart.PushAll(bars)
	d.chart.Draw()
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	greeting := "Welcome back"
	if u := d.deps.user(); u != nil && u.FullName != "" {
		greeting = "Welcome back, " + u.FullName
	}
	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(greeting),
		mutedStyle.Render(d.deps.today().Format("Monday, January 2, 2006")),
	)

	if !d.loaded {
		return panelStyle.Width(w).Render(header + "\n\n" + mutedStyle.Render("Loading…"))
	}

	cards := d.renderCards(w)
	trend := d.renderTrend(w)
	tags := d.renderTopTags(w)
	recent := d.renderRecent(w)

	return lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(header), cards, trend, tags, recent)
}

func (d dashboardModel) renderCards(w int) string {
	cardW := max((w-6)/3, 14)
	card := func(label, value string) string {
		return cardStyle.Width(cardW).Render(
			lipgloss.JoinVertical(lipgloss.Center, cardValueStyle.Render(value), mutedStyle.Render(label)),
		)
	}

	avg := "—"
	if d.stats.TotalEntries > 0 {
		avg = fmt.Sprintf("%.1f / 10", d.stats.AverageEmotion)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("entries", fmt.Sprintf("%d", d.stats.TotalEntries)),
		card("average mood", avg),
		card("day streak", fmt.Sprintf("%d", d.stats.StreakDays)),
	)
}

func (d dashboardModel) renderTrend(w int) string {
	title := titleStyle.Render("Emotion trend")
	if len(d.stats.EmotionTrend) == 0 {
		return panelStyle.Width(w).Render(title + "\n" + mutedStyle.Render("No entries yet. Press n to write your first one."))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", d.chart.View()))
}

func (d dashboardModel) renderTopTags(w int) string {
	title := titleStyle.Render("Top tags")
	if len(d.stats.TopTags) == 0 {
		return panelStyle.Width(w).Render(title + "\n" + mutedStyle.Render("No tags yet"))
	}
	var parts []string
	for _, tc := range d.stats.TopTags {
		parts = append(parts, tagStyle.Render("#"+tc.Tag)+mutedStyle.Render(fmt.Sprintf(" ×%d", tc.Count)))
	}
	return panelStyle.Width(w).Render(title + "\n" + strings.Join(parts, "   "))
}

func (d dashboardModel) renderRecent(w int) string {
	title := titleStyle.Render("Recent entries")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(title + "\n" + mutedStyle.Render("Nothing written yet"))
	}
	loc := d.deps.location()
	rows := []string{title}
	for _, e := range d.recent {
		rows = append(rows, fmt.Sprintf("  %s  %s  %s",
			mutedStyle.Render(formatDate(e.CreatedAt, loc)),
			emotionStyle(e.EmotionScore).Render(fmt.Sprintf("%2d", e.EmotionScore)),
			truncate(e.Title, w-24),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
