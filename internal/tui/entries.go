package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/store"
)

// entriesModel lists the user's entries with search. Delete confirmation is
// held per card: only the entry under confirmingID asks y/n.
type entriesModel struct {
	deps   *Deps
	width  int
	height int

	entries      []store.JournalEntry
	cursor       int
	expanded     bool
	confirmingID string

	search    textinput.Model
	searching bool
	query     string
}

func newEntriesModel(d *Deps) entriesModel {
	ti := textinput.New()
	ti.Placeholder = "search title, content or tags"
	ti.Prompt = "/ "
	ti.CharLimit = 100
	return entriesModel{deps: d, search: ti}
}

func (m *entriesModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.search.Width = max(w-12, 10)
}

type entriesDataMsg struct {
	entries []store.JournalEntry
	query   string
}

func (m entriesModel) refresh() tea.Cmd {
	deps := m.deps
	uid := deps.userID()
	if uid == "" {
		return nil
	}
	q := m.query
	return func() tea.Msg {
		var (
			entries []store.JournalEntry
			err     error
		)
		if q == "" {
			entries, err = deps.Store.ListEntries(uid)
		} else {
			entries, err = deps.Store.SearchEntries(uid, q)
		}
		if err != nil {
			return deps.fail(actLoadEntries, err)
		}
		return entriesDataMsg{entries: entries, query: q}
	}
}

// capturing reports whether the search box owns the keyboard.
func (m entriesModel) capturing() bool {
	return m.searching
}

func (m entriesModel) selected() (store.JournalEntry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return store.JournalEntry{}, false
	}
	return m.entries[m.cursor], true
}

func (m entriesModel) update(msg tea.Msg) (entriesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesDataMsg:
		// A slower, older search must not overwrite a newer one.
		if msg.query != m.query {
			return m, nil
		}
		m.entries = msg.entries
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}
		return m, nil

	case entryDeletedMsg:
		m.confirmingID = ""
		return m, m.refresh()

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.confirmingID != "" {
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m entriesModel) updateSearch(msg tea.KeyMsg) (entriesModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.query = ""
		return m, m.refresh()
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := strings.TrimSpace(m.search.Value()); q != m.query {
		m.query = q
		m.cursor = 0
		return m, tea.Batch(cmd, m.refresh())
	}
	return m, cmd
}

func (m entriesModel) updateConfirm(msg tea.KeyMsg) (entriesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		id := m.confirmingID
		deps := m.deps
		return m, func() tea.Msg {
			if err := deps.Store.DeleteEntry(id); err != nil {
				return deps.fail(actDeleteEntry, err)
			}
			return entryDeletedMsg{id: id}
		}
	case key.Matches(msg, keys.Cancel):
		m.confirmingID = ""
	}
	return m, nil
}

func (m entriesModel) updateList(msg tea.KeyMsg) (entriesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		m.expanded = !m.expanded
	case key.Matches(msg, keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, keys.New):
		return m, func() tea.Msg { return switchViewMsg{view: viewWrite} }
	case key.Matches(msg, keys.Edit):
		if e, ok := m.selected(); ok {
			return m, func() tea.Msg { return editEntryMsg{entry: e} }
		}
	case key.Matches(msg, keys.Delete):
		if e, ok := m.selected(); ok {
			m.confirmingID = e.ID
		}
	}
	return m, nil
}

func (m entriesModel) view() string {
	w := m.width - 4
	title := titleStyle.Render(fmt.Sprintf("My entries (%d)", len(m.entries)))

	rows := []string{title, ""}
	if m.searching || m.query != "" {
		rows = append(rows, m.search.View(), "")
	}

	if len(m.entries) == 0 {
		if m.query != "" {
			rows = append(rows, mutedStyle.Render("No entries match \""+m.query+"\""))
		} else {
			rows = append(rows, mutedStyle.Render("No entries yet. Press n to write one."))
		}
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	// Window the list around the cursor.
	visible := max((m.height-10)/3, 3)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.entries))

	for i := start; i < end; i++ {
		rows = append(rows, m.renderCard(m.entries[i], i == m.cursor, w-6))
	}
	if end < len(m.entries) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(m.entries)-end)))
	}

	rows = append(rows, "", mutedStyle.Render("  enter: expand  /: search  n: new  e: edit  d: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m entriesModel) renderCard(e store.JournalEntry, selected bool, w int) string {
	loc := m.deps.location()
	cursor := "  "
	style := normalItemStyle
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}

	head := fmt.Sprintf("%s%s  %s  %s",
		cursor,
		mutedStyle.Render(formatDateTime(e.CreatedAt, loc)),
		emotionStyle(e.EmotionScore).Render(fmt.Sprintf("%2d", e.EmotionScore)),
		style.Render(truncate(e.Title, w-28)),
	)

	body := truncate(e.Content, w-4)
	if selected && m.expanded {
		body = lipgloss.NewStyle().Width(w - 4).Render(e.Content)
	}
	lines := []string{head, "    " + mutedStyle.Render(body)}
	if tags := renderTags(e.Tags); tags != "" {
		lines = append(lines, "    "+tags)
	}
	if selected && m.expanded {
		lines = append(lines, "    "+emotionBar(e.EmotionScore))
		if !e.UpdatedAt.Equal(e.CreatedAt) {
			lines = append(lines, "    "+mutedStyle.Render("edited "+formatDateTime(e.UpdatedAt, loc)))
		}
	}
	if m.confirmingID == e.ID {
		lines = append(lines, "    "+warningStyle.Render("Delete this entry? y: delete  n: cancel"))
	}
	return strings.Join(lines, "\n")
}
