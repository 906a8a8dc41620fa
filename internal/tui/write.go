package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

const defaultEmotion = 5

var emotionLabels = map[int]string{
	1:  "1  very low",
	3:  "3  low",
	5:  "5  neutral",
	8:  "8  good",
	10: "10 great",
}

// writeModel is the entry form, used both for new entries and for editing.
type writeModel struct {
	deps   *Deps
	width  int
	height int

	form    *huh.Form
	editing *store.JournalEntry
	saving  bool
	errText string

	// Form values as pointers (survive value copies)
	title   *string
	content *string
	emotion *int
	tags    *string
}

func newWriteModel(d *Deps) writeModel {
	t, c, tg := "", "", ""
	e := defaultEmotion
	w := writeModel{deps: d, title: &t, content: &c, emotion: &e, tags: &tg}
	w.form = w.buildForm()
	return w
}

func (w *writeModel) setSize(width, h int) {
	w.width = width
	w.height = h
}

func emotionOptions() []huh.Option[int] {
	opts := make([]huh.Option[int], 0, store.MaxEmotionScore)
	for s := store.MinEmotionScore; s <= store.MaxEmotionScore; s++ {
		label, ok := emotionLabels[s]
		if !ok {
			label = fmt.Sprintf("%d", s)
		}
		opts = append(opts, huh.NewOption(label, s))
	}
	return opts
}

func (w writeModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(w.title),
			huh.NewText().Title("What happened today?").Lines(6).Value(w.content),
		),
		huh.NewGroup(
			huh.NewSelect[int]().Title("How do you feel? (1–10)").Options(emotionOptions()...).Value(w.emotion),
			huh.NewInput().Title("Tags (comma-separated)").Value(w.tags),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

// startNew clears the form for a fresh entry.
func (w writeModel) startNew() (writeModel, tea.Cmd) {
	*w.title, *w.content, *w.tags = "", "", ""
	*w.emotion = defaultEmotion
	w.editing = nil
	w.errText = ""
	w.form = w.buildForm()
	return w, w.form.Init()
}

func (w writeModel) startEdit(e store.JournalEntry) (writeModel, tea.Cmd) {
	*w.title = e.Title
	*w.content = e.Content
	*w.emotion = e.EmotionScore
	*w.tags = strings.Join(e.Tags, ", ")
	w.editing = &e
	w.errText = ""
	w.form = w.buildForm()
	return w, w.form.Init()
}

func (w writeModel) update(msg tea.Msg) (writeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case entrySavedMsg:
		w.saving = false
		return w.startNew()

	case statusMsg:
		if w.saving && msg.isError {
			w.saving = false
			w.errText = msg.text
			w.form = w.buildForm()
			return w, w.form.Init()
		}
		return w, nil

	case tea.KeyMsg:
		if w.saving {
			return w, nil
		}
		if msg.String() == "esc" {
			back := viewDashboard
			if w.editing != nil {
				back = viewEntries
			}
			w, cmd := w.startNew()
			return w, tea.Batch(cmd, func() tea.Msg { return switchViewMsg{view: back} })
		}
	}

	if w.saving {
		return w, nil
	}
	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}
	if w.form.State == huh.StateCompleted {
		return w.save()
	}
	return w, cmd
}

func (w writeModel) save() (writeModel, tea.Cmd) {
	in, err := validate.Entry(validate.EntryInput{
		Title:        *w.title,
		Content:      *w.content,
		EmotionScore: *w.emotion,
		Tags:         validate.SplitTags(*w.tags),
	})
	if err != nil {
		w.errText = errorLines(err, w.deps.lang())
		w.form = w.buildForm()
		return w, w.form.Init()
	}

	w.saving = true
	w.errText = ""
	deps := w.deps
	if w.editing != nil {
		id := w.editing.ID
		return w, func() tea.Msg {
			e, err := deps.Store.UpdateEntry(id, store.EntryPatch{
				Title:        &in.Title,
				Content:      &in.Content,
				EmotionScore: &in.EmotionScore,
				Tags:         &in.Tags,
			})
			if err != nil {
				return deps.fail(actUpdateEntry, err)
			}
			return entrySavedMsg{entry: e}
		}
	}

	uid := deps.userID()
	return w, func() tea.Msg {
		e, err := deps.Store.CreateEntry(store.JournalEntry{
			UserID:       uid,
			Title:        in.Title,
			Content:      in.Content,
			EmotionScore: in.EmotionScore,
			Tags:         in.Tags,
		})
		if err != nil {
			return deps.fail(actSaveEntry, err)
		}
		return entrySavedMsg{entry: e, created: true}
	}
}

func (w writeModel) view() string {
	width := w.width - 4
	title := "New entry"
	if w.editing != nil {
		title = "Edit entry"
	}

	rows := []string{titleStyle.Render(title)}
	if w.editing != nil {
		rows = append(rows, mutedStyle.Render("written "+formatDateTime(w.editing.CreatedAt, w.deps.location())))
	}
	if w.errText != "" {
		rows = append(rows, "", errorStyle.Render(w.errText))
	}
	rows = append(rows, "")
	if w.saving {
		rows = append(rows, mutedStyle.Render("Saving…"))
	} else {
		rows = append(rows, w.form.View())
	}
	rows = append(rows, "", mutedStyle.Render("  enter: next  shift+tab: back  esc: discard"))

	return activePanelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
