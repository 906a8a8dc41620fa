package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/calendar"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

const weekStart = time.Sunday

type calendarModel struct {
	deps   *Deps
	width  int
	height int

	month       time.Time // first day of the shown month, in the user's zone
	selected    time.Time // midnight of the selected day
	monthEvents []store.Event
	dayEvents   []store.Event

	listFocus    bool
	dayCursor    int
	confirmingID string

	formActive bool
	form       *huh.Form
	editing    *store.Event
	errText    string

	// Form values as pointers (survive value copies)
	fTitle    *string
	fDesc     *string
	fLocation *string
	fStart    *string
	fEnd      *string
	fAllDay   *bool
	fNotify   *bool
	fMinutes  *int
}

func newCalendarModel(d *Deps) calendarModel {
	t, de, lo, st, en := "", "", "", "", ""
	ad, nt := false, true
	mi := 15
	c := calendarModel{
		deps:      d,
		fTitle:    &t,
		fDesc:     &de,
		fLocation: &lo,
		fStart:    &st,
		fEnd:      &en,
		fAllDay:   &ad,
		fNotify:   &nt,
		fMinutes:  &mi,
	}
	c.goTo(d.today())
	return c
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

// goTo selects day and shows its month.
func (c *calendarModel) goTo(day time.Time) {
	loc := c.deps.location()
	day = day.In(loc)
	c.selected = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	c.month = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
	c.dayCursor = 0
}

type calendarDataMsg struct {
	month       time.Time
	day         time.Time
	monthEvents []store.Event
	dayEvents   []store.Event
}

func (c calendarModel) refresh() tea.Cmd {
	deps := c.deps
	uid := deps.userID()
	if uid == "" {
		return nil
	}
	month, day := c.month, c.selected
	return func() tea.Msg {
		monthEvents, err := calendar.MonthEvents(deps.Store, uid, month)
		if err != nil {
			return deps.fail(actLoadEvents, err)
		}
		dayEvents, err := calendar.ForDate(deps.Store, uid, day)
		if err != nil {
			return deps.fail(actLoadEvents, err)
		}
		return calendarDataMsg{month: month, day: day, monthEvents: monthEvents, dayEvents: dayEvents}
	}
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	switch msg := msg.(type) {
	case calendarDataMsg:
		// Ignore answers for a month or day the user already left.
		if !msg.month.Equal(c.month) || !msg.day.Equal(c.selected) {
			return c, nil
		}
		c.monthEvents = msg.monthEvents
		c.dayEvents = msg.dayEvents
		if c.dayCursor >= len(c.dayEvents) {
			c.dayCursor = max(0, len(c.dayEvents)-1)
		}
		if len(c.dayEvents) == 0 {
			c.listFocus = false
		}
		return c, nil

	case eventSavedMsg:
		return c, c.refresh()

	case tea.KeyMsg:
		if c.confirmingID != "" {
			return c.updateConfirm(msg)
		}
		if c.listFocus {
			return c.updateDayList(msg)
		}
		return c.updateGrid(msg)
	}
	return c, nil
}

func (c calendarModel) updateGrid(msg tea.KeyMsg) (calendarModel, tea.Cmd) {
	move := func(days int) (calendarModel, tea.Cmd) {
		c.goTo(c.selected.AddDate(0, 0, days))
		return c, c.refresh()
	}
	switch {
	case key.Matches(msg, keys.Left):
		return move(-1)
	case key.Matches(msg, keys.Right):
		return move(1)
	case key.Matches(msg, keys.Up):
		return move(-7)
	case key.Matches(msg, keys.Down):
		return move(7)
	case key.Matches(msg, keys.PrevMonth):
		c.goTo(c.month.AddDate(0, -1, 0))
		return c, c.refresh()
	case key.Matches(msg, keys.NextMonth):
		c.goTo(c.month.AddDate(0, 1, 0))
		return c, c.refresh()
	case key.Matches(msg, keys.Today):
		c.goTo(c.deps.today())
		return c, c.refresh()
	case key.Matches(msg, keys.Enter):
		if len(c.dayEvents) > 0 {
			c.listFocus = true
			c.dayCursor = 0
		}
	case key.Matches(msg, keys.New):
		return c.showForm(nil)
	}
	return c, nil
}

func (c calendarModel) updateDayList(msg tea.KeyMsg) (calendarModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		c.listFocus = false
	case key.Matches(msg, keys.Up):
		if c.dayCursor > 0 {
			c.dayCursor--
		}
	case key.Matches(msg, keys.Down):
		if c.dayCursor < len(c.dayEvents)-1 {
			c.dayCursor++
		}
	case key.Matches(msg, keys.New):
		return c.showForm(nil)
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if c.dayCursor < len(c.dayEvents) {
			e := c.dayEvents[c.dayCursor]
			return c.showForm(&e)
		}
	case key.Matches(msg, keys.Delete):
		if c.dayCursor < len(c.dayEvents) {
			c.confirmingID = c.dayEvents[c.dayCursor].ID
		}
	}
	return c, nil
}

func (c calendarModel) updateConfirm(msg tea.KeyMsg) (calendarModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		id := c.confirmingID
		c.confirmingID = ""
		deps := c.deps
		return c, func() tea.Msg {
			if err := deps.Store.DeleteEvent(id); err != nil {
				return deps.fail(actDeleteEvent, err)
			}
			return eventSavedMsg{}
		}
	case key.Matches(msg, keys.Cancel):
		c.confirmingID = ""
	}
	return c, nil
}

// showForm opens the event form, prefilled from e or, for a new event, with
// the selected day and the user's notification defaults.
func (c calendarModel) showForm(e *store.Event) (calendarModel, tea.Cmd) {
	loc := c.deps.location()
	c.editing = e
	c.errText = ""
	if e != nil {
		*c.fTitle, *c.fDesc, *c.fLocation = e.Title, e.Description, e.Location
		*c.fAllDay = e.AllDay
		*c.fNotify = e.NotificationEnabled
		*c.fMinutes = e.NotificationMinutes
		layout := validate.DateTimeLayout
		if e.AllDay {
			layout = validate.DateLayout
		}
		*c.fStart = e.StartDate.In(loc).Format(layout)
		*c.fEnd = e.EndDate.In(loc).Format(layout)
	} else {
		st := c.deps.settings()
		start := c.selected.Add(9 * time.Hour)
		*c.fTitle, *c.fDesc, *c.fLocation = "", "", ""
		*c.fAllDay = false
		*c.fNotify = st.NotificationsEnabled
		*c.fMinutes = st.DefaultNotificationMinutes
		*c.fStart = start.Format(validate.DateTimeLayout)
		*c.fEnd = start.Add(time.Hour).Format(validate.DateTimeLayout)
	}
	c.form = c.buildForm()
	c.formActive = true
	return c, c.form.Init()
}

func (c calendarModel) buildForm() *huh.Form {
	minuteOpts := make([]huh.Option[int], len(validate.NotificationChoices))
	for i, m := range validate.NotificationChoices {
		minuteOpts[i] = huh.NewOption(notificationLabel(m), m)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(c.fTitle),
			huh.NewInput().Title("Start").Description("YYYY-MM-DD HH:MM or YYYY-MM-DD").Value(c.fStart),
			huh.NewInput().Title("End").Description("YYYY-MM-DD HH:MM or YYYY-MM-DD").Value(c.fEnd),
			huh.NewConfirm().Title("All day").Affirmative("Yes").Negative("No").Value(c.fAllDay),
		).Title("Event"),
		huh.NewGroup(
			huh.NewInput().Title("Location").Value(c.fLocation),
			huh.NewText().Title("Description").Lines(3).Value(c.fDesc),
			huh.NewConfirm().Title("Reminder").Affirmative("On").Negative("Off").Value(c.fNotify),
			huh.NewSelect[int]().Title("Remind me").Options(minuteOpts...).Value(c.fMinutes),
		).Title("Details"),
	).WithShowHelp(true).WithShowErrors(true)
}

func (c calendarModel) updateForm(msg tea.Msg) (calendarModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			c.editing = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}
	if c.form.State == huh.StateCompleted {
		return c.saveForm()
	}
	return c, cmd
}

func (c calendarModel) saveForm() (calendarModel, tea.Cmd) {
	in, err := validate.EventFromForm(validate.EventForm{
		Title:               *c.fTitle,
		Description:         *c.fDesc,
		Location:            *c.fLocation,
		Start:               *c.fStart,
		End:                 *c.fEnd,
		AllDay:              *c.fAllDay,
		NotificationEnabled: *c.fNotify,
		NotificationMinutes: *c.fMinutes,
	}, c.deps.location())
	if err != nil {
		c.errText = errorLines(err, c.deps.lang())
		c.form = c.buildForm()
		return c, c.form.Init()
	}

	c.formActive = false
	c.form = nil
	deps := c.deps
	if c.editing != nil {
		id := c.editing.ID
		c.editing = nil
		return c, func() tea.Msg {
			e, err := deps.Store.UpdateEvent(id, store.EventPatch{
				Title:               &in.Title,
				Description:         &in.Description,
				Location:            &in.Location,
				StartDate:           &in.StartDate,
				EndDate:             &in.EndDate,
				AllDay:              &in.AllDay,
				NotificationEnabled: &in.NotificationEnabled,
				NotificationMinutes: &in.NotificationMinutes,
			})
			if err != nil {
				return deps.fail(actSaveEvent, err)
			}
			return eventSavedMsg{event: e}
		}
	}

	uid := deps.userID()
	return c, func() tea.Msg {
		e, err := deps.Store.CreateEvent(store.Event{
			UserID:              uid,
			Title:               in.Title,
			Description:         in.Description,
			Location:            in.Location,
			StartDate:           in.StartDate,
			EndDate:             in.EndDate,
			AllDay:              in.AllDay,
			NotificationEnabled: in.NotificationEnabled,
			NotificationMinutes: in.NotificationMinutes,
		})
		if err != nil {
			return deps.fail(actSaveEvent, err)
		}
		return eventSavedMsg{event: e}
	}
}

func (c calendarModel) view() string {
	w := c.width - 4

	if c.formActive && c.form != nil {
		title := "New event"
		if c.editing != nil {
			title = "Edit event"
		}
		rows := []string{titleStyle.Render(title)}
		if c.errText != "" {
			rows = append(rows, "", errorStyle.Render(c.errText))
		}
		rows = append(rows, "", c.form.View())
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	grid := c.renderGrid()
	gridW := lipgloss.Width(grid)
	dayList := c.renderDayList(max(w-gridW-10, 24))

	body := lipgloss.JoinHorizontal(lipgloss.Top, grid, "   ", dayList)
	if w-gridW-10 < 24 {
		body = lipgloss.JoinVertical(lipgloss.Left, grid, "", dayList)
	}

	help := "  ←/→/↑/↓: day  [/]: month  t: today  n: new  enter: events"
	if c.listFocus {
		help = "  ↑/↓: select  e: edit  d: delete  n: new  esc: back to grid"
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, body, "", mutedStyle.Render(help)))
}

const cellWidth = 6

func (c calendarModel) renderGrid() string {
	title := titleStyle.Render(c.month.Format("January 2006"))

	var head []string
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(weekStart) + i) % 7)
		head = append(head, mutedStyle.Width(cellWidth).Align(lipgloss.Center).Render(wd.String()[:2]))
	}

	today := c.deps.today()
	days := calendar.GridDays(c.month, weekStart)
	var weeks []string
	for i := 0; i < len(days); i += 7 {
		var cells []string
		for _, day := range days[i:min(i+7, len(days))] {
			cells = append(cells, c.renderCell(day, today))
		}
		weeks = append(weeks, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title, "",
		lipgloss.JoinHorizontal(lipgloss.Top, head...),
		strings.Join(weeks, "\n"),
	)
}

func (c calendarModel) renderCell(day, today time.Time) string {
	label := fmt.Sprintf("%2d", day.Day())
	if n := len(calendar.OnGridDay(c.monthEvents, day)); n > 0 {
		label += accentStyle.Render("•")
		if n > 1 {
			label += accentStyle.Render(fmt.Sprintf("%d", n))
		}
	}

	style := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	switch {
	case day.Equal(c.selected):
		style = style.Reverse(true).Bold(true)
	case calendar.SameDay(today, day):
		style = style.Inherit(todayStyle)
	case day.Month() != c.month.Month():
		style = style.Inherit(outsideMonthStyle)
	}
	return style.Render(label)
}

func (c calendarModel) renderDayList(w int) string {
	loc := c.deps.location()
	rows := []string{titleStyle.Render(c.selected.Format("Mon, Jan 2"))}
	if len(c.dayEvents) == 0 {
		rows = append(rows, mutedStyle.Render("No events. Press n to add one."))
		return strings.Join(rows, "\n")
	}

	for i, e := range c.dayEvents {
		cursor := "  "
		style := normalItemStyle
		if c.listFocus && i == c.dayCursor {
			cursor = "> "
			style = selectedItemStyle
		}

		when := "all day"
		if !e.AllDay {
			when = e.StartDate.In(loc).Format("15:04") + "–" + e.EndDate.In(loc).Format("15:04")
			if !calendar.SameDay(e.StartDate, c.selected) || !calendar.SameDay(e.EndDate, c.selected) {
				when = formatDateTime(e.StartDate, loc) + " → " + formatDateTime(e.EndDate, loc)
			}
		}
		rows = append(rows, cursor+style.Render(truncate(e.Title, w-4)))
		rows = append(rows, "    "+mutedStyle.Render(when))
		if e.Location != "" {
			rows = append(rows, "    "+mutedStyle.Render("@ "+truncate(e.Location, w-8)))
		}
		if e.NotificationEnabled {
			rows = append(rows, "    "+highlightStyle.Render("⏰ "+notificationLabel(e.NotificationMinutes)))
		}
		if c.confirmingID == e.ID {
			rows = append(rows, "    "+warningStyle.Render("Delete this event? y: delete  n: cancel"))
		}
	}
	return strings.Join(rows, "\n")
}
