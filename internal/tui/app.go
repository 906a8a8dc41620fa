package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/logger"
	"github.com/sadopc/mindjournal/internal/reminder"
	"github.com/sadopc/mindjournal/internal/session"
)

// App is the root Bubble Tea model.
type App struct {
	deps   *Deps
	width  int
	height int

	signedIn   bool
	activeView viewState
	showHelp   bool

	login     loginModel
	dashboard dashboardModel
	write     writeModel
	entries   entriesModel
	calendar  calendarModel
	settings  settingsModel

	help          help.Model
	status        string
	statusIsError bool
}

func NewApp(d *Deps) App {
	h := help.New()
	h.ShowAll = false

	a := App{
		deps:       d,
		activeView: viewDashboard,
		login:      newLoginModel(d),
		help:       h,
	}
	a.resetViews()
	a.signedIn = d.State.Snapshot().SignedIn()
	return a
}

// resetViews drops everything cached for the previous user.
func (a *App) resetViews() {
	a.dashboard = newDashboardModel(a.deps)
	a.write = newWriteModel(a.deps)
	a.entries = newEntriesModel(a.deps)
	a.calendar = newCalendarModel(a.deps)
	a.settings = newSettingsModel(a.deps)
	a.setSizes()
}

func (a *App) setSizes() {
	contentHeight := a.height - 4 // header + footer
	a.login.setSize(a.width, a.height)
	a.dashboard.setSize(a.width, contentHeight)
	a.write.setSize(a.width, contentHeight)
	a.entries.setSize(a.width, contentHeight)
	a.calendar.setSize(a.width, contentHeight)
	a.settings.setSize(a.width, contentHeight)
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.login.Init(),
		a.restoreCmd(),
		tickCmd(),
	)
}

// restoreCmd resumes a persisted session, if any.
func (a App) restoreCmd() tea.Cmd {
	deps := a.deps
	return func() tea.Msg {
		if _, err := deps.Auth.Restore(); err != nil {
			logger.Debug("no session restored", "err", err)
		}
		return sessionMsg(deps.State.Snapshot())
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.setSizes()
		return a, nil

	case sessionMsg:
		return a.onSession()

	case tickMsg:
		return a, tickCmd()

	case settingsDataMsg:
		applyTheme(msg.settings.Theme)
		// The timezone is known now; start the calendar on the user's today.
		a.calendar.goTo(a.deps.today())
		return a, a.refreshAll()

	case settingsSavedMsg:
		applyTheme(msg.settings.Theme)
		a.setStatus("Settings saved", false)
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, tea.Batch(cmd, a.refreshAll())

	case authResultMsg:
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		deps := a.deps
		return a, tea.Batch(cmd, func() tea.Msg { return sessionMsg(deps.State.Snapshot()) })

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a.updateActiveView(msg)

	case reminderMsg:
		a.setStatus("⏰ "+msg.title+" at "+msg.at.In(a.deps.location()).Format("15:04"), false)
		return a, nil

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case entriesDataMsg:
		var cmd tea.Cmd
		a.entries, cmd = a.entries.update(msg)
		return a, cmd

	case calendarDataMsg:
		var cmd tea.Cmd
		a.calendar, cmd = a.calendar.update(msg)
		return a, cmd

	case switchViewMsg:
		return a.switchTo(msg.view)

	case editEntryMsg:
		var cmd tea.Cmd
		a.write, cmd = a.write.startEdit(msg.entry)
		a.activeView = viewWrite
		return a, cmd

	case entrySavedMsg:
		var cmd tea.Cmd
		a.write, cmd = a.write.update(msg)
		next := viewEntries
		if msg.created {
			a.setStatus("Entry saved", false)
			next = viewDashboard
		} else {
			a.setStatus("Entry updated", false)
		}
		a.activeView = next
		return a, tea.Batch(cmd, a.dashboard.loadData(), a.entries.refresh())

	case entryDeletedMsg:
		a.setStatus("Entry deleted", false)
		var cmd tea.Cmd
		a.entries, cmd = a.entries.update(msg)
		return a, tea.Batch(cmd, a.dashboard.loadData())

	case eventSavedMsg:
		if msg.event != nil {
			a.setStatus("Event saved", false)
		} else {
			a.setStatus("Event deleted", false)
		}
		var cmd tea.Cmd
		a.calendar, cmd = a.calendar.update(msg)
		return a, cmd

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case profileSavedMsg:
		a.setStatus("Profile updated", false)
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case passwordChangedMsg:
		a.setStatus("Password changed", false)
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case accountDeletedMsg:
		a.setStatus("Account deleted", false)
		return a.onSession()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.signedIn {
			break
		}
		// A view that owns the keyboard gets every key.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.SignOut):
			return a, a.signOutCmd()
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewWrite)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewEntries)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewCalendar)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}
	}

	if !a.signedIn {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

// onSession reconciles the app with the shared session state.
func (a App) onSession() (tea.Model, tea.Cmd) {
	snap := a.deps.State.Snapshot()
	switch {
	case snap.SignedIn() && !a.signedIn:
		a.signedIn = true
		a.activeView = viewDashboard
		a.resetViews()
		return a, a.settings.refresh()
	case !snap.SignedIn() && a.signedIn:
		a.signedIn = false
		a.resetViews()
		var cmd tea.Cmd
		a.login, cmd = a.login.reset()
		return a, cmd
	}
	return a, nil
}

func (a App) signOutCmd() tea.Cmd {
	deps := a.deps
	return func() tea.Msg {
		if err := deps.Auth.SignOut(); err != nil {
			return deps.fail(actSignOut, err)
		}
		return sessionMsg(deps.State.Snapshot())
	}
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusIsError = isError
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	if v == viewWrite {
		var cmd tea.Cmd
		a.write, cmd = a.write.startNew()
		return a, cmd
	}
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewWrite:
		a.write, cmd = a.write.update(msg)
	case viewEntries:
		a.entries, cmd = a.entries.update(msg)
	case viewCalendar:
		a.calendar, cmd = a.calendar.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewWrite:
		return true
	case viewEntries:
		return a.entries.capturing()
	case viewCalendar:
		return a.calendar.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewEntries:
		return a.entries.refresh()
	case viewCalendar:
		return a.calendar.refresh()
	}
	return nil
}

func (a App) refreshAll() tea.Cmd {
	return tea.Batch(a.dashboard.loadData(), a.entries.refresh(), a.calendar.refresh())
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}
	if !a.signedIn {
		return a.login.view()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewWrite:
		content = a.write.view()
	case viewEntries:
		content = a.entries.view()
	case viewCalendar:
		content = a.calendar.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}
	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("mindjournal")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := footerStyle.Render(a.help.View(keys))

	right := ""
	if !a.deps.Auth.Connected() {
		right += warningStyle.Render(" ● offline")
	}
	if u := a.deps.user(); u != nil {
		right += mutedStyle.Render(" " + u.Email)
	}
	if a.status != "" {
		style := mutedStyle
		if a.statusIsError {
			style = errorStyle
		}
		right += style.Render(" " + a.status)
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// Run starts the TUI and, when enabled, the reminder scheduler. Reminders
// are shown for the signed-in user only.
func Run(d *Deps) error {
	p := tea.NewProgram(NewApp(d), tea.WithAltScreen())

	// Send may block until the program loop reads it; never block the
	// goroutine that changed the state.
	unsubscribe := d.State.Subscribe(func(s session.Snapshot) {
		go p.Send(sessionMsg(s))
	})
	defer unsubscribe()

	if d.Config.Reminders.Enabled && d.Auth.Connected() {
		notify := reminder.NotifierFunc(func(r reminder.Reminder) error {
			if r.Event.UserID != d.userID() || !d.settings().NotificationsEnabled {
				return nil
			}
			p.Send(reminderMsg{title: r.Event.Title, at: r.Event.StartDate})
			return nil
		})
		sched, err := reminder.NewScheduler(d.Store, notify, d.Config.Reminders.Schedule, reminder.WithClock(d.now))
		if err != nil {
			logger.Warn("reminders disabled", "err", err)
		} else {
			sched.Start()
			defer sched.Stop()
		}
	}

	_, err := p.Run()
	return err
}
