package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/export"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

type settingsSection int

const (
	sectionProfile settingsSection = iota
	sectionPassword
	sectionNotifications
	sectionAppearance
	sectionExport
	sectionAccount
)

var sectionNames = []string{
	"Profile",
	"Password",
	"Notifications",
	"Appearance",
	"Export data",
	"Delete account",
}

const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatICS  = "ics"
)

type settingsModel struct {
	deps   *Deps
	width  int
	height int

	cursor     settingsSection
	formActive bool
	form       *huh.Form
	section    settingsSection
	busy       bool
	errText    string

	// Form values as pointers (survive value copies)
	fullName      *string
	email         *string
	current       *string
	newPassword   *string
	confirm       *string
	notifications *bool
	emailNotify   *bool
	minutes       *int
	theme         *string
	language      *string
	timezone      *string
	format        *string
	confirmDelete *bool
}

func newSettingsModel(d *Deps) settingsModel {
	fn, em, cur, np, cf := "", "", "", "", ""
	th, lg, tz, ft := "", "", "", formatJSON
	nt, en, del := true, true, false
	mi := 15
	return settingsModel{
		deps:     d,
		fullName: &fn, email: &em,
		current: &cur, newPassword: &np, confirm: &cf,
		notifications: &nt, emailNotify: &en, minutes: &mi,
		theme: &th, language: &lg, timezone: &tz,
		format: &ft, confirmDelete: &del,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings *store.UserSettings
}

// settingsSavedMsg carries the stored settings after a successful update.
type settingsSavedMsg struct {
	settings *store.UserSettings
}

type profileSavedMsg struct{}

type passwordChangedMsg struct{}

type accountDeletedMsg struct{}

// refresh loads the user's settings, creating the defaults on first use.
func (s settingsModel) refresh() tea.Cmd {
	deps := s.deps
	uid := deps.userID()
	if uid == "" {
		return nil
	}
	return func() tea.Msg {
		st, err := deps.Store.GetOrCreateSettings(uid)
		if err != nil {
			return deps.fail(actSaveSettings, err)
		}
		deps.State.SetSettings(st)
		return settingsDataMsg{settings: st}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsSavedMsg, profileSavedMsg, passwordChangedMsg, exportDoneMsg, accountDeletedMsg:
		s.busy = false
		s.errText = ""
		return s, nil

	case statusMsg:
		if s.busy && msg.isError {
			s.busy = false
			s.errText = msg.text
		}
		return s, nil

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if int(s.cursor) < len(sectionNames)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm(s.cursor)
		}
	}
	return s, nil
}

func (s settingsModel) showForm(sec settingsSection) (settingsModel, tea.Cmd) {
	s.section = sec
	s.errText = ""
	s.form = s.buildForm(sec)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) buildForm(sec settingsSection) *huh.Form {
	st := s.deps.settings()
	var group *huh.Group

	switch sec {
	case sectionProfile:
		if u := s.deps.user(); u != nil {
			*s.fullName, *s.email = u.FullName, u.Email
		}
		group = huh.NewGroup(
			huh.NewInput().Title("Full name").Value(s.fullName),
			huh.NewInput().Title("Email").Value(s.email),
		).Title("Profile")

	case sectionPassword:
		*s.current, *s.newPassword, *s.confirm = "", "", ""
		group = huh.NewGroup(
			huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(s.current),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(s.newPassword),
			huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).Value(s.confirm),
		).Title("Password")

	case sectionNotifications:
		*s.notifications = st.NotificationsEnabled
		*s.emailNotify = st.EmailNotifications
		*s.minutes = st.DefaultNotificationMinutes
		opts := make([]huh.Option[int], len(validate.NotificationChoices))
		for i, m := range validate.NotificationChoices {
			opts[i] = huh.NewOption(notificationLabel(m), m)
		}
		group = huh.NewGroup(
			huh.NewConfirm().Title("Event reminders").Affirmative("On").Negative("Off").Value(s.notifications),
			huh.NewConfirm().Title("Email notifications").Affirmative("On").Negative("Off").Value(s.emailNotify),
			huh.NewSelect[int]().Title("Default reminder").Options(opts...).Value(s.minutes),
		).Title("Notifications")

	case sectionAppearance:
		*s.theme, *s.language, *s.timezone = st.Theme, st.Language, st.Timezone
		group = huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").Options(
				huh.NewOption("Light", store.ThemeLight),
				huh.NewOption("Dark", store.ThemeDark),
				huh.NewOption("Follow terminal", store.ThemeAuto),
			).Value(s.theme),
			huh.NewSelect[string]().Title("Language").Options(
				huh.NewOption("日本語", store.LangJA),
				huh.NewOption("English", store.LangEN),
			).Value(s.language),
			huh.NewInput().Title("Timezone").Description("IANA name, e.g. Asia/Tokyo").Value(s.timezone),
		).Title("Appearance")

	case sectionExport:
		group = huh.NewGroup(
			huh.NewSelect[string]().Title("Format").Options(
				huh.NewOption("JSON (entries and events)", formatJSON),
				huh.NewOption("CSV (entries)", formatCSV),
				huh.NewOption("iCalendar (events)", formatICS),
			).Value(s.format),
		).Title("Export to " + s.deps.Config.ExportDir)

	case sectionAccount:
		*s.confirmDelete = false
		group = huh.NewGroup(
			huh.NewConfirm().
				Title("Delete your account?").
				Description("All entries, events and settings are removed. This cannot be undone.").
				Affirmative("Delete").Negative("Keep").
				Value(s.confirmDelete),
		).Title("Delete account")
	}

	return huh.NewForm(group).WithShowHelp(true).WithShowErrors(true)
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s.submit()
	}
	return s, cmd
}

func (s settingsModel) submit() (settingsModel, tea.Cmd) {
	deps := s.deps
	uid := deps.userID()
	lang := deps.lang()

	switch s.section {
	case sectionProfile:
		in, err := validate.Profile(validate.ProfileInput{FullName: *s.fullName, Email: *s.email})
		if err != nil {
			return s.reopen(errorLines(err, lang))
		}
		s.busy = true
		return s, func() tea.Msg {
			if _, err := deps.Auth.UpdateProfile(uid, in.FullName, in.Email); err != nil {
				return deps.fail(actUpdateProfile, err)
			}
			return profileSavedMsg{}
		}

	case sectionPassword:
		in, err := validate.PasswordChange(validate.PasswordChangeInput{
			Current: *s.current, New: *s.newPassword, Confirm: *s.confirm,
		})
		if err != nil {
			return s.reopen(errorLines(err, lang))
		}
		s.busy = true
		return s, func() tea.Msg {
			if err := deps.Auth.ChangePassword(uid, in.Current, in.New); err != nil {
				return deps.fail(actChangePassword, err)
			}
			return passwordChangedMsg{}
		}

	case sectionNotifications:
		return s.saveSettings(store.SettingsPatch{
			NotificationsEnabled:       s.notifications,
			EmailNotifications:         s.emailNotify,
			DefaultNotificationMinutes: s.minutes,
		})

	case sectionAppearance:
		return s.saveSettings(store.SettingsPatch{
			Theme:    s.theme,
			Language: s.language,
			Timezone: s.timezone,
		})

	case sectionExport:
		s.busy = true
		return s, s.export(*s.format)

	case sectionAccount:
		if !*s.confirmDelete {
			return s, nil
		}
		s.busy = true
		return s, func() tea.Msg {
			if err := deps.Auth.DeleteAccount(uid); err != nil {
				return deps.fail(actDeleteAccount, err)
			}
			return accountDeletedMsg{}
		}
	}
	return s, nil
}

func (s settingsModel) reopen(errText string) (settingsModel, tea.Cmd) {
	s.errText = errText
	s.form = s.buildForm(s.section)
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) saveSettings(p store.SettingsPatch) (settingsModel, tea.Cmd) {
	// Copy the values out of the form pointers before the next form reuses them.
	p = copyPatch(p)
	p, err := validate.Settings(p)
	if err != nil {
		return s.reopen(errorLines(err, s.deps.lang()))
	}
	s.busy = true
	deps := s.deps
	uid := deps.userID()
	return s, func() tea.Msg {
		if _, err := deps.Store.GetOrCreateSettings(uid); err != nil {
			return deps.fail(actSaveSettings, err)
		}
		st, err := deps.Store.UpdateSettings(uid, p)
		if err != nil {
			return deps.fail(actSaveSettings, err)
		}
		deps.State.SetSettings(st)
		return settingsSavedMsg{settings: st}
	}
}

func copyPatch(p store.SettingsPatch) store.SettingsPatch {
	var out store.SettingsPatch
	if p.Theme != nil {
		v := *p.Theme
		out.Theme = &v
	}
	if p.Language != nil {
		v := *p.Language
		out.Language = &v
	}
	if p.Timezone != nil {
		v := *p.Timezone
		out.Timezone = &v
	}
	if p.NotificationsEnabled != nil {
		v := *p.NotificationsEnabled
		out.NotificationsEnabled = &v
	}
	if p.EmailNotifications != nil {
		v := *p.EmailNotifications
		out.EmailNotifications = &v
	}
	if p.DefaultNotificationMinutes != nil {
		v := *p.DefaultNotificationMinutes
		out.DefaultNotificationMinutes = &v
	}
	return out
}

// export writes the user's data to the configured export directory.
func (s settingsModel) export(format string) tea.Cmd {
	deps := s.deps
	u := deps.user()
	if u == nil {
		return nil
	}
	dir := deps.Config.ExportDir
	now := deps.now()
	loc := deps.location()
	return func() tea.Msg {
		entries, err := deps.Store.ListEntries(u.ID)
		if err != nil {
			return deps.fail(actExport, err)
		}
		events, err := deps.Store.ListEvents(u.ID, nil)
		if err != nil {
			return deps.fail(actExport, err)
		}

		base := strings.TrimSuffix(export.Filename(now), ".json")
		path := filepath.Join(dir, base+"."+format)
		switch format {
		case formatCSV:
			err = export.ToCSV(entries, loc, path)
		case formatICS:
			err = export.ToICS(events, loc, path)
		default:
			err = export.WriteJSON(export.Build(u, entries, events, now), path)
		}
		if err != nil {
			return deps.fail(actExport, err)
		}
		return exportDoneMsg{path: path}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		rows := []string{titleStyle.Render("Settings") + "  " + subtitleStyle.Render(sectionNames[s.section])}
		if s.errText != "" {
			rows = append(rows, "", errorStyle.Render(s.errText))
		}
		rows = append(rows, "", s.form.View(), "", mutedStyle.Render("  esc: cancel"))
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	rows := []string{titleStyle.Render("Settings"), ""}
	summary := s.summaries()
	for i, name := range sectionNames {
		cursor := "  "
		style := normalItemStyle
		if settingsSection(i) == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		label := lipgloss.NewStyle().Width(18).Render(name)
		rows = append(rows, cursor+style.Render(label)+" "+highlightStyle.Render(summary[i]))
	}

	if s.busy {
		rows = append(rows, "", mutedStyle.Render("Saving…"))
	}
	if s.errText != "" {
		rows = append(rows, "", errorStyle.Render(s.errText))
	}
	rows = append(rows, "", mutedStyle.Render("  ↑/↓: select  enter: edit"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s settingsModel) summaries() []string {
	st := s.deps.settings()
	out := make([]string, len(sectionNames))
	if u := s.deps.user(); u != nil {
		out[sectionProfile] = fmt.Sprintf("%s <%s>", u.FullName, u.Email)
	}
	out[sectionPassword] = "••••••"
	reminders := "off"
	if st.NotificationsEnabled {
		reminders = notificationLabel(st.DefaultNotificationMinutes)
	}
	out[sectionNotifications] = "reminders: " + reminders
	out[sectionAppearance] = fmt.Sprintf("%s · %s · %s", st.Theme, st.Language, st.Timezone)
	out[sectionExport] = s.deps.Config.ExportDir
	return out
}
