package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/mindjournal/internal/auth"
	"github.com/sadopc/mindjournal/internal/config"
	"github.com/sadopc/mindjournal/internal/errmsg"
	"github.com/sadopc/mindjournal/internal/session"
	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewWrite
	viewEntries
	viewCalendar
	viewSettings
)

var viewNames = []string{"Dashboard", "Write", "Entries", "Calendar", "Settings"}

// Deps are the services shared by every view.
type Deps struct {
	Store  *store.Store
	Auth   *auth.Provider
	State  *session.State
	Config *config.Config
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) user() *store.User {
	return d.State.Snapshot().User
}

func (d *Deps) userID() string {
	if u := d.user(); u != nil {
		return u.ID
	}
	return ""
}

func (d *Deps) lang() string {
	return d.State.Snapshot().Language()
}

// location is the user's timezone, or Local before settings are loaded.
func (d *Deps) location() *time.Location {
	if st := d.State.Snapshot().Settings; st != nil {
		return st.Location()
	}
	return time.Local
}

func (d *Deps) today() time.Time {
	return d.now().In(d.location())
}

func (d *Deps) settings() store.UserSettings {
	if st := d.State.Snapshot().Settings; st != nil {
		return *st
	}
	return store.DefaultSettings(d.userID())
}

// --- Messages ---

// sessionMsg is delivered whenever the session state changes.
type sessionMsg session.Snapshot

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type switchViewMsg struct {
	view viewState
}

// editEntryMsg opens the write view on an existing entry.
type editEntryMsg struct {
	entry store.JournalEntry
}

type entrySavedMsg struct {
	entry   *store.JournalEntry
	created bool
}

type entryDeletedMsg struct {
	id string
}

type eventSavedMsg struct {
	event *store.Event
}

type reminderMsg struct {
	title string
	at    time.Time
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// action names a user operation for failure messages.
type action struct{ ja, en string }

var (
	actSaveEntry      = action{"日記の保存", "save the entry"}
	actUpdateEntry    = action{"日記の更新", "update the entry"}
	actDeleteEntry    = action{"日記の削除", "delete the entry"}
	actLoadEntries    = action{"日記の読み込み", "load entries"}
	actSaveEvent      = action{"予定の保存", "save the event"}
	actDeleteEvent    = action{"予定の削除", "delete the event"}
	actLoadEvents     = action{"予定の読み込み", "load events"}
	actSaveSettings   = action{"設定の保存", "save settings"}
	actUpdateProfile  = action{"プロフィールの更新", "update the profile"}
	actChangePassword = action{"パスワードの変更", "change the password"}
	actDeleteAccount  = action{"アカウントの削除", "delete the account"}
	actExport         = action{"データのエクスポート", "export data"}
	actSignOut        = action{"ログアウト", "sign out"}
)

// fail reports err in the user's language, prefixed with the action.
func (d *Deps) fail(a action, err error) statusMsg {
	lang := d.lang()
	name := a.ja
	if lang == store.LangEN {
		name = a.en
	}
	return statusMsg{text: errmsg.Action(name, err, lang), isError: true}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func formatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04")
}

func renderTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return tagStyle.Render(strings.Join(parts, " "))
}

// emotionBar draws a ten-cell meter for a 1–10 score.
func emotionBar(score int) string {
	if score < store.MinEmotionScore {
		score = store.MinEmotionScore
	}
	if score > store.MaxEmotionScore {
		score = store.MaxEmotionScore
	}
	return emotionStyle(score).Render(strings.Repeat("■", score)) +
		mutedStyle.Render(strings.Repeat("□", store.MaxEmotionScore-score))
}

func notificationLabel(minutes int) string {
	switch {
	case minutes == 0:
		return "at start"
	case minutes == 1440:
		return "1 day before"
	case minutes%60 == 0:
		return fmt.Sprintf("%d h before", minutes/60)
	}
	return fmt.Sprintf("%d min before", minutes)
}

// errorLines renders every field error on its own line, or the single
// mapped message for other errors.
func errorLines(err error, lang string) string {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		lines := make([]string, len(verrs))
		for i, fe := range verrs {
			lines[i] = "• " + fe.Message(lang)
		}
		return strings.Join(lines, "\n")
	}
	return errmsg.Message(err, lang)
}
