package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/validate"
)

type authMode int

const (
	modeSignIn authMode = iota
	modeSignUp
)

type loginModel struct {
	deps   *Deps
	width  int
	height int

	mode    authMode
	form    *huh.Form
	busy    bool
	errText string
	notice  string

	// Form values as pointers (survive value copies)
	fullName *string
	email    *string
	password *string
	confirm  *string
}

type authResultMsg struct {
	err error
	// pending is set when the account was created but must be confirmed
	// before signing in.
	pending bool
}

func newLoginModel(d *Deps) loginModel {
	fn, em, pw, cf := "", "", "", ""
	l := loginModel{deps: d, fullName: &fn, email: &em, password: &pw, confirm: &cf}
	l.form = l.buildForm()
	return l
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l loginModel) Init() tea.Cmd {
	return l.form.Init()
}

func (l loginModel) buildForm() *huh.Form {
	*l.password = ""
	*l.confirm = ""
	email := huh.NewInput().Title("Email").Value(l.email)
	password := huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(l.password)

	var fields []huh.Field
	if l.mode == modeSignUp {
		fields = []huh.Field{
			huh.NewInput().Title("Full name").Value(l.fullName),
			email,
			password,
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(l.confirm),
		}
	} else {
		fields = []huh.Field{email, password}
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
}

func (l loginModel) reset() (loginModel, tea.Cmd) {
	l.form = l.buildForm()
	return l, l.form.Init()
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		l.busy = false
		if msg.err != nil {
			l.errText = errorLines(msg.err, l.deps.lang())
			return l.reset()
		}
		if msg.pending {
			l.mode = modeSignIn
			l.errText = ""
			l.notice = "Account created. Confirm your email address, then sign in."
			return l.reset()
		}
		return l, nil

	case tea.KeyMsg:
		if l.busy {
			return l, nil
		}
		if key.Matches(msg, keys.SwitchMode) {
			if l.mode == modeSignIn {
				l.mode = modeSignUp
			} else {
				l.mode = modeSignIn
			}
			l.errText, l.notice = "", ""
			return l.reset()
		}
	}

	if l.busy {
		return l, nil
	}
	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}
	if l.form.State == huh.StateCompleted {
		return l.submit()
	}
	return l, cmd
}

func (l loginModel) submit() (loginModel, tea.Cmd) {
	lang := l.deps.lang()
	provider := l.deps.Auth

	if l.mode == modeSignUp {
		in, err := validate.SignUp(validate.SignUpInput{
			FullName:        *l.fullName,
			Email:           *l.email,
			Password:        *l.password,
			ConfirmPassword: *l.confirm,
		})
		if err != nil {
			l.errText = errorLines(err, lang)
			return l.reset()
		}
		l.busy = true
		l.errText = ""
		return l, func() tea.Msg {
			_, token, err := provider.SignUp(in.Email, in.Password, in.FullName)
			return authResultMsg{err: err, pending: err == nil && token == ""}
		}
	}

	in, err := validate.SignIn(validate.SignInInput{Email: *l.email, Password: *l.password})
	if err != nil {
		l.errText = errorLines(err, lang)
		return l.reset()
	}
	l.busy = true
	l.errText = ""
	return l, func() tea.Msg {
		_, _, err := provider.SignIn(in.Email, in.Password)
		return authResultMsg{err: err}
	}
}

func (l loginModel) view() string {
	w := min(l.width-4, 72)

	title := "Sign in"
	other := "ctrl+t: create an account"
	if l.mode == modeSignUp {
		title = "Create account"
		other = "ctrl+t: back to sign in"
	}

	var rows []string
	rows = append(rows, titleStyle.Render("mindjournal")+"  "+subtitleStyle.Render(title))
	if !l.deps.Auth.Connected() {
		rows = append(rows, "", bannerStyle.Render(
			"Not connected. Set backend_url and access_key in the config file\n"+
				"or MINDJOURNAL_BACKEND_URL / MINDJOURNAL_ACCESS_KEY."))
	}
	if l.notice != "" {
		rows = append(rows, "", successStyle.Render(l.notice))
	}
	if l.errText != "" {
		rows = append(rows, "", errorStyle.Render(l.errText))
	}
	rows = append(rows, "")
	if l.busy {
		rows = append(rows, mutedStyle.Render("Please wait…"))
	} else {
		rows = append(rows, l.form.View())
	}
	rows = append(rows, "", mutedStyle.Render("  "+other+"  ctrl+c: quit"))

	panel := activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
	return lipgloss.Place(l.width, max(l.height-2, lipgloss.Height(panel)), lipgloss.Center, lipgloss.Center, panel)
}
