package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mindjournal/internal/store"
)

type palette struct {
	primary, secondary, accent, muted       lipgloss.Color
	success, warning, error, fg, subtle, hl lipgloss.Color
}

var (
	darkPalette = palette{
		primary:   "#6C63FF",
		secondary: "#2EC4B6",
		accent:    "#FF6B6B",
		muted:     "#666666",
		success:   "#2ECC71",
		warning:   "#F39C12",
		error:     "#E74C3C",
		fg:        "#C0CAF5",
		subtle:    "#414868",
		hl:        "#7AA2F7",
	}
	lightPalette = palette{
		primary:   "#4B44C8",
		secondary: "#178F84",
		accent:    "#C93C3C",
		muted:     "#8A8A8A",
		success:   "#1E8C4E",
		warning:   "#B8700A",
		error:     "#B3261E",
		fg:        "#24283B",
		subtle:    "#C8CCE0",
		hl:        "#2E59C7",
	}
)

// Color palette
var (
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorMuted     lipgloss.Color
	colorSuccess   lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorFg        lipgloss.Color
	colorSubtle    lipgloss.Color
	colorHighlight lipgloss.Color
)

// Styles
var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	cardStyle         lipgloss.Style
	cardValueStyle    lipgloss.Style
	titleStyle        lipgloss.Style
	subtitleStyle     lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	tagStyle          lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	bannerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
	todayStyle        lipgloss.Style
	outsideMonthStyle lipgloss.Style
)

func init() {
	applyTheme(store.ThemeDark)
}

// applyTheme rebuilds every style for the light, dark or auto theme. Auto
// follows the terminal background.
func applyTheme(theme string) {
	p := darkPalette
	switch theme {
	case store.ThemeLight:
		p = lightPalette
	case store.ThemeAuto:
		if !lipgloss.HasDarkBackground() {
			p = lightPalette
		}
	}

	colorPrimary = p.primary
	colorSecondary = p.secondary
	colorAccent = p.accent
	colorMuted = p.muted
	colorSuccess = p.success
	colorWarning = p.warning
	colorError = p.error
	colorFg = p.fg
	colorSubtle = p.subtle
	colorHighlight = p.hl

	// Tabs
	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	cardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(0, 2).
		Align(lipgloss.Center)

	cardValueStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary)

	// Text
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)
	tagStyle = lipgloss.NewStyle().Foreground(colorSecondary)

	// Header/footer
	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	bannerStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(colorWarning).
		Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(colorFg)

	// Calendar cells
	todayStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	outsideMonthStyle = lipgloss.NewStyle().Foreground(colorSubtle)
}

// emotionColor runs from red at 1 through amber to green at 10.
func emotionColor(score int) lipgloss.Color {
	switch {
	case score <= 3:
		return colorError
	case score <= 6:
		return colorWarning
	default:
		return colorSuccess
	}
}

func emotionStyle(score int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(emotionColor(score)).Bold(true)
}
