package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vrpill/vrcwatch/vrchat"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Background  string
	Surface     string
	SelectionBg string
	SelectionFg string
	Border      string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// AccessColors is keyed by AccessTag.String().
	AccessColors map[string]string
}

// Styles contains pre-built Lipgloss styles for a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style
	Section  lipgloss.Style

	accessColors map[string]string
	background   string
	muted        string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)).Bold(true),
		WarningText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		DangerText:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
		InfoText:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Logo: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionFg)),
		Section: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),

		accessColors: t.AccessColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// AccessBadge renders an access tag as a colored badge.
func (s Styles) AccessBadge(tag vrchat.AccessTag) string {
	color := s.accessColors[tag.String()]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1).
		Render(tag.String())
}

// LevelStyle returns the style for a log level name.
func (s Styles) LevelStyle(level string) lipgloss.Style {
	switch level {
	case "error", "fatal", "panic":
		return s.DangerText
	case "warn":
		return s.WarningText
	case "debug", "trace":
		return s.InfoText
	case "info":
		return s.SuccessText
	default:
		return s.Text
	}
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names in cycle order.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

func nightfoxTheme() Theme {
	// https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:        "Nightfox",
		Background:  "#131a24",
		Surface:     "#192330",
		SelectionBg: "#2b3b51",
		SelectionFg: "#cdcecf",
		Border:      "#39506d",
		Text:        "#cdcecf",
		Muted:       "#738091",
		Faint:       "#71839b",
		Accent:      "#719cd6",
		Success:     "#81b29a",
		Warning:     "#dbc074",
		Danger:      "#c94f6d",
		Info:        "#63cdcf",
		AccessColors: map[string]string{
			"public":   "#81b29a",
			"friends+": "#63cdcf",
			"friends":  "#719cd6",
			"invite+":  "#9d79d6",
			"invite":   "#dbc074",
		},
	}
}

func kanagawaTheme() Theme {
	// https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name:        "Kanagawa",
		Background:  "#16161D",
		Surface:     "#1F1F28",
		SelectionBg: "#2D4F67",
		SelectionFg: "#DCD7BA",
		Border:      "#54546D",
		Text:        "#DCD7BA",
		Muted:       "#C8C093",
		Faint:       "#727169",
		Accent:      "#7E9CD8",
		Success:     "#98BB6C",
		Warning:     "#E6C384",
		Danger:      "#E46876",
		Info:        "#7FB4CA",
		AccessColors: map[string]string{
			"public":   "#98BB6C",
			"friends+": "#7FB4CA",
			"friends":  "#7E9CD8",
			"invite+":  "#957FB8",
			"invite":   "#E6C384",
		},
	}
}

func slateTheme() Theme {
	// Tailwind slate/sky palette
	return Theme{
		Name:        "Slate",
		Background:  "#020617",
		Surface:     "#0f172a",
		SelectionBg: "#0284c7",
		SelectionFg: "#f8fafc",
		Border:      "#334155",
		Text:        "#f1f5f9",
		Muted:       "#94a3b8",
		Faint:       "#64748b",
		Accent:      "#38bdf8",
		Success:     "#22c55e",
		Warning:     "#f59e0b",
		Danger:      "#ef4444",
		Info:        "#06b6d4",
		AccessColors: map[string]string{
			"public":   "#22c55e",
			"friends+": "#22d3ee",
			"friends":  "#38bdf8",
			"invite+":  "#a78bfa",
			"invite":   "#f59e0b",
		},
	}
}
