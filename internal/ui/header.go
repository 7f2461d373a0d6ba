package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vrpill/vrcwatch/vrchat"
)

// renderHeader renders the top status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	surface := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Surface))
	sep := surface.Render("  ")

	parts := []string{styles.Logo.Render("vrcwatch")}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts,
			styles.DangerText.Inherit(surface).Render("● "+classifyError(m.snapshot.LastError)),
			styles.WarningText.Inherit(surface).Render("Retrying..."))
	case m.snapshot.LastUpdated.IsZero():
		parts = append(parts, styles.WarningText.Inherit(surface).Render("Connecting..."))
	default:
		parts = append(parts, styles.SuccessText.Inherit(surface).Render("● online"))
	}

	if m.snapshot.HasMe {
		parts = append(parts, styles.Text.Inherit(surface).Render(displayName(m.snapshot.Me)))
	}

	online := 0
	for _, f := range m.snapshot.Friends {
		if f.Location != nil {
			online++
		}
	}
	parts = append(parts, styles.MutedText.Inherit(surface).Render(
		fmt.Sprintf("Friends %d/%d", online, len(m.snapshot.Friends))))

	if pending := m.snapshot.PendingFriendRequests(); pending > 0 {
		parts = append(parts, styles.WarningText.Inherit(surface).Render(
			fmt.Sprintf("%d friend request(s)", pending)))
	}

	parts = append(parts, styles.AccentText.Inherit(surface).Render(m.viewName()))

	if !m.lastUpdated.IsZero() {
		parts = append(parts, styles.FaintText.Inherit(surface).Render(m.lastUpdated.Format("15:04:05")))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderFooter shows the filter prompt, the last action result or key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	switch {
	case m.logState.filtering:
		return styles.Footer.Width(m.width).Render("/" + m.logState.input.View())
	case m.status.text != "" && m.status.isErr:
		return styles.Footer.Width(m.width).Render(styles.DangerText.Render(m.status.text))
	case m.status.text != "":
		return styles.Footer.Width(m.width).Render(m.status.text)
	}
	return styles.Footer.Width(m.width).Render(m.viewHints())
}

func (m Model) viewName() string {
	switch m.currentView {
	case ViewInstance:
		return "Instance"
	case ViewNotifications:
		return "Notifications"
	case ViewLogs:
		if m.logState.filter != "" {
			return "Logs [" + m.logState.filter + "]"
		}
		return "Logs"
	default:
		return "Friends"
	}
}

func (m Model) viewHints() string {
	switch m.currentView {
	case ViewInstance:
		return "i invite me  esc back  h help"
	case ViewNotifications:
		return "A accept all  r read  x dismiss  h help"
	case ViewLogs:
		follow := "off"
		if m.logState.follow {
			follow = "on"
		}
		return "space follow (" + follow + ")  / filter  h help"
	default:
		return "enter instance  o offline  tab views  h help"
	}
}

// classifyError turns a poll error into a short header label.
func classifyError(err error) string {
	var cfgErr *vrchat.ConfigError
	var upErr *vrchat.UpstreamError
	var trErr *vrchat.TransportError
	switch {
	case err == nil:
		return "OFFLINE"
	case errors.As(err, &cfgErr):
		return "NO CREDENTIALS"
	case errors.As(err, &upErr):
		return "API ERROR"
	case errors.Is(err, vrchat.ErrNoAPIKey):
		return "NO API KEY"
	case errors.As(err, &trErr) && trErr.Status != 0:
		return fmt.Sprintf("HTTP %d", trErr.Status)
	default:
		return "OFFLINE"
	}
}
