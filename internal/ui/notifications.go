package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleNotificationsKey processes keyboard input for the notifications view.
func (m Model) handleNotificationsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx, client := m.ctx, m.client
	notes := m.snapshot.Notifications

	switch {
	case key.Matches(msg, m.keys.AcceptAll):
		if client == nil || m.snapshot.PendingFriendRequests() == 0 {
			return m, nil
		}
		return m, func() tea.Msg {
			n, err := client.AcceptAllFriendRequests(ctx)
			return actionMsg{label: fmt.Sprintf("Accepted %d friend requests", n), err: err}
		}

	case key.Matches(msg, m.keys.MarkRead), key.Matches(msg, m.keys.Dismiss):
		if client == nil || len(notes) == 0 {
			return m, nil
		}
		id := notes[clamp(m.selectedNote, len(notes))].ID
		if key.Matches(msg, m.keys.MarkRead) {
			return m, func() tea.Msg {
				_, err := client.MarkNotificationRead(ctx, id)
				return actionMsg{label: "Marked " + id + " read", err: err}
			}
		}
		return m, func() tea.Msg {
			_, err := client.DeleteNotification(ctx, id)
			out := actionMsg{label: "Dismissed " + id, err: err}
			if err == nil {
				out.dropNotification = id
			}
			return out
		}
	}

	m.selectedNote = m.moveCursor(msg, m.selectedNote, len(notes))
	return m, nil
}

// renderNotifications renders the notification list, newest first as served.
func (m Model) renderNotifications() string {
	styles := m.theme.Styles()
	notes := m.snapshot.Notifications
	if len(notes) == 0 {
		return styles.MutedText.Render("No notifications")
	}

	var b strings.Builder
	for i, n := range notes {
		marker := "•"
		if n.Seen {
			marker = " "
		}
		sender := n.SenderUserName
		if sender == "" {
			sender = n.SenderUserID
		}
		line := fmt.Sprintf("%s %-14s %s", marker, string(n.Type), sender)
		if n.Message != "" {
			line += styles.FaintText.Render("  " + n.Message)
		}
		if !n.CreatedAt.IsZero() {
			line += styles.MutedText.Render("  " + n.CreatedAt.Local().Format("Jan 2 15:04"))
		}
		if i == m.selectedNote {
			line = styles.Selected.Render(padRight(line, m.width))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
