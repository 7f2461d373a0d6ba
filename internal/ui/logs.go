package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vrpill/vrcwatch/internal/logtail"
)

const logTailLines = 500

// logState holds all log-view state.
type logState struct {
	lines     []string
	err       error
	follow    bool
	filter    string
	filtering bool
	input     textinput.Model
}

type logLinesMsg struct {
	lines []string
	err   error
}

// refreshLogs reads the log tail off the UI goroutine.
func (m Model) refreshLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	path := m.logPath
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.lines = msg.lines
	}
	m.updateLogViewport()
}

// updateLogViewport re-renders the log content and follows the tail.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent styles parsed entries, keeping those matching the filter.
func (m Model) renderLogContent() string {
	styles := m.theme.Styles()
	if m.logState.err != nil {
		return styles.DangerText.Render("Cannot read log: " + m.logState.err.Error())
	}
	if len(m.logState.lines) == 0 {
		return styles.MutedText.Render("Log is empty (" + m.logPath + ")")
	}

	needle := strings.ToLower(m.logState.filter)
	var b strings.Builder
	for _, entry := range logtail.ParseLines(m.logState.lines) {
		text := entry.String()
		if needle != "" && !strings.Contains(strings.ToLower(text), needle) {
			continue
		}
		if entry.Level == "" {
			b.WriteString(styles.Text.Render(text))
		} else {
			b.WriteString(styles.LevelStyle(entry.Level).Render(text))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Filter):
		input := textinput.New()
		input.Placeholder = "filter logs..."
		input.CharLimit = 100
		input.SetValue(m.logState.filter)
		input.Focus()
		m.logState.input = input
		m.logState.filtering = true
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Down):
		m.logState.follow = false
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logState.follow = false
		m.logViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logState.follow = false
		m.logViewport.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logState.follow = true
		m.logViewport.GotoBottom()
	}
	return m, nil
}

// handleFilterKey edits the log filter; enter applies it and esc cancels.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.logState.filter = strings.TrimSpace(m.logState.input.Value())
		m.logState.filtering = false
		m.updateLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.logState.filtering = false
		return m, nil
	}

	var cmd tea.Cmd
	m.logState.input, cmd = m.logState.input.Update(msg)
	return m, cmd
}
