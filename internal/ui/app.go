package ui

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vrpill/vrcwatch/internal/logx"
	"github.com/vrpill/vrcwatch/internal/prefs"
	"github.com/vrpill/vrcwatch/internal/state"
	"github.com/vrpill/vrcwatch/vrchat"
)

// View represents the current active view.
type View int

const (
	ViewFriends View = iota
	ViewInstance
	ViewNotifications
	ViewLogs
)

// Client is the part of the vrchat client the UI drives directly. Polling
// happens elsewhere; these are on-demand lookups and user actions.
type Client interface {
	Instance(ctx context.Context, id vrchat.InstanceID) (vrchat.Instance, error)
	WorldInfo(ctx context.Context, id vrchat.WorldID) (vrchat.WorldInfo, error)
	Invite(ctx context.Context, userID vrchat.UserID, instance vrchat.InstanceID, message string) (json.RawMessage, error)
	AcceptAllFriendRequests(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, notificationID string) (vrchat.Notification, error)
	DeleteNotification(ctx context.Context, notificationID string) (json.RawMessage, error)
}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Client   Client
	Store    *state.Store
	PollTick time.Duration
	Prefs    prefs.Prefs
	// PrefsPath empty uses the default prefs location.
	PrefsPath string
	LogPath   string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	client    Client
	store     *state.Store
	keys      keyMap
	prefsPath string
	logPath   string
	pollTick  time.Duration

	theme       Theme
	showOffline bool
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	lastUpdated time.Time
	status      statusLine

	selectedRow  int
	selectedNote int

	detail detailState

	logViewport viewport.Model
	logState    logState
}

// statusLine is the transient message shown in the footer after an action.
type statusLine struct {
	text  string
	isErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		keys:        DefaultKeyMap(),
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		pollTick:    pollTick,
		theme:       GetTheme(opts.Prefs.Theme),
		showOffline: opts.Prefs.ShowOffline,
		currentView: ViewFriends,
		logState:    logState{follow: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logViewport = viewport.New(msg.Width, m.contentHeight())
		}
		m.ready = true
		m.logViewport.Width = msg.Width
		m.logViewport.Height = m.contentHeight()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampSelection()
		return m, nil

	case instanceMsg:
		m.handleInstance(msg)
		return m, nil

	case actionMsg:
		return m.handleAction(msg)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.logState.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, m.savePrefs()

	case key.Matches(msg, m.keys.Tab):
		return m.cycleView()

	case key.Matches(msg, m.keys.ViewFriends):
		m.currentView = ViewFriends
		return m, nil

	case key.Matches(msg, m.keys.ViewNotifications):
		m.currentView = ViewNotifications
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewFriends
		return m, nil
	}

	switch m.currentView {
	case ViewFriends:
		return m.handleFriendsKey(msg)
	case ViewInstance:
		return m.handleInstanceKey(msg)
	case ViewNotifications:
		return m.handleNotificationsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// cycleView moves Friends → Notifications → Logs → Friends. The instance
// view is entered from a friend and is not part of the cycle.
func (m Model) cycleView() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewFriends, ViewInstance:
		m.currentView = ViewNotifications
	case ViewNotifications:
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	default:
		m.currentView = ViewFriends
	}
	return m, nil
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// savePrefs persists theme and offline visibility in the background.
func (m Model) savePrefs() tea.Cmd {
	if m.prefsPath == "" {
		return nil
	}
	path := m.prefsPath
	p := prefs.Prefs{Theme: m.theme.Name, ShowOffline: m.showOffline}
	return func() tea.Msg {
		if err := prefs.Save(path, p); err != nil {
			logx.Error(err, "save prefs failed", "path", path)
		}
		return nil
	}
}

// handleAction records the outcome of a user action and refreshes.
func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = statusLine{text: msg.label + ": " + msg.err.Error(), isErr: true}
		logx.Error(msg.err, "action failed", "action", msg.label)
		return m, nil
	}
	m.status = statusLine{text: msg.label}
	if msg.dropNotification != "" && m.store != nil {
		m.store.DropNotification(msg.dropNotification)
		return m, fetchSnapshotCmd(m.store)
	}
	return m, nil
}

// renderMain renders header, content and footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFriends:
		return m.renderFriends()
	case ViewInstance:
		return m.renderInstance()
	case ViewNotifications:
		return m.renderNotifications()
	case ViewLogs:
		return m.logViewport.View()
	default:
		return ""
	}
}

// contentHeight is the space left between header and footer.
func (m Model) contentHeight() int {
	if h := m.height - 2; h > 0 {
		return h
	}
	return 1
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type actionMsg struct {
	label            string
	err              error
	dropNotification string
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
