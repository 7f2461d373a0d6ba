package ui

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vrpill/vrcwatch/internal/prefs"
	"github.com/vrpill/vrcwatch/internal/state"
	"github.com/vrpill/vrcwatch/vrchat"
)

type fakeClient struct {
	mu        sync.Mutex
	invites   []vrchat.InstanceID
	accepted  int
	read      []string
	dismissed []string
	acceptErr error
}

func (f *fakeClient) Instance(_ context.Context, id vrchat.InstanceID) (vrchat.Instance, error) {
	return vrchat.Instance{
		ID:     id,
		Access: vrchat.AccessFriendsPlus,
		Users:  []vrchat.User{{ID: "usr_a", DisplayName: "Alice", Location: &id}},
	}, nil
}

func (f *fakeClient) WorldInfo(_ context.Context, id vrchat.WorldID) (vrchat.WorldInfo, error) {
	return vrchat.WorldInfo{ID: id, Name: "The Great Pug", AuthorName: "Author", Capacity: 40}, nil
}

func (f *fakeClient) Invite(_ context.Context, _ vrchat.UserID, instance vrchat.InstanceID, _ string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, instance)
	return json.RawMessage(`{}`), nil
}

func (f *fakeClient) AcceptAllFriendRequests(context.Context) (int, error) {
	if f.acceptErr != nil {
		return 0, f.acceptErr
	}
	f.accepted++
	return 2, nil
}

func (f *fakeClient) MarkNotificationRead(_ context.Context, id string) (vrchat.Notification, error) {
	f.read = append(f.read, id)
	return vrchat.Notification{ID: id, Seen: true}, nil
}

func (f *fakeClient) DeleteNotification(_ context.Context, id string) (json.RawMessage, error) {
	f.dismissed = append(f.dismissed, id)
	return json.RawMessage(`{}`), nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

func loc(world, instance string) *vrchat.InstanceID {
	return &vrchat.InstanceID{World: world, Instance: instance}
}

func newTestModel(t *testing.T, client *fakeClient) (Model, *state.Store) {
	t.Helper()
	store := &state.Store{}
	store.Update(state.Poll{
		Me: &vrchat.User{ID: "usr_me", DisplayName: "Me"},
		Friends: []vrchat.User{
			{ID: "usr_b", DisplayName: "bob", Location: loc("wrld_1", "1")},
			{ID: "usr_a", DisplayName: "Alice", Location: loc("wrld_1", "1")},
			{ID: "usr_c", DisplayName: "Carol", Location: loc("wrld_2", "9")},
			{ID: "usr_d", DisplayName: "Dave"},
		},
		Notifications: []vrchat.Notification{
			{ID: "not_1", Type: vrchat.NotificationFriendRequest, SenderUserName: "eve"},
			{ID: "not_2", Type: vrchat.NotificationInvite, SenderUserName: "frank"},
		},
	}, nil)

	m := New(Options{
		Client:    client,
		Store:     store,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, snapshotMsg(store.Snapshot()))
	return m, store
}

func TestGroupFriends_OrdersBySizeAndName(t *testing.T) {
	friends := []vrchat.User{
		{ID: "usr_c", DisplayName: "Carol", Location: loc("wrld_2", "9")},
		{ID: "usr_b", DisplayName: "bob", Location: loc("wrld_1", "1")},
		{ID: "usr_d", DisplayName: "Dave"},
		{ID: "usr_a", DisplayName: "Alice", Location: loc("wrld_1", "1")},
	}

	groups := groupFriends(friends, false)
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2 without offline", len(groups))
	}
	if *groups[0].Location != (vrchat.InstanceID{World: "wrld_1", Instance: "1"}) {
		t.Fatalf("first group = %v, want the larger wrld_1:1", groups[0].Location)
	}
	if groups[0].Friends[0].DisplayName != "Alice" || groups[0].Friends[1].DisplayName != "bob" {
		t.Fatalf("group members = %v, want case-insensitive name order", groups[0].Friends)
	}

	withOffline := groupFriends(friends, true)
	if len(withOffline) != 3 || withOffline[2].Location != nil || withOffline[2].Friends[0].ID != "usr_d" {
		t.Fatalf("groups with offline = %#v, want trailing unlocated group", withOffline)
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	if got := displayName(vrchat.User{ID: "usr_x", UserName: "x"}); got != "x" {
		t.Fatalf("displayName = %q, want username", got)
	}
	if got := displayName(vrchat.User{ID: "usr_x"}); got != "usr_x" {
		t.Fatalf("displayName = %q, want id", got)
	}
}

func TestModel_OpenInstanceAndInvite(t *testing.T) {
	client := &fakeClient{}
	m, _ := newTestModel(t, client)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.currentView != ViewInstance || !m.detail.loading {
		t.Fatalf("view = %v loading=%v, want loading instance view", m.currentView, m.detail.loading)
	}
	if cmd == nil {
		t.Fatalf("enter returned nil cmd, want instance fetch")
	}
	m, _ = update(t, m, cmd())

	view := m.View()
	for _, want := range []string{"The Great Pug", "friends+", "wrld_1:1", "Members 1/40", "Alice"} {
		if !strings.Contains(view, want) {
			t.Fatalf("instance view missing %q:\n%s", want, view)
		}
	}

	m, cmd = update(t, m, runes("i"))
	if cmd == nil {
		t.Fatalf("invite returned nil cmd")
	}
	m, _ = update(t, m, cmd())
	if len(client.invites) != 1 || client.invites[0] != (vrchat.InstanceID{World: "wrld_1", Instance: "1"}) {
		t.Fatalf("invites = %v, want wrld_1:1", client.invites)
	}
	if !strings.Contains(m.status.text, "sent") || m.status.isErr {
		t.Fatalf("status = %#v, want invite sent", m.status)
	}
}

func TestModel_StaleInstanceResultIgnored(t *testing.T) {
	m, _ := newTestModel(t, &fakeClient{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = update(t, m, instanceMsg{id: vrchat.InstanceID{World: "wrld_other", Instance: "2"}})
	if !m.detail.loading {
		t.Fatalf("stale instance result replaced the pending lookup")
	}
}

func TestModel_NavigationAndOfflineToggle(t *testing.T) {
	m, _ := newTestModel(t, &fakeClient{})

	if got := len(m.visibleFriends()); got != 3 {
		t.Fatalf("visible friends = %d, want 3 located", got)
	}
	m, _ = update(t, m, runes("G"))
	if m.selectedRow != 2 {
		t.Fatalf("selectedRow = %d, want 2 after G", m.selectedRow)
	}
	m, _ = update(t, m, runes("j"))
	if m.selectedRow != 2 {
		t.Fatalf("selectedRow = %d, want clamped at 2", m.selectedRow)
	}

	m, cmd := update(t, m, runes("o"))
	if !m.showOffline || len(m.visibleFriends()) != 4 {
		t.Fatalf("showOffline = %v visible = %d, want true/4", m.showOffline, len(m.visibleFriends()))
	}
	if cmd != nil {
		cmd()
	}
	if got := prefs.Load(m.prefsPath); !got.ShowOffline {
		t.Fatalf("saved prefs = %#v, want ShowOffline", got)
	}

	// Offline friends have no instance to open.
	m, _ = update(t, m, runes("G"))
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.currentView != ViewFriends {
		t.Fatalf("enter on offline friend changed view to %v", m.currentView)
	}
}

func TestModel_AcceptAllFriendRequests(t *testing.T) {
	client := &fakeClient{}
	m, _ := newTestModel(t, client)
	m, _ = update(t, m, runes("n"))
	if m.currentView != ViewNotifications {
		t.Fatalf("view = %v, want notifications", m.currentView)
	}
	if !strings.Contains(m.View(), "eve") {
		t.Fatalf("notifications view missing sender:\n%s", m.View())
	}

	m, cmd := update(t, m, runes("A"))
	if cmd == nil {
		t.Fatalf("accept all returned nil cmd")
	}
	m, _ = update(t, m, cmd())
	if client.accepted != 1 || m.status.text != "Accepted 2 friend requests" {
		t.Fatalf("accepted = %d status = %q", client.accepted, m.status.text)
	}

	client.acceptErr = errors.New("already friends")
	m, cmd = update(t, m, runes("A"))
	m, _ = update(t, m, cmd())
	if !m.status.isErr || !strings.Contains(m.status.text, "already friends") {
		t.Fatalf("status = %#v, want error", m.status)
	}
}

func TestModel_DismissDropsNotification(t *testing.T) {
	client := &fakeClient{}
	m, store := newTestModel(t, client)
	m, _ = update(t, m, runes("n"))
	m, _ = update(t, m, runes("j"))

	m, cmd := update(t, m, runes("x"))
	m, refresh := update(t, m, cmd())
	if len(client.dismissed) != 1 || client.dismissed[0] != "not_2" {
		t.Fatalf("dismissed = %v, want not_2", client.dismissed)
	}
	if got := store.Snapshot().Notifications; len(got) != 1 || got[0].ID != "not_1" {
		t.Fatalf("store notifications = %v, want only not_1", got)
	}
	if refresh == nil {
		t.Fatalf("dismiss should refresh the snapshot")
	}
	m, _ = update(t, m, refresh())
	if m.selectedNote != 0 {
		t.Fatalf("selectedNote = %d, want clamped to 0", m.selectedNote)
	}

	_, cmd = update(t, m, runes("r"))
	cmd()
	if len(client.read) != 1 || client.read[0] != "not_1" {
		t.Fatalf("read = %v, want not_1", client.read)
	}
}

func TestModel_ThemeCyclePersists(t *testing.T) {
	m, _ := newTestModel(t, &fakeClient{})
	start := m.theme.Name

	m, cmd := update(t, m, runes("T"))
	if m.theme.Name != NextTheme(start) {
		t.Fatalf("theme = %q, want %q", m.theme.Name, NextTheme(start))
	}
	cmd()
	if got := prefs.Load(m.prefsPath).Theme; got != m.theme.Name {
		t.Fatalf("saved theme = %q, want %q", got, m.theme.Name)
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, &fakeClient{})
	m, _ = update(t, m, runes("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") || !strings.Contains(m.View(), "Accept all friend requests") {
		t.Fatalf("help overlay missing content:\n%s", m.View())
	}
	m, _ = update(t, m, runes("x"))
	if m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestModel_LogsFilter(t *testing.T) {
	m, _ := newTestModel(t, &fakeClient{})
	m.logPath = "/tmp/vrcwatch.log"
	m, _ = update(t, m, runes("l"))
	m, _ = update(t, m, logLinesMsg{lines: []string{
		`{"level":"info","message":"poll ok"}`,
		`{"level":"warn","message":"upstream fault","url":"x"}`,
	}})

	content := m.renderLogContent()
	if !strings.Contains(content, "INFO poll ok") || !strings.Contains(content, "WARN upstream fault") {
		t.Fatalf("log content = %q, want both entries", content)
	}

	m, _ = update(t, m, runes("/"))
	if !m.logState.filtering {
		t.Fatalf("slash should open the filter prompt")
	}
	for _, r := range "fault" {
		m, _ = update(t, m, runes(string(r)))
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.logState.filtering || m.logState.filter != "fault" {
		t.Fatalf("filter = %q filtering=%v, want applied fault", m.logState.filter, m.logState.filtering)
	}
	content = m.renderLogContent()
	if strings.Contains(content, "poll ok") || !strings.Contains(content, "upstream fault") {
		t.Fatalf("filtered content = %q, want only the fault", content)
	}
	if m.currentView != ViewLogs {
		t.Fatalf("typing in the filter changed view to %v", m.currentView)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&vrchat.ConfigError{Err: vrchat.ErrNoCredentials}, "NO CREDENTIALS"},
		{&vrchat.UpstreamError{URL: "u", Payload: json.RawMessage(`{}`)}, "API ERROR"},
		{&vrchat.TransportError{Op: "unexpected status", URL: "u", Status: 502}, "HTTP 502"},
		{errors.New("dial tcp: refused"), "OFFLINE"},
	}
	for _, tt := range tests {
		if got := classifyError(tt.err); got != tt.want {
			t.Fatalf("classifyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestThemes(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames = %v, want 3", names)
	}
	names[0] = "mutated"
	if ThemeNames()[0] == "mutated" {
		t.Fatalf("ThemeNames should return a copy")
	}
	if GetTheme("missing").Name != "Nightfox" {
		t.Fatalf("GetTheme fallback = %q, want Nightfox", GetTheme("missing").Name)
	}
	if NextTheme("Slate") != "Nightfox" || NextTheme("unknown") != "Nightfox" {
		t.Fatalf("NextTheme should wrap to Nightfox")
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, tag := range []vrchat.AccessTag{vrchat.AccessPublic, vrchat.AccessFriendsPlus, vrchat.AccessFriends, vrchat.AccessInvite, vrchat.AccessInvitePlus} {
			if th.AccessColors[tag.String()] == "" {
				t.Fatalf("theme %s has no color for %s", name, tag)
			}
			if !strings.Contains(th.Styles().AccessBadge(tag), tag.String()) {
				t.Fatalf("AccessBadge(%s) missing label", tag)
			}
		}
	}
}
