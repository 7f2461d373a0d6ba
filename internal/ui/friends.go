package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vrpill/vrcwatch/vrchat"
)

// friendGroup is every friend sharing one instance. Location is nil for the
// group of friends whose whereabouts are unknown.
type friendGroup struct {
	Location *vrchat.InstanceID
	Friends  []vrchat.User
}

// groupFriends buckets friends by instance, largest group first. Unlocated
// friends form a trailing group only when showOffline is set.
func groupFriends(friends []vrchat.User, showOffline bool) []friendGroup {
	byLocation := make(map[vrchat.InstanceID]*friendGroup)
	var order []vrchat.InstanceID
	var elsewhere []vrchat.User

	for _, f := range friends {
		if f.Location == nil {
			elsewhere = append(elsewhere, f)
			continue
		}
		g, ok := byLocation[*f.Location]
		if !ok {
			loc := *f.Location
			g = &friendGroup{Location: &loc}
			byLocation[loc] = g
			order = append(order, loc)
		}
		g.Friends = append(g.Friends, f)
	}

	groups := make([]friendGroup, 0, len(order)+1)
	for _, id := range order {
		g := byLocation[id]
		sortByName(g.Friends)
		groups = append(groups, *g)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].Friends) != len(groups[j].Friends) {
			return len(groups[i].Friends) > len(groups[j].Friends)
		}
		return groups[i].Location.String() < groups[j].Location.String()
	})

	if showOffline && len(elsewhere) > 0 {
		sortByName(elsewhere)
		groups = append(groups, friendGroup{Friends: elsewhere})
	}
	return groups
}

func sortByName(users []vrchat.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(displayName(users[i])) < strings.ToLower(displayName(users[j]))
	})
}

func displayName(u vrchat.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.UserName != "" {
		return u.UserName
	}
	return u.ID
}

// visibleFriends flattens the groups in display order; selection indexes it.
func (m Model) visibleFriends() []vrchat.User {
	var out []vrchat.User
	for _, g := range groupFriends(m.snapshot.Friends, m.showOffline) {
		out = append(out, g.Friends...)
	}
	return out
}

func (m Model) selectedFriend() (vrchat.User, bool) {
	friends := m.visibleFriends()
	if m.selectedRow < 0 || m.selectedRow >= len(friends) {
		return vrchat.User{}, false
	}
	return friends[m.selectedRow], true
}

// clampSelection keeps cursors inside their lists after data changes.
func (m *Model) clampSelection() {
	m.selectedRow = clamp(m.selectedRow, len(m.visibleFriends()))
	m.selectedNote = clamp(m.selectedNote, len(m.snapshot.Notifications))
}

func clamp(idx, n int) int {
	if n == 0 || idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// moveCursor applies a navigation key to idx within n rows.
func (m Model) moveCursor(msg tea.KeyMsg, idx, n int) int {
	switch {
	case key.Matches(msg, m.keys.Down):
		idx++
	case key.Matches(msg, m.keys.Up):
		idx--
	case key.Matches(msg, m.keys.Top):
		idx = 0
	case key.Matches(msg, m.keys.Bottom):
		idx = n - 1
	}
	return clamp(idx, n)
}

// handleFriendsKey processes keyboard input for the friends view.
func (m Model) handleFriendsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleOffline):
		m.showOffline = !m.showOffline
		m.clampSelection()
		return m, m.savePrefs()

	case key.Matches(msg, m.keys.Open):
		friend, ok := m.selectedFriend()
		if !ok || friend.Location == nil {
			return m, nil
		}
		m.detail = detailState{id: *friend.Location, loading: true}
		m.currentView = ViewInstance
		return m, fetchInstanceCmd(m.ctx, m.client, *friend.Location)
	}

	m.selectedRow = m.moveCursor(msg, m.selectedRow, len(m.visibleFriends()))
	return m, nil
}

// renderFriends renders friends grouped under their instance.
func (m Model) renderFriends() string {
	styles := m.theme.Styles()
	groups := groupFriends(m.snapshot.Friends, m.showOffline)
	if len(groups) == 0 {
		msg := "No friends online"
		if !m.showOffline {
			msg += " (o shows offline and private)"
		}
		return styles.MutedText.Render(msg)
	}

	var b strings.Builder
	row := 0
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		if g.Location == nil {
			b.WriteString(styles.Section.Render("Offline or private"))
		} else {
			b.WriteString(styles.Section.Render(g.Location.World))
			b.WriteString(styles.FaintText.Render(fmt.Sprintf("  #%s  (%d)", g.Location.Instance, len(g.Friends))))
		}
		b.WriteString("\n")
		for _, f := range g.Friends {
			line := "  " + displayName(f)
			if f.UserName != "" && f.UserName != f.DisplayName {
				line += styles.FaintText.Render("  @" + f.UserName)
			}
			if row == m.selectedRow {
				line = styles.Selected.Render(padRight(line, m.width))
			}
			b.WriteString(line)
			b.WriteString("\n")
			row++
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// padRight pads s with spaces to the terminal width so selection highlights
// span the whole row.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if width <= 0 || w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
