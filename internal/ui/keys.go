package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding

	// View switching
	ViewFriends       key.Binding
	ViewNotifications key.Binding
	ViewLogs          key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Friends
	Open          key.Binding
	ToggleOffline key.Binding
	InviteMe      key.Binding

	// Notifications
	AcceptAll key.Binding
	MarkRead  key.Binding
	Dismiss   key.Binding

	// Logs
	ToggleFollow key.Binding
	Filter       key.Binding
	Confirm      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),

		ViewFriends: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Friends"),
		),
		ViewNotifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Notifications"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Instance detail"),
		),
		ToggleOffline: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Show/hide offline"),
		),
		InviteMe: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Invite me here"),
		),

		AcceptAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Accept all friend requests"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Mark read"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Filter logs"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Apply filter"),
		),
	}
}

// FullHelp returns key bindings grouped for the help overlay.
func (k keyMap) FullHelp() []helpSection {
	return []helpSection{
		{title: "Navigation", bindings: []key.Binding{k.Tab, k.ViewFriends, k.ViewNotifications, k.ViewLogs, k.Escape, k.Up, k.Down, k.Top, k.Bottom}},
		{title: "Friends", bindings: []key.Binding{k.Open, k.ToggleOffline, k.InviteMe}},
		{title: "Notifications", bindings: []key.Binding{k.AcceptAll, k.MarkRead, k.Dismiss}},
		{title: "Logs", bindings: []key.Binding{k.ToggleFollow, k.Filter, k.HalfPageDown, k.HalfPageUp}},
		{title: "General", bindings: []key.Binding{k.CycleTheme, k.Help, k.Quit}},
	}
}
