package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vrpill/vrcwatch/vrchat"
)

// detailState holds the instance view. World info failures are shown but do
// not hide the instance itself.
type detailState struct {
	id       vrchat.InstanceID
	loading  bool
	instance vrchat.Instance
	world    vrchat.WorldInfo
	err      error
	worldErr error
}

type instanceMsg struct {
	id       vrchat.InstanceID
	instance vrchat.Instance
	world    vrchat.WorldInfo
	err      error
	worldErr error
}

func fetchInstanceCmd(ctx context.Context, client Client, id vrchat.InstanceID) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		msg := instanceMsg{id: id}
		msg.instance, msg.err = client.Instance(ctx, id)
		if msg.err == nil {
			msg.world, msg.worldErr = client.WorldInfo(ctx, id.World)
		}
		return msg
	}
}

// handleInstance applies a fetched instance unless the user already moved on.
func (m *Model) handleInstance(msg instanceMsg) {
	if msg.id != m.detail.id {
		return
	}
	m.detail = detailState{
		id:       msg.id,
		instance: msg.instance,
		world:    msg.world,
		err:      msg.err,
		worldErr: msg.worldErr,
	}
}

// handleInstanceKey processes keyboard input for the instance view.
func (m Model) handleInstanceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.InviteMe) || m.detail.loading || m.detail.err != nil {
		return m, nil
	}
	if !m.snapshot.HasMe || m.client == nil {
		m.status = statusLine{text: "current user unknown; cannot invite", isErr: true}
		return m, nil
	}

	ctx, client := m.ctx, m.client
	me, id := m.snapshot.Me.ID, m.detail.id
	return m, func() tea.Msg {
		_, err := client.Invite(ctx, me, id, "")
		return actionMsg{label: "Invite to " + id.String() + " sent", err: err}
	}
}

// renderInstance renders world info, access tag and members.
func (m Model) renderInstance() string {
	styles := m.theme.Styles()
	d := m.detail
	if d.loading {
		return styles.MutedText.Render("Loading " + d.id.String() + "...")
	}
	if d.err != nil {
		return styles.DangerText.Render("Instance unavailable: ") + styles.Text.Render(d.err.Error())
	}

	var b strings.Builder
	name := d.world.Name
	if name == "" {
		name = d.id.World
	}
	b.WriteString(styles.Section.Render(name))
	b.WriteString("  ")
	b.WriteString(styles.AccessBadge(d.instance.Access))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(d.id.String()))
	b.WriteString("\n")

	if d.worldErr != nil {
		b.WriteString(styles.WarningText.Render("World info unavailable: " + d.worldErr.Error()))
		b.WriteString("\n")
	} else {
		if d.world.AuthorName != "" {
			b.WriteString(styles.MutedText.Render("by " + d.world.AuthorName))
			b.WriteString("\n")
		}
		if d.world.Description != "" {
			b.WriteString(styles.Text.Render(d.world.Description))
			b.WriteString("\n")
		}
	}

	members := fmt.Sprintf("%d", len(d.instance.Users))
	if d.world.Capacity > 0 {
		members += fmt.Sprintf("/%d", d.world.Capacity)
	}
	b.WriteString("\n")
	b.WriteString(styles.Section.Render("Members " + members))
	b.WriteString("\n")
	for _, u := range d.instance.Users {
		b.WriteString("  " + displayName(u))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
