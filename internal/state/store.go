package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/vrpill/vrcwatch/vrchat"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Me                  vrchat.User
	HasMe               bool
	Friends             []vrchat.User
	Notifications       []vrchat.Notification
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// PendingFriendRequests counts friend request notifications in the snapshot.
func (s Snapshot) PendingFriendRequests() int {
	n := 0
	for _, item := range s.Notifications {
		if item.Type == vrchat.NotificationFriendRequest {
			n++
		}
	}
	return n
}

// Poll is one successful round of upstream data.
type Poll struct {
	Me            *vrchat.User
	Friends       []vrchat.User
	Notifications []vrchat.Notification
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(poll Poll, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if poll.Me != nil {
		s.snapshot.Me = cloneUser(*poll.Me)
		s.snapshot.HasMe = true
	} else {
		s.snapshot.Me = vrchat.User{}
		s.snapshot.HasMe = false
	}
	s.snapshot.Friends = cloneUsers(poll.Friends)
	s.snapshot.Notifications = cloneNotifications(poll.Notifications)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// DropNotification removes a notification the user acted on so the UI does
// not show it until the next poll confirms.
func (s *Store) DropNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.snapshot.Notifications[:0]
	for _, n := range s.snapshot.Notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.snapshot.Notifications = kept
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Me = cloneUser(s.snapshot.Me)
	snap.Friends = cloneUsers(s.snapshot.Friends)
	snap.Notifications = cloneNotifications(s.snapshot.Notifications)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneUser(u vrchat.User) vrchat.User {
	if u.Location != nil {
		loc := *u.Location
		u.Location = &loc
	}
	return u
}

func cloneUsers(users []vrchat.User) []vrchat.User {
	if len(users) == 0 {
		return nil
	}
	dup := make([]vrchat.User, len(users))
	for i, u := range users {
		dup[i] = cloneUser(u)
	}
	return dup
}

func cloneNotifications(items []vrchat.Notification) []vrchat.Notification {
	if len(items) == 0 {
		return nil
	}
	dup := make([]vrchat.Notification, len(items))
	copy(dup, items)
	return dup
}
