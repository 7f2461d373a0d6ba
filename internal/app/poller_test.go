package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vrpill/vrcwatch/internal/state"
	"github.com/vrpill/vrcwatch/vrchat"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeSource struct {
	meErr      error
	friendsErr error
	notesErr   error
	polls      atomic.Int32
}

func (f *fakeSource) CurrentUser(context.Context) (vrchat.User, error) {
	if f.meErr != nil {
		return vrchat.User{}, f.meErr
	}
	return vrchat.User{ID: "usr_me"}, nil
}

func (f *fakeSource) Friends(context.Context) ([]vrchat.User, error) {
	f.polls.Add(1)
	if f.friendsErr != nil {
		return nil, f.friendsErr
	}
	return []vrchat.User{{ID: "usr_a"}}, nil
}

func (f *fakeSource) Notifications(_ context.Context, kind vrchat.NotificationType) ([]vrchat.Notification, error) {
	if f.notesErr != nil {
		return nil, f.notesErr
	}
	return []vrchat.Notification{{ID: "not_1", Type: vrchat.NotificationFriendRequest}}, nil
}

func TestRefresh_Success(t *testing.T) {
	var store state.Store
	refresh(context.Background(), &store, &fakeSource{})

	snap := store.Snapshot()
	if !snap.HasMe || snap.Me.ID != "usr_me" {
		t.Fatalf("Me = %#v, want usr_me", snap.Me)
	}
	if len(snap.Friends) != 1 || len(snap.Notifications) != 1 {
		t.Fatalf("snapshot = %d friends %d notifications, want 1/1", len(snap.Friends), len(snap.Notifications))
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
}

func TestRefresh_CurrentUserFailureIsNotFatal(t *testing.T) {
	var store state.Store
	refresh(context.Background(), &store, &fakeSource{meErr: errors.New("cached failure")})

	snap := store.Snapshot()
	if snap.HasMe {
		t.Fatalf("HasMe = true, want false when current user failed")
	}
	if snap.LastError != nil || len(snap.Friends) != 1 {
		t.Fatalf("snapshot = %#v, want friends without error", snap)
	}
}

func TestRefresh_FriendsFailureRecordsError(t *testing.T) {
	var store state.Store
	refresh(context.Background(), &store, &fakeSource{})

	boom := errors.New("boom")
	refresh(context.Background(), &store, &fakeSource{friendsErr: boom})
	refresh(context.Background(), &store, &fakeSource{notesErr: boom})

	snap := store.Snapshot()
	if !errors.Is(snap.LastError, boom) {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("ConsecutiveFailures = %d, want 2 and offline", snap.ConsecutiveFailures)
	}
	if len(snap.Friends) != 1 {
		t.Fatalf("friends = %d, want previous data kept", len(snap.Friends))
	}
}

func TestStartPoller_StopsOnCancel(t *testing.T) {
	var store state.Store
	source := &fakeSource{}
	ctx, cancel := context.WithCancel(context.Background())

	StartPoller(ctx, &store, source, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for source.polls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("poller ran %d times, want at least 2", source.polls.Load())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)
	stopped := source.polls.Load()
	time.Sleep(30 * time.Millisecond)
	if got := source.polls.Load(); got != stopped {
		t.Fatalf("poller kept running after cancel: %d -> %d", stopped, got)
	}
}
