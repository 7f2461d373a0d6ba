package app

import (
	"context"
	"time"

	"github.com/vrpill/vrcwatch/internal/logx"
	"github.com/vrpill/vrcwatch/internal/state"
	"github.com/vrpill/vrcwatch/vrchat"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 30 * time.Second
)

// Source is the slice of the vrchat client the poller reads from.
type Source interface {
	CurrentUser(ctx context.Context) (vrchat.User, error)
	Friends(ctx context.Context) ([]vrchat.User, error)
	Notifications(ctx context.Context, kind vrchat.NotificationType) ([]vrchat.Notification, error)
}

// StartPoller launches a background goroutine that refreshes the store. After
// failures the wait between polls doubles up to maxBackoff. It returns
// immediately.
func StartPoller(ctx context.Context, store *state.Store, source Source, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, source)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

// calculateBackoff returns interval doubled once per consecutive failure,
// capped at maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	wait := interval
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

// refresh performs one poll. The current user is optional: its lookup is
// cached by the client, so a failure there would otherwise pin the UI offline.
func refresh(ctx context.Context, store *state.Store, source Source) {
	var poll state.Poll

	if me, err := source.CurrentUser(ctx); err != nil {
		logx.Warn("current user unavailable", "error", err.Error())
	} else {
		poll.Me = &me
	}

	friends, err := source.Friends(ctx)
	if err != nil {
		store.Update(state.Poll{}, err)
		logx.Error(err, "friends poll failed")
		return
	}
	poll.Friends = friends

	notes, err := source.Notifications(ctx, "")
	if err != nil {
		store.Update(state.Poll{}, err)
		logx.Error(err, "notifications poll failed")
		return
	}
	poll.Notifications = notes

	store.Update(poll, nil)
}
