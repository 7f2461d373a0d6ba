package vrchat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

type notificationBody struct {
	Type    NotificationType `json:"type"`
	Details *string          `json:"details"`
	Message string           `json:"message"`
}

// SendNotification sends a notification of type kind to userID. details, when
// non-nil, is JSON-encoded and sent as a string.
func (c *Client) SendNotification(ctx context.Context, userID UserID, kind NotificationType, message string, details any) (json.RawMessage, error) {
	body := notificationBody{Type: kind, Message: message}
	if details != nil {
		encoded, err := json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("encode notification details: %w", err)
		}
		s := string(encoded)
		body.Details = &s
	}
	raw, err := c.request(ctx, http.MethodPost, c.endpoint("/user/%s/notification", userID), body)
	if err != nil {
		return nil, fmt.Errorf("send %s notification to %s: %w", kind, userID, err)
	}
	return raw, nil
}

// Invite invites userID to instance.
func (c *Client) Invite(ctx context.Context, userID UserID, instance InstanceID, message string) (json.RawMessage, error) {
	details := struct {
		WorldID string `json:"worldId"`
	}{WorldID: instance.String()}
	return c.SendNotification(ctx, userID, NotificationInvite, message, details)
}

// SendFriendRequest sends a friend request to userID.
func (c *Client) SendFriendRequest(ctx context.Context, userID UserID) (json.RawMessage, error) {
	raw, err := c.request(ctx, http.MethodPost, c.endpoint("/user/%s/friendRequest", userID), nil)
	if err != nil {
		return nil, fmt.Errorf("friend request to %s: %w", userID, err)
	}
	return raw, nil
}

// AcceptFriendRequest accepts the friend request carried by a notification.
func (c *Client) AcceptFriendRequest(ctx context.Context, notificationID string) (json.RawMessage, error) {
	raw, err := c.request(ctx, http.MethodPut, c.endpoint("/auth/user/notifications/%s/accept", notificationID), nil)
	if err != nil {
		return nil, fmt.Errorf("accept notification %s: %w", notificationID, err)
	}
	return raw, nil
}

// DeleteNotification hides a notification.
func (c *Client) DeleteNotification(ctx context.Context, notificationID string) (json.RawMessage, error) {
	raw, err := c.request(ctx, http.MethodPut, c.endpoint("/auth/user/notifications/%s/hide", notificationID), nil)
	if err != nil {
		return nil, fmt.Errorf("delete notification %s: %w", notificationID, err)
	}
	return raw, nil
}

// MarkNotificationRead marks a notification as seen and returns it.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) (Notification, error) {
	var payload notificationPayload
	if err := c.do(ctx, http.MethodPut, c.endpoint("/auth/user/notifications/%s/see", notificationID), nil, &payload); err != nil {
		return Notification{}, fmt.Errorf("mark notification %s read: %w", notificationID, err)
	}
	return normalizeNotification(payload), nil
}

// Notifications lists notifications of the given type; an empty kind lists
// every type.
func (c *Client) Notifications(ctx context.Context, kind NotificationType) ([]Notification, error) {
	target := c.endpoint("/auth/user/notifications")
	if kind != "" {
		target += "?" + url.Values{"type": {string(kind)}}.Encode()
	}
	var payload []notificationPayload
	if err := c.do(ctx, http.MethodGet, target, nil, &payload); err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	out := make([]Notification, 0, len(payload))
	for _, n := range payload {
		out = append(out, normalizeNotification(n))
	}
	return out, nil
}

// AcceptAllFriendRequests accepts every pending friend request concurrently
// and returns how many were accepted. The first failure aborts the batch.
func (c *Client) AcceptAllFriendRequests(ctx context.Context) (int, error) {
	pending, err := c.Notifications(ctx, NotificationFriendRequest)
	if err != nil {
		return 0, err
	}
	var accepted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range pending {
		if n.Type != NotificationFriendRequest {
			continue
		}
		g.Go(func() error {
			if _, err := c.AcceptFriendRequest(gctx, n.ID); err != nil {
				return err
			}
			accepted.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(accepted.Load()), nil
}
