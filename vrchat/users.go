package vrchat

import (
	"context"
	"fmt"
	"net/http"
)

// UserByName looks up a user by exact username.
func (c *Client) UserByName(ctx context.Context, name string) (User, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodGet, c.endpoint("/users/%s/name", name), nil, &payload); err != nil {
		return User{}, fmt.Errorf("user %q: %w", name, err)
	}
	return normalizeUser(payload, nil), nil
}

// CurrentUser returns the authenticated account's profile. The first result,
// success or failure, is reused for the lifetime of the Client.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	me, err := c.currentUser.get(ctx, struct{}{}, func(ctx context.Context) (User, error) {
		var payload userPayload
		if err := c.do(ctx, http.MethodGet, c.endpoint("/auth/user"), nil, &payload); err != nil {
			return User{}, fmt.Errorf("current user: %w", err)
		}
		return normalizeUser(payload, nil), nil
	})
	return me.clone(), err
}

// Friends lists the authenticated account's friends with their locations
// resolved from the location string.
func (c *Client) Friends(ctx context.Context) ([]User, error) {
	var payload []userPayload
	if err := c.do(ctx, http.MethodGet, c.endpoint("/auth/user/friends"), nil, &payload); err != nil {
		return nil, fmt.Errorf("friends: %w", err)
	}
	friends := make([]User, 0, len(payload))
	for _, entry := range payload {
		friends = append(friends, normalizeFriend(entry))
	}
	return friends, nil
}
