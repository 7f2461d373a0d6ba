package vrchat

import (
	"context"
	"fmt"
	"net/http"
)

// World fetches a world with its public instances. It is never cached.
func (c *Client) World(ctx context.Context, id WorldID) (World, error) {
	var payload worldPayload
	if err := c.do(ctx, http.MethodGet, c.endpoint("/worlds/%s", id), nil, &payload); err != nil {
		return World{}, fmt.Errorf("world %s: %w", id, err)
	}
	return normalizeWorld(id, payload), nil
}

// WorldInfo returns world metadata, fetching each id at most once per Client.
// A failed fetch stays cached for that id.
func (c *Client) WorldInfo(ctx context.Context, id WorldID) (WorldInfo, error) {
	info, err := c.worldInfo.get(ctx, id, func(ctx context.Context) (WorldInfo, error) {
		var payload worldPayload
		if err := c.do(ctx, http.MethodGet, c.endpoint("/worlds/%s", id), nil, &payload); err != nil {
			return WorldInfo{}, fmt.Errorf("world info %s: %w", id, err)
		}
		return normalizeWorldInfo(id, payload), nil
	})
	return info.clone(), err
}

// Instance fetches a running instance, its members and its access tag.
func (c *Client) Instance(ctx context.Context, id InstanceID) (Instance, error) {
	var payload instancePayload
	if err := c.do(ctx, http.MethodGet, c.endpoint("/worlds/%s/%s", id.World, id.Instance), nil, &payload); err != nil {
		return Instance{}, fmt.Errorf("instance %s: %w", id, err)
	}
	return normalizeInstance(id, payload), nil
}
