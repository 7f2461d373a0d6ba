package vrchat

import (
	"strings"
	"time"
)

// normalizeUser maps a user payload onto User. A non-nil hint always wins;
// otherwise a located payload with a non-empty instance id supplies the
// location.
func normalizeUser(raw userPayload, hint *InstanceID) User {
	location := hint
	if location == nil && raw.placement != nil && raw.placement.InstanceID != "" {
		location = &InstanceID{World: raw.placement.WorldID, Instance: raw.placement.InstanceID}
	}
	if location != nil {
		copied := *location
		location = &copied
	}
	return User{
		ID:          raw.ID,
		UserName:    raw.Username,
		DisplayName: raw.DisplayName,
		Avatar: Image{
			URL:       raw.CurrentAvatarImageURL,
			Thumbnail: raw.CurrentAvatarThumbnailImageURL,
		},
		Location: location,
	}
}

// normalizeFriend resolves the friend's location from its location string
// rather than from the world/instance fields.
func normalizeFriend(raw userPayload) User {
	var loc string
	if raw.placement != nil {
		loc = raw.placement.Location
	}
	return normalizeUser(raw, ParseLocation(loc))
}

// ParseLocation parses an upstream location string of the form
// "world:instance". Strings without a colon ("offline", "private", "")
// mean the user is not in a known instance and yield nil.
func ParseLocation(s string) *InstanceID {
	world, instance, ok := strings.Cut(s, ":")
	if !ok {
		return nil
	}
	return &InstanceID{World: world, Instance: instance}
}

// DeriveAccessTag classifies an instance from its raw flags. Rules are
// evaluated in order and the first match wins; the flags are not mutually
// exclusive in real responses.
func DeriveAccessTag(hidden, friendsOnly, isPrivate, canRequestInvite bool) AccessTag {
	switch {
	case hidden && !friendsOnly && !isPrivate:
		return AccessFriendsPlus
	case friendsOnly && !isPrivate:
		return AccessFriends
	case isPrivate && !canRequestInvite:
		return AccessInvite
	case isPrivate && canRequestInvite:
		return AccessInvitePlus
	default:
		return AccessPublic
	}
}

func normalizeWorldInfo(id WorldID, raw worldPayload) WorldInfo {
	return WorldInfo{
		ID:          id,
		Name:        raw.Name,
		Description: raw.Description,
		Featured:    raw.Featured,
		AuthorID:    raw.AuthorID,
		AuthorName:  raw.AuthorName,
		Capacity:    raw.Capacity,
		Tags:        raw.Tags,
		Image: Image{
			URL:       raw.ImageURL,
			Thumbnail: raw.ThumbnailImageURL,
		},
	}
}

func normalizeWorld(id WorldID, raw worldPayload) World {
	instances := make(map[InstanceID]int, len(raw.Instances))
	for _, occ := range raw.Instances {
		instances[InstanceID{World: id, Instance: occ.Suffix}] = occ.Count
	}
	return World{
		WorldInfo: normalizeWorldInfo(id, raw),
		Instances: instances,
	}
}

func normalizeInstance(id InstanceID, raw instancePayload) Instance {
	users := make([]User, 0, len(raw.Users))
	for _, u := range raw.Users {
		users = append(users, normalizeUser(u, &id))
	}
	return Instance{
		ID:     id,
		Users:  users,
		Access: DeriveAccessTag(bool(raw.Hidden), bool(raw.Friends), bool(raw.Private), bool(raw.CanRequestInvite)),
		Nonce:  raw.Nonce,
	}
}

func normalizeNotification(raw notificationPayload) Notification {
	return Notification{
		ID:             raw.ID,
		SenderUserID:   raw.SenderUserID,
		SenderUserName: raw.SenderUserName,
		Type:           NotificationType(raw.Type),
		Message:        raw.Message,
		Details:        raw.Details,
		Seen:           raw.Seen,
		CreatedAt:      parseTime(raw.CreatedAt),
	}
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
