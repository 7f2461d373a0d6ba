package vrchat

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Credentials are the static account credentials a Client authenticates with.
type Credentials struct {
	Username string
	Password string
}

// UserID identifies a user account.
type UserID = string

// WorldID identifies a world.
type WorldID = string

// InstanceID is the compound key of a running instance. It is comparable and
// safe to use as a map key.
type InstanceID struct {
	World    WorldID
	Instance string
}

// String renders the id in the upstream "world:instance" location form.
func (id InstanceID) String() string {
	return id.World + ":" + id.Instance
}

// Image pairs a full-size image URL with its thumbnail.
type Image struct {
	URL       string
	Thumbnail string
}

// User is the normalized view of any user-shaped payload.
type User struct {
	ID          UserID
	UserName    string
	DisplayName string
	Avatar      Image
	// Location is nil when the user's current instance is unknown.
	Location *InstanceID
}

func (u User) clone() User {
	if u.Location != nil {
		loc := *u.Location
		u.Location = &loc
	}
	return u
}

// WorldInfo describes a world without its live instances.
type WorldInfo struct {
	ID          WorldID
	Name        string
	Description string
	Featured    bool
	AuthorID    UserID
	AuthorName  string
	Capacity    int
	Tags        []string
	Image       Image
}

func (w WorldInfo) clone() WorldInfo {
	w.Tags = slices.Clone(w.Tags)
	return w
}

// World is WorldInfo plus the occupant count of each public instance.
type World struct {
	WorldInfo
	Instances map[InstanceID]int
}

// AccessTag classifies who may join an instance.
type AccessTag int

const (
	AccessPublic AccessTag = iota
	AccessFriendsPlus
	AccessFriends
	AccessInvite
	AccessInvitePlus
)

var accessTagNames = [...]string{
	AccessPublic:      "public",
	AccessFriendsPlus: "friends+",
	AccessFriends:     "friends",
	AccessInvite:      "invite",
	AccessInvitePlus:  "invite+",
}

func (t AccessTag) String() string {
	if t < 0 || int(t) >= len(accessTagNames) {
		return fmt.Sprintf("AccessTag(%d)", int(t))
	}
	return accessTagNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t AccessTag) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(accessTagNames) {
		return nil, fmt.Errorf("unknown access tag %d", int(t))
	}
	return []byte(accessTagNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *AccessTag) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, candidate := range accessTagNames {
		if candidate == name {
			*t = AccessTag(i)
			return nil
		}
	}
	return fmt.Errorf("unknown access tag %q", string(text))
}

// Instance is a running session of a world.
type Instance struct {
	ID     InstanceID
	Users  []User
	Access AccessTag
	Nonce  string
}

// NotificationType is the upstream notification category.
type NotificationType string

const (
	NotificationAll           NotificationType = "all"
	NotificationMessage       NotificationType = "message"
	NotificationFriendRequest NotificationType = "friendrequest"
	NotificationInvite        NotificationType = "invite"
	NotificationVoteToKick    NotificationType = "votetokick"
	NotificationHalp          NotificationType = "halp"
	NotificationHidden        NotificationType = "hidden"
	NotificationRequestInvite NotificationType = "requestinvite"
)

// Notification is a notification addressed to the authenticated user.
type Notification struct {
	ID             string
	SenderUserID   UserID
	SenderUserName string
	Type           NotificationType
	Message        string
	Details        string
	Seen           bool
	CreatedAt      time.Time
}
