package vrchat

import (
	"encoding/json"
	"fmt"
)

// Wire shapes of the upstream responses. Only the fields the normalizer reads
// are declared; everything else in the payloads is ignored.

type configPayload struct {
	ClientAPIKey string `json:"clientApiKey"`
}

// userPayload covers the bare user shape (instance members) and the located
// shape (lookups, current user, friends). The two are told apart once, at
// decode time, by the presence of the location member.
type userPayload struct {
	ID                             string `json:"id"`
	Username                       string `json:"username"`
	DisplayName                    string `json:"displayName"`
	CurrentAvatarImageURL          string `json:"currentAvatarImageUrl"`
	CurrentAvatarThumbnailImageURL string `json:"currentAvatarThumbnailImageUrl"`

	placement *placement
}

// placement holds the location fields of a located user payload.
type placement struct {
	Location   string
	WorldID    string
	InstanceID string
}

func (u *userPayload) UnmarshalJSON(data []byte) error {
	type plain userPayload
	var wire struct {
		plain
		Location   json.RawMessage `json:"location"`
		WorldID    string          `json:"worldId"`
		InstanceID string          `json:"instanceId"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*u = userPayload(wire.plain)
	u.placement = nil
	if len(wire.Location) == 0 {
		return nil
	}
	p := &placement{WorldID: wire.WorldID, InstanceID: wire.InstanceID}
	// Location may be null on some payloads; only a string carries a value.
	_ = json.Unmarshal(wire.Location, &p.Location)
	u.placement = p
	return nil
}

type worldPayload struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	Featured          bool                `json:"featured"`
	AuthorID          string              `json:"authorId"`
	AuthorName        string              `json:"authorName"`
	Capacity          int                 `json:"capacity"`
	Tags              []string            `json:"tags"`
	ImageURL          string              `json:"imageUrl"`
	ThumbnailImageURL string              `json:"thumbnailImageUrl"`
	Instances         []instanceOccupancy `json:"instances"`
}

// instanceOccupancy decodes one [suffix, count] pair of a world payload.
type instanceOccupancy struct {
	Suffix string
	Count  int
}

func (o *instanceOccupancy) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("instance entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("instance entry: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Suffix); err != nil {
		return fmt.Errorf("instance suffix: %w", err)
	}
	if err := json.Unmarshal(pair[1], &o.Count); err != nil {
		return fmt.Errorf("instance count: %w", err)
	}
	return nil
}

type instancePayload struct {
	ID               string        `json:"id"`
	Private          truthy        `json:"private"`
	Friends          truthy        `json:"friends"`
	Hidden           truthy        `json:"hidden"`
	CanRequestInvite truthy        `json:"canRequestInvite"`
	Users            []userPayload `json:"users"`
	Name             string        `json:"name"`
	Nonce            string        `json:"nonce"`
}

type notificationPayload struct {
	ID             string `json:"id"`
	SenderUserID   string `json:"senderUserId"`
	SenderUserName string `json:"senderUserName"`
	Type           string `json:"type"`
	Message        string `json:"message"`
	Details        string `json:"details"`
	Seen           bool   `json:"seen"`
	CreatedAt      string `json:"created_at"`
}

// truthy decodes the loosely typed instance flags. The upstream sends some of
// them as booleans and some as strings (hidden carries an owner id), so any
// non-empty string, non-zero number or true counts as set. "false" and "0"
// are non-empty strings and count as set too.
type truthy bool

func (t *truthy) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*t = truthy(x)
	case string:
		*t = x != ""
	case float64:
		*t = x != 0
	default:
		*t = false
	}
	return nil
}
