package vrchat

import (
	"encoding/json"
	"testing"
)

func TestDeriveAccessTag_AllCombinations(t *testing.T) {
	tests := []struct {
		hidden, friends, private, canRequest bool
		want                                 AccessTag
	}{
		{false, false, false, false, AccessPublic},
		{false, false, false, true, AccessPublic},
		{false, false, true, false, AccessInvite},
		{false, false, true, true, AccessInvitePlus},
		{false, true, false, false, AccessFriends},
		{false, true, false, true, AccessFriends},
		{false, true, true, false, AccessInvite},
		{false, true, true, true, AccessInvitePlus},
		{true, false, false, false, AccessFriendsPlus},
		{true, false, false, true, AccessFriendsPlus},
		{true, false, true, false, AccessInvite},
		{true, false, true, true, AccessInvitePlus},
		{true, true, false, false, AccessFriends},
		{true, true, false, true, AccessFriends},
		{true, true, true, false, AccessInvite},
		{true, true, true, true, AccessInvitePlus},
	}
	for _, tt := range tests {
		got := DeriveAccessTag(tt.hidden, tt.friends, tt.private, tt.canRequest)
		if got != tt.want {
			t.Errorf("DeriveAccessTag(%v, %v, %v, %v) = %v, want %v",
				tt.hidden, tt.friends, tt.private, tt.canRequest, got, tt.want)
		}
	}
}

func TestParseLocation(t *testing.T) {
	got := ParseLocation("wrld_123:instance_id_5")
	if got == nil {
		t.Fatalf("ParseLocation returned nil, want instance")
	}
	if *got != (InstanceID{World: "wrld_123", Instance: "instance_id_5"}) {
		t.Fatalf("ParseLocation = %#v, want wrld_123/instance_id_5", *got)
	}

	for _, s := range []string{"offline", "private", ""} {
		if loc := ParseLocation(s); loc != nil {
			t.Fatalf("ParseLocation(%q) = %#v, want nil", s, *loc)
		}
	}

	// Only the first colon separates world from instance.
	got = ParseLocation("wrld_1:12345~hidden(usr_a)~nonce(x:y)")
	if got == nil || got.World != "wrld_1" || got.Instance != "12345~hidden(usr_a)~nonce(x:y)" {
		t.Fatalf("ParseLocation split = %#v, want split on first colon", got)
	}
}

func decodeUser(t *testing.T, raw string) userPayload {
	t.Helper()
	var u userPayload
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return u
}

func TestNormalizeUser_HintWins(t *testing.T) {
	raw := decodeUser(t, `{"id":"usr_1","username":"a","displayName":"A","location":"wrld_x:1","worldId":"wrld_x","instanceId":"1"}`)
	hint := InstanceID{World: "wrld_hint", Instance: "9"}

	user := normalizeUser(raw, &hint)
	if user.Location == nil || *user.Location != hint {
		t.Fatalf("Location = %#v, want hint %#v", user.Location, hint)
	}
	if user.Location == &hint {
		t.Fatalf("Location should not alias the hint")
	}
}

func TestNormalizeUser_LocatedPayload(t *testing.T) {
	raw := decodeUser(t, `{
		"id":"usr_1","username":"alice","displayName":"Alice",
		"currentAvatarImageUrl":"https://img/full.png",
		"currentAvatarThumbnailImageUrl":"https://img/thumb.png",
		"location":"wrld_a:77","worldId":"wrld_a","instanceId":"77"}`)

	user := normalizeUser(raw, nil)
	if user.ID != "usr_1" || user.UserName != "alice" || user.DisplayName != "Alice" {
		t.Fatalf("user = %#v, want mapped identity fields", user)
	}
	if user.Avatar.URL != "https://img/full.png" || user.Avatar.Thumbnail != "https://img/thumb.png" {
		t.Fatalf("avatar = %#v, want image pair", user.Avatar)
	}
	if user.Location == nil || *user.Location != (InstanceID{World: "wrld_a", Instance: "77"}) {
		t.Fatalf("Location = %#v, want wrld_a:77", user.Location)
	}
}

func TestNormalizeUser_EmptyInstanceIDYieldsNil(t *testing.T) {
	raw := decodeUser(t, `{"id":"usr_1","location":"offline","worldId":"wrld_a","instanceId":""}`)
	if user := normalizeUser(raw, nil); user.Location != nil {
		t.Fatalf("Location = %#v, want nil", *user.Location)
	}
}

func TestNormalizeUser_BarePayloadIgnoresStrayFields(t *testing.T) {
	// Without a location member the payload is the bare shape even if
	// world/instance ids are present.
	raw := decodeUser(t, `{"id":"usr_1","worldId":"wrld_a","instanceId":"77"}`)
	if raw.placement != nil {
		t.Fatalf("placement = %#v, want nil for bare payload", raw.placement)
	}
	if user := normalizeUser(raw, nil); user.Location != nil {
		t.Fatalf("Location = %#v, want nil", *user.Location)
	}
}

func TestNormalizeFriend_UsesLocationString(t *testing.T) {
	raw := decodeUser(t, `{"id":"usr_2","location":"wrld_b:5~friends(usr_2)"}`)
	user := normalizeFriend(raw)
	if user.Location == nil || user.Location.World != "wrld_b" || user.Location.Instance != "5~friends(usr_2)" {
		t.Fatalf("Location = %#v, want wrld_b:5~friends(usr_2)", user.Location)
	}

	offline := normalizeFriend(decodeUser(t, `{"id":"usr_3","location":"offline"}`))
	if offline.Location != nil {
		t.Fatalf("offline Location = %#v, want nil", *offline.Location)
	}
}

func TestNormalizeWorld_BuildsInstanceMap(t *testing.T) {
	var raw worldPayload
	if err := json.Unmarshal([]byte(`{
		"name":"Hub","description":"d","featured":true,"authorId":"usr_x","authorName":"X",
		"capacity":40,"tags":["system_approved","author_tag_chill"],
		"imageUrl":"https://img/w.png","thumbnailImageUrl":"https://img/w_t.png",
		"instances":[["abc",3],["def",0]]}`), &raw); err != nil {
		t.Fatalf("decode world: %v", err)
	}

	world := normalizeWorld("wrld_1", raw)
	if world.ID != "wrld_1" || world.Name != "Hub" || !world.Featured || world.Capacity != 40 {
		t.Fatalf("world = %#v, want mapped fields", world.WorldInfo)
	}
	if len(world.Tags) != 2 || world.Tags[0] != "system_approved" {
		t.Fatalf("tags = %v, want order preserved", world.Tags)
	}
	if len(world.Instances) != 2 {
		t.Fatalf("instances = %v, want 2 entries", world.Instances)
	}
	if got, ok := world.Instances[InstanceID{World: "wrld_1", Instance: "abc"}]; !ok || got != 3 {
		t.Fatalf("instances[abc] = %d (present=%v), want 3", got, ok)
	}
	if got, ok := world.Instances[InstanceID{World: "wrld_1", Instance: "def"}]; !ok || got != 0 {
		t.Fatalf("instances[def] = %d (present=%v), want 0", got, ok)
	}
}

func TestInstanceOccupancy_RejectsMalformedEntries(t *testing.T) {
	var raw worldPayload
	if err := json.Unmarshal([]byte(`{"instances":[["abc"]]}`), &raw); err == nil {
		t.Fatalf("Unmarshal returned nil error, want error for short entry")
	}
	if err := json.Unmarshal([]byte(`{"instances":[[1,2]]}`), &raw); err == nil {
		t.Fatalf("Unmarshal returned nil error, want error for numeric suffix")
	}
}

func TestNormalizeInstance_UsesIDAsLocationHint(t *testing.T) {
	var raw instancePayload
	if err := json.Unmarshal([]byte(`{
		"id":"wrld_1:42","private":false,"friends":false,"hidden":"usr_owner",
		"nonce":"n0","users":[{"id":"usr_a","displayName":"A"},{"id":"usr_b"}]}`), &raw); err != nil {
		t.Fatalf("decode instance: %v", err)
	}
	id := InstanceID{World: "wrld_1", Instance: "42"}

	inst := normalizeInstance(id, raw)
	if inst.Access != AccessFriendsPlus {
		t.Fatalf("Access = %v, want friends+", inst.Access)
	}
	if inst.Nonce != "n0" {
		t.Fatalf("Nonce = %q, want n0", inst.Nonce)
	}
	if len(inst.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(inst.Users))
	}
	for _, u := range inst.Users {
		if u.Location == nil || *u.Location != id {
			t.Fatalf("user %s Location = %#v, want %v", u.ID, u.Location, id)
		}
	}
}

func TestTruthy_AcceptsLooseFlags(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"usr_1"`, true},
		{`""`, false},
		{`"false"`, true},
		{`"0"`, true},
		{`1`, true},
		{`0`, false},
		{`null`, false},
	}
	for _, tt := range tests {
		var got truthy
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s) returned error: %v", tt.in, err)
		}
		if bool(got) != tt.want {
			t.Fatalf("truthy(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAccessTag_TextRoundTrip(t *testing.T) {
	for tag := AccessPublic; tag <= AccessInvitePlus; tag++ {
		text, err := tag.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) returned error: %v", tag, err)
		}
		var back AccessTag
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) returned error: %v", text, err)
		}
		if back != tag {
			t.Fatalf("round trip %v -> %q -> %v", tag, text, back)
		}
	}
	if AccessTag(99).String() != "AccessTag(99)" {
		t.Fatalf("String of unknown tag = %q", AccessTag(99).String())
	}
}

func TestNormalizeNotification_ParsesTimestamp(t *testing.T) {
	n := normalizeNotification(notificationPayload{
		ID:        "not_1",
		Type:      "friendrequest",
		CreatedAt: "2024-05-01T10:00:00.000Z",
	})
	if n.Type != NotificationFriendRequest {
		t.Fatalf("Type = %q, want friendrequest", n.Type)
	}
	if n.CreatedAt.IsZero() || n.CreatedAt.Year() != 2024 {
		t.Fatalf("CreatedAt = %v, want 2024 timestamp", n.CreatedAt)
	}
	if !normalizeNotification(notificationPayload{CreatedAt: "garbage"}).CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be zero for unparseable input")
	}
}
