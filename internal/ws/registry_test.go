package ws

import (
	"testing"

	"github.com/google/uuid"
)

func testClient(userID uuid.UUID, buffer int) *Client {
	return newClient(nil, &UserProfile{
		ID:          userID,
		Username:    "u-" + userID.String()[:8],
		DisplayName: "User " + userID.String()[:8],
		AvatarColor: "#3B82F6",
	}, buffer)
}

func TestRegistry_RegisterAndOnline(t *testing.T) {
	reg := NewRegistry()
	userID := uuid.New()

	if reg.IsOnline(userID) {
		t.Fatal("IsOnline() before register = true, want false")
	}
	reg.Register(testClient(userID, 4))
	if !reg.IsOnline(userID) {
		t.Fatal("IsOnline() after register = false, want true")
	}
	ids := reg.OnlineUserIDs()
	if len(ids) != 1 || ids[0] != userID {
		t.Fatalf("OnlineUserIDs() = %v, want [%v]", ids, userID)
	}
}

func TestRegistry_LastConnectWins(t *testing.T) {
	reg := NewRegistry()
	userID := uuid.New()
	groupID := uuid.New()

	first := testClient(userID, 4)
	reg.Register(first)
	reg.JoinRoom(userID, groupID)

	second := testClient(userID, 4)
	prev := reg.Register(second)
	if prev != first {
		t.Fatalf("Register() prev = %p, want %p", prev, first)
	}
	// The replaced connection leaves every room; the new one has not joined yet.
	if size := reg.RoomSize(groupID); size != 0 {
		t.Errorf("RoomSize() after replace = %d, want 0", size)
	}
	if !reg.IsOnline(userID) {
		t.Error("IsOnline() after replace = false, want true")
	}

	reg.JoinRoom(userID, groupID)
	reg.BroadcastToRoom(groupID, []byte("x"), uuid.Nil)
	if len(second.send) != 1 {
		t.Errorf("new client received %d messages, want 1", len(second.send))
	}
	if len(first.send) != 0 {
		t.Errorf("replaced client received %d messages, want 0", len(first.send))
	}
}

func TestRegistry_JoinRoomWithoutConnection(t *testing.T) {
	reg := NewRegistry()
	groupID := uuid.New()

	reg.JoinRoom(uuid.New(), groupID)
	if size := reg.RoomSize(groupID); size != 0 {
		t.Errorf("RoomSize() = %d, want 0", size)
	}
	if len(reg.rooms) != 0 {
		t.Errorf("rooms map has %d entries, want 0", len(reg.rooms))
	}
}

func TestRegistry_RemoveIsAtomicAndIdempotent(t *testing.T) {
	reg := NewRegistry()
	userID := uuid.New()
	g1, g2 := uuid.New(), uuid.New()

	reg.Register(testClient(userID, 4))
	reg.JoinRoom(userID, g1)
	reg.JoinRoom(userID, g2)

	if !reg.Remove(userID) {
		t.Fatal("Remove() = false, want true")
	}
	if reg.IsOnline(userID) {
		t.Error("IsOnline() after remove = true, want false")
	}
	for _, g := range []uuid.UUID{g1, g2} {
		if size := reg.RoomSize(g); size != 0 {
			t.Errorf("RoomSize(%v) after remove = %d, want 0", g, size)
		}
	}
	// Empty rooms are deleted immediately; the registry never holds one.
	if len(reg.rooms) != 0 {
		t.Errorf("rooms map has %d entries after remove, want 0", len(reg.rooms))
	}
	if reg.Remove(userID) {
		t.Error("second Remove() = true, want false (no-op)")
	}
}

func TestRegistry_NoEmptyRooms(t *testing.T) {
	reg := NewRegistry()
	groupID := uuid.New()
	a, b := uuid.New(), uuid.New()

	reg.Register(testClient(a, 4))
	reg.Register(testClient(b, 4))
	reg.JoinRoom(a, groupID)
	reg.JoinRoom(b, groupID)

	reg.Remove(a)
	if len(reg.rooms) != 1 {
		t.Fatalf("rooms map has %d entries, want 1", len(reg.rooms))
	}
	reg.Remove(b)
	if len(reg.rooms) != 0 {
		t.Fatalf("rooms map has %d entries, want 0", len(reg.rooms))
	}
}

func TestRegistry_BroadcastToRoom(t *testing.T) {
	reg := NewRegistry()
	groupID, otherGroup := uuid.New(), uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	ca, cb, cc := testClient(a, 4), testClient(b, 4), testClient(c, 4)
	reg.Register(ca)
	reg.Register(cb)
	reg.Register(cc)
	reg.JoinRoom(a, groupID)
	reg.JoinRoom(b, groupID)
	reg.JoinRoom(c, otherGroup)

	reg.BroadcastToRoom(groupID, []byte("hello"), uuid.Nil)

	if len(ca.send) != 1 || len(cb.send) != 1 {
		t.Errorf("room members received %d/%d messages, want 1/1", len(ca.send), len(cb.send))
	}
	if len(cc.send) != 0 {
		t.Errorf("member of another room received %d messages, want 0", len(cc.send))
	}
}

func TestRegistry_BroadcastExclude(t *testing.T) {
	reg := NewRegistry()
	groupID := uuid.New()
	a, b := uuid.New(), uuid.New()

	ca, cb := testClient(a, 4), testClient(b, 4)
	reg.Register(ca)
	reg.Register(cb)
	reg.JoinRoom(a, groupID)
	reg.JoinRoom(b, groupID)

	reg.BroadcastToRoom(groupID, []byte("typing"), a)
	if len(ca.send) != 0 {
		t.Errorf("excluded sender received %d messages, want 0", len(ca.send))
	}
	if len(cb.send) != 1 {
		t.Errorf("other member received %d messages, want 1", len(cb.send))
	}
}

func TestRegistry_FailedDeliveryRemovesRecipient(t *testing.T) {
	reg := NewRegistry()
	groupID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	ca, cb := testClient(a, 4), testClient(b, 4)
	// A zero-buffer connection cannot accept any delivery, like a half-closed peer.
	cc := testClient(c, 0)
	reg.Register(ca)
	reg.Register(cb)
	reg.Register(cc)
	for _, id := range []uuid.UUID{a, b, c} {
		reg.JoinRoom(id, groupID)
	}

	reg.BroadcastToRoom(groupID, []byte("m1"), uuid.Nil)

	if len(ca.send) != 1 || len(cb.send) != 1 {
		t.Errorf("healthy members received %d/%d messages, want 1/1", len(ca.send), len(cb.send))
	}
	if reg.IsOnline(c) {
		t.Error("failed recipient still online after broadcast")
	}
	if size := reg.RoomSize(groupID); size != 2 {
		t.Errorf("RoomSize() after failed delivery = %d, want 2", size)
	}

	// The second broadcast no longer includes the removed connection.
	reg.BroadcastToRoom(groupID, []byte("m2"), uuid.Nil)
	if len(ca.send) != 2 || len(cb.send) != 2 {
		t.Errorf("healthy members received %d/%d messages, want 2/2", len(ca.send), len(cb.send))
	}
}

func TestRegistry_BroadcastToAll(t *testing.T) {
	reg := NewRegistry()
	a, b := uuid.New(), uuid.New()

	ca, cb := testClient(a, 4), testClient(b, 4)
	reg.Register(ca)
	reg.Register(cb)

	reg.BroadcastToAll([]byte("status"), a)
	if len(ca.send) != 0 {
		t.Errorf("excluded user received %d messages, want 0", len(ca.send))
	}
	if len(cb.send) != 1 {
		t.Errorf("other user received %d messages, want 1", len(cb.send))
	}

	reg.BroadcastToAll([]byte("status"), uuid.Nil)
	if len(ca.send) != 1 || len(cb.send) != 2 {
		t.Errorf("broadcast without exclusion delivered %d/%d, want 1/2", len(ca.send), len(cb.send))
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	reg := NewRegistry()
	groupID := uuid.New()
	done := make(chan struct{})

	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			userID := uuid.New()
			reg.Register(testClient(userID, 4))
			reg.JoinRoom(userID, groupID)
			reg.BroadcastToRoom(groupID, []byte("x"), uuid.Nil)
			reg.Remove(userID)
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if len(reg.OnlineUserIDs()) != 0 {
		t.Errorf("OnlineUserIDs() = %v, want empty", reg.OnlineUserIDs())
	}
	if len(reg.rooms) != 0 {
		t.Errorf("rooms map has %d entries, want 0", len(reg.rooms))
	}
}
