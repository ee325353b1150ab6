package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/opsatya/cinemaSync/internal/model"
	"github.com/opsatya/cinemaSync/internal/repository"
	"github.com/opsatya/cinemaSync/internal/service"
)

func createTestHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		instanceID: "test-instance",
		logger:     zap.NewNop(),
	}
}

func createMockClient(userID, name string) *Client {
	return &Client{
		send:   make(chan []byte, 256),
		userID: userID,
		name:   name,
		logger: zap.NewNop(),
	}
}

func subscribe(hub *Hub, client *Client, roomID string) {
	if hub.rooms[roomID] == nil {
		hub.rooms[roomID] = make(map[*Client]bool)
	}
	hub.rooms[roomID][client] = true
	client.setRoom(roomID)
}

func receivedType(t *testing.T, client *Client) MessageType {
	t.Helper()
	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to unmarshal sent message: %v", err)
		}
		return msg.Type
	default:
		t.Fatal("Expected a message in the send buffer")
		return ""
	}
}

func TestHub_RegisterClient(t *testing.T) {
	hub := createTestHub()
	client := createMockClient("user-1", "alice")
	client.hub = hub

	hub.registerClient(client)

	if len(hub.clients) != 1 {
		t.Errorf("Expected 1 client, got %d", len(hub.clients))
	}
	if len(hub.users["user-1"]) != 1 {
		t.Errorf("Expected 1 user connection, got %d", len(hub.users["user-1"]))
	}
	if !hub.IsUserOnline("user-1") {
		t.Error("Expected user-1 to be online")
	}
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := createTestHub()
	client := createMockClient("user-1", "alice")
	client.hub = hub

	hub.registerClient(client)
	hub.unregisterClient(client)

	if len(hub.clients) != 0 {
		t.Errorf("Expected 0 clients, got %d", len(hub.clients))
	}
	if hub.users["user-1"] != nil {
		t.Error("Expected user to be removed from users map")
	}
	if hub.IsUserOnline("user-1") {
		t.Error("Expected user-1 to be offline")
	}
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	hub := createTestHub()
	client := createMockClient("user-1", "alice")
	client.hub = hub

	// Must not panic or mutate state
	hub.unregisterClient(client)

	if len(hub.clients) != 0 {
		t.Errorf("Expected 0 clients, got %d", len(hub.clients))
	}
}

func TestHub_MultipleConnectionsSameUser(t *testing.T) {
	hub := createTestHub()
	c1 := createMockClient("user-1", "alice")
	c2 := createMockClient("user-1", "alice")
	c1.hub = hub
	c2.hub = hub

	hub.registerClient(c1)
	hub.registerClient(c2)

	if len(hub.users["user-1"]) != 2 {
		t.Errorf("Expected 2 connections, got %d", len(hub.users["user-1"]))
	}

	hub.unregisterClient(c1)

	if !hub.IsUserOnline("user-1") {
		t.Error("Expected user to stay online with one connection left")
	}
}

func TestHub_BroadcastScopedToRoom(t *testing.T) {
	hub := createTestHub()
	a1 := createMockClient("user-1", "alice")
	a2 := createMockClient("user-2", "bob")
	b1 := createMockClient("user-3", "carol")

	subscribe(hub, a1, "ROOMA")
	subscribe(hub, a2, "ROOMA")
	subscribe(hub, b1, "ROOMB")

	msg, _ := NewMessage(MessageTypeNewChatMessage, &NewChatMessagePayload{
		RoomID:  "ROOMA",
		UserID:  "user-1",
		Message: "hello",
	})
	hub.broadcastToRoom(&BroadcastMessage{RoomID: "ROOMA", Message: msg})

	if got := receivedType(t, a1); got != MessageTypeNewChatMessage {
		t.Errorf("Expected new_chat_message, got %s", got)
	}
	if got := receivedType(t, a2); got != MessageTypeNewChatMessage {
		t.Errorf("Expected new_chat_message, got %s", got)
	}

	select {
	case data := <-b1.send:
		t.Errorf("Expected no delivery outside the room, got %s", data)
	default:
	}
}

func TestHub_BroadcastUnknownRoom(t *testing.T) {
	hub := createTestHub()

	msg, _ := NewMessage(MessageTypePong, nil)
	// Must not panic
	hub.broadcastToRoom(&BroadcastMessage{RoomID: "NOPE", Message: msg})
}

func TestHub_GetRoomClients(t *testing.T) {
	hub := createTestHub()
	a1 := createMockClient("user-1", "alice")
	a2 := createMockClient("user-2", "bob")

	subscribe(hub, a1, "ROOMA")
	subscribe(hub, a2, "ROOMA")

	if got := hub.GetRoomClients("ROOMA"); got != 2 {
		t.Errorf("Expected 2 clients, got %d", got)
	}
	if got := hub.GetRoomClients("ROOMB"); got != 0 {
		t.Errorf("Expected 0 clients, got %d", got)
	}
}

func TestHub_GetStats(t *testing.T) {
	hub := createTestHub()
	client := createMockClient("user-1", "alice")
	client.hub = hub

	hub.registerClient(client)
	subscribe(hub, client, "ROOMA")

	stats := hub.GetStats()
	if stats["total_clients"] != 1 {
		t.Errorf("Expected 1 total client, got %d", stats["total_clients"])
	}
	if stats["online_users"] != 1 {
		t.Errorf("Expected 1 online user, got %d", stats["online_users"])
	}
	if stats["active_rooms"] != 1 {
		t.Errorf("Expected 1 active room, got %d", stats["active_rooms"])
	}
}

func TestHub_BroadcastDuringMembershipChanges(t *testing.T) {
	hub := createTestHub()
	msg, _ := NewMessage(MessageTypePong, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c := createMockClient("user-1", "alice")
			hub.mu.Lock()
			if hub.rooms["ROOMA"] == nil {
				hub.rooms["ROOMA"] = make(map[*Client]bool)
			}
			hub.rooms["ROOMA"][c] = true
			hub.mu.Unlock()

			hub.mu.Lock()
			delete(hub.rooms["ROOMA"], c)
			hub.mu.Unlock()
		}
	}()

	// Deliveries interleave with join/leave churn; the runtime's concurrent
	// map check must never trip.
	for i := 0; i < 500; i++ {
		hub.broadcastToRoom(&BroadcastMessage{RoomID: "ROOMA", Message: msg})
	}
	<-done
}

func TestHub_NotifyPlaybackUpdated_DeliversToRoom(t *testing.T) {
	hub := createTestHub()
	client := createMockClient("user-1", "alice")
	subscribe(hub, client, "ROOMA")

	room := &model.Room{
		RoomID:        "ROOMA",
		PlaybackState: model.PlaybackState{IsPlaying: true, CurrentTime: 42.5},
	}
	hub.NotifyPlaybackUpdated("ROOMA", "host", room)
	hub.broadcastToRoom(<-hub.broadcast)

	if got := receivedType(t, client); got != MessageTypePlaybackUpdated {
		t.Errorf("Expected playback_updated, got %s", got)
	}
}

func TestHub_NotifyRoomDeactivated_DeliversToRoom(t *testing.T) {
	hub := createTestHub()
	client := createMockClient("user-1", "alice")
	subscribe(hub, client, "ROOMA")

	hub.NotifyRoomDeactivated("ROOMA")
	hub.broadcastToRoom(<-hub.broadcast)

	if got := receivedType(t, client); got != MessageTypeRoomDeactivated {
		t.Errorf("Expected room_deactivated, got %s", got)
	}
}

// hubRoomStore backs disconnect tests without a database
type hubRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

func newHubRoomStore() *hubRoomStore {
	return &hubRoomStore{rooms: make(map[string]*model.Room)}
}

func (s *hubRoomStore) clone(room *model.Room) *model.Room {
	cp := *room
	cp.Participants = append([]model.Participant{}, room.Participants...)
	return &cp
}

func (s *hubRoomStore) Insert(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.RoomID] = s.clone(room)
	return nil
}

func (s *hubRoomStore) FindByID(ctx context.Context, roomID string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return s.clone(room), nil
}

func (s *hubRoomStore) FindByParticipant(ctx context.Context, userID string) ([]*model.Room, error) {
	return nil, nil
}

func (s *hubRoomStore) ListActivePublic(ctx context.Context, limit, offset int64) ([]*model.Room, error) {
	return nil, nil
}

func (s *hubRoomStore) UpdateParticipants(ctx context.Context, roomID string, participants []model.Participant, prev time.Time) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	if !room.UpdatedAt.Equal(prev) {
		return nil, repository.ErrStaleWrite
	}
	room.Participants = append([]model.Participant{}, participants...)
	room.UpdatedAt = room.UpdatedAt.Add(time.Millisecond)
	return s.clone(room), nil
}

func (s *hubRoomStore) UpdatePlaybackState(ctx context.Context, roomID string, state model.PlaybackState, prev time.Time) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	if !room.UpdatedAt.Equal(prev) {
		return nil, repository.ErrStaleWrite
	}
	room.PlaybackState = state
	room.UpdatedAt = room.UpdatedAt.Add(time.Millisecond)
	return s.clone(room), nil
}

func (s *hubRoomStore) UpdateFields(ctx context.Context, roomID string, set map[string]interface{}, unset []string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return s.clone(room), nil
}

func (s *hubRoomStore) SetActive(ctx context.Context, roomID string, active bool) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	room.IsActive = active
	room.UpdatedAt = room.UpdatedAt.Add(time.Millisecond)
	return s.clone(room), nil
}

func TestHub_DisconnectLeavesOnlyWhenLastConnection(t *testing.T) {
	store := newHubRoomStore()
	now := time.Now().UTC()
	if err := store.Insert(context.Background(), &model.Room{
		RoomID: "ROOMA",
		HostID: "host",
		MovieSource: model.MovieSource{
			Type:  model.MovieSourceURL,
			Value: "https://example.com/movie.mp4",
		},
		EnableChat:      true,
		EnableReactions: true,
		MaxParticipants: 10,
		Participants: []model.Participant{
			{UserID: "host", IsHost: true, JoinedAt: now},
			{UserID: "user-1", JoinedAt: now},
		},
		PlaybackState: model.PlaybackState{LastUpdated: now},
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		t.Fatalf("Failed to seed room: %v", err)
	}

	hub := createTestHub()
	hub.roomService = service.NewRoomService(store, service.NewRegistry(time.Second), 10, 100, zap.NewNop())

	c1 := createMockClient("user-1", "alice")
	c2 := createMockClient("user-1", "alice")
	c1.hub = hub
	c2.hub = hub
	hub.registerClient(c1)
	hub.registerClient(c2)
	subscribe(hub, c1, "ROOMA")
	subscribe(hub, c2, "ROOMA")

	hub.unregisterClient(c1)

	// Give an erroneous leave a chance to land before checking
	time.Sleep(100 * time.Millisecond)
	room, err := store.FindByID(context.Background(), "ROOMA")
	if err != nil {
		t.Fatalf("Failed to load room: %v", err)
	}
	if !room.HasParticipant("user-1") {
		t.Fatal("Expected membership to survive while another connection remains")
	}

	hub.unregisterClient(c2)

	deadline := time.Now().Add(time.Second)
	for {
		room, err := store.FindByID(context.Background(), "ROOMA")
		if err != nil {
			t.Fatalf("Failed to load room: %v", err)
		}
		if !room.HasParticipant("user-1") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected user to leave after the last connection dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
