package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opsatya/cinemaSync/internal/dto/response"
	"github.com/opsatya/cinemaSync/internal/model"
	apperrors "github.com/opsatya/cinemaSync/internal/pkg/errors"
	"github.com/opsatya/cinemaSync/internal/service"
)

// BroadcastMessage represents a message to broadcast to a room
type BroadcastMessage struct {
	RoomID  string
	Message *Message
}

// Hub maintains the set of active clients and fans out room events.
// Events are enqueued only after the corresponding state change has been
// committed, so subscribers observe updates in commit order.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients by room: roomID -> clients
	rooms map[string]map[*Client]bool

	// Clients by user: userID -> clients (supports multiple connections)
	users map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast messages to room
	broadcast chan *BroadcastMessage

	// Mutex for thread-safe access
	mu sync.RWMutex

	roomService *service.RoomService

	// Redis for Pub/Sub (horizontal scaling)
	redis      *redis.Client
	instanceID string

	logger *zap.Logger
}

// redisEnvelope wraps a message published across instances. Origin lets an
// instance skip its own publishes when they come back on the subscription.
type redisEnvelope struct {
	Origin  string   `json:"origin"`
	RoomID  string   `json:"room_id"`
	Message *Message `json:"message"`
}

// NewHub creates a new Hub
func NewHub(roomService *service.RoomService, redisClient *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		users:       make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *BroadcastMessage, 256),
		roomService: roomService,
		redis:       redisClient,
		instanceID:  uuid.NewString(),
		logger:      logger,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	// Start Redis subscriber in goroutine
	go h.subscribeRedis()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)
		}
	}
}

// Register queues a client for registration
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.users[client.userID] == nil {
		h.users[client.userID] = make(map[*Client]bool)
	}
	h.users[client.userID][client] = true

	h.logger.Info("Client connected",
		zap.String("user_id", client.userID),
		zap.Int("total_clients", len(h.clients)),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client)

	if userClients, ok := h.users[client.userID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.users, client.userID)
		}
	}

	roomID := client.CurrentRoom()
	if roomID != "" {
		if roomClients, ok := h.rooms[roomID]; ok {
			delete(roomClients, client)
			if len(roomClients) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	// A user can hold several connections; membership only ends when the
	// last connection in the room goes away.
	stillInRoom := false
	if roomID != "" {
		for other := range h.users[client.userID] {
			if other.CurrentRoom() == roomID {
				stillInRoom = true
				break
			}
		}
	}

	h.mu.Unlock()

	client.Close()

	h.logger.Info("Client disconnected",
		zap.String("user_id", client.userID),
	)

	// Abrupt disconnects still count as leaving the room. Run the leave
	// flow off the hub loop so a slow store cannot stall event delivery.
	if roomID != "" && !stillInRoom {
		go h.leaveOnDisconnect(client.userID, roomID)
	}
}

func (h *Hub) leaveOnDisconnect(userID, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, deactivated, err := h.roomService.Leave(ctx, roomID, userID)
	if err != nil {
		h.logger.Warn("Failed to leave room on disconnect",
			zap.String("user_id", userID),
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		return
	}

	h.broadcastPresence(MessageTypeUserLeft, roomID, userID, room)
	if deactivated {
		h.NotifyRoomDeactivated(roomID)
	}
}

// JoinRoom joins a client to a room. A connection subscribes to at most one
// room; joining a new one leaves the previous room first.
func (h *Hub) JoinRoom(client *Client, payload JoinRoomPayload, requestID string) {
	if prev := client.CurrentRoom(); prev != "" && prev != payload.RoomID {
		h.LeaveRoom(client, prev, "")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, err := h.roomService.Join(ctx, payload.RoomID, client.userID, payload.Password)
	if err != nil {
		h.sendServiceError(client, err)
		client.sendAck(requestID, false)
		return
	}

	h.mu.Lock()
	if h.rooms[payload.RoomID] == nil {
		h.rooms[payload.RoomID] = make(map[*Client]bool)
	}
	h.rooms[payload.RoomID][client] = true
	h.mu.Unlock()

	client.setRoom(payload.RoomID)

	joinedMsg, _ := NewMessage(MessageTypeRoomJoined, &RoomJoinedPayload{
		Room: response.NewRoomResponse(room),
	})
	client.SendMessage(joinedMsg)
	client.sendAck(requestID, true)

	h.broadcastPresence(MessageTypeUserJoined, payload.RoomID, client.userID, room)

	h.logger.Debug("Client joined room",
		zap.String("user_id", client.userID),
		zap.String("room_id", payload.RoomID),
	)
}

// LeaveRoom removes a client from a room
func (h *Hub) LeaveRoom(client *Client, roomID string, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, deactivated, err := h.roomService.Leave(ctx, roomID, client.userID)
	if err != nil {
		h.sendServiceError(client, err)
		client.sendAck(requestID, false)
		return
	}

	h.mu.Lock()
	if roomClients, ok := h.rooms[roomID]; ok {
		delete(roomClients, client)
		if len(roomClients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	if client.CurrentRoom() == roomID {
		client.setRoom("")
	}

	leftMsg, _ := NewMessage(MessageTypeRoomLeft, &RoomLeftPayload{RoomID: roomID})
	client.SendMessage(leftMsg)
	client.sendAck(requestID, true)

	h.broadcastPresence(MessageTypeUserLeft, roomID, client.userID, room)
	if deactivated {
		h.NotifyRoomDeactivated(roomID)
	}

	h.logger.Debug("Client left room",
		zap.String("user_id", client.userID),
		zap.String("room_id", roomID),
	)
}

// UpdatePlayback applies a playback change and broadcasts the committed state
func (h *Hub) UpdatePlayback(client *Client, payload UpdatePlaybackPayload, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	room, err := h.roomService.SetPlaybackState(ctx, payload.RoomID, client.userID, service.PlaybackInput{
		IsPlaying:   payload.IsPlaying,
		CurrentTime: payload.CurrentTime,
	})
	if err != nil {
		h.sendServiceError(client, err)
		client.sendAck(requestID, false)
		return
	}

	client.sendAck(requestID, true)

	h.NotifyPlaybackUpdated(payload.RoomID, client.userID, room)
}

// SendChatMessage relays a chat message to the room
func (h *Hub) SendChatMessage(client *Client, payload ChatMessagePayload, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.roomService.AuthorizeChat(ctx, payload.RoomID, client.userID); err != nil {
		h.sendServiceError(client, err)
		client.sendAck(requestID, false)
		return
	}

	client.sendAck(requestID, true)

	msg, _ := NewMessage(MessageTypeNewChatMessage, &NewChatMessagePayload{
		RoomID:    payload.RoomID,
		UserID:    client.userID,
		Message:   payload.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	h.publish(payload.RoomID, msg)
}

// SendReaction relays an emoji reaction to the room
func (h *Hub) SendReaction(client *Client, payload ReactionPayload, requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.roomService.AuthorizeReaction(ctx, payload.RoomID, client.userID); err != nil {
		h.sendServiceError(client, err)
		client.sendAck(requestID, false)
		return
	}

	client.sendAck(requestID, true)

	msg, _ := NewMessage(MessageTypeNewReaction, &NewReactionPayload{
		RoomID:    payload.RoomID,
		UserID:    client.userID,
		Reaction:  payload.Reaction,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	h.publish(payload.RoomID, msg)
}

func (h *Hub) broadcastPresence(msgType MessageType, roomID, userID string, room *model.Room) {
	msg, _ := NewMessage(msgType, &UserPresencePayload{
		RoomID:       roomID,
		UserID:       userID,
		Participants: room.Participants,
	})
	h.publish(roomID, msg)
}

// NotifyUserJoined broadcasts a user_joined event for a join committed
// outside the websocket path, such as the REST surface.
func (h *Hub) NotifyUserJoined(roomID, userID string, room *model.Room) {
	h.broadcastPresence(MessageTypeUserJoined, roomID, userID, room)
}

// NotifyUserLeft broadcasts a user_left event for a leave committed outside
// the websocket path.
func (h *Hub) NotifyUserLeft(roomID, userID string, room *model.Room) {
	h.broadcastPresence(MessageTypeUserLeft, roomID, userID, room)
}

// NotifyPlaybackUpdated broadcasts the committed playback state to the room
func (h *Hub) NotifyPlaybackUpdated(roomID, updatedBy string, room *model.Room) {
	msg, _ := NewMessage(MessageTypePlaybackUpdated, &PlaybackUpdatedPayload{
		RoomID:        roomID,
		PlaybackState: room.PlaybackState,
		UpdatedBy:     updatedBy,
	})
	h.publish(roomID, msg)
}

// NotifyRoomDeactivated tells the room's subscribers the session ended
func (h *Hub) NotifyRoomDeactivated(roomID string) {
	msg, _ := NewMessage(MessageTypeRoomDeactivated, &RoomDeactivatedPayload{RoomID: roomID})
	h.publish(roomID, msg)
}

// publish enqueues a message for local delivery and mirrors it to Redis so
// other instances can deliver it to their subscribers.
func (h *Hub) publish(roomID string, msg *Message) {
	h.broadcast <- &BroadcastMessage{
		RoomID:  roomID,
		Message: msg,
	}
	h.publishToRedis(roomID, msg)
}

func (h *Hub) sendServiceError(client *Client, err error) {
	client.sendError(apperrors.GetHTTPStatus(err), apperrors.GetMessage(err))
}

func (h *Hub) broadcastToRoom(bm *BroadcastMessage) {
	// Snapshot the subscribers under the lock. Join/leave and the redis
	// subscriber run on other goroutines, so the live map must not be
	// iterated after the lock is released.
	h.mu.RLock()
	subscribers := h.rooms[bm.RoomID]
	clients := make([]*Client, 0, len(subscribers))
	for client := range subscribers {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.SendMessage(bm.Message)
	}
}

// Redis Pub/Sub for horizontal scaling
func (h *Hub) publishToRedis(roomID string, msg *Message) {
	if h.redis == nil {
		return
	}

	data, err := json.Marshal(&redisEnvelope{
		Origin:  h.instanceID,
		RoomID:  roomID,
		Message: msg,
	})
	if err != nil {
		return
	}

	ctx := context.Background()
	h.redis.Publish(ctx, "room:"+roomID, data)
}

func (h *Hub) subscribeRedis() {
	if h.redis == nil {
		return
	}

	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "room:*")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var env redisEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue
		}
		if env.Origin == h.instanceID || env.Message == nil {
			continue
		}

		// Deliver directly to avoid re-publishing to Redis
		h.broadcastToRoom(&BroadcastMessage{
			RoomID:  env.RoomID,
			Message: env.Message,
		})
	}
}

// GetOnlineUsers returns online user IDs
func (h *Hub) GetOnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userIDs := make([]string, 0, len(h.users))
	for userID := range h.users {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// IsUserOnline checks if a user is online
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// GetRoomClients returns the number of clients subscribed to a room
func (h *Hub) GetRoomClients(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// GetStats returns hub statistics
func (h *Hub) GetStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]int{
		"total_clients": len(h.clients),
		"online_users":  len(h.users),
		"active_rooms":  len(h.rooms),
	}
}
