package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Send buffer size
	sendBufferSize = 256
)

// Client represents a WebSocket client connection. A client is a member of
// at most one room at a time; joining another room leaves the current one.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	name   string
	roomID string
	closed bool
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewClient creates a new client
func NewClient(hub *Hub, conn *websocket.Conn, userID, name string, logger *zap.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
		name:   name,
		logger: logger,
	}
}

// GetUserID returns client's user ID
func (c *Client) GetUserID() string {
	return c.userID
}

// GetName returns client's display name
func (c *Client) GetName() string {
	return c.name
}

// CurrentRoom returns the room this connection is subscribed to, if any
func (c *Client) CurrentRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// ReadPump pumps messages from the WebSocket connection to the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.String("user_id", c.userID),
					zap.Error(err),
				)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Failed to parse message",
				zap.String("user_id", c.userID),
				zap.Error(err),
			)
			c.sendError(400, "Invalid message format")
			continue
		}

		c.handleMessage(&msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage handles incoming messages based on type
func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeJoinRoom:
		c.handleJoinRoom(msg)
	case MessageTypeLeaveRoom:
		c.handleLeaveRoom(msg)
	case MessageTypeUpdatePlayback:
		c.handleUpdatePlayback(msg)
	case MessageTypeChatMessage:
		c.handleChatMessage(msg)
	case MessageTypeReaction:
		c.handleReaction(msg)
	case MessageTypePing:
		c.handlePing(msg)
	default:
		c.sendError(400, "Unknown message type")
	}
}

func (c *Client) handleJoinRoom(msg *Message) {
	var payload JoinRoomPayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "Invalid request payload")
		return
	}
	if payload.RoomID == "" {
		c.sendError(400, "room_id is required")
		return
	}

	c.hub.JoinRoom(c, payload, msg.RequestID)
}

func (c *Client) handleLeaveRoom(msg *Message) {
	var payload LeaveRoomPayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "Invalid request payload")
		return
	}
	if payload.RoomID == "" {
		payload.RoomID = c.CurrentRoom()
	}
	if payload.RoomID == "" {
		c.sendError(400, "room_id is required")
		return
	}

	c.hub.LeaveRoom(c, payload.RoomID, msg.RequestID)
}

func (c *Client) handleUpdatePlayback(msg *Message) {
	var payload UpdatePlaybackPayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "Invalid request payload")
		return
	}
	if payload.RoomID == "" {
		payload.RoomID = c.CurrentRoom()
	}
	if payload.RoomID == "" {
		c.sendError(400, "room_id is required")
		return
	}

	c.hub.UpdatePlayback(c, payload, msg.RequestID)
}

func (c *Client) handleChatMessage(msg *Message) {
	var payload ChatMessagePayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "Invalid request payload")
		return
	}
	if payload.RoomID == "" {
		payload.RoomID = c.CurrentRoom()
	}
	if payload.RoomID == "" || payload.Message == "" {
		c.sendError(400, "room_id and message are required")
		return
	}

	c.hub.SendChatMessage(c, payload, msg.RequestID)
}

func (c *Client) handleReaction(msg *Message) {
	var payload ReactionPayload
	if err := msg.ParsePayload(&payload); err != nil {
		c.sendError(400, "Invalid request payload")
		return
	}
	if payload.RoomID == "" {
		payload.RoomID = c.CurrentRoom()
	}
	if payload.RoomID == "" || payload.Reaction == "" {
		c.sendError(400, "room_id and reaction are required")
		return
	}

	c.hub.SendReaction(c, payload, msg.RequestID)
}

func (c *Client) handlePing(msg *Message) {
	pongMsg, _ := NewMessage(MessageTypePong, nil)
	c.SendMessage(pongMsg)
}

// SendMessage sends a message to the client
func (c *Client) SendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return
	}

	// The read lock excludes Close, so messages are never sent on a
	// closed channel.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// Channel is full, client is slow
		c.logger.Warn("Client send buffer full",
			zap.String("user_id", c.userID),
		)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code int, message string) {
	errMsg, _ := NewErrorMessage(code, message)
	c.SendMessage(errMsg)
}

// sendAck sends an acknowledgement for a request
func (c *Client) sendAck(requestID string, success bool) {
	if requestID == "" {
		return
	}
	ackMsg, _ := NewMessage(MessageTypeAck, &AckPayload{
		RequestID: requestID,
		Success:   success,
	})
	ackMsg.RequestID = requestID
	c.SendMessage(ackMsg)
}

// Close releases the write pump. Safe to call more than once; concurrent
// senders observe the closed flag instead of a closed channel.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
