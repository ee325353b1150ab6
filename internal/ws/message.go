package ws

import (
	"encoding/json"
	"time"

	"github.com/opsatya/cinemaSync/internal/dto/response"
	"github.com/opsatya/cinemaSync/internal/model"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client -> Server messages
	MessageTypeJoinRoom       MessageType = "join_room"
	MessageTypeLeaveRoom      MessageType = "leave_room"
	MessageTypeUpdatePlayback MessageType = "update_playback"
	MessageTypeChatMessage    MessageType = "chat_message"
	MessageTypeReaction       MessageType = "reaction"
	MessageTypePing           MessageType = "ping"

	// Server -> Client messages
	MessageTypeRoomJoined      MessageType = "room_joined"
	MessageTypeRoomLeft        MessageType = "room_left"
	MessageTypeUserJoined      MessageType = "user_joined"
	MessageTypeUserLeft        MessageType = "user_left"
	MessageTypePlaybackUpdated MessageType = "playback_updated"
	MessageTypeRoomDeactivated MessageType = "room_deactivated"
	MessageTypeNewChatMessage  MessageType = "new_chat_message"
	MessageTypeNewReaction     MessageType = "new_reaction"
	MessageTypePong            MessageType = "pong"
	MessageTypeError           MessageType = "error"
	MessageTypeAck             MessageType = "ack"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
}

// JoinRoomPayload represents join room payload. The sender's identity
// comes from the authenticated connection, never from the payload.
type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	Password string `json:"password,omitempty"`
}

// LeaveRoomPayload represents leave room payload
type LeaveRoomPayload struct {
	RoomID string `json:"room_id"`
}

// UpdatePlaybackPayload represents a playback control request
type UpdatePlaybackPayload struct {
	RoomID      string  `json:"room_id"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
}

// ChatMessagePayload represents a chat message request
type ChatMessagePayload struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

// ReactionPayload represents an emoji reaction request
type ReactionPayload struct {
	RoomID   string `json:"room_id"`
	Reaction string `json:"reaction"`
}

// RoomJoinedPayload represents the join confirmation sent to the joiner
type RoomJoinedPayload struct {
	Room *response.RoomResponse `json:"room"`
}

// RoomLeftPayload represents the leave confirmation sent to the leaver
type RoomLeftPayload struct {
	RoomID string `json:"room_id"`
}

// UserPresencePayload represents user_joined / user_left broadcasts
type UserPresencePayload struct {
	RoomID       string              `json:"room_id"`
	UserID       string              `json:"user_id"`
	Participants []model.Participant `json:"participants"`
}

// PlaybackUpdatedPayload represents a playback state broadcast
type PlaybackUpdatedPayload struct {
	RoomID        string              `json:"room_id"`
	PlaybackState model.PlaybackState `json:"playback_state"`
	UpdatedBy     string              `json:"updated_by"`
}

// RoomDeactivatedPayload represents the end-of-session broadcast
type RoomDeactivatedPayload struct {
	RoomID string `json:"room_id"`
}

// NewChatMessagePayload represents a chat message broadcast
type NewChatMessagePayload struct {
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewReactionPayload represents a reaction broadcast
type NewReactionPayload struct {
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Reaction  string `json:"reaction"`
	Timestamp string `json:"timestamp"`
}

// ErrorPayload represents error message
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AckPayload represents acknowledgement
type AckPayload struct {
	RequestID string `json:"request_id"`
	Success   bool   `json:"success"`
}

// NewMessage creates a new message
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now(),
	}, nil
}

// NewErrorMessage creates a new error message
func NewErrorMessage(code int, message string) (*Message, error) {
	return NewMessage(MessageTypeError, &ErrorPayload{
		Code:    code,
		Message: message,
	})
}

// ParsePayload parses message payload into the given type
func (m *Message) ParsePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}
