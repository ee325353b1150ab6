package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovieSourceType identifies where a room's video comes from
type MovieSourceType string

const (
	MovieSourceDrive MovieSourceType = "google_drive"
	MovieSourceURL   MovieSourceType = "url"
)

// MovieSource describes the video a room is watching. The engine treats it
// as opaque beyond validation; it is broadcast verbatim to participants.
type MovieSource struct {
	Type    MovieSourceType `bson:"type" json:"type"`
	VideoID string          `bson:"video_id,omitempty" json:"video_id,omitempty"`
	Value   string          `bson:"value,omitempty" json:"value,omitempty"`
	Name    string          `bson:"name,omitempty" json:"name,omitempty"`
}

// IsValid checks that the source names a type and a location
func (ms *MovieSource) IsValid() bool {
	if ms == nil || ms.Type == "" {
		return false
	}
	return ms.VideoID != "" || ms.Value != ""
}

// Participant is a member of a room's participant set
type Participant struct {
	UserID   string    `bson:"user_id" json:"user_id"`
	IsHost   bool      `bson:"is_host" json:"is_host"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
}

// PlaybackState is the shared playback timeline all participants converge to.
// LastUpdated is monotonically non-decreasing across accepted writes.
type PlaybackState struct {
	IsPlaying   bool      `bson:"is_playing" json:"is_playing"`
	CurrentTime float64   `bson:"current_time" json:"current_time"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}

// Room is a watch-party session: one authoritative host, a bounded
// participant set, and a shared playback timeline.
type Room struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RoomID          string             `bson:"room_id" json:"room_id"`
	HostID          string             `bson:"host_id" json:"host_id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description" json:"description"`
	MovieSource     MovieSource        `bson:"movie_source" json:"movie_source"`
	PasswordHash    string             `bson:"password_hash,omitempty" json:"-"`
	LegacyPassword  string             `bson:"password,omitempty" json:"-"`
	IsPrivate       bool               `bson:"is_private" json:"is_private"`
	EnableChat      bool               `bson:"enable_chat" json:"enable_chat"`
	EnableReactions bool               `bson:"enable_reactions" json:"enable_reactions"`
	MaxParticipants int                `bson:"max_participants" json:"max_participants"`
	Participants    []Participant      `bson:"participants" json:"participants"`
	PlaybackState   PlaybackState      `bson:"playback_state" json:"playback_state"`
	IsActive        bool               `bson:"is_active" json:"is_active"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewRoomID generates a short room code (first uuid segment, uppercased)
func NewRoomID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// HasParticipant reports whether userID is currently a member
func (r *Room) HasParticipant(userID string) bool {
	for i := range r.Participants {
		if r.Participants[i].UserID == userID {
			return true
		}
	}
	return false
}

// IsHost reports whether userID is the room's authoritative host
func (r *Room) IsHost(userID string) bool {
	return r.HostID == userID
}

// IsFull reports whether the participant set is at capacity
func (r *Room) IsFull() bool {
	return len(r.Participants) >= r.MaxParticipants
}

// PasswordRequired reports whether joining needs a password. The derived
// boolean is what gets serialized outward; the hash never is.
func (r *Room) PasswordRequired() bool {
	return r.PasswordHash != "" || r.LegacyPassword != ""
}

// WithoutParticipant returns a copy of the participant set with userID removed
func (r *Room) WithoutParticipant(userID string) []Participant {
	out := make([]Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.UserID != userID {
			out = append(out, p)
		}
	}
	return out
}
