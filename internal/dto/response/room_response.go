package response

import (
	"time"

	"github.com/opsatya/cinemaSync/internal/model"
)

// RoomResponse is the sanitized outward view of a room. Password material is
// never serialized; callers only learn whether a password is required.
type RoomResponse struct {
	RoomID           string              `json:"room_id"`
	HostID           string              `json:"host_id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	MovieSource      model.MovieSource   `json:"movie_source"`
	IsPrivate        bool                `json:"is_private"`
	EnableChat       bool                `json:"enable_chat"`
	EnableReactions  bool                `json:"enable_reactions"`
	MaxParticipants  int                 `json:"max_participants"`
	Participants     []model.Participant `json:"participants"`
	PlaybackState    model.PlaybackState `json:"playback_state"`
	PasswordRequired bool                `json:"password_required"`
	IsActive         bool                `json:"is_active"`
	CreatedAt        string              `json:"created_at"`
	UpdatedAt        string              `json:"updated_at"`
}

// NewRoomResponse builds the sanitized view of a room
func NewRoomResponse(room *model.Room) *RoomResponse {
	participants := room.Participants
	if participants == nil {
		participants = []model.Participant{}
	}
	return &RoomResponse{
		RoomID:           room.RoomID,
		HostID:           room.HostID,
		Name:             room.Name,
		Description:      room.Description,
		MovieSource:      room.MovieSource,
		IsPrivate:        room.IsPrivate,
		EnableChat:       room.EnableChat,
		EnableReactions:  room.EnableReactions,
		MaxParticipants:  room.MaxParticipants,
		Participants:     participants,
		PlaybackState:    room.PlaybackState,
		PasswordRequired: room.PasswordRequired(),
		IsActive:         room.IsActive,
		CreatedAt:        room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewRoomListResponse builds sanitized views for a room listing
func NewRoomListResponse(rooms []*model.Room) []*RoomResponse {
	out := make([]*RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, NewRoomResponse(room))
	}
	return out
}
