package request

// MovieSourceRequest represents the movie source of a room
type MovieSourceRequest struct {
	Type    string `json:"type" binding:"required,oneof=google_drive url"`
	VideoID string `json:"video_id,omitempty"`
	Value   string `json:"value,omitempty"`
	Name    string `json:"name,omitempty" binding:"omitempty,max=200"`
}

// CreateRoomRequest represents a room creation request
type CreateRoomRequest struct {
	Name            string              `json:"name,omitempty" binding:"omitempty,max=100"`
	Description     string              `json:"description,omitempty" binding:"omitempty,max=500"`
	MovieSource     *MovieSourceRequest `json:"movie_source" binding:"required"`
	Password        string              `json:"password,omitempty" binding:"omitempty,max=72"`
	IsPrivate       *bool               `json:"is_private,omitempty"`
	EnableChat      *bool               `json:"enable_chat,omitempty"`
	EnableReactions *bool               `json:"enable_reactions,omitempty"`
	MaxParticipants int                 `json:"max_participants,omitempty" binding:"omitempty,min=2"`
}

// UpdateRoomRequest represents a room configuration update request.
// Pointer fields distinguish "not provided" from a zero value; an empty
// password string clears the room password.
type UpdateRoomRequest struct {
	Name            *string `json:"name,omitempty" binding:"omitempty,max=100"`
	Description     *string `json:"description,omitempty" binding:"omitempty,max=500"`
	Password        *string `json:"password,omitempty" binding:"omitempty,max=72"`
	IsPrivate       *bool   `json:"is_private,omitempty"`
	EnableChat      *bool   `json:"enable_chat,omitempty"`
	EnableReactions *bool   `json:"enable_reactions,omitempty"`
	MaxParticipants *int    `json:"max_participants,omitempty" binding:"omitempty,min=2"`
}

// JoinRoomRequest represents a join request over REST
type JoinRoomRequest struct {
	Password string `json:"password,omitempty"`
}

// UpdatePlaybackRequest represents a playback state change request
type UpdatePlaybackRequest struct {
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time" binding:"min=0"`
}
