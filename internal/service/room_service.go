package service

import (
	"context"
	"fmt"
	"time"

	"github.com/opsatya/cinemaSync/internal/model"
	apperrors "github.com/opsatya/cinemaSync/internal/pkg/errors"
	"github.com/opsatya/cinemaSync/internal/pkg/utils"
	"github.com/opsatya/cinemaSync/internal/repository"
	"go.uber.org/zap"
)

// RoomStore is the narrow persistence interface the engine needs. Mutating
// participant/playback writes carry the updated_at value the caller read;
// repository.ErrStaleWrite reports a precondition miss on a live room.
type RoomStore interface {
	Insert(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, roomID string) (*model.Room, error)
	FindByParticipant(ctx context.Context, userID string) ([]*model.Room, error)
	ListActivePublic(ctx context.Context, limit, offset int64) ([]*model.Room, error)
	UpdateParticipants(ctx context.Context, roomID string, participants []model.Participant, prev time.Time) (*model.Room, error)
	UpdatePlaybackState(ctx context.Context, roomID string, state model.PlaybackState, prev time.Time) (*model.Room, error)
	UpdateFields(ctx context.Context, roomID string, set map[string]interface{}, unset []string) (*model.Room, error)
	SetActive(ctx context.Context, roomID string, active bool) (*model.Room, error)
}

// RoomService owns room lifecycle: membership, host-only configuration and
// playback authority. Every mutating operation runs inside the room's
// critical section as validate -> commit (persist + projection) -> return;
// broadcasting the committed result is the caller's job.
type RoomService struct {
	store             RoomStore
	registry          *Registry
	logger            *zap.Logger
	defaultMaxMembers int
	maxMembersCap     int
}

func NewRoomService(store RoomStore, registry *Registry, defaultMaxMembers, maxMembersCap int, logger *zap.Logger) *RoomService {
	if defaultMaxMembers <= 0 {
		defaultMaxMembers = 10
	}
	if maxMembersCap <= 0 {
		maxMembersCap = 100
	}
	return &RoomService{
		store:             store,
		registry:          registry,
		logger:            logger,
		defaultMaxMembers: defaultMaxMembers,
		maxMembersCap:     maxMembersCap,
	}
}

// CreateRoomInput represents room creation input
type CreateRoomInput struct {
	HostID          string
	Name            string
	Description     string
	MovieSource     model.MovieSource
	Password        string
	IsPrivate       *bool
	EnableChat      *bool
	EnableReactions *bool
	MaxParticipants int
}

// Create persists a new room with the host as its sole participant
func (s *RoomService) Create(ctx context.Context, input *CreateRoomInput) (*model.Room, error) {
	if input.HostID == "" {
		return nil, apperrors.New(400, "host_id is required")
	}
	if !input.MovieSource.IsValid() {
		return nil, apperrors.ErrMovieSourceMissing
	}

	maxParticipants := input.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = s.defaultMaxMembers
	}
	if maxParticipants > s.maxMembersCap {
		maxParticipants = s.maxMembersCap
	}

	now := time.Now().UTC()
	room := &model.Room{
		RoomID:          model.NewRoomID(),
		HostID:          input.HostID,
		Name:            input.Name,
		Description:     input.Description,
		MovieSource:     input.MovieSource,
		IsPrivate:       true,
		EnableChat:      true,
		EnableReactions: true,
		MaxParticipants: maxParticipants,
		Participants: []model.Participant{{
			UserID:   input.HostID,
			IsHost:   true,
			JoinedAt: now,
		}},
		PlaybackState: model.PlaybackState{
			IsPlaying:   false,
			CurrentTime: 0,
			LastUpdated: now,
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if room.Name == "" {
		room.Name = fmt.Sprintf("Room %s", room.RoomID)
	}
	if input.IsPrivate != nil {
		room.IsPrivate = *input.IsPrivate
	}
	if input.EnableChat != nil {
		room.EnableChat = *input.EnableChat
	}
	if input.EnableReactions != nil {
		room.EnableReactions = *input.EnableReactions
	}

	if input.Password != "" {
		hash, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, apperrors.Wrap(err, 400, "Invalid room password")
		}
		room.PasswordHash = hash
	}

	if err := s.store.Insert(ctx, room); err != nil {
		s.logger.Error("Failed to create room", zap.Error(err))
		return nil, apperrors.ErrStoreUnavailable
	}

	s.registry.Commit(room)

	s.logger.Info("Room created",
		zap.String("room_id", room.RoomID),
		zap.String("host_id", room.HostID),
		zap.Int("max_participants", room.MaxParticipants),
	)

	return room, nil
}

// GetByID fetches current room state from the store
func (s *RoomService) GetByID(ctx context.Context, roomID string) (*model.Room, error) {
	return s.loadRoom(ctx, roomID)
}

// ListActivePublic lists active non-private rooms
func (s *RoomService) ListActivePublic(ctx context.Context, limit, offset int64) ([]*model.Room, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rooms, err := s.store.ListActivePublic(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list rooms", zap.Error(err))
		return nil, apperrors.ErrStoreUnavailable
	}
	return rooms, nil
}

// ListByParticipant lists all rooms the user has been in, newest first.
// Deactivated rooms are included for history.
func (s *RoomService) ListByParticipant(ctx context.Context, userID string) ([]*model.Room, error) {
	rooms, err := s.store.FindByParticipant(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list user rooms", zap.Error(err))
		return nil, apperrors.ErrStoreUnavailable
	}
	return rooms, nil
}

// Join adds userID to the room's participant set. Re-joining is a no-op
// success: membership is checked before capacity so a member of a full room
// still joins idempotently.
func (s *RoomService) Join(ctx context.Context, roomID, userID, password string) (*model.Room, error) {
	release, err := s.registry.Acquire(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer release()

	// One retry when a precondition miss reveals an external writer
	for attempt := 0; ; attempt++ {
		room, err := s.loadRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}

		if !room.IsActive {
			return nil, apperrors.ErrRoomInactive
		}

		room, err = s.verifyPassword(ctx, room, password)
		if err != nil {
			return nil, err
		}

		if room.HasParticipant(userID) {
			return room, nil
		}

		if room.IsFull() {
			return nil, apperrors.RoomFull(len(room.Participants), room.MaxParticipants)
		}

		participants := append(append([]model.Participant{}, room.Participants...), model.Participant{
			UserID:   userID,
			IsHost:   false,
			JoinedAt: time.Now().UTC(),
		})

		updated, err := s.store.UpdateParticipants(ctx, roomID, participants, room.UpdatedAt)
		if err != nil {
			if apperrors.Is(err, repository.ErrStaleWrite) && attempt == 0 {
				continue
			}
			return nil, s.storeError("join room", roomID, err)
		}

		s.registry.Commit(updated)
		s.logger.Info("User joined room",
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
			zap.Int("participants", len(updated.Participants)),
		)
		return updated, nil
	}
}

// Leave removes userID from the room. Removing a non-member is a no-op.
// When the last participant leaves, the room is deactivated in the same
// critical section, so a racing Join sees either a member or an inactive
// room, never an empty active one.
func (s *RoomService) Leave(ctx context.Context, roomID, userID string) (room *model.Room, deactivated bool, err error) {
	release, err := s.registry.Acquire(ctx, roomID)
	if err != nil {
		return nil, false, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		current, err := s.loadRoom(ctx, roomID)
		if err != nil {
			return nil, false, err
		}

		if !current.HasParticipant(userID) {
			return current, false, nil
		}

		participants := current.WithoutParticipant(userID)
		updated, err := s.store.UpdateParticipants(ctx, roomID, participants, current.UpdatedAt)
		if err != nil {
			if apperrors.Is(err, repository.ErrStaleWrite) && attempt == 0 {
				continue
			}
			return nil, false, s.storeError("leave room", roomID, err)
		}

		if len(updated.Participants) == 0 && updated.IsActive {
			updated, err = s.store.SetActive(ctx, roomID, false)
			if err != nil {
				return nil, false, s.storeError("deactivate empty room", roomID, err)
			}
			s.registry.Evict(roomID)
			s.logger.Info("Room emptied and deactivated", zap.String("room_id", roomID))
			return updated, true, nil
		}

		s.registry.Commit(updated)
		s.logger.Info("User left room",
			zap.String("room_id", roomID),
			zap.String("user_id", userID),
			zap.Int("participants", len(updated.Participants)),
		)
		return updated, false, nil
	}
}

// UpdateConfigInput represents a host configuration patch
type UpdateConfigInput struct {
	RoomID          string
	CallerID        string
	Name            *string
	Description     *string
	IsPrivate       *bool
	EnableChat      *bool
	EnableReactions *bool
	MaxParticipants *int
	// Password: nil leaves it unchanged, empty string clears it, anything
	// else is hashed before storage.
	Password *string
}

// UpdateConfig applies host-only edits to the room configuration
func (s *RoomService) UpdateConfig(ctx context.Context, input *UpdateConfigInput) (*model.Room, error) {
	release, err := s.registry.Acquire(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	defer release()

	room, err := s.loadRoom(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsHost(input.CallerID) {
		return nil, apperrors.ErrForbidden
	}

	set := map[string]interface{}{}
	var unset []string

	if input.Name != nil && *input.Name != "" {
		set["name"] = *input.Name
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.IsPrivate != nil {
		set["is_private"] = *input.IsPrivate
	}
	if input.EnableChat != nil {
		set["enable_chat"] = *input.EnableChat
	}
	if input.EnableReactions != nil {
		set["enable_reactions"] = *input.EnableReactions
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < len(room.Participants) || *input.MaxParticipants < 1 {
			return nil, apperrors.New(400, "max_participants cannot be below current occupancy")
		}
		mp := *input.MaxParticipants
		if mp > s.maxMembersCap {
			mp = s.maxMembersCap
		}
		set["max_participants"] = mp
	}
	if input.Password != nil {
		if *input.Password == "" {
			unset = append(unset, "password_hash", "password")
		} else {
			hash, err := utils.HashPassword(*input.Password)
			if err != nil {
				return nil, apperrors.Wrap(err, 400, "Invalid room password")
			}
			set["password_hash"] = hash
			unset = append(unset, "password")
		}
	}

	if len(set) == 0 && len(unset) == 0 {
		return room, nil
	}

	updated, err := s.store.UpdateFields(ctx, input.RoomID, set, unset)
	if err != nil {
		return nil, s.storeError("update room config", input.RoomID, err)
	}

	s.registry.Commit(updated)
	s.logger.Info("Room config updated",
		zap.String("room_id", input.RoomID),
		zap.String("host_id", input.CallerID),
	)
	return updated, nil
}

// Deactivate ends the room. Host-only and idempotent.
func (s *RoomService) Deactivate(ctx context.Context, roomID, callerID string) (*model.Room, error) {
	release, err := s.registry.Acquire(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer release()

	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsHost(callerID) {
		return nil, apperrors.ErrForbidden
	}
	if !room.IsActive {
		return room, nil
	}

	updated, err := s.store.SetActive(ctx, roomID, false)
	if err != nil {
		return nil, s.storeError("deactivate room", roomID, err)
	}

	s.registry.Evict(roomID)
	s.logger.Info("Room deactivated by host",
		zap.String("room_id", roomID),
		zap.String("host_id", callerID),
	)
	return updated, nil
}

// PlaybackInput is a host playback write
type PlaybackInput struct {
	IsPlaying   bool
	CurrentTime float64
}

// SetPlaybackState applies a host-only playback write. Writes for a room are
// serialized, the stored last_updated never goes backwards, and the returned
// room carries the exact committed state for broadcast.
func (s *RoomService) SetPlaybackState(ctx context.Context, roomID, callerID string, input PlaybackInput) (*model.Room, error) {
	if input.CurrentTime < 0 {
		return nil, apperrors.New(400, "current_time must be non-negative")
	}

	release, err := s.registry.Acquire(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		room, err := s.loadRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}

		if !room.IsActive {
			return nil, apperrors.ErrRoomInactive
		}
		if !room.HasParticipant(callerID) {
			return nil, apperrors.ErrNotParticipant
		}
		if !room.IsHost(callerID) {
			return nil, apperrors.ErrNotHost
		}

		now := time.Now().UTC()
		if now.Before(room.PlaybackState.LastUpdated) {
			// Clock went backwards; keep last_updated non-decreasing
			now = room.PlaybackState.LastUpdated
		}

		state := model.PlaybackState{
			IsPlaying:   input.IsPlaying,
			CurrentTime: input.CurrentTime,
			LastUpdated: now,
		}

		updated, err := s.store.UpdatePlaybackState(ctx, roomID, state, room.UpdatedAt)
		if err != nil {
			if apperrors.Is(err, repository.ErrStaleWrite) && attempt == 0 {
				continue
			}
			return nil, s.storeError("update playback", roomID, err)
		}

		s.registry.Commit(updated)
		s.logger.Debug("Playback updated",
			zap.String("room_id", roomID),
			zap.Bool("is_playing", state.IsPlaying),
			zap.Float64("current_time", state.CurrentTime),
		)
		return updated, nil
	}
}

// AuthorizeChat gates a chat relay: room exists, chat enabled, sender is a member
func (s *RoomService) AuthorizeChat(ctx context.Context, roomID, userID string) (*model.Room, error) {
	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.EnableChat {
		return nil, apperrors.ErrChatDisabled
	}
	if !room.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant
	}
	return room, nil
}

// AuthorizeReaction gates a reaction relay
func (s *RoomService) AuthorizeReaction(ctx context.Context, roomID, userID string) (*model.Room, error) {
	room, err := s.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.EnableReactions {
		return nil, apperrors.ErrReactionsDisabled
	}
	if !room.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant
	}
	return room, nil
}

// verifyPassword checks the supplied password against the stored credential.
// Legacy rooms stored the password as plaintext; those are compared in
// constant time and migrated to a bcrypt hash on first successful join.
func (s *RoomService) verifyPassword(ctx context.Context, room *model.Room, supplied string) (*model.Room, error) {
	switch {
	case room.PasswordHash != "":
		if !utils.CheckPassword(supplied, room.PasswordHash) {
			return nil, apperrors.ErrInvalidPassword
		}
		return room, nil

	case room.LegacyPassword != "":
		if !utils.CheckLegacyPassword(supplied, room.LegacyPassword) {
			return nil, apperrors.ErrInvalidPassword
		}

		hash, err := utils.HashPassword(room.LegacyPassword)
		if err != nil {
			s.logger.Warn("Failed to hash legacy room password", zap.String("room_id", room.RoomID), zap.Error(err))
			return room, nil
		}
		migrated, err := s.store.UpdateFields(ctx, room.RoomID, map[string]interface{}{"password_hash": hash}, []string{"password"})
		if err != nil {
			// Migration is best-effort; the join itself still succeeds
			s.logger.Warn("Failed to migrate legacy room password", zap.String("room_id", room.RoomID), zap.Error(err))
			return room, nil
		}
		s.logger.Info("Migrated legacy room password", zap.String("room_id", room.RoomID))
		return migrated, nil

	default:
		return room, nil
	}
}

func (s *RoomService) loadRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.store.FindByID(ctx, roomID)
	if err != nil {
		if apperrors.Is(err, repository.ErrRoomNotFound) {
			return nil, apperrors.ErrRoomNotFound
		}
		s.logger.Error("Failed to load room", zap.String("room_id", roomID), zap.Error(err))
		return nil, apperrors.ErrStoreUnavailable
	}
	return room, nil
}

func (s *RoomService) storeError(op, roomID string, err error) error {
	switch {
	case apperrors.Is(err, repository.ErrRoomNotFound):
		return apperrors.ErrRoomNotFound
	case apperrors.Is(err, repository.ErrStaleWrite):
		return apperrors.ErrStaleRoom
	default:
		s.logger.Error("Store operation failed",
			zap.String("op", op),
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		return apperrors.ErrStoreUnavailable
	}
}
