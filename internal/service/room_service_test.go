package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/opsatya/cinemaSync/internal/model"
	apperrors "github.com/opsatya/cinemaSync/internal/pkg/errors"
	"github.com/opsatya/cinemaSync/internal/pkg/utils"
	"github.com/opsatya/cinemaSync/internal/repository"
)

// fakeRoomStore is an in-memory RoomStore. Guarded writes honor the same
// updated_at precondition as the real repository.
type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*model.Room

	// staleWrites forces the next N guarded writes to miss their precondition
	staleWrites int
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]*model.Room)}
}

func (f *fakeRoomStore) clone(room *model.Room) *model.Room {
	cp := *room
	cp.Participants = append([]model.Participant{}, room.Participants...)
	return &cp
}

func (f *fakeRoomStore) seed(room *model.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.RoomID] = f.clone(room)
}

func (f *fakeRoomStore) Insert(ctx context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.RoomID] = f.clone(room)
	return nil
}

func (f *fakeRoomStore) FindByID(ctx context.Context, roomID string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return f.clone(room), nil
}

func (f *fakeRoomStore) FindByParticipant(ctx context.Context, userID string) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Room
	for _, room := range f.rooms {
		if room.HasParticipant(userID) {
			out = append(out, f.clone(room))
		}
	}
	return out, nil
}

func (f *fakeRoomStore) ListActivePublic(ctx context.Context, limit, offset int64) ([]*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Room
	for _, room := range f.rooms {
		if room.IsActive && !room.IsPrivate {
			out = append(out, f.clone(room))
		}
	}
	return out, nil
}

func (f *fakeRoomStore) guarded(roomID string, prev time.Time, apply func(*model.Room)) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	if f.staleWrites > 0 {
		f.staleWrites--
		return nil, repository.ErrStaleWrite
	}
	if !room.UpdatedAt.Equal(prev) {
		return nil, repository.ErrStaleWrite
	}
	apply(room)
	room.UpdatedAt = room.UpdatedAt.Add(time.Millisecond)
	return f.clone(room), nil
}

func (f *fakeRoomStore) UpdateParticipants(ctx context.Context, roomID string, participants []model.Participant, prev time.Time) (*model.Room, error) {
	return f.guarded(roomID, prev, func(room *model.Room) {
		room.Participants = append([]model.Participant{}, participants...)
	})
}

func (f *fakeRoomStore) UpdatePlaybackState(ctx context.Context, roomID string, state model.PlaybackState, prev time.Time) (*model.Room, error) {
	return f.guarded(roomID, prev, func(room *model.Room) {
		room.PlaybackState = state
	})
}

func (f *fakeRoomStore) UpdateFields(ctx context.Context, roomID string, set map[string]interface{}, unset []string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	for k, v := range set {
		switch k {
		case "name":
			room.Name = v.(string)
		case "description":
			room.Description = v.(string)
		case "is_private":
			room.IsPrivate = v.(bool)
		case "enable_chat":
			room.EnableChat = v.(bool)
		case "enable_reactions":
			room.EnableReactions = v.(bool)
		case "max_participants":
			room.MaxParticipants = v.(int)
		case "password_hash":
			room.PasswordHash = v.(string)
		}
	}
	for _, k := range unset {
		switch k {
		case "password_hash":
			room.PasswordHash = ""
		case "password":
			room.LegacyPassword = ""
		}
	}
	room.UpdatedAt = room.UpdatedAt.Add(time.Millisecond)
	return f.clone(room), nil
}

func (f *fakeRoomStore) SetActive(ctx context.Context, roomID string, active bool) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	room.IsActive = active
	room.UpdatedAt = room.UpdatedAt.Add(time.Millisecond)
	return f.clone(room), nil
}

func setupRoomService(t *testing.T) (*RoomService, *fakeRoomStore) {
	t.Helper()
	store := newFakeRoomStore()
	registry := NewRegistry(time.Second)
	svc := NewRoomService(store, registry, 10, 100, zap.NewNop())
	return svc, store
}

func seedRoom(t *testing.T, store *fakeRoomStore, mutate func(*model.Room)) *model.Room {
	t.Helper()
	now := time.Now().UTC()
	room := &model.Room{
		RoomID: model.NewRoomID(),
		HostID: "host",
		Name:   "Movie Night",
		MovieSource: model.MovieSource{
			Type:  model.MovieSourceURL,
			Value: "https://example.com/movie.mp4",
		},
		EnableChat:      true,
		EnableReactions: true,
		MaxParticipants: 10,
		Participants: []model.Participant{
			{UserID: "host", IsHost: true, JoinedAt: now},
		},
		PlaybackState: model.PlaybackState{LastUpdated: now},
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if mutate != nil {
		mutate(room)
	}
	store.seed(room)
	return room
}

func TestRoomService_Create(t *testing.T) {
	svc, _ := setupRoomService(t)
	ctx := context.Background()

	room, err := svc.Create(ctx, &CreateRoomInput{
		HostID: "host",
		Name:   "Friday Night",
		MovieSource: model.MovieSource{
			Type:  model.MovieSourceURL,
			Value: "https://example.com/movie.mp4",
		},
	})
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	if len(room.RoomID) != 8 {
		t.Errorf("Expected 8-char room code, got %q", room.RoomID)
	}
	if room.RoomID != strings.ToUpper(room.RoomID) {
		t.Errorf("Expected uppercase room code, got %q", room.RoomID)
	}
	if len(room.Participants) != 1 || room.Participants[0].UserID != "host" || !room.Participants[0].IsHost {
		t.Errorf("Expected host as sole participant, got %+v", room.Participants)
	}
	if room.MaxParticipants != 10 {
		t.Errorf("Expected default max participants 10, got %d", room.MaxParticipants)
	}
	if !room.IsActive {
		t.Error("Expected new room to be active")
	}
	if room.PlaybackState.IsPlaying || room.PlaybackState.CurrentTime != 0 {
		t.Errorf("Expected paused playback at 0, got %+v", room.PlaybackState)
	}
}

func TestRoomService_Create_DefaultName(t *testing.T) {
	svc, _ := setupRoomService(t)

	room, err := svc.Create(context.Background(), &CreateRoomInput{
		HostID: "host",
		MovieSource: model.MovieSource{
			Type:  model.MovieSourceURL,
			Value: "https://example.com/movie.mp4",
		},
	})
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	if room.Name != "Room "+room.RoomID {
		t.Errorf("Expected default name 'Room %s', got %q", room.RoomID, room.Name)
	}
}

func TestRoomService_Create_MissingMovieSource(t *testing.T) {
	svc, _ := setupRoomService(t)

	_, err := svc.Create(context.Background(), &CreateRoomInput{HostID: "host"})
	if !apperrors.Is(err, apperrors.ErrMovieSourceMissing) {
		t.Errorf("Expected movie source error, got %v", err)
	}
}

func TestRoomService_Create_PasswordHashed(t *testing.T) {
	svc, store := setupRoomService(t)

	room, err := svc.Create(context.Background(), &CreateRoomInput{
		HostID:   "host",
		Password: "secret",
		MovieSource: model.MovieSource{
			Type:  model.MovieSourceURL,
			Value: "https://example.com/movie.mp4",
		},
	})
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}

	stored, _ := store.FindByID(context.Background(), room.RoomID)
	if stored.PasswordHash == "" || stored.PasswordHash == "secret" {
		t.Errorf("Expected hashed password, got %q", stored.PasswordHash)
	}
	if !utils.IsBcryptHash(stored.PasswordHash) {
		t.Errorf("Expected bcrypt hash, got %q", stored.PasswordHash)
	}
	if !stored.PasswordRequired() {
		t.Error("Expected password to be required")
	}
}

func TestRoomService_Join(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	updated, err := svc.Join(context.Background(), room.RoomID, "alice", "")
	if err != nil {
		t.Fatalf("Failed to join: %v", err)
	}

	if len(updated.Participants) != 2 {
		t.Fatalf("Expected 2 participants, got %d", len(updated.Participants))
	}
	if !updated.HasParticipant("alice") {
		t.Error("Expected alice to be a participant")
	}
	if updated.Participants[1].IsHost {
		t.Error("Expected joiner not to be host")
	}
}

func TestRoomService_Join_Idempotent(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); err != nil {
		t.Fatalf("First join failed: %v", err)
	}
	updated, err := svc.Join(context.Background(), room.RoomID, "alice", "")
	if err != nil {
		t.Fatalf("Second join failed: %v", err)
	}
	if len(updated.Participants) != 2 {
		t.Errorf("Expected 2 participants after re-join, got %d", len(updated.Participants))
	}
}

func TestRoomService_Join_Full(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, func(r *model.Room) {
		r.MaxParticipants = 2
	})

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	_, err := svc.Join(context.Background(), room.RoomID, "bob", "")
	if err == nil {
		t.Fatal("Expected capacity error")
	}
	if apperrors.GetHTTPStatus(err) != 409 {
		t.Errorf("Expected 409, got %d", apperrors.GetHTTPStatus(err))
	}
	if apperrors.GetMessage(err) != "Room is full (2/2)" {
		t.Errorf("Unexpected message: %q", apperrors.GetMessage(err))
	}
}

func TestRoomService_Join_MemberOfFullRoom(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, func(r *model.Room) {
		r.MaxParticipants = 2
	})

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	// Membership wins over capacity: re-joining a full room is still a no-op
	updated, err := svc.Join(context.Background(), room.RoomID, "alice", "")
	if err != nil {
		t.Fatalf("Expected member re-join to succeed, got %v", err)
	}
	if len(updated.Participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(updated.Participants))
	}
}

func TestRoomService_Join_WrongPassword(t *testing.T) {
	svc, store := setupRoomService(t)
	hash, _ := utils.HashPassword("secret")
	room := seedRoom(t, store, func(r *model.Room) {
		r.PasswordHash = hash
	})

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", "wrong"); !apperrors.Is(err, apperrors.ErrInvalidPassword) {
		t.Errorf("Expected invalid password error, got %v", err)
	}

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", "secret"); err != nil {
		t.Errorf("Expected join with correct password to succeed, got %v", err)
	}
}

func TestRoomService_Join_MigratesLegacyPassword(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, func(r *model.Room) {
		r.LegacyPassword = "secret"
	})

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", "wrong"); !apperrors.Is(err, apperrors.ErrInvalidPassword) {
		t.Fatalf("Expected invalid password error, got %v", err)
	}

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", "secret"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	stored, _ := store.FindByID(context.Background(), room.RoomID)
	if stored.LegacyPassword != "" {
		t.Error("Expected plaintext password to be removed after migration")
	}
	if !utils.IsBcryptHash(stored.PasswordHash) {
		t.Errorf("Expected bcrypt hash after migration, got %q", stored.PasswordHash)
	}
	if !utils.CheckPassword("secret", stored.PasswordHash) {
		t.Error("Expected migrated hash to verify the original password")
	}
}

func TestRoomService_Join_Inactive(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, func(r *model.Room) {
		r.IsActive = false
	})

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); !apperrors.Is(err, apperrors.ErrRoomInactive) {
		t.Errorf("Expected inactive room error, got %v", err)
	}
}

func TestRoomService_Join_NotFound(t *testing.T) {
	svc, _ := setupRoomService(t)

	if _, err := svc.Join(context.Background(), "NOPE1234", "alice", ""); !apperrors.Is(err, apperrors.ErrRoomNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestRoomService_Join_RetriesStaleWrite(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)
	store.staleWrites = 1

	updated, err := svc.Join(context.Background(), room.RoomID, "alice", "")
	if err != nil {
		t.Fatalf("Expected join to retry past one stale write, got %v", err)
	}
	if !updated.HasParticipant("alice") {
		t.Error("Expected alice to be a participant after retry")
	}
}

func TestRoomService_Join_StaleTwiceConflicts(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)
	store.staleWrites = 2

	_, err := svc.Join(context.Background(), room.RoomID, "alice", "")
	if !apperrors.Is(err, apperrors.ErrStaleRoom) {
		t.Errorf("Expected stale room conflict, got %v", err)
	}
}

func TestRoomService_Leave(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)
	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	updated, deactivated, err := svc.Leave(context.Background(), room.RoomID, "alice")
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if deactivated {
		t.Error("Expected room to stay active with host remaining")
	}
	if updated.HasParticipant("alice") {
		t.Error("Expected alice to be removed")
	}
}

func TestRoomService_Leave_NonMemberNoOp(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	updated, deactivated, err := svc.Leave(context.Background(), room.RoomID, "stranger")
	if err != nil {
		t.Fatalf("Expected no-op leave to succeed, got %v", err)
	}
	if deactivated {
		t.Error("Expected no deactivation")
	}
	if len(updated.Participants) != 1 {
		t.Errorf("Expected participants unchanged, got %d", len(updated.Participants))
	}
}

func TestRoomService_Leave_LastDeactivates(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	updated, deactivated, err := svc.Leave(context.Background(), room.RoomID, "host")
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if !deactivated {
		t.Error("Expected empty room to be deactivated")
	}
	if updated.IsActive {
		t.Error("Expected room to be inactive")
	}
	if len(updated.Participants) != 0 {
		t.Errorf("Expected empty participants, got %d", len(updated.Participants))
	}

	// Joining after deactivation is rejected
	if _, err := svc.Join(context.Background(), room.RoomID, "late", ""); !apperrors.Is(err, apperrors.ErrRoomInactive) {
		t.Errorf("Expected inactive room error, got %v", err)
	}
}

func TestRoomService_SetPlaybackState(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	updated, err := svc.SetPlaybackState(context.Background(), room.RoomID, "host", PlaybackInput{
		IsPlaying:   true,
		CurrentTime: 42.5,
	})
	if err != nil {
		t.Fatalf("Playback update failed: %v", err)
	}

	if !updated.PlaybackState.IsPlaying {
		t.Error("Expected playing state")
	}
	if updated.PlaybackState.CurrentTime != 42.5 {
		t.Errorf("Expected current_time 42.5, got %f", updated.PlaybackState.CurrentTime)
	}
	if updated.PlaybackState.LastUpdated.Before(room.PlaybackState.LastUpdated) {
		t.Error("Expected last_updated to not go backwards")
	}
}

func TestRoomService_SetPlaybackState_NonHost(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)
	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	before, _ := store.FindByID(context.Background(), room.RoomID)

	_, err := svc.SetPlaybackState(context.Background(), room.RoomID, "alice", PlaybackInput{
		IsPlaying:   true,
		CurrentTime: 10,
	})
	if !apperrors.Is(err, apperrors.ErrNotHost) {
		t.Fatalf("Expected not-host error, got %v", err)
	}
	if apperrors.GetHTTPStatus(err) != 403 {
		t.Errorf("Expected 403, got %d", apperrors.GetHTTPStatus(err))
	}

	// Rejected write must leave state untouched
	after, _ := store.FindByID(context.Background(), room.RoomID)
	if after.PlaybackState != before.PlaybackState {
		t.Errorf("Expected playback state unchanged, got %+v", after.PlaybackState)
	}
}

func TestRoomService_SetPlaybackState_NonParticipant(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	_, err := svc.SetPlaybackState(context.Background(), room.RoomID, "stranger", PlaybackInput{CurrentTime: 5})
	if !apperrors.Is(err, apperrors.ErrNotParticipant) {
		t.Errorf("Expected not-participant error, got %v", err)
	}
}

func TestRoomService_SetPlaybackState_NegativeTime(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	_, err := svc.SetPlaybackState(context.Background(), room.RoomID, "host", PlaybackInput{CurrentTime: -1})
	if apperrors.GetHTTPStatus(err) != 400 {
		t.Errorf("Expected 400, got %v", err)
	}
}

func TestRoomService_SetPlaybackState_Monotonic(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	first, err := svc.SetPlaybackState(context.Background(), room.RoomID, "host", PlaybackInput{CurrentTime: 1})
	if err != nil {
		t.Fatalf("First update failed: %v", err)
	}
	second, err := svc.SetPlaybackState(context.Background(), room.RoomID, "host", PlaybackInput{CurrentTime: 2})
	if err != nil {
		t.Fatalf("Second update failed: %v", err)
	}

	if second.PlaybackState.LastUpdated.Before(first.PlaybackState.LastUpdated) {
		t.Error("Expected last_updated to be non-decreasing across writes")
	}
}

func TestRoomService_UpdateConfig_NonHost(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	name := "Hijacked"
	_, err := svc.UpdateConfig(context.Background(), &UpdateConfigInput{
		RoomID:   room.RoomID,
		CallerID: "alice",
		Name:     &name,
	})
	if !apperrors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Expected forbidden, got %v", err)
	}
}

func TestRoomService_UpdateConfig_CapacityBelowOccupancy(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)
	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	one := 1
	_, err := svc.UpdateConfig(context.Background(), &UpdateConfigInput{
		RoomID:          room.RoomID,
		CallerID:        "host",
		MaxParticipants: &one,
	})
	if apperrors.GetHTTPStatus(err) != 400 {
		t.Errorf("Expected 400, got %v", err)
	}
}

func TestRoomService_UpdateConfig_ClearPassword(t *testing.T) {
	svc, store := setupRoomService(t)
	hash, _ := utils.HashPassword("secret")
	room := seedRoom(t, store, func(r *model.Room) {
		r.PasswordHash = hash
	})

	empty := ""
	updated, err := svc.UpdateConfig(context.Background(), &UpdateConfigInput{
		RoomID:   room.RoomID,
		CallerID: "host",
		Password: &empty,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.PasswordRequired() {
		t.Error("Expected password requirement to be cleared")
	}

	if _, err := svc.Join(context.Background(), room.RoomID, "alice", ""); err != nil {
		t.Errorf("Expected passwordless join after clearing, got %v", err)
	}
}

func TestRoomService_Deactivate(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	if _, err := svc.Deactivate(context.Background(), room.RoomID, "alice"); !apperrors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("Expected forbidden for non-host, got %v", err)
	}

	updated, err := svc.Deactivate(context.Background(), room.RoomID, "host")
	if err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if updated.IsActive {
		t.Error("Expected room to be inactive")
	}

	// Idempotent
	if _, err := svc.Deactivate(context.Background(), room.RoomID, "host"); err != nil {
		t.Errorf("Expected repeated deactivate to succeed, got %v", err)
	}
}

func TestRoomService_AuthorizeChat(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, nil)

	if _, err := svc.AuthorizeChat(context.Background(), room.RoomID, "host"); err != nil {
		t.Errorf("Expected host chat to be allowed, got %v", err)
	}
	if _, err := svc.AuthorizeChat(context.Background(), room.RoomID, "stranger"); !apperrors.Is(err, apperrors.ErrNotParticipant) {
		t.Errorf("Expected not-participant error, got %v", err)
	}
}

func TestRoomService_AuthorizeChat_Disabled(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, func(r *model.Room) {
		r.EnableChat = false
	})

	if _, err := svc.AuthorizeChat(context.Background(), room.RoomID, "host"); !apperrors.Is(err, apperrors.ErrChatDisabled) {
		t.Errorf("Expected chat disabled error, got %v", err)
	}
}

func TestRoomService_AuthorizeReaction_Disabled(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, func(r *model.Room) {
		r.EnableReactions = false
	})

	if _, err := svc.AuthorizeReaction(context.Background(), room.RoomID, "host"); !apperrors.Is(err, apperrors.ErrReactionsDisabled) {
		t.Errorf("Expected reactions disabled error, got %v", err)
	}
}

func TestRoomService_ConcurrentJoins_RespectCapacity(t *testing.T) {
	svc, store := setupRoomService(t)
	room := seedRoom(t, store, func(r *model.Room) {
		r.MaxParticipants = 5
	})

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Join(context.Background(), room.RoomID, "user-"+string(rune('a'+i)), "")
		}(i)
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
		} else if apperrors.GetHTTPStatus(err) != 409 {
			t.Errorf("Unexpected join error: %v", err)
		}
	}

	stored, _ := store.FindByID(context.Background(), room.RoomID)
	if len(stored.Participants) != 5 {
		t.Errorf("Expected exactly 5 participants, got %d", len(stored.Participants))
	}
	if joined != 4 {
		t.Errorf("Expected 4 successful new joins (host holds a slot), got %d", joined)
	}
}
