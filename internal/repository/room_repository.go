package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsatya/cinemaSync/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrStaleWrite   = errors.New("room was modified concurrently")
)

const roomsCollection = "rooms"

type RoomRepository struct {
	coll *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{coll: db.Collection(roomsCollection)}
}

// Insert persists a new room
func (r *RoomRepository) Insert(ctx context.Context, room *model.Room) error {
	if _, err := r.coll.InsertOne(ctx, room); err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}
	return nil
}

// FindByID retrieves a room by its short room code
func (r *RoomRepository) FindByID(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	err := r.coll.FindOne(ctx, bson.M{"room_id": roomID}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// FindByParticipant retrieves all rooms the user is or was a participant of,
// newest first. Deactivated rooms are included for history.
func (r *RoomRepository) FindByParticipant(ctx context.Context, userID string) ([]*model.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"participants.user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms by participant: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

// ListActivePublic lists active non-private rooms, newest first
func (r *RoomRepository) ListActivePublic(ctx context.Context, limit, offset int64) ([]*model.Room, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{"is_active": true, "is_private": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}

// UpdateParticipants replaces the participant set. The write only applies if
// the stored updated_at still equals prev; a mismatch on an existing room
// reports ErrStaleWrite so the caller can re-read and retry.
func (r *RoomRepository) UpdateParticipants(ctx context.Context, roomID string, participants []model.Participant, prev time.Time) (*model.Room, error) {
	update := bson.M{"$set": bson.M{
		"participants": participants,
		"updated_at":   time.Now().UTC(),
	}}
	return r.guardedUpdate(ctx, roomID, prev, update)
}

// UpdatePlaybackState replaces the playback state under the same updated_at
// precondition as UpdateParticipants.
func (r *RoomRepository) UpdatePlaybackState(ctx context.Context, roomID string, state model.PlaybackState, prev time.Time) (*model.Room, error) {
	update := bson.M{"$set": bson.M{
		"playback_state": state,
		"updated_at":     time.Now().UTC(),
	}}
	return r.guardedUpdate(ctx, roomID, prev, update)
}

// UpdateFields applies a host configuration patch. Keys in unset are removed
// from the document (used to drop a cleared password).
func (r *RoomRepository) UpdateFields(ctx context.Context, roomID string, set map[string]interface{}, unset []string) (*model.Room, error) {
	setDoc := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range set {
		setDoc[k] = v
	}
	update := bson.M{"$set": setDoc}
	if len(unset) > 0 {
		unsetDoc := bson.M{}
		for _, k := range unset {
			unsetDoc[k] = ""
		}
		update["$unset"] = unsetDoc
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room model.Room
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"room_id": roomID}, update, opts).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to update room fields: %w", err)
	}
	return &room, nil
}

// SetActive flips the room's active flag
func (r *RoomRepository) SetActive(ctx context.Context, roomID string, active bool) (*model.Room, error) {
	update := bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var room model.Room
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"room_id": roomID}, update, opts).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to set room active flag: %w", err)
	}
	return &room, nil
}

func (r *RoomRepository) guardedUpdate(ctx context.Context, roomID string, prev time.Time, update bson.M) (*model.Room, error) {
	filter := bson.M{"room_id": roomID, "updated_at": prev}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room model.Room
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room)
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	// No match: either the room is gone or someone wrote in between
	if _, ferr := r.FindByID(ctx, roomID); ferr != nil {
		return nil, ferr
	}
	return nil, ErrStaleWrite
}
