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

var ErrMovieNotFound = errors.New("movie metadata not found")

const moviesCollection = "movie_metadata"

type MovieRepository struct {
	coll *mongo.Collection
}

func NewMovieRepository(db *mongo.Database) *MovieRepository {
	return &MovieRepository{coll: db.Collection(moviesCollection)}
}

// EnsureIndexes creates the text index used by Search
func (r *MovieRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: "text"}},
	})
	return err
}

// FindByFileID retrieves movie metadata by Drive file ID
func (r *MovieRepository) FindByFileID(ctx context.Context, fileID string) (*model.MovieMetadata, error) {
	var meta model.MovieMetadata
	err := r.coll.FindOne(ctx, bson.M{"file_id": fileID}).Decode(&meta)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to find movie metadata: %w", err)
	}
	return &meta, nil
}

// Save upserts metadata keyed by file_id
func (r *MovieRepository) Save(ctx context.Context, meta *model.MovieMetadata) error {
	now := time.Now().UTC()
	meta.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"name":             meta.Name,
			"mime_type":        meta.MimeType,
			"size":             meta.Size,
			"type":             meta.Type,
			"parent_folder_id": meta.ParentFolderID,
			"thumbnail_url":    meta.ThumbnailURL,
			"duration_millis":  meta.DurationMillis,
			"updated_at":       meta.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"file_id": meta.FileID}, update, opts); err != nil {
		return fmt.Errorf("failed to save movie metadata: %w", err)
	}
	return nil
}

// Search performs a text search over movie names
func (r *MovieRepository) Search(ctx context.Context, query string, limit int64) ([]*model.MovieMetadata, error) {
	if query == "" {
		return nil, nil
	}

	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}
	defer cursor.Close(ctx)

	var movies []*model.MovieMetadata
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	return movies, nil
}

// Recent lists recently touched videos
func (r *MovieRepository) Recent(ctx context.Context, limit int64) ([]*model.MovieMetadata, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{"type": "video"}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent movies: %w", err)
	}
	defer cursor.Close(ctx)

	var movies []*model.MovieMetadata
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	return movies, nil
}
