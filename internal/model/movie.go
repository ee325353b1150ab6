package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovieMetadata is catalog metadata for a Drive-hosted video file
type MovieMetadata struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	FileID         string             `bson:"file_id" json:"file_id"`
	Name           string             `bson:"name" json:"name"`
	MimeType       string             `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	Size           int64              `bson:"size,omitempty" json:"size,omitempty"`
	Type           string             `bson:"type" json:"type"` // video or folder
	ParentFolderID string             `bson:"parent_folder_id,omitempty" json:"parent_folder_id,omitempty"`
	ThumbnailURL   string             `bson:"thumbnail_url,omitempty" json:"thumbnail_url,omitempty"`
	DurationMillis int64              `bson:"duration_millis,omitempty" json:"duration_millis,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsVideo reports whether the entry is a playable video
func (m *MovieMetadata) IsVideo() bool {
	return m.Type == "video"
}
