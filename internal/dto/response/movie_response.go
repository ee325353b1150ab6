package response

import (
	"time"

	"github.com/opsatya/cinemaSync/internal/model"
)

// MovieResponse represents a catalog entry
type MovieResponse struct {
	FileID         string `json:"file_id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	ParentFolderID string `json:"parent_folder_id,omitempty"`
	Size           int64  `json:"size,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	DurationMillis int64  `json:"duration_millis,omitempty"`
	UpdatedAt      string `json:"updated_at"`
}

// NewMovieResponse builds the outward view of a catalog entry
func NewMovieResponse(m *model.MovieMetadata) *MovieResponse {
	return &MovieResponse{
		FileID:         m.FileID,
		Name:           m.Name,
		Type:           m.Type,
		ParentFolderID: m.ParentFolderID,
		Size:           m.Size,
		Thumbnail:      m.ThumbnailURL,
		DurationMillis: m.DurationMillis,
		UpdatedAt:      m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewMovieListResponse builds outward views for a catalog listing
func NewMovieListResponse(items []*model.MovieMetadata) []*MovieResponse {
	out := make([]*MovieResponse, 0, len(items))
	for _, m := range items {
		out = append(out, NewMovieResponse(m))
	}
	return out
}

// StreamLinkResponse represents a playable stream link
type StreamLinkResponse struct {
	FileID      string `json:"file_id"`
	StreamURL   string `json:"stream_url"`
	AccessToken string `json:"access_token"`
}
