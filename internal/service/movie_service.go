package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opsatya/cinemaSync/internal/drive"
	"github.com/opsatya/cinemaSync/internal/model"
	"github.com/opsatya/cinemaSync/internal/pkg/cache"
	apperrors "github.com/opsatya/cinemaSync/internal/pkg/errors"
	"github.com/opsatya/cinemaSync/internal/repository"
	"go.uber.org/zap"
)

// MovieService is the catalog boundary: Drive listings (cached), persisted
// metadata, search and stream-link resolution.
type MovieService struct {
	movieRepo  *repository.MovieRepository
	tokenRepo  *repository.TokenRepository
	drive      *drive.Client
	cache      *cache.Cache
	cacheTTL   time.Duration
	rootFolder string
	logger     *zap.Logger
}

func NewMovieService(
	movieRepo *repository.MovieRepository,
	tokenRepo *repository.TokenRepository,
	driveClient *drive.Client,
	c *cache.Cache,
	cacheTTL time.Duration,
	rootFolder string,
	logger *zap.Logger,
) *MovieService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &MovieService{
		movieRepo:  movieRepo,
		tokenRepo:  tokenRepo,
		drive:      driveClient,
		cache:      c,
		cacheTTL:   cacheTTL,
		rootFolder: rootFolder,
		logger:     logger,
	}
}

// AuthURL builds the Drive consent URL; state round-trips the user id
func (s *MovieService) AuthURL(userID string) string {
	state := base64.URLEncoding.EncodeToString([]byte(userID))
	return s.drive.AuthURL(state)
}

// HandleCallback exchanges the OAuth code and persists the tokens for the
// user encoded in state.
func (s *MovieService) HandleCallback(ctx context.Context, state, code string) error {
	raw, err := base64.URLEncoding.DecodeString(state)
	if err != nil || len(raw) == 0 {
		return apperrors.New(400, "Invalid OAuth state")
	}
	userID := string(raw)

	token, err := s.drive.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Error("OAuth code exchange failed", zap.Error(err))
		return apperrors.Wrap(err, 502, "Failed to exchange authorization code")
	}

	record := &model.UserToken{
		UserID:       userID,
		Provider:     model.ProviderGoogleDrive,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.Type(),
		Scope:        drive.TokenScope(token),
		Expiry:       token.Expiry,
	}
	if err := s.tokenRepo.Save(ctx, record); err != nil {
		s.logger.Error("Failed to save drive tokens", zap.Error(err))
		return apperrors.ErrStoreUnavailable
	}

	s.logger.Info("Stored drive tokens", zap.String("user_id", userID))
	return nil
}

// ListFolder lists videos and folders under folderID on the user's Drive.
// Listings are cached per folder with a short TTL; metadata for every video
// seen is upserted into the catalog.
func (s *MovieService) ListFolder(ctx context.Context, userID, folderID string) ([]*model.MovieMetadata, error) {
	if folderID == "" {
		folderID = s.rootFolder
	}
	cacheKey := fmt.Sprintf(cache.KeyMovieList, userID, folderID)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var movies []*model.MovieMetadata
		if err := json.Unmarshal([]byte(cached), &movies); err == nil {
			return movies, nil
		}
	}

	accessToken, err := s.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	files, err := s.drive.ListFiles(ctx, accessToken, folderID)
	if err != nil {
		s.logger.Error("Drive listing failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperrors.Wrap(err, 502, "Failed to list drive folder")
	}

	movies := make([]*model.MovieMetadata, 0, len(files))
	for i := range files {
		f := &files[i]
		entryType := "video"
		if f.IsFolder() {
			entryType = "folder"
		}
		meta := &model.MovieMetadata{
			FileID:         f.ID,
			Name:           f.Name,
			MimeType:       f.MimeType,
			Size:           f.SizeBytes(),
			Type:           entryType,
			ParentFolderID: folderID,
			ThumbnailURL:   f.ThumbnailLink,
			DurationMillis: f.DurationMillis(),
		}
		movies = append(movies, meta)

		if err := s.movieRepo.Save(ctx, meta); err != nil {
			s.logger.Warn("Failed to persist movie metadata", zap.String("file_id", f.ID), zap.Error(err))
		}
	}

	if data, err := json.Marshal(movies); err == nil {
		if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache drive listing", zap.Error(err))
		}
	}

	return movies, nil
}

// Metadata returns stored metadata for a file
func (s *MovieService) Metadata(ctx context.Context, fileID string) (*model.MovieMetadata, error) {
	meta, err := s.movieRepo.FindByFileID(ctx, fileID)
	if err != nil {
		if apperrors.Is(err, repository.ErrMovieNotFound) {
			return nil, apperrors.ErrMovieNotFound
		}
		s.logger.Error("Failed to load movie metadata", zap.Error(err))
		return nil, apperrors.ErrStoreUnavailable
	}
	return meta, nil
}

// Search runs a text search over catalog names
func (s *MovieService) Search(ctx context.Context, query string, limit int64) ([]*model.MovieMetadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.New(400, "Search query is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	movies, err := s.movieRepo.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("Movie search failed", zap.Error(err))
		return nil, apperrors.ErrStoreUnavailable
	}
	return movies, nil
}

// Recent lists recently touched catalog videos
func (s *MovieService) Recent(ctx context.Context, limit int64) ([]*model.MovieMetadata, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("%s:%d", cache.KeyMovieRecent, limit)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var movies []*model.MovieMetadata
		if err := json.Unmarshal([]byte(cached), &movies); err == nil {
			return movies, nil
		}
	}

	movies, err := s.movieRepo.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list recent movies", zap.Error(err))
		return nil, apperrors.ErrStoreUnavailable
	}

	if data, err := json.Marshal(movies); err == nil {
		if err := s.cache.Set(ctx, cacheKey, data, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache recent movies", zap.Error(err))
		}
	}
	return movies, nil
}

// Disconnect removes the user's stored Drive tokens. Disconnecting an
// account that was never connected succeeds.
func (s *MovieService) Disconnect(ctx context.Context, userID string) error {
	err := s.tokenRepo.Delete(ctx, userID, model.ProviderGoogleDrive)
	if err != nil && !apperrors.Is(err, repository.ErrTokenNotFound) {
		s.logger.Error("Failed to delete drive tokens", zap.String("user_id", userID), zap.Error(err))
		return apperrors.ErrStoreUnavailable
	}
	s.logger.Info("Disconnected google drive", zap.String("user_id", userID))
	return nil
}

// StreamLink resolves the direct media URL plus the viewer's access token
func (s *MovieService) StreamLink(ctx context.Context, userID, fileID string) (streamURL, accessToken string, err error) {
	accessToken, err = s.accessToken(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return drive.StreamURL(fileID), accessToken, nil
}

// accessToken loads the user's stored Drive token, refreshing it when
// expired and a refresh token is available.
func (s *MovieService) accessToken(ctx context.Context, userID string) (string, error) {
	record, err := s.tokenRepo.Get(ctx, userID, model.ProviderGoogleDrive)
	if err != nil {
		if apperrors.Is(err, repository.ErrTokenNotFound) {
			return "", apperrors.New(401, "Google Drive is not connected for this user")
		}
		s.logger.Error("Failed to load drive tokens", zap.Error(err))
		return "", apperrors.ErrStoreUnavailable
	}

	if !record.Expired() || record.RefreshToken == "" {
		return record.AccessToken, nil
	}

	refreshed, err := s.drive.Refresh(ctx, record.RefreshToken)
	if err != nil {
		s.logger.Warn("Drive token refresh failed", zap.String("user_id", userID), zap.Error(err))
		return "", apperrors.New(401, "Google Drive authorization expired, reconnect required")
	}

	record.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		record.RefreshToken = refreshed.RefreshToken
	}
	record.TokenType = refreshed.Type()
	if scope := drive.TokenScope(refreshed); scope != "" {
		record.Scope = scope
	}
	record.Expiry = refreshed.Expiry

	if err := s.tokenRepo.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to persist refreshed drive tokens", zap.Error(err))
	}
	return record.AccessToken, nil
}
