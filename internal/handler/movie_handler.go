package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opsatya/cinemaSync/internal/dto/response"
	"github.com/opsatya/cinemaSync/internal/middleware"
	"github.com/opsatya/cinemaSync/internal/service"
)

type MovieHandler struct {
	movieService *service.MovieService
}

func NewMovieHandler(movieService *service.MovieService) *MovieHandler {
	return &MovieHandler{
		movieService: movieService,
	}
}

// AuthURL godoc
// @Summary Get Google Drive consent URL
// @Description Build the OAuth consent URL for connecting Google Drive
// @Tags Movies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/google/auth/url [get]
func (h *MovieHandler) AuthURL(c *gin.Context) {
	userID := middleware.GetUserID(c)
	url := h.movieService.AuthURL(userID)
	response.Success(c, gin.H{"auth_url": url})
}

// OAuthCallback godoc
// @Summary Google Drive OAuth callback
// @Description Exchange the authorization code and store the Drive token
// @Tags Movies
// @Produce json
// @Param state query string true "Opaque state from the consent URL"
// @Param code query string true "Authorization code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/google/auth/callback [get]
func (h *MovieHandler) OAuthCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		response.BadRequest(c, "state and code are required")
		return
	}

	if err := h.movieService.HandleCallback(c.Request.Context(), state, code); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "Google Drive connected", nil)
}

// Disconnect godoc
// @Summary Disconnect Google Drive
// @Description Remove the stored Drive tokens for the caller
// @Tags Movies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/google/auth [delete]
func (h *MovieHandler) Disconnect(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.movieService.Disconnect(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "Google Drive disconnected", nil)
}

// ListFolder godoc
// @Summary Browse movie folder
// @Description List videos and subfolders in a Drive folder
// @Tags Movies
// @Produce json
// @Security BearerAuth
// @Param folder_id query string false "Folder ID, defaults to the configured root"
// @Success 200 {object} response.Response{data=[]response.MovieResponse}
// @Failure 401 {object} response.Response
// @Router /api/movies [get]
func (h *MovieHandler) ListFolder(c *gin.Context) {
	userID := middleware.GetUserID(c)
	folderID := c.Query("folder_id")

	items, err := h.movieService.ListFolder(c.Request.Context(), userID, folderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMovieListResponse(items))
}

// Search godoc
// @Summary Search movies
// @Description Full text search over known movie names
// @Tags Movies
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Param limit query int false "Max results" default(20)
// @Success 200 {object} response.Response{data=[]response.MovieResponse}
// @Failure 400 {object} response.Response
// @Router /api/movies/search [get]
func (h *MovieHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	items, err := h.movieService.Search(c.Request.Context(), query, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMovieListResponse(items))
}

// Recent godoc
// @Summary Recently seen movies
// @Description List most recently indexed videos
// @Tags Movies
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max results" default(20)
// @Success 200 {object} response.Response{data=[]response.MovieResponse}
// @Router /api/movies/recent [get]
func (h *MovieHandler) Recent(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	items, err := h.movieService.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMovieListResponse(items))
}

// Metadata godoc
// @Summary Get movie metadata
// @Description Get stored metadata for a single file
// @Tags Movies
// @Produce json
// @Security BearerAuth
// @Param file_id path string true "File ID"
// @Success 200 {object} response.Response{data=response.MovieResponse}
// @Failure 404 {object} response.Response
// @Router /api/movies/{file_id} [get]
func (h *MovieHandler) Metadata(c *gin.Context) {
	fileID := c.Param("file_id")

	item, err := h.movieService.Metadata(c.Request.Context(), fileID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewMovieResponse(item))
}

// StreamLink godoc
// @Summary Get stream link
// @Description Get a playable stream URL and access token for a file
// @Tags Movies
// @Produce json
// @Security BearerAuth
// @Param file_id path string true "File ID"
// @Success 200 {object} response.Response{data=response.StreamLinkResponse}
// @Failure 401 {object} response.Response
// @Router /api/movies/{file_id}/stream [get]
func (h *MovieHandler) StreamLink(c *gin.Context) {
	userID := middleware.GetUserID(c)
	fileID := c.Param("file_id")
	if fileID == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	streamURL, accessToken, err := h.movieService.StreamLink(c.Request.Context(), userID, fileID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &response.StreamLinkResponse{
		FileID:      fileID,
		StreamURL:   streamURL,
		AccessToken: accessToken,
	})
}
