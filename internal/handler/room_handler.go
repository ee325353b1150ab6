package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opsatya/cinemaSync/internal/dto/request"
	"github.com/opsatya/cinemaSync/internal/dto/response"
	"github.com/opsatya/cinemaSync/internal/middleware"
	"github.com/opsatya/cinemaSync/internal/model"
	"github.com/opsatya/cinemaSync/internal/service"
)

// RoomNotifier fans committed room events out to connected websocket
// clients, so writes made over REST reach subscribers too.
type RoomNotifier interface {
	NotifyUserJoined(roomID, userID string, room *model.Room)
	NotifyUserLeft(roomID, userID string, room *model.Room)
	NotifyPlaybackUpdated(roomID, updatedBy string, room *model.Room)
	NotifyRoomDeactivated(roomID string)
}

type RoomHandler struct {
	roomService *service.RoomService
	notifier    RoomNotifier
}

func NewRoomHandler(roomService *service.RoomService, notifier RoomNotifier) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		notifier:    notifier,
	}
}

// Create godoc
// @Summary Create room
// @Description Create a new watch room with the caller as host
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.CreateRoomRequest true "Room data"
// @Success 201 {object} response.Response{data=response.RoomResponse}
// @Failure 400 {object} response.Response
// @Router /api/rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req request.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	userID := middleware.GetUserID(c)

	input := &service.CreateRoomInput{
		HostID:          userID,
		Name:            req.Name,
		Description:     req.Description,
		Password:        req.Password,
		IsPrivate:       req.IsPrivate,
		EnableChat:      req.EnableChat,
		EnableReactions: req.EnableReactions,
		MaxParticipants: req.MaxParticipants,
	}
	if req.MovieSource != nil {
		input.MovieSource = model.MovieSource{
			Type:    model.MovieSourceType(req.MovieSource.Type),
			VideoID: req.MovieSource.VideoID,
			Value:   req.MovieSource.Value,
			Name:    req.MovieSource.Name,
		}
	}

	room, err := h.roomService.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, response.NewRoomResponse(room))
}

// GetByID godoc
// @Summary Get room details
// @Description Get detailed information for a room
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response{data=response.RoomResponse}
// @Failure 404 {object} response.Response
// @Router /api/rooms/{id} [get]
func (h *RoomHandler) GetByID(c *gin.Context) {
	roomID := c.Param("id")

	room, err := h.roomService.GetByID(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomResponse(room))
}

// List godoc
// @Summary List public rooms
// @Description List active public rooms, newest first
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} response.Response{data=response.PaginatedResponse}
// @Router /api/rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rooms, err := h.roomService.ListActivePublic(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := response.NewRoomListResponse(rooms)
	response.Success(c, response.NewPaginatedResponse(items, len(items), limit, offset))
}

// ListMine godoc
// @Summary List my rooms
// @Description List rooms the caller participates in, including ended ones
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]response.RoomResponse}
// @Router /api/rooms/mine [get]
func (h *RoomHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)

	rooms, err := h.roomService.ListByParticipant(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomListResponse(rooms))
}

// Join godoc
// @Summary Join room
// @Description Join a room as the authenticated user
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param request body request.JoinRoomRequest false "Join options"
// @Success 200 {object} response.Response{data=response.RoomResponse}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/rooms/{id}/join [post]
func (h *RoomHandler) Join(c *gin.Context) {
	roomID := c.Param("id")
	userID := middleware.GetUserID(c)

	var req request.JoinRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	room, err := h.roomService.Join(c.Request.Context(), roomID, userID, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.notifier.NotifyUserJoined(roomID, userID, room)
	response.Success(c, response.NewRoomResponse(room))
}

// Leave godoc
// @Summary Leave room
// @Description Leave a room; leaving a room you are not in succeeds
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response{data=response.RoomResponse}
// @Failure 404 {object} response.Response
// @Router /api/rooms/{id}/leave [post]
func (h *RoomHandler) Leave(c *gin.Context) {
	roomID := c.Param("id")
	userID := middleware.GetUserID(c)

	room, deactivated, err := h.roomService.Leave(c.Request.Context(), roomID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.notifier.NotifyUserLeft(roomID, userID, room)
	if deactivated {
		h.notifier.NotifyRoomDeactivated(roomID)
	}
	response.Success(c, response.NewRoomResponse(room))
}

// Update godoc
// @Summary Update room configuration
// @Description Update room settings; host only
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param request body request.UpdateRoomRequest true "Settings to change"
// @Success 200 {object} response.Response{data=response.RoomResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/rooms/{id} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	roomID := c.Param("id")
	userID := middleware.GetUserID(c)

	var req request.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	room, err := h.roomService.UpdateConfig(c.Request.Context(), &service.UpdateConfigInput{
		RoomID:          roomID,
		CallerID:        userID,
		Name:            req.Name,
		Description:     req.Description,
		IsPrivate:       req.IsPrivate,
		EnableChat:      req.EnableChat,
		EnableReactions: req.EnableReactions,
		MaxParticipants: req.MaxParticipants,
		Password:        req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, response.NewRoomResponse(room))
}

// Deactivate godoc
// @Summary End room session
// @Description Deactivate a room; host only, idempotent
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Success 200 {object} response.Response{data=response.RoomResponse}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/rooms/{id} [delete]
func (h *RoomHandler) Deactivate(c *gin.Context) {
	roomID := c.Param("id")
	userID := middleware.GetUserID(c)

	room, err := h.roomService.Deactivate(c.Request.Context(), roomID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.notifier.NotifyRoomDeactivated(roomID)
	response.Success(c, response.NewRoomResponse(room))
}

// UpdatePlayback godoc
// @Summary Update playback state
// @Description Apply a play, pause or seek; host only
// @Tags Rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param request body request.UpdatePlaybackRequest true "Playback state"
// @Success 200 {object} response.Response{data=response.RoomResponse}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/rooms/{id}/playback [put]
func (h *RoomHandler) UpdatePlayback(c *gin.Context) {
	roomID := c.Param("id")
	userID := middleware.GetUserID(c)

	var req request.UpdatePlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	room, err := h.roomService.SetPlaybackState(c.Request.Context(), roomID, userID, service.PlaybackInput{
		IsPlaying:   req.IsPlaying,
		CurrentTime: req.CurrentTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.notifier.NotifyPlaybackUpdated(roomID, userID, room)
	response.Success(c, response.NewRoomResponse(room))
}
