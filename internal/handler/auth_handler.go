package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsatya/cinemaSync/internal/dto/request"
	"github.com/opsatya/cinemaSync/internal/dto/response"
	"github.com/opsatya/cinemaSync/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Exchange godoc
// @Summary Exchange session token
// @Description Exchange an external identity for a backend session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body request.ExchangeTokenRequest true "Identity"
// @Success 200 {object} response.Response{data=response.ExchangeTokenResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/auth/exchange [post]
func (h *AuthHandler) Exchange(c *gin.Context) {
	var req request.ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Exchange(c.Request.Context(), &service.ExchangeInput{
		UserID:     req.UserID,
		Name:       req.Name,
		Email:      req.Email,
		Credential: req.Credential,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &response.ExchangeTokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		UserID:    result.Identity.UserID,
		Name:      result.Identity.Name,
		Email:     result.Identity.Email,
	})
}
