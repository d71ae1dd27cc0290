package attendance

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventia/backend/pkg/response"
)

// CheckInRequest is the body for POST /checkin.
type CheckInRequest struct {
	Token string `json:"token" binding:"required"`
}

// Handler handles attendance HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an attendance handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// CheckIn handles POST /checkin (admin or organizer, at the door).
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "token required")
		return
	}
	a, err := h.service.CheckIn(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenNotFound):
			response.NotFound(c, "token not found")
		case errors.Is(err, ErrTokenUsed):
			response.Conflict(c, "token already used")
		case errors.Is(err, ErrTokenExpired):
			response.BadRequest(c, "token expired")
		default:
			h.logger.Error("check-in failed", zap.Error(err))
			response.Internal(c, "failed to check in")
		}
		return
	}
	response.OK(c, a)
}
