package certificates

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventia/backend/internal/middleware"
	"github.com/eventia/backend/pkg/response"
)

// Handler handles certificate HTTP endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a certificates handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, repo: repo, logger: logger}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Generate handles POST /admin/events/:id/certificates/:registrationId.
func (h *Handler) Generate(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	registrationID, ok := pathID(c, "registrationId")
	if !ok {
		return
	}
	res, err := h.service.Generate(c.Request.Context(), eventID, registrationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrNoCertificate):
			response.BadRequest(c, "event does not issue certificates")
		case errors.Is(err, ErrRegistrationNotFound):
			response.NotFound(c, "registration not found for this event")
		default:
			h.logger.Error("certificate generation failed", zap.Error(err),
				zap.Int64("event_id", eventID), zap.Int64("registration_id", registrationID))
			response.Internal(c, "failed to generate certificate")
		}
		return
	}
	response.OK(c, res)
}

// GenerateBulk handles POST /admin/events/:id/certificates.
func (h *Handler) GenerateBulk(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.GenerateBulk(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("bulk certificate generation failed", zap.Error(err), zap.Int64("event_id", eventID))
		response.Internal(c, "failed to generate certificates")
		return
	}
	response.OK(c, items)
}

// GetMine handles GET /events/:id/certificate. Returns the caller's
// certificate for the event; archived events stay accessible.
func (h *Handler) GetMine(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	cert, err := h.repo.GetByUserEvent(c.Request.Context(), middleware.UserID(c), eventID)
	if err != nil {
		response.Internal(c, "failed to load certificate")
		return
	}
	if cert == nil {
		response.NotFound(c, "certificate not found")
		return
	}
	response.OK(c, cert)
}
