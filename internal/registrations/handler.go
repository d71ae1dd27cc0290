package registrations

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventia/backend/internal/middleware"
	"github.com/eventia/backend/pkg/response"
)

// User-facing registration messages (Indonesian, matching the frontend).
const (
	msgEventNotFound      = "Event tidak ditemukan"
	msgRegistrationClosed = "Pendaftaran sudah ditutup"
	msgAlreadyRegistered  = "Anda sudah terdaftar pada event ini"
	msgEventFull          = "Event sudah penuh"
	msgInvalidDate        = "Format tanggal event tidak valid"
	msgInvalidName        = "Nama lengkap wajib diisi (minimal 2 karakter)"
	msgInvalidEmail       = "Alamat email tidak valid"
)

// RegisterRequest is the body for POST /events/:id/register.
type RegisterRequest struct {
	EventDate     string `json:"event_date"` // optional fresher date from the client, YYYY-MM-DD
	PaymentMethod string `json:"payment_method"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Province      string `json:"province"`
	Institution   string `json:"institution"`
	Notes         string `json:"notes"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	service *Service
	repo    *Repository
	logger  *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(service *Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, repo: repo, logger: logger}
}

// Register handles POST /events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	er, err := h.service.Register(c.Request.Context(), RegisterInput{
		UserID:        middleware.UserID(c),
		EventID:       eventID,
		EventDate:     req.EventDate,
		PaymentMethod: req.PaymentMethod,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		Province:      req.Province,
		Institution:   req.Institution,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, msgEventNotFound)
		case errors.Is(err, ErrRegistrationClosed):
			response.BadRequest(c, msgRegistrationClosed)
		case errors.Is(err, ErrInvalidDate):
			response.BadRequest(c, msgInvalidDate)
		case errors.Is(err, ErrInvalidName):
			response.BadRequest(c, msgInvalidName)
		case errors.Is(err, ErrInvalidEmail):
			response.BadRequest(c, msgInvalidEmail)
		case errors.Is(err, ErrAlreadyRegistered):
			response.Conflict(c, msgAlreadyRegistered)
		case errors.Is(err, ErrEventFull):
			response.Conflict(c, msgEventFull)
		default:
			h.logger.Error("registration failed", zap.Error(err), zap.Int64("event_id", eventID))
			response.Internal(c, "failed to register")
		}
		return
	}
	response.Created(c, er)
}

// ListMine handles GET /registrations. Returns the caller's registrations,
// archived events included.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.repo.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// Cancel handles POST /registrations/:id/cancel. Only the owner's pending
// registration can be cancelled.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid registration id")
		return
	}
	if err := h.repo.Cancel(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		if errors.Is(err, ErrRegistrationNotFound) {
			response.NotFound(c, "pending registration not found")
			return
		}
		response.Internal(c, "failed to cancel registration")
		return
	}
	response.OK(c, gin.H{"cancelled": id})
}

// ListByEvent handles GET /admin/events/:id/registrations.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}
