package emaillogs

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/pkg/queue"
	"github.com/eventia/backend/pkg/response"
)

// EventStore fetches events for resend payloads.
type EventStore interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

// RegistrationStore fetches the contact snapshot for resend payloads.
type RegistrationStore interface {
	GetPrimaryByID(ctx context.Context, id int64) (*models.Registration, error)
}

// TokenStore fetches the active token being re-delivered.
type TokenStore interface {
	GetActiveByUserEvent(ctx context.Context, userID, eventID int64) (*models.AttendanceToken, error)
}

// EmailQueue enqueues outbound token emails.
type EmailQueue interface {
	EnqueueTokenEmail(ctx context.Context, payload queue.TokenEmailPayload) error
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   *Repository
	events EventStore
	regs   RegistrationStore
	tokens TokenStore
	emails EmailQueue
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, events EventStore, regs RegistrationStore, tokens TokenStore, emails EmailQueue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, events: events, regs: regs, tokens: tokens, emails: emails, logger: logger}
}

// ListByEvent handles GET /admin/events/:id/emails.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		response.BadRequest(c, "invalid event id")
		return
	}
	logs, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// ResendRequest is the body for POST /admin/events/:id/emails/resend.
type ResendRequest struct {
	RegistrationID int64 `json:"registration_id" binding:"required"`
}

// Resend handles POST /admin/events/:id/emails/resend. Re-enqueues the
// attendance token email for a registration whose token is still active.
func (h *Handler) Resend(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		response.BadRequest(c, "invalid event id")
		return
	}
	var body ResendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "registration_id required")
		return
	}

	ctx := c.Request.Context()
	reg, err := h.regs.GetPrimaryByID(ctx, body.RegistrationID)
	if err != nil || reg.EventID != eventID {
		response.NotFound(c, "registration not found for this event")
		return
	}
	tok, err := h.tokens.GetActiveByUserEvent(ctx, reg.UserID, eventID)
	if err != nil {
		response.Internal(c, "failed to load token")
		return
	}
	if tok == nil {
		response.NotFound(c, "no active token for this registration")
		return
	}
	event, err := h.events.GetByID(ctx, eventID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}

	err = h.emails.EnqueueTokenEmail(ctx, queue.TokenEmailPayload{
		RegistrationID: reg.ID,
		EventID:        eventID,
		RecipientEmail: reg.Email,
		RecipientName:  reg.FullName,
		EventTitle:     event.Title,
		Token:          tok.Token,
	})
	if err != nil {
		h.logger.Error("resend enqueue failed", zap.Error(err), zap.Int64("registration_id", reg.ID))
		response.Internal(c, "failed to queue email")
		return
	}
	response.OK(c, gin.H{"message": "resend queued"})
}
