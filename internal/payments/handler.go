package payments

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventia/backend/internal/middleware"
	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/internal/registrations"
	"github.com/eventia/backend/pkg/response"
)

// Handler handles payment HTTP endpoints.
type Handler struct {
	reconciler *Reconciler
	repo       *Repository
	regRepo    *registrations.Repository
	logger     *zap.Logger
}

// NewHandler creates a payments handler.
func NewHandler(reconciler *Reconciler, repo *Repository, regRepo *registrations.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reconciler: reconciler, repo: repo, regRepo: regRepo, logger: logger}
}

// Notify handles POST /webhooks/payment. The gateway retries on non-2xx,
// so the response shape follows its contract rather than the API envelope:
// 200 {"status":"OK"} once the payment record is updated, regardless of
// downstream token or email trouble.
func (h *Handler) Notify(c *gin.Context) {
	var n Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "ERROR", "message": "invalid notification body"})
		return
	}

	status, err := h.reconciler.HandleNotification(c.Request.Context(), n)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingOrderID):
			c.JSON(http.StatusBadRequest, gin.H{"status": "ERROR", "message": "order_id is required"})
		case errors.Is(err, ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"status": "ERROR", "message": "unknown order_id"})
		default:
			h.logger.Error("webhook processing failed", zap.Error(err), zap.String("order_id", n.OrderID))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "ERROR", "message": "failed to process notification"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK", "payment_status": status})
}

// Checkout handles POST /registrations/:id/checkout. Opens a gateway order
// for the caller's pending paid registration. Idempotent: an existing open
// payment is returned instead of minting a second order.
func (h *Handler) Checkout(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid registration id")
		return
	}

	er, err := h.regRepo.GetOperationalByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "registration not found")
		return
	}
	if er.UserID != middleware.UserID(c) {
		response.Forbidden(c, "not your registration")
		return
	}
	if er.Status != models.RegistrationStatusPending || er.PaymentStatus != models.PaymentStatusPending {
		response.Conflict(c, "registration is not awaiting payment")
		return
	}

	if existing, err := h.repo.GetPendingByRegistration(c.Request.Context(), er.ID); err == nil && existing != nil {
		response.OK(c, existing)
		return
	}

	p := &models.Payment{
		RegistrationID: er.ID,
		OrderID:        OrderID(er.EventID, er.UserID),
		Amount:         er.PaymentAmount,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create payment failed", zap.Error(err), zap.Int64("registration_id", er.ID))
		response.Internal(c, "failed to create payment")
		return
	}
	response.Created(c, p)
}

// OrderID builds the gateway order id for an event/user pair. The
// timestamp suffix keeps retried checkouts distinct while the order itself
// stays the webhook idempotency key.
func OrderID(eventID, userID int64) string {
	return fmt.Sprintf("EVENT-%d-%d-%d", eventID, userID, timeNow().Unix())
}

// timeNow is swapped in tests.
var timeNow = time.Now
