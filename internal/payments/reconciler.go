package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/internal/tokens"
)

var (
	// ErrMissingOrderID is returned when the notification has no order_id.
	ErrMissingOrderID = errors.New("missing order_id")
	// ErrPaymentNotFound is returned when no payment matches the order_id.
	ErrPaymentNotFound = errors.New("payment not found")
)

// Notification is the gateway webhook body the reconciler consumes.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
}

// Store reads and updates payment rows.
type Store interface {
	GetDetailByOrderID(ctx context.Context, orderID string) (*Detail, error)
	UpdateStatus(ctx context.Context, id int64, status, paymentType string, transactionTime *time.Time) error
}

// RegistrationStore flips registration state on reconciliation.
type RegistrationStore interface {
	Confirm(ctx context.Context, operationalID int64) error
	Fail(ctx context.Context, operationalID int64) error
}

// EventStore fetches the event for token expiry computation. Lookups here
// ignore the active flag: an archived event can still settle a payment.
type EventStore interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

// TokenIssuer creates attendance tokens for paid registrations.
type TokenIssuer interface {
	Issue(ctx context.Context, p tokens.IssueParams) (*models.AttendanceToken, error)
}

// Reconciler aligns internal payment and registration state with
// gateway-reported truth.
type Reconciler struct {
	store  Store
	regs   RegistrationStore
	events EventStore
	tokens TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

// NewReconciler creates a payment reconciler.
func NewReconciler(store Store, regs RegistrationStore, events EventStore, tokens TokenIssuer, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, regs: regs, events: events, tokens: tokens, logger: logger, now: time.Now}
}

// HandleNotification processes one webhook delivery and returns the
// reconciled payment status. An error return means the payment record
// itself could not be located or updated; every downstream problem
// (registration flip, token, email) is logged and swallowed so the
// gateway sees success and does not re-drive the payment flow.
func (r *Reconciler) HandleNotification(ctx context.Context, n Notification) (string, error) {
	if n.OrderID == "" {
		return "", ErrMissingOrderID
	}

	detail, err := r.store.GetDetailByOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return "", err
		}
		return "", fmt.Errorf("lookup order %s: %w", n.OrderID, err)
	}

	status := MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	if err := r.store.UpdateStatus(ctx, detail.Payment.ID, status, n.PaymentType, parseTransactionTime(n.TransactionTime)); err != nil {
		return "", fmt.Errorf("update payment %d: %w", detail.Payment.ID, err)
	}

	switch status {
	case models.GatewayStatusSuccess:
		r.settle(ctx, detail)
	case models.GatewayStatusFailed:
		if err := r.regs.Fail(ctx, detail.OperationalID); err != nil {
			r.logger.Error("mark registration failed",
				zap.Error(err), zap.Int64("registration_id", detail.OperationalID))
		}
	}

	r.logger.Info("payment reconciled",
		zap.String("order_id", n.OrderID),
		zap.String("transaction_status", n.TransactionStatus),
		zap.String("status", status))
	return status, nil
}

// settle confirms the registration pair and issues the attendance token.
// Token issuance is idempotent, so retried success notifications for the
// same order never mint a second token.
func (r *Reconciler) settle(ctx context.Context, detail *Detail) {
	if err := r.regs.Confirm(ctx, detail.OperationalID); err != nil {
		r.logger.Error("confirm registration",
			zap.Error(err), zap.Int64("registration_id", detail.OperationalID))
		return
	}

	expiresAt := r.now().Add(24 * time.Hour)
	if event, err := r.events.GetByID(ctx, detail.EventID); err == nil {
		expiresAt = event.AttendanceDeadline(r.now())
	}

	_, err := r.tokens.Issue(ctx, tokens.IssueParams{
		RegistrationID: detail.PrimaryID,
		UserID:         detail.UserID,
		EventID:        detail.EventID,
		EventTitle:     detail.EventTitle,
		RecipientEmail: detail.RecipientEmail,
		RecipientName:  detail.RecipientName,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		r.logger.Error("token issue after settlement",
			zap.Error(err), zap.Int64("registration_id", detail.PrimaryID))
	}
}

func parseTransactionTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return nil
	}
	return &t
}
