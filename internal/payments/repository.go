package payments

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventia/backend/internal/models"
)

// Detail is a payment joined with the registration and participant it
// belongs to, as needed by the reconciler.
type Detail struct {
	Payment        models.Payment
	OperationalID  int64
	PrimaryID      int64
	UserID         int64
	EventID        int64
	RecipientEmail string
	RecipientName  string
	EventTitle     string
}

// Repository handles payment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a payment row for a checkout.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	const q = `INSERT INTO payments (registration_id, order_id, amount, status, gateway_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.RegistrationID, p.OrderID, p.Amount, models.GatewayStatusPending, p.GatewayToken).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetPendingByRegistration returns the open payment for a registration, or
// nil when none exists.
func (r *Repository) GetPendingByRegistration(ctx context.Context, registrationID int64) (*models.Payment, error) {
	const q = `SELECT id, registration_id, order_id, amount, status, gateway_token, payment_type, transaction_time, created_at, updated_at
		FROM payments WHERE registration_id = $1 AND status = 'pending'
		ORDER BY created_at DESC LIMIT 1`
	var p models.Payment
	err := r.pool.QueryRow(ctx, q, registrationID).Scan(&p.ID, &p.RegistrationID, &p.OrderID, &p.Amount,
		&p.Status, &p.GatewayToken, &p.PaymentType, &p.TransactionTime, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetDetailByOrderID resolves a gateway order back to its registration,
// participant contact snapshot and event.
func (r *Repository) GetDetailByOrderID(ctx context.Context, orderID string) (*Detail, error) {
	const q = `SELECT p.id, p.registration_id, p.order_id, p.amount, p.status, p.gateway_token,
			p.payment_type, p.transaction_time, p.created_at, p.updated_at,
			er.id, er.registration_id, er.user_id, er.event_id,
			reg.email, reg.full_name, e.title
		FROM payments p
		JOIN event_registrations er ON er.id = p.registration_id
		JOIN registrations reg ON reg.id = er.registration_id
		JOIN events e ON e.id = er.event_id
		WHERE p.order_id = $1`
	var d Detail
	err := r.pool.QueryRow(ctx, q, orderID).Scan(
		&d.Payment.ID, &d.Payment.RegistrationID, &d.Payment.OrderID, &d.Payment.Amount, &d.Payment.Status,
		&d.Payment.GatewayToken, &d.Payment.PaymentType, &d.Payment.TransactionTime,
		&d.Payment.CreatedAt, &d.Payment.UpdatedAt,
		&d.OperationalID, &d.PrimaryID, &d.UserID, &d.EventID,
		&d.RecipientEmail, &d.RecipientName, &d.EventTitle)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatus records the reconciled status of a payment. Safe to apply
// repeatedly: retried webhook deliveries converge on the same end state.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status, paymentType string, transactionTime *time.Time) error {
	const q = `UPDATE payments SET status = $1,
		payment_type = COALESCE(NULLIF($2, ''), payment_type),
		transaction_time = COALESCE($3, transaction_time),
		updated_at = NOW()
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, status, paymentType, transactionTime, id)
	return err
}
