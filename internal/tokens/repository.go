package tokens

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventia/backend/internal/models"
)

const tokenColumns = `id, registration_id, user_id, event_id, token, is_used, used_at, expires_at, created_at`

// Repository handles attendance token persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a token repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanToken(row pgx.Row) (*models.AttendanceToken, error) {
	var t models.AttendanceToken
	err := row.Scan(&t.ID, &t.RegistrationID, &t.UserID, &t.EventID, &t.Token, &t.IsUsed, &t.UsedAt, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetActiveByUserEvent returns the unused token for a (user, event) pair,
// or nil when none exists.
func (r *Repository) GetActiveByUserEvent(ctx context.Context, userID, eventID int64) (*models.AttendanceToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM attendance_tokens
		WHERE user_id = $1 AND event_id = $2 AND NOT is_used
		ORDER BY created_at DESC LIMIT 1`
	t, err := scanToken(r.pool.QueryRow(ctx, q, userID, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// GetByCode returns a token by its code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.AttendanceToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM attendance_tokens WHERE token = $1`
	t, err := scanToken(r.pool.QueryRow(ctx, q, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// Create inserts an attendance token.
func (r *Repository) Create(ctx context.Context, t *models.AttendanceToken) error {
	const q = `INSERT INTO attendance_tokens (registration_id, user_id, event_id, token, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_used, used_at, created_at`
	return r.pool.QueryRow(ctx, q, t.RegistrationID, t.UserID, t.EventID, t.Token, t.ExpiresAt).
		Scan(&t.ID, &t.IsUsed, &t.UsedAt, &t.CreatedAt)
}

// MarkUsed consumes a token. Only flips unused rows.
func (r *Repository) MarkUsed(ctx context.Context, id int64) error {
	const q = `UPDATE attendance_tokens SET is_used = TRUE, used_at = NOW() WHERE id = $1 AND NOT is_used`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}
