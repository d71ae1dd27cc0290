package attendance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventia/backend/internal/models"
)

// Repository handles attendance records and the check-in side effects on
// the operational registration row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByUserEvent returns the attendance record for a (user, event) pair,
// or nil when the participant never checked in.
func (r *Repository) GetByUserEvent(ctx context.Context, userID, eventID int64) (*models.Attendance, error) {
	const q = `SELECT id, user_id, event_id, token_id, checked_in_at
		FROM attendances WHERE user_id = $1 AND event_id = $2`
	var a models.Attendance
	err := r.pool.QueryRow(ctx, q, userID, eventID).Scan(&a.ID, &a.UserID, &a.EventID, &a.TokenID, &a.CheckedInAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an attendance record. A concurrent duplicate resolves to
// the existing row.
func (r *Repository) Create(ctx context.Context, a *models.Attendance) error {
	const q = `INSERT INTO attendances (user_id, event_id, token_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, event_id) DO UPDATE SET token_id = COALESCE(attendances.token_id, EXCLUDED.token_id)
		RETURNING id, checked_in_at`
	return r.pool.QueryRow(ctx, q, a.UserID, a.EventID, a.TokenID).Scan(&a.ID, &a.CheckedInAt)
}

// MarkPresent records a successful check-in on the operational
// registration row.
func (r *Repository) MarkPresent(ctx context.Context, userID, eventID int64) error {
	const q = `UPDATE event_registrations
		SET attendance_status = $1, status = $2, updated_at = NOW()
		WHERE user_id = $3 AND event_id = $4 AND status <> $5`
	_, err := r.pool.Exec(ctx, q,
		models.AttendanceStatusPresent, models.RegistrationStatusAttended,
		userID, eventID, models.RegistrationStatusCancelled)
	return err
}
