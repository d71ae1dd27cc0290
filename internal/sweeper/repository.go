package sweeper

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventia/backend/internal/models"
)

// Repository implements Store against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sweeper repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListExpiredPendingAttendance returns registrations that required
// attendance, never checked in, and whose deadline has passed.
func (r *Repository) ListExpiredPendingAttendance(ctx context.Context, now time.Time) ([]models.EventRegistration, error) {
	const q = `SELECT id, registration_id, user_id, event_id, status, payment_status,
			payment_amount, payment_method, attendance_required, attendance_status, attendance_deadline,
			created_at, updated_at
		FROM event_registrations
		WHERE attendance_required
		  AND attendance_status = $1
		  AND status <> $2
		  AND attendance_deadline < $3`
	rows, err := r.pool.Query(ctx, q, models.AttendanceStatusPending, models.RegistrationStatusCancelled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EventRegistration
	for rows.Next() {
		var er models.EventRegistration
		if err := rows.Scan(&er.ID, &er.RegistrationID, &er.UserID, &er.EventID, &er.Status, &er.PaymentStatus,
			&er.PaymentAmount, &er.PaymentMethod, &er.AttendanceRequired, &er.AttendanceStatus, &er.AttendanceDeadline,
			&er.CreatedAt, &er.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, er)
	}
	return list, rows.Err()
}

// MarkAbsent records a no-show: attendance absent, registration failed.
func (r *Repository) MarkAbsent(ctx context.Context, operationalID int64) error {
	const q = `UPDATE event_registrations
		SET attendance_status = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND attendance_status = $4`
	_, err := r.pool.Exec(ctx, q,
		models.AttendanceStatusAbsent, models.RegistrationStatusFailed,
		operationalID, models.AttendanceStatusPending)
	return err
}

// ListEndedCandidates returns active published events whose event_date is
// already past the cutoff date. The precise effective end is resolved by
// the caller; this query just bounds the candidate set.
func (r *Repository) ListEndedCandidates(ctx context.Context, cutoffDate time.Time) ([]models.Event, error) {
	const q = `SELECT id, title, description, event_date, COALESCE(event_time,'00:00:00'), end_date, end_time,
			COALESCE(location,''), COALESCE(city,''), COALESCE(province,''), COALESCE(organizer_name,''),
			max_participants, price, is_free, has_certificate, status, is_active, is_highlighted,
			created_by, created_at, updated_at
		FROM events
		WHERE is_active AND status = $1 AND event_date <= $2::date`
	rows, err := r.pool.Query(ctx, q, models.EventStatusPublished, cutoffDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.EventDate, &e.EventTime, &e.EndDate, &e.EndTime,
			&e.Location, &e.City, &e.Province, &e.OrganizerName,
			&e.MaxParticipants, &e.Price, &e.IsFree, &e.HasCertificate, &e.Status, &e.IsActive, &e.IsHighlighted,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// ArchiveEvent soft-deletes an ended event.
func (r *Repository) ArchiveEvent(ctx context.Context, id int64) error {
	const q = `UPDATE events SET is_active = FALSE, status = $1, updated_at = NOW()
		WHERE id = $2 AND is_active`
	_, err := r.pool.Exec(ctx, q, models.EventStatusCompleted, id)
	return err
}
