package registrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventia/backend/internal/models"
)

const operationalColumns = `id, registration_id, user_id, event_id, status, payment_status,
	payment_amount, payment_method, attendance_required, attendance_status, attendance_deadline,
	created_at, updated_at`

// CreateParams carries everything needed for the atomic two-table insert.
type CreateParams struct {
	UserID             int64
	EventID            int64
	FullName           string
	Email              string
	Phone              string
	Address            string
	City               string
	Province           string
	Institution        string
	Notes              string
	Status             string
	PaymentStatus      string
	PaymentAmount      int64
	PaymentMethod      string
	AttendanceRequired bool
	AttendanceDeadline time.Time
}

// Repository handles registration persistence across the split schema:
// registrations (contact snapshot) and event_registrations (status authority).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOperational(row pgx.Row) (*models.EventRegistration, error) {
	var er models.EventRegistration
	err := row.Scan(&er.ID, &er.RegistrationID, &er.UserID, &er.EventID, &er.Status, &er.PaymentStatus,
		&er.PaymentAmount, &er.PaymentMethod, &er.AttendanceRequired, &er.AttendanceStatus, &er.AttendanceDeadline,
		&er.CreatedAt, &er.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &er, nil
}

// CreatePair writes the primary and operational registration rows in a
// single transaction. The event row is locked first so the capacity count
// cannot be raced past by a concurrent registration, then the duplicate
// and capacity checks run against the locked snapshot. Either both rows
// commit or neither does.
func (r *Repository) CreatePair(ctx context.Context, p CreateParams) (*models.EventRegistration, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var maxParticipants *int
	err = tx.QueryRow(ctx, `SELECT max_participants FROM events WHERE id = $1 FOR UPDATE`, p.EventID).
		Scan(&maxParticipants)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM event_registrations WHERE user_id = $1 AND event_id = $2`, p.UserID, p.EventID).
		Scan(&exists)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}

	if maxParticipants != nil {
		var count int
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations
			WHERE event_id = $1 AND status IN ($2, $3)`,
			p.EventID, models.RegistrationStatusConfirmed, models.RegistrationStatusApproved).
			Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("capacity count: %w", err)
		}
		if count >= *maxParticipants {
			return nil, ErrEventFull
		}
	}

	var primaryID int64
	err = tx.QueryRow(ctx, `INSERT INTO registrations
		(user_id, event_id, full_name, email, phone, address, city, province, institution, notes,
		 status, payment_status, payment_amount, payment_method, attendance_required, attendance_deadline)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id`,
		p.UserID, p.EventID, p.FullName, p.Email, p.Phone, p.Address, p.City, p.Province, p.Institution, p.Notes,
		p.Status, p.PaymentStatus, p.PaymentAmount, p.PaymentMethod, p.AttendanceRequired, p.AttendanceDeadline).
		Scan(&primaryID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert primary registration: %w", err)
	}

	er, err := scanOperational(tx.QueryRow(ctx, `INSERT INTO event_registrations
		(registration_id, user_id, event_id, status, payment_status, payment_amount, payment_method,
		 attendance_required, attendance_deadline)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+operationalColumns,
		primaryID, p.UserID, p.EventID, p.Status, p.PaymentStatus, p.PaymentAmount, p.PaymentMethod,
		p.AttendanceRequired, p.AttendanceDeadline))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert operational registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return er, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetOperationalByID returns an operational registration row.
func (r *Repository) GetOperationalByID(ctx context.Context, id int64) (*models.EventRegistration, error) {
	er, err := scanOperational(r.pool.QueryRow(ctx,
		`SELECT `+operationalColumns+` FROM event_registrations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	return er, err
}

// GetOperationalForEvent returns the operational row for a registration id
// scoped to an event, for certificate issuance.
func (r *Repository) GetOperationalForEvent(ctx context.Context, id, eventID int64) (*models.EventRegistration, error) {
	er, err := scanOperational(r.pool.QueryRow(ctx,
		`SELECT `+operationalColumns+` FROM event_registrations WHERE id = $1 AND event_id = $2`, id, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	return er, err
}

// GetPrimaryByID returns a primary registration row.
func (r *Repository) GetPrimaryByID(ctx context.Context, id int64) (*models.Registration, error) {
	const q = `SELECT id, user_id, event_id, full_name, email, phone, address, city, province, institution, notes,
		status, payment_status, payment_amount, payment_method, attendance_required, attendance_deadline,
		created_at, updated_at
		FROM registrations WHERE id = $1`
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, id).Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.FullName, &reg.Email,
		&reg.Phone, &reg.Address, &reg.City, &reg.Province, &reg.Institution, &reg.Notes,
		&reg.Status, &reg.PaymentStatus, &reg.PaymentAmount, &reg.PaymentMethod,
		&reg.AttendanceRequired, &reg.AttendanceDeadline, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// ListByUser returns a user's operational registrations, newest first.
// Archived events remain visible here.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.EventRegistration, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

// ListByEvent returns all operational registrations for an event.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	return r.list(ctx, `WHERE event_id = $1`, eventID)
}

// ListEligibleForCertificate returns approved or attended registrations for
// an event, for the bulk certificate run.
func (r *Repository) ListEligibleForCertificate(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	return r.list(ctx, `WHERE event_id = $1 AND status IN ('approved', 'attended')`, eventID)
}

func (r *Repository) list(ctx context.Context, cond string, args ...interface{}) ([]models.EventRegistration, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+operationalColumns+` FROM event_registrations `+cond+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EventRegistration
	for rows.Next() {
		er, err := scanOperational(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *er)
	}
	return list, rows.Err()
}

// Confirm flips both registration rows of a paid registration to
// confirmed/paid in one transaction. Idempotent. Takes the operational id.
func (r *Repository) Confirm(ctx context.Context, operationalID int64) error {
	return r.transition(ctx, operationalID,
		models.RegistrationStatusConfirmed, models.PaymentStatusPaid,
		models.RegistrationStatusConfirmed, models.PaymentStatusPaid)
}

// Fail marks a registration whose payment was cancelled, denied or expired.
func (r *Repository) Fail(ctx context.Context, operationalID int64) error {
	return r.transition(ctx, operationalID,
		models.RegistrationStatusCancelled, models.PaymentStatusFailed,
		models.RegistrationStatusFailed, models.PaymentStatusFailed)
}

// transition updates the operational row and its primary counterpart together.
func (r *Repository) transition(ctx context.Context, operationalID int64, opStatus, opPayment, primaryStatus, primaryPayment string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var primaryID int64
	err = tx.QueryRow(ctx, `UPDATE event_registrations SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3 RETURNING registration_id`, opStatus, opPayment, operationalID).
		Scan(&primaryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("update operational: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE registrations SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3`, primaryStatus, primaryPayment, primaryID); err != nil {
		return fmt.Errorf("update primary: %w", err)
	}
	return tx.Commit(ctx)
}

// Cancel sets a user's own pending registration to cancelled.
func (r *Repository) Cancel(ctx context.Context, operationalID, userID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var primaryID int64
	err = tx.QueryRow(ctx, `UPDATE event_registrations SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = $4 RETURNING registration_id`,
		models.RegistrationStatusCancelled, operationalID, userID, models.RegistrationStatusPending).
		Scan(&primaryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("cancel operational: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE registrations SET status = $1, updated_at = NOW() WHERE id = $2`,
		models.RegistrationStatusCancelled, primaryID); err != nil {
		return fmt.Errorf("cancel primary: %w", err)
	}
	return tx.Commit(ctx)
}
