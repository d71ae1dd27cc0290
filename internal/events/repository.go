package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventia/backend/internal/models"
)

var (
	// ErrNotFound is returned when an event does not exist or is inactive.
	ErrNotFound = errors.New("event not found")
	// ErrHasRegistrations is returned when deleting an event that still has registrations.
	ErrHasRegistrations = errors.New("event has registrations")
)

const eventColumns = `id, title, description, event_date, COALESCE(event_time,'00:00:00'), end_date, end_time,
	COALESCE(location,''), COALESCE(city,''), COALESCE(province,''), COALESCE(organizer_name,''),
	max_participants, price, is_free, has_certificate, status, is_active, is_highlighted,
	created_by, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.EventDate, &e.EventTime, &e.EndDate, &e.EndTime,
		&e.Location, &e.City, &e.Province, &e.OrganizerName,
		&e.MaxParticipants, &e.Price, &e.IsFree, &e.HasCertificate, &e.Status, &e.IsActive, &e.IsHighlighted,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetByID returns an event by ID regardless of its active flag.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// GetActive returns an event only if it is still active.
func (r *Repository) GetActive(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND is_active`, id))
}

// Create inserts a new event in draft status.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (title, description, event_date, event_time, end_date, end_time,
		location, city, province, organizer_name, max_participants, price, is_free, has_certificate, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, status, is_active, is_highlighted, created_at, updated_at`
	status := e.Status
	if status == "" {
		status = models.EventStatusDraft
	}
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.EventDate, e.EventTime, e.EndDate, e.EndTime,
		e.Location, e.City, e.Province, e.OrganizerName, e.MaxParticipants, e.Price, e.IsFree, e.HasCertificate,
		status, e.CreatedBy).
		Scan(&e.ID, &e.Status, &e.IsActive, &e.IsHighlighted, &e.CreatedAt, &e.UpdatedAt)
}

// Update applies admin edits to an event.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET title = $1, description = $2, event_date = $3, event_time = $4,
		end_date = $5, end_time = $6, location = $7, city = $8, province = $9, organizer_name = $10,
		max_participants = $11, price = $12, is_free = $13, has_certificate = $14, status = $15,
		updated_at = NOW()
		WHERE id = $16`
	tag, err := r.pool.Exec(ctx, q, e.Title, e.Description, e.EventDate, e.EventTime,
		e.EndDate, e.EndTime, e.Location, e.City, e.Province, e.OrganizerName,
		e.MaxParticipants, e.Price, e.IsFree, e.HasCertificate, e.Status, e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPublic returns active published events for the public listing.
func (r *Repository) ListPublic(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, `WHERE is_active AND status = 'published'`)
}

// ListAll returns every event for admin screens, archived ones included.
func (r *Repository) ListAll(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, ``)
}

func (r *Repository) list(ctx context.Context, cond string) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events `+cond+` ORDER BY event_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// SetHighlighted makes the given event the single highlighted one.
// Clear-all then set-one inside a transaction so the partial unique index
// on events(is_highlighted) never trips.
func (r *Repository) SetHighlighted(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE events SET is_highlighted = FALSE, updated_at = NOW() WHERE is_highlighted`); err != nil {
		return fmt.Errorf("clear highlight: %w", err)
	}
	tag, err := tx.Exec(ctx, `UPDATE events SET is_highlighted = TRUE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("set highlight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// Archive soft-deletes an ended event: it disappears from public listings
// but registrations, payments and certificates stay queryable.
func (r *Repository) Archive(ctx context.Context, id int64) error {
	const q = `UPDATE events SET is_active = FALSE, status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, models.EventStatusCompleted, id)
	return err
}

// Delete hard-deletes an event. Refused while registrations exist; archive instead.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrHasRegistrations
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
