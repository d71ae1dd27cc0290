package certificates

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventia/backend/internal/models"
)

// Repository handles certificate and template persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a certificates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetActiveTemplate returns the active certificate template, or nil when
// none is configured.
func (r *Repository) GetActiveTemplate(ctx context.Context) (*models.CertificateTemplate, error) {
	const q = `SELECT id, name, title, subtitle, content, footer, signature, is_active, created_at, updated_at
		FROM certificate_templates WHERE is_active ORDER BY updated_at DESC LIMIT 1`
	var t models.CertificateTemplate
	err := r.pool.QueryRow(ctx, q).Scan(&t.ID, &t.Name, &t.Title, &t.Subtitle, &t.Content, &t.Footer,
		&t.Signature, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert inserts a certificate or refreshes the existing one for the
// (user, event) pair. The original certificate number survives
// regeneration; only the rendered snapshot and attendance link update.
func (r *Repository) Upsert(ctx context.Context, cert *models.Certificate) error {
	const q = `INSERT INTO certificates (user_id, event_id, attendance_record_id, certificate_number, status, template_data)
		VALUES ($1, $2, $3, $4, 'issued', $5)
		ON CONFLICT (user_id, event_id) DO UPDATE SET
			attendance_record_id = EXCLUDED.attendance_record_id,
			template_data = EXCLUDED.template_data,
			status = 'issued',
			updated_at = NOW()
		RETURNING id, certificate_number, status, issued_at, updated_at`
	return r.pool.QueryRow(ctx, q, cert.UserID, cert.EventID, cert.AttendanceRecordID,
		cert.CertificateNumber, cert.TemplateData).
		Scan(&cert.ID, &cert.CertificateNumber, &cert.Status, &cert.IssuedAt, &cert.UpdatedAt)
}

// GetByUserEvent returns the certificate for a (user, event) pair.
func (r *Repository) GetByUserEvent(ctx context.Context, userID, eventID int64) (*models.Certificate, error) {
	const q = `SELECT id, user_id, event_id, attendance_record_id, certificate_number, status, template_data, issued_at, updated_at
		FROM certificates WHERE user_id = $1 AND event_id = $2`
	var cert models.Certificate
	err := r.pool.QueryRow(ctx, q, userID, eventID).Scan(&cert.ID, &cert.UserID, &cert.EventID,
		&cert.AttendanceRecordID, &cert.CertificateNumber, &cert.Status, &cert.TemplateData,
		&cert.IssuedAt, &cert.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
