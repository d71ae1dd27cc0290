package certificates

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
)

var (
	// ErrEventNotFound is returned when the event does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrNoCertificate is returned when the event does not issue certificates.
	ErrNoCertificate = errors.New("event has no certificate")
	// ErrRegistrationNotFound is returned when the registration does not
	// exist for the event.
	ErrRegistrationNotFound = errors.New("registration not found")
)

// EventStore fetches events; archived events still yield certificates.
type EventStore interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

// RegistrationStore reads registration rows for certificate issuance.
type RegistrationStore interface {
	GetOperationalForEvent(ctx context.Context, id, eventID int64) (*models.EventRegistration, error)
	GetPrimaryByID(ctx context.Context, id int64) (*models.Registration, error)
	ListEligibleForCertificate(ctx context.Context, eventID int64) ([]models.EventRegistration, error)
}

// TemplateStore reads the active template.
type TemplateStore interface {
	GetActiveTemplate(ctx context.Context) (*models.CertificateTemplate, error)
}

// Store upserts certificates.
type Store interface {
	Upsert(ctx context.Context, cert *models.Certificate) error
}

// AttendanceEnsurer guarantees an attendance record backs the certificate.
type AttendanceEnsurer interface {
	Ensure(ctx context.Context, userID, eventID, primaryRegistrationID int64) (int64, error)
}

// Result is an issued certificate with its rendered text and the
// placeholder snapshot used to produce it.
type Result struct {
	Certificate  *models.Certificate `json:"certificate"`
	Rendered     Rendered            `json:"rendered"`
	Placeholders map[string]string   `json:"placeholders"`
}

// BulkItem is the per-participant outcome of a bulk generation run.
type BulkItem struct {
	RegistrationID    int64  `json:"registration_id"`
	UserID            int64  `json:"user_id"`
	CertificateNumber string `json:"certificate_number,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Service issues certificates from the active template.
type Service struct {
	events     EventStore
	regs       RegistrationStore
	templates  TemplateStore
	store      Store
	attendance AttendanceEnsurer
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a certificate service.
func NewService(events EventStore, regs RegistrationStore, templates TemplateStore, store Store, attendance AttendanceEnsurer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{events: events, regs: regs, templates: templates, store: store,
		attendance: attendance, logger: logger, now: time.Now}
}

// Generate issues (or regenerates) the certificate for one registration.
// Idempotent per (user, event): regeneration refreshes the stored snapshot
// without minting a new certificate number.
func (s *Service) Generate(ctx context.Context, eventID, registrationID int64) (*Result, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}
	if !event.HasCertificate {
		return nil, ErrNoCertificate
	}

	er, err := s.regs.GetOperationalForEvent(ctx, registrationID, eventID)
	if err != nil {
		return nil, ErrRegistrationNotFound
	}
	primary, err := s.regs.GetPrimaryByID(ctx, er.RegistrationID)
	if err != nil {
		return nil, fmt.Errorf("load contact snapshot: %w", err)
	}

	number := CertificateNumber(eventID, er.UserID)
	values := map[string]string{
		PlaceholderParticipantName:  primary.FullName,
		PlaceholderParticipantEmail: primary.Email,
		PlaceholderEventName:        event.Title,
		PlaceholderEventDate:        event.EventDate.Format("2 January 2006"),
		PlaceholderIssueDate:        s.now().Format("2 January 2006"),
		PlaceholderEventCity:        event.City,
		PlaceholderNumber:           number,
		PlaceholderOrganizer:        event.OrganizerName,
	}

	tmpl, err := s.templates.GetActiveTemplate(ctx)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if tmpl == nil {
		tmpl = &defaultTemplate
	}
	rendered := Render(tmpl, values)

	attendanceID, err := s.attendance.Ensure(ctx, er.UserID, eventID, er.RegistrationID)
	if err != nil {
		return nil, fmt.Errorf("ensure attendance: %w", err)
	}

	snapshot, err := json.Marshal(struct {
		Rendered     Rendered          `json:"rendered"`
		Placeholders map[string]string `json:"placeholders"`
	}{rendered, values})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	cert := &models.Certificate{
		UserID:             er.UserID,
		EventID:            eventID,
		AttendanceRecordID: attendanceID,
		CertificateNumber:  number,
		TemplateData:       snapshot,
	}
	if err := s.store.Upsert(ctx, cert); err != nil {
		return nil, fmt.Errorf("upsert certificate: %w", err)
	}

	return &Result{Certificate: cert, Rendered: rendered, Placeholders: values}, nil
}

// GenerateBulk issues certificates for every approved or attended
// registration of an event. Individual failures are collected, never fatal
// to the batch.
func (s *Service) GenerateBulk(ctx context.Context, eventID int64) ([]BulkItem, error) {
	list, err := s.regs.ListEligibleForCertificate(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	items := make([]BulkItem, 0, len(list))
	for _, er := range list {
		item := BulkItem{RegistrationID: er.ID, UserID: er.UserID}
		res, err := s.Generate(ctx, eventID, er.ID)
		if err != nil {
			s.logger.Warn("bulk certificate generation failed",
				zap.Error(err), zap.Int64("registration_id", er.ID))
			item.Error = err.Error()
		} else {
			item.CertificateNumber = res.Certificate.CertificateNumber
		}
		items = append(items, item)
	}
	return items, nil
}

const numberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CertificateNumber builds a certificate number for an event/user pair.
func CertificateNumber(eventID, userID int64) string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; degrade to a
		// deterministic suffix rather than propagate an error for a label
		return fmt.Sprintf("EVT-%04d-%04d-XXXXX", eventID, userID)
	}
	for i, b := range buf {
		buf[i] = numberCharset[int(b)%len(numberCharset)]
	}
	return fmt.Sprintf("EVT-%04d-%04d-%s", eventID, userID, string(buf))
}
