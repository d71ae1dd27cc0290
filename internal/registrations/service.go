package registrations

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/internal/tokens"
)

// Failure modes of Register, mapped to HTTP statuses by the handler.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationClosed   = errors.New("registration closed")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrEventFull            = errors.New("event full")
	ErrInvalidDate          = errors.New("invalid event date")
	ErrInvalidName          = errors.New("invalid participant name")
	ErrInvalidEmail         = errors.New("invalid participant email")
)

// closingWindow is how long before the event start registration closes.
const closingWindow = time.Hour

var (
	dateOverrideRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailRe        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// EventStore fetches events for validation.
type EventStore interface {
	GetActive(ctx context.Context, id int64) (*models.Event, error)
}

// Store performs the atomic two-table registration write.
type Store interface {
	CreatePair(ctx context.Context, p CreateParams) (*models.EventRegistration, error)
}

// TokenIssuer creates attendance tokens for approved registrations.
type TokenIssuer interface {
	Issue(ctx context.Context, p tokens.IssueParams) (*models.AttendanceToken, error)
}

// RegisterInput is the validated intent to register a user for an event.
type RegisterInput struct {
	UserID        int64
	EventID       int64
	EventDate     string // optional caller override, YYYY-MM-DD
	PaymentMethod string
	FullName      string
	Email         string
	Phone         string
	Address       string
	City          string
	Province      string
	Institution   string
	Notes         string
}

// Service is the registration writer: it validates an event/user pair,
// enforces capacity and the closing window, performs the dual-table insert
// and issues the attendance token for immediately approved registrations.
type Service struct {
	events EventStore
	store  Store
	tokens TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a registration service.
func NewService(events EventStore, store Store, tokens TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{events: events, store: store, tokens: tokens, logger: logger, now: time.Now}
}

// Register runs the full registration sequence. Validation failures leave
// no writes behind; once the pair of rows commits, token and email problems
// are logged but never surfaced, the registration itself being valid.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.EventRegistration, error) {
	event, err := s.events.GetActive(ctx, in.EventID)
	if err != nil {
		return nil, ErrEventNotFound
	}

	now := s.now()
	start, err := s.effectiveStart(event, in.EventDate)
	if err != nil {
		return nil, err
	}
	if !now.Before(start.Add(-closingWindow)) {
		return nil, ErrRegistrationClosed
	}

	free := !event.Paid()
	if free {
		if len(strings.TrimSpace(in.FullName)) < 2 {
			return nil, ErrInvalidName
		}
		if !emailRe.MatchString(in.Email) {
			return nil, ErrInvalidEmail
		}
	}

	status := models.RegistrationStatusPending
	paymentStatus := models.PaymentStatusPending
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = "midtrans"
	}
	if len(method) > 50 {
		method = method[:50]
	}
	amount := event.Price
	if free {
		status = models.RegistrationStatusApproved
		paymentStatus = models.PaymentStatusPaid
		method = "cash"
		amount = 0
	}

	deadline := event.AttendanceDeadline(now)

	er, err := s.store.CreatePair(ctx, CreateParams{
		UserID:             in.UserID,
		EventID:            in.EventID,
		FullName:           in.FullName,
		Email:              in.Email,
		Phone:              in.Phone,
		Address:            in.Address,
		City:               in.City,
		Province:           in.Province,
		Institution:        in.Institution,
		Notes:              in.Notes,
		Status:             status,
		PaymentStatus:      paymentStatus,
		PaymentAmount:      amount,
		PaymentMethod:      method,
		AttendanceRequired: true,
		AttendanceDeadline: deadline,
	})
	if err != nil {
		return nil, err
	}

	if status == models.RegistrationStatusApproved {
		tok, err := s.tokens.Issue(ctx, tokens.IssueParams{
			RegistrationID: er.RegistrationID,
			UserID:         in.UserID,
			EventID:        in.EventID,
			EventTitle:     event.Title,
			RecipientEmail: in.Email,
			RecipientName:  in.FullName,
			ExpiresAt:      deadline,
		})
		if err != nil {
			// registration is committed and valid; token can be reissued later
			s.logger.Error("token issue failed after registration",
				zap.Error(err), zap.Int64("registration_id", er.ID))
		} else {
			er.Token = &tok.Token
			er.TokenExpiresAt = &tok.ExpiresAt
		}
	}

	return er, nil
}

// effectiveStart resolves the event start used for the closing-window
// check. The caller may supply a fresher event_date than the stored row;
// it is accepted only in strict YYYY-MM-DD form.
func (s *Service) effectiveStart(event *models.Event, override string) (time.Time, error) {
	if override == "" {
		return event.StartDateTime(), nil
	}
	if !dateOverrideRe.MatchString(override) {
		return time.Time{}, ErrInvalidDate
	}
	date, err := time.Parse("2006-01-02", override)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	patched := *event
	patched.EventDate = date
	return patched.StartDateTime(), nil
}
