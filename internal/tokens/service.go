package tokens

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/pkg/queue"
)

const (
	codeLength  = 8
	codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I
)

// Store persists attendance tokens.
type Store interface {
	GetActiveByUserEvent(ctx context.Context, userID, eventID int64) (*models.AttendanceToken, error)
	Create(ctx context.Context, t *models.AttendanceToken) error
}

// EmailQueue enqueues outbound token emails.
type EmailQueue interface {
	EnqueueTokenEmail(ctx context.Context, payload queue.TokenEmailPayload) error
}

// IssueParams describes the registration a token is issued for. The
// registration id is the primary row; recipient fields feed the email job.
type IssueParams struct {
	RegistrationID int64
	UserID         int64
	EventID        int64
	EventTitle     string
	RecipientEmail string
	RecipientName  string
	ExpiresAt      time.Time
}

// Service issues attendance tokens and hands off their delivery.
type Service struct {
	store  Store
	emails EmailQueue
	logger *zap.Logger
}

// NewService creates a token service.
func NewService(store Store, emails EmailQueue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, emails: emails, logger: logger}
}

// Issue creates an attendance token for a registration. Idempotent: if an
// unused token already exists for the (user, event) pair it is returned
// as-is and no email is re-sent. Email enqueue failures are logged, never
// returned; delivery is best-effort and retriable via the resend endpoint.
func (s *Service) Issue(ctx context.Context, p IssueParams) (*models.AttendanceToken, error) {
	existing, err := s.store.GetActiveByUserEvent(ctx, p.UserID, p.EventID)
	if err != nil {
		return nil, fmt.Errorf("check existing token: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	tok := &models.AttendanceToken{
		RegistrationID: p.RegistrationID,
		UserID:         p.UserID,
		EventID:        p.EventID,
		Token:          code,
		ExpiresAt:      p.ExpiresAt,
	}
	if err := s.store.Create(ctx, tok); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	s.SendEmail(ctx, tok, p)
	return tok, nil
}

// SendEmail enqueues the token notification mail. Best-effort.
func (s *Service) SendEmail(ctx context.Context, tok *models.AttendanceToken, p IssueParams) {
	if p.RecipientEmail == "" {
		return
	}
	err := s.emails.EnqueueTokenEmail(ctx, queue.TokenEmailPayload{
		RegistrationID: tok.RegistrationID,
		EventID:        tok.EventID,
		RecipientEmail: p.RecipientEmail,
		RecipientName:  p.RecipientName,
		EventTitle:     p.EventTitle,
		Token:          tok.Token,
	})
	if err != nil {
		s.logger.Warn("token email enqueue failed",
			zap.Error(err),
			zap.Int64("registration_id", tok.RegistrationID),
			zap.String("recipient", p.RecipientEmail))
	}
}

// GenerateCode returns a new 8-character check-in code. The charset skips
// lookalike characters so codes survive being read aloud at the door.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}
