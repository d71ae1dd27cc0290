package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventia/backend/internal/models"
	"github.com/eventia/backend/internal/tokens"
)

var (
	// ErrTokenNotFound is returned when no token matches the scanned code.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenUsed is returned when the token was already consumed.
	ErrTokenUsed = errors.New("token already used")
	// ErrTokenExpired is returned when the token expired before check-in.
	ErrTokenExpired = errors.New("token expired")
)

// TokenStore is the slice of token persistence check-in needs.
type TokenStore interface {
	GetByCode(ctx context.Context, code string) (*models.AttendanceToken, error)
	GetActiveByUserEvent(ctx context.Context, userID, eventID int64) (*models.AttendanceToken, error)
	Create(ctx context.Context, t *models.AttendanceToken) error
	MarkUsed(ctx context.Context, id int64) error
}

// Store persists attendance records.
type Store interface {
	GetByUserEvent(ctx context.Context, userID, eventID int64) (*models.Attendance, error)
	Create(ctx context.Context, a *models.Attendance) error
	MarkPresent(ctx context.Context, userID, eventID int64) error
}

// Service performs token check-in and attendance synthesis.
type Service struct {
	tokens TokenStore
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an attendance service.
func NewService(tokens TokenStore, store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{tokens: tokens, store: store, logger: logger, now: time.Now}
}

// CheckIn consumes a scanned token: marks it used, flips the operational
// registration to present/attended and records the attendance.
func (s *Service) CheckIn(ctx context.Context, code string) (*models.Attendance, error) {
	tok, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if tok == nil {
		return nil, ErrTokenNotFound
	}
	if tok.IsUsed {
		return nil, ErrTokenUsed
	}
	if s.now().After(tok.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	if err := s.tokens.MarkUsed(ctx, tok.ID); err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}
	if err := s.store.MarkPresent(ctx, tok.UserID, tok.EventID); err != nil {
		s.logger.Error("mark present failed", zap.Error(err), zap.Int64("token_id", tok.ID))
	}

	a := &models.Attendance{UserID: tok.UserID, EventID: tok.EventID, TokenID: &tok.ID}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}
	return a, nil
}

// Ensure guarantees an attendance record exists for the pair, synthesizing
// one when needed: an existing unused token is consumed, or a pre-used
// token is minted. Certificate generation for historical or manual grants
// implies attendance.
func (s *Service) Ensure(ctx context.Context, userID, eventID, primaryRegistrationID int64) (int64, error) {
	if existing, err := s.store.GetByUserEvent(ctx, userID, eventID); err != nil {
		return 0, fmt.Errorf("lookup attendance: %w", err)
	} else if existing != nil {
		return existing.ID, nil
	}

	tok, err := s.tokens.GetActiveByUserEvent(ctx, userID, eventID)
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	if tok == nil {
		code, err := tokens.GenerateCode()
		if err != nil {
			return 0, fmt.Errorf("generate code: %w", err)
		}
		tok = &models.AttendanceToken{
			RegistrationID: primaryRegistrationID,
			UserID:         userID,
			EventID:        eventID,
			Token:          code,
			ExpiresAt:      s.now(),
		}
		if err := s.tokens.Create(ctx, tok); err != nil {
			return 0, fmt.Errorf("create token: %w", err)
		}
	}
	if err := s.tokens.MarkUsed(ctx, tok.ID); err != nil {
		return 0, fmt.Errorf("consume token: %w", err)
	}
	if err := s.store.MarkPresent(ctx, userID, eventID); err != nil {
		s.logger.Warn("mark present failed", zap.Error(err), zap.Int64("user_id", userID), zap.Int64("event_id", eventID))
	}

	a := &models.Attendance{UserID: userID, EventID: eventID, TokenID: &tok.ID}
	if err := s.store.Create(ctx, a); err != nil {
		return 0, fmt.Errorf("record attendance: %w", err)
	}
	return a.ID, nil
}
