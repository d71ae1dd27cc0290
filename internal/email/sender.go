// Package email sends transactional mail over SMTP and keeps short-lived
// OTP codes in Redis. Both are best-effort dependencies: callers log
// failures and move on.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sendTimeout bounds one SMTP round-trip. net/smtp has no context support,
// so the send runs on its own goroutine and the caller bails on timeout.
const sendTimeout = 10 * time.Second

// Config holds SMTP connection settings. An empty Host disables real
// delivery; sends are logged and reported as successful.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

// Sender delivers mail via SMTP.
type Sender struct {
	cfg    Config
	logger *zap.Logger
}

// NewSender creates an SMTP sender.
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{cfg: cfg, logger: logger}
}

// SendTokenEmail sends the attendance token mail and returns a message id.
func (s *Sender) SendTokenEmail(ctx context.Context, to, name, eventTitle, token string) (string, error) {
	subject := fmt.Sprintf("Token Kehadiran: %s", eventTitle)
	body := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Pendaftaran Anda untuk event \"%s\" telah dikonfirmasi.\n"+
			"Token kehadiran Anda: %s\n\n"+
			"Tunjukkan token ini saat check-in di lokasi event.\n\n"+
			"Salam,\n%s",
		name, eventTitle, token, s.cfg.FromName,
	)
	return s.send(ctx, to, subject, body)
}

// SendOTPEmail sends a password reset code and returns a message id.
func (s *Sender) SendOTPEmail(ctx context.Context, to, name, code string) (string, error) {
	subject := "Kode Reset Password"
	body := fmt.Sprintf(
		"Halo %s,\n\n"+
			"Kode reset password Anda: %s\n"+
			"Kode ini berlaku selama %d menit.\n\n"+
			"Abaikan email ini jika Anda tidak meminta reset password.\n\n"+
			"Salam,\n%s",
		name, code, int(OTPTTL.Minutes()), s.cfg.FromName,
	)
	return s.send(ctx, to, subject, body)
}

func (s *Sender) send(ctx context.Context, to, subject, body string) (string, error) {
	messageID := uuid.New().String()

	if s.cfg.Host == "" {
		s.logger.Info("smtp disabled, email not delivered",
			zap.String("message_id", messageID),
			zap.String("to", to),
			zap.String("subject", subject))
		return messageID, nil
	}

	from := s.cfg.FromAddress
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nMessage-ID: <%s@eventia>\r\nSubject: %s\r\n\r\n%s",
		s.cfg.FromName, from, to, messageID, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
	}()

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("send email: %w", err)
		}
	case <-timer.C:
		return "", fmt.Errorf("send email: timeout after %s", sendTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	s.logger.Info("email sent", zap.String("message_id", messageID), zap.String("to", to))
	return messageID, nil
}
