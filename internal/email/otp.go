package email

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPTTL is how long a one-time code stays valid.
const OTPTTL = 5 * time.Minute

// ErrOTPMismatch is returned when the submitted code is wrong or expired.
var ErrOTPMismatch = errors.New("otp invalid or expired")

// OTPStore keeps short-lived verification codes in Redis, one per email.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPStore creates an OTP store with the default TTL.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client, ttl: OTPTTL}
}

func otpKey(email string) string {
	return "otp:" + email
}

// Generate mints a 6-digit code for the email, replacing any previous one.
func (s *OTPStore) Generate(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.client.Set(ctx, otpKey(email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks the code and consumes it on success. A code verifies at
// most once.
func (s *OTPStore) Verify(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrOTPMismatch
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if stored != code {
		return ErrOTPMismatch
	}
	if err := s.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}
