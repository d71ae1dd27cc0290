package models

import "time"

// EmailType for outbound automation.
const (
	EmailTypeAttendanceToken = "attendance_token"
	EmailTypeOTP             = "otp"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records outbound automation emails.
type EmailLog struct {
	ID             int64      `json:"id"`
	EventID        *int64     `json:"event_id,omitempty"`
	RegistrationID *int64     `json:"registration_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
