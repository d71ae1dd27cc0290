package models

import "time"

// AttendanceToken is the short code mailed to a participant and scanned at
// check-in. At most one unused token exists per (user_id, event_id); the
// registration_id foreign key points at the primary registration row.
type AttendanceToken struct {
	ID             int64      `json:"id"`
	RegistrationID int64      `json:"registration_id"`
	UserID         int64      `json:"user_id"`
	EventID        int64      `json:"event_id"`
	Token          string     `json:"token"`
	IsUsed         bool       `json:"is_used"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Attendance is a check-in record for a participant at an event.
type Attendance struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	EventID     int64     `json:"event_id"`
	TokenID     *int64    `json:"token_id,omitempty"`
	CheckedInAt time.Time `json:"checked_in_at"`
}
