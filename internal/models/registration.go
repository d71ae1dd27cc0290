package models

import "time"

// Registration status values. "approved" is the free-event terminal state,
// "confirmed" the paid one; the distinction is kept for compatibility with
// the legacy split schema.
const (
	RegistrationStatusPending   = "pending"
	RegistrationStatusApproved  = "approved"
	RegistrationStatusConfirmed = "confirmed"
	RegistrationStatusCancelled = "cancelled"
	RegistrationStatusFailed    = "failed"
	RegistrationStatusAttended  = "attended"
)

// Registration payment status values.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Attendance status values.
const (
	AttendanceStatusPending = "pending"
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
)

// Registration is the primary registration record: the self-reported
// contact snapshot captured at sign-up. Attendance tokens key on this row.
type Registration struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	EventID            int64     `json:"event_id"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	City               string    `json:"city,omitempty"`
	Province           string    `json:"province,omitempty"`
	Institution        string    `json:"institution,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	Status             string    `json:"status"`
	PaymentStatus      string    `json:"payment_status"`
	PaymentAmount      int64     `json:"payment_amount"`
	PaymentMethod      string    `json:"payment_method"`
	AttendanceRequired bool      `json:"attendance_required"`
	AttendanceDeadline time.Time `json:"attendance_deadline"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EventRegistration is the operational registration record: the status
// authority for admin screens, payment reconciliation and attendance.
// Created atomically with its primary Registration counterpart.
type EventRegistration struct {
	ID                 int64      `json:"id"`
	RegistrationID     int64      `json:"registration_id"`
	UserID             int64      `json:"user_id"`
	EventID            int64      `json:"event_id"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	PaymentAmount      int64      `json:"payment_amount"`
	PaymentMethod      string     `json:"payment_method"`
	AttendanceRequired bool       `json:"attendance_required"`
	AttendanceStatus   string     `json:"attendance_status"`
	AttendanceDeadline time.Time  `json:"attendance_deadline"`
	Token              *string    `json:"token,omitempty"`
	TokenExpiresAt     *time.Time `json:"token_expires_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
