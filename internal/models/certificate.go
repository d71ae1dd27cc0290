package models

import (
	"encoding/json"
	"time"
)

// Certificate is an issued participation certificate. At most one exists
// per (user_id, event_id); regeneration updates the row in place.
type Certificate struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	EventID            int64           `json:"event_id"`
	AttendanceRecordID int64           `json:"attendance_record_id"`
	CertificateNumber  string          `json:"certificate_number"`
	Status             string          `json:"status"`
	TemplateData       json.RawMessage `json:"template_data,omitempty"`
	IssuedAt           time.Time       `json:"issued_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CertificateTemplate holds the printable layout with [PLACEHOLDER]
// tokens substituted at generation time.
type CertificateTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Content   string    `json:"content"`
	Footer    string    `json:"footer"`
	Signature string    `json:"signature"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
