package models

import (
	"fmt"
	"time"
)

// EventStatus lifecycle values.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCompleted = "completed"
)

// Event is a registerable event. Time-of-day columns are stored as
// "HH:MM:SS" strings alongside their date columns, mirroring the
// legacy schema this service stays compatible with.
type Event struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	EventDate       time.Time  `json:"event_date"`
	EventTime       string     `json:"event_time"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	EndTime         *string    `json:"end_time,omitempty"`
	Location        string     `json:"location"`
	City            string     `json:"city"`
	Province        string     `json:"province,omitempty"`
	OrganizerName   string     `json:"organizer_name"`
	MaxParticipants *int       `json:"max_participants,omitempty"` // nil = unlimited
	Price           int64      `json:"price"`
	IsFree          bool       `json:"is_free"`
	HasCertificate  bool       `json:"has_certificate"`
	Status          string     `json:"status"`
	IsActive        bool       `json:"is_active"`
	IsHighlighted   bool       `json:"is_highlighted"`
	CreatedBy       int64      `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Paid reports whether a registration for this event requires payment.
func (e *Event) Paid() bool {
	return !e.IsFree && e.Price > 0
}

// StartDateTime combines event_date and event_time into a single timestamp.
// An empty or malformed event_time resolves to midnight of event_date.
func (e *Event) StartDateTime() time.Time {
	return combineDateTime(e.EventDate, e.EventTime, "00:00:00")
}

// EndDateTime resolves the effective end of the event: end_date/end_time
// when present, otherwise event_date at 23:59:59.
func (e *Event) EndDateTime() time.Time {
	if e.EndDate != nil {
		endTime := "23:59:59"
		if e.EndTime != nil && *e.EndTime != "" {
			endTime = *e.EndTime
		}
		return combineDateTime(*e.EndDate, endTime, "23:59:59")
	}
	return combineDateTime(e.EventDate, "23:59:59", "23:59:59")
}

// AttendanceDeadline computes the cutoff after which a no-show registration
// is marked absent: event end plus a one hour buffer. The fallback chain
// never fails: a zero event_date degrades to event_date plus one day, and
// finally to now plus 24 hours.
func (e *Event) AttendanceDeadline(now time.Time) time.Time {
	if e.EventDate.IsZero() {
		return now.Add(24 * time.Hour)
	}
	end := e.EndDateTime()
	if end.Before(e.StartDateTime()) {
		// corrupt end columns (end before start); fall back to the day after
		return e.EventDate.AddDate(0, 0, 1)
	}
	return end.Add(time.Hour)
}

func combineDateTime(date time.Time, clock, fallback string) time.Time {
	parsed, err := time.Parse("15:04:05", clock)
	if err != nil {
		if parsed, err = time.Parse("15:04", clock); err != nil {
			parsed, _ = time.Parse("15:04:05", fallback)
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, date.Location())
}

// String implements fmt.Stringer for log output.
func (e *Event) String() string {
	return fmt.Sprintf("event %d (%s)", e.ID, e.Title)
}
