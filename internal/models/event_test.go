package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPaid(t *testing.T) {
	cases := []struct {
		name   string
		isFree bool
		price  int64
		want   bool
	}{
		{"free flag set", true, 50000, false},
		{"paid with price", false, 50000, true},
		{"zero price not paid", false, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := Event{IsFree: tc.isFree, Price: tc.price}
			if got := e.Paid(); got != tc.want {
				t.Errorf("Paid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStartDateTime(t *testing.T) {
	e := Event{EventDate: date(2026, 3, 10), EventTime: "09:30:00"}
	want := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	if got := e.StartDateTime(); !got.Equal(want) {
		t.Errorf("StartDateTime() = %v, want %v", got, want)
	}

	e.EventTime = "09:30"
	if got := e.StartDateTime(); !got.Equal(want) {
		t.Errorf("StartDateTime() short clock = %v, want %v", got, want)
	}

	e.EventTime = "garbage"
	want = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := e.StartDateTime(); !got.Equal(want) {
		t.Errorf("StartDateTime() malformed clock = %v, want midnight %v", got, want)
	}
}

func TestEndDateTime(t *testing.T) {
	end := date(2026, 3, 11)
	endTime := "17:00:00"

	e := Event{EventDate: date(2026, 3, 10), EventTime: "09:00:00"}
	want := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	if got := e.EndDateTime(); !got.Equal(want) {
		t.Errorf("EndDateTime() without end columns = %v, want %v", got, want)
	}

	e.EndDate = &end
	want = time.Date(2026, 3, 11, 23, 59, 59, 0, time.UTC)
	if got := e.EndDateTime(); !got.Equal(want) {
		t.Errorf("EndDateTime() with end_date only = %v, want %v", got, want)
	}

	e.EndTime = &endTime
	want = time.Date(2026, 3, 11, 17, 0, 0, 0, time.UTC)
	if got := e.EndDateTime(); !got.Equal(want) {
		t.Errorf("EndDateTime() with end_date and end_time = %v, want %v", got, want)
	}
}

func TestAttendanceDeadline(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("zero event date falls back to now+24h", func(t *testing.T) {
		e := Event{}
		if got, want := e.AttendanceDeadline(now), now.Add(24*time.Hour); !got.Equal(want) {
			t.Errorf("AttendanceDeadline() = %v, want %v", got, want)
		}
	})

	t.Run("end plus one hour", func(t *testing.T) {
		end := date(2026, 3, 10)
		endTime := "17:00:00"
		e := Event{EventDate: date(2026, 3, 10), EventTime: "09:00:00", EndDate: &end, EndTime: &endTime}
		want := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
		if got := e.AttendanceDeadline(now); !got.Equal(want) {
			t.Errorf("AttendanceDeadline() = %v, want %v", got, want)
		}
	})

	t.Run("corrupt end before start falls back to next day", func(t *testing.T) {
		end := date(2026, 3, 9)
		e := Event{EventDate: date(2026, 3, 10), EventTime: "09:00:00", EndDate: &end}
		want := date(2026, 3, 11)
		if got := e.AttendanceDeadline(now); !got.Equal(want) {
			t.Errorf("AttendanceDeadline() = %v, want %v", got, want)
		}
	})
}
