package domain

import (
	"math"
	"time"
)

// SessionStatus is the lifecycle state of a merchant's business day.
type SessionStatus string

const (
	StatusNotOpened SessionStatus = "NOT_OPENED"
	StatusOpened    SessionStatus = "OPENED"
	StatusClosed    SessionStatus = "CLOSED"
)

// DateString truncates a timestamp to the date-only key format used
// for daily rows (UTC semantics).
func DateString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailySession is one row per (merchant, calendar date) bracketing a
// business-operating day.
type DailySession struct {
	ID           int64      `json:"id"`
	MerchantID   int64      `json:"merchant_id"`
	SessionDate  string     `json:"session_date"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
	OpeningNotes *string    `json:"opening_notes,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ClosingNotes *string    `json:"closing_notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Status derives the lifecycle state. A nil session or one never
// opened reads NOT_OPENED.
func (s *DailySession) Status() SessionStatus {
	if s == nil || s.OpenedAt == nil {
		return StatusNotOpened
	}
	if s.ClosedAt == nil {
		return StatusOpened
	}
	return StatusClosed
}

// Duration returns the session length in hours, rounded to one
// decimal place. ok is false until both timestamps are set.
func (s *DailySession) Duration() (hours float64, ok bool) {
	if s == nil || s.OpenedAt == nil || s.ClosedAt == nil {
		return 0, false
	}
	h := s.ClosedAt.Sub(*s.OpenedAt).Hours()
	return math.Round(h*10) / 10, true
}
