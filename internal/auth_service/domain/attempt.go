package domain

import "time"

// AuthAttempt is an immutable audit record of one authentication
// event. UserID is nil when the phone lookup itself failed.
type AuthAttempt struct {
	ID         int64     `json:"id"`
	Phone      string    `json:"phone"`
	UserID     *int64    `json:"user_id,omitempty"`
	Success    bool      `json:"success"`
	TrustScore float64   `json:"trust_score"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuthStats is a 30-day rolling aggregate of a merchant's attempts.
type AuthStats struct {
	TotalAttempts      int64   `json:"total_attempts"`
	SuccessfulAttempts int64   `json:"successful_attempts"`
	FailedAttempts     int64   `json:"failed_attempts"`
	AverageTrustScore  float64 `json:"average_trust_score"`
}
