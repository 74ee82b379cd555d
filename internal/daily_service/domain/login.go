package domain

import "time"

// DailyLogin marks a merchant's first sign-in of a calendar date and
// tracks whether the daily briefing was handled.
type DailyLogin struct {
	ID              int64     `json:"id"`
	MerchantID      int64     `json:"merchant_id"`
	LoginDate       string    `json:"login_date"`
	FirstLoginTime  time.Time `json:"first_login_time"`
	BriefingShown   bool      `json:"briefing_shown"`
	BriefingSkipped bool      `json:"briefing_skipped"`
}
