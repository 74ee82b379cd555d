package domain

import "time"

// Default values applied when a merchant's settings row is created
// lazily on first read.
const (
	DefaultSavingsThreshold  = "20000"
	DefaultSavingsPercentage = "2"
	DefaultBriefingTime      = "08:00"
	DefaultOpeningReminder   = "09:00"
	DefaultClosingReminder   = "20:00"
)

// MerchantSettings is the 1:1 passive configuration per merchant.
// Monetary thresholds stay decimal strings end to end; no float math
// is done on them.
type MerchantSettings struct {
	ID                               int64     `json:"id"`
	MerchantID                       int64     `json:"merchant_id"`
	SavingsProposalEnabled           bool      `json:"savings_proposal_enabled"`
	SavingsProposalThreshold         string    `json:"savings_proposal_threshold"`
	SavingsProposalPercentage        string    `json:"savings_proposal_percentage"`
	GroupedOrderNotificationsEnabled bool      `json:"grouped_order_notifications_enabled"`
	MorningBriefingEnabled           bool      `json:"morning_briefing_enabled"`
	MorningBriefingTime              string    `json:"morning_briefing_time"`
	ReminderOpeningTime              string    `json:"reminder_opening_time"`
	ReminderClosingTime              string    `json:"reminder_closing_time"`
	CreatedAt                        time.Time `json:"created_at"`
	UpdatedAt                        time.Time `json:"updated_at"`
}

// SettingsPatch is a partial update; nil fields keep stored values.
type SettingsPatch struct {
	SavingsProposalEnabled           *bool   `json:"savings_proposal_enabled,omitempty"`
	SavingsProposalThreshold         *string `json:"savings_proposal_threshold,omitempty"`
	SavingsProposalPercentage        *string `json:"savings_proposal_percentage,omitempty"`
	GroupedOrderNotificationsEnabled *bool   `json:"grouped_order_notifications_enabled,omitempty"`
	MorningBriefingEnabled           *bool   `json:"morning_briefing_enabled,omitempty"`
	MorningBriefingTime              *string `json:"morning_briefing_time,omitempty"`
	ReminderOpeningTime              *string `json:"reminder_opening_time,omitempty"`
	ReminderClosingTime              *string `json:"reminder_closing_time,omitempty"`
}
