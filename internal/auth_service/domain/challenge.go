package domain

import "time"

// SocialChallenge is a catalog entry for a knowledge-based security
// question. Immutable reference data maintained out of band.
type SocialChallenge struct {
	ID             int64     `json:"id"`
	Category       string    `json:"category"`
	QuestionFr     string    `json:"question_fr"`
	QuestionDioula string    `json:"question_dioula,omitempty"`
	Difficulty     int       `json:"difficulty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// MerchantChallenge links a merchant to a catalog question with the
// bcrypt hash of their normalized answer.
type MerchantChallenge struct {
	ID          int64     `json:"id"`
	MerchantID  int64     `json:"merchant_id"`
	ChallengeID int64     `json:"challenge_id"`
	AnswerHash  string    `json:"-"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}

// MerchantChallengeDetail is a merchant's challenge link joined with
// the catalog question texts, as served to recovery flows.
type MerchantChallengeDetail struct {
	ID             int64  `json:"id"`
	MerchantID     int64  `json:"merchant_id"`
	ChallengeID    int64  `json:"challenge_id"`
	AnswerHash     string `json:"-"`
	IsPrimary      bool   `json:"is_primary"`
	QuestionFr     string `json:"question_fr"`
	QuestionDioula string `json:"question_dioula,omitempty"`
	Category       string `json:"category"`
	Difficulty     int    `json:"difficulty"`
}
