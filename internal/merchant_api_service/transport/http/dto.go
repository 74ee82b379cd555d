package http

// RegisterRequest creates a phone-based merchant account.
type RegisterRequest struct {
	Phone   string `json:"phone" validate:"required,min=8,max=20"`
	Name    string `json:"name" validate:"required,min=2,max=100"`
	PinCode string `json:"pin_code" validate:"required,numeric,min=4,max=8"`
}

// LoginRequest runs the composed phone+PIN protocol.
type LoginRequest struct {
	Phone             string  `json:"phone" validate:"required"`
	PinCode           string  `json:"pin_code" validate:"required"`
	DeviceFingerprint string  `json:"device_fingerprint,omitempty"`
	DeviceName        string  `json:"device_name,omitempty"`
	TrustScore        float64 `json:"trust_score,omitempty"`
}

// LoginResponse reports the outcome; on failure Token is empty and
// the lockout fields explain why.
type LoginResponse struct {
	Success        bool   `json:"success"`
	Token          string `json:"token,omitempty"`
	Locked         bool   `json:"locked,omitempty"`
	LockedUntil    string `json:"locked_until,omitempty"`
	FailedAttempts int    `json:"failed_attempts,omitempty"`
	UserID         int64  `json:"user_id,omitempty"`
	MerchantID     int64  `json:"merchant_id,omitempty"`
	Name           string `json:"name,omitempty"`
}

// EnrollChallengeRequest stores a recovery answer.
type EnrollChallengeRequest struct {
	ChallengeID int64  `json:"challenge_id" validate:"required"`
	Answer      string `json:"answer" validate:"required,min=2"`
	IsPrimary   bool   `json:"is_primary,omitempty"`
}

// VerifyChallengeRequest checks a recovery answer.
type VerifyChallengeRequest struct {
	MerchantChallengeID int64  `json:"merchant_challenge_id" validate:"required"`
	Answer              string `json:"answer" validate:"required"`
}

// UpdatePinRequest replaces the PIN after a successful recovery.
type UpdatePinRequest struct {
	NewPinCode string `json:"new_pin_code" validate:"required,numeric,min=4,max=8"`
}

// TrustDeviceRequest promotes a known device fingerprint.
type TrustDeviceRequest struct {
	DeviceFingerprint string `json:"device_fingerprint" validate:"required"`
}

// DayNotesRequest carries optional notes for open/close calls.
type DayNotesRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// DayStatusResponse describes today's session.
type DayStatusResponse struct {
	Status        string   `json:"status"`
	SessionDate   string   `json:"session_date,omitempty"`
	OpenedAt      string   `json:"opened_at,omitempty"`
	ClosedAt      string   `json:"closed_at,omitempty"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
}

// GenericErrorResponse for API errors.
type GenericErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
