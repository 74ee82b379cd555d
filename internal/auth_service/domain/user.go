package domain

import (
	"time"
)

// Roles a user account can carry.
const (
	RoleMerchant    = "merchant"
	RoleAgent       = "agent"
	RoleAdmin       = "admin"
	RoleCooperative = "cooperative"
)

// Login method tags.
const (
	LoginMethodPhoneSocial = "phone_social"
	LoginMethodSocial      = "social"
)

// User is an identity record. The PIN credential is only ever stored
// as a bcrypt hash; the plaintext never leaves the auth service.
type User struct {
	ID                int64      `json:"id"`
	OpenID            string     `json:"open_id"`
	Name              string     `json:"name"`
	Phone             *string    `json:"phone,omitempty"`
	PhoneVerified     bool       `json:"phone_verified"`
	PinHash           *string    `json:"-"`
	PinFailedAttempts int        `json:"-"`
	PinLockedUntil    *time.Time `json:"-"`
	Role              string     `json:"role"`
	LoginMethod       string     `json:"login_method"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Merchant is the business profile owned 1:1 by a user. Only the join
// key matters to this core; the full profile lives with the CRUD API.
type Merchant struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	BusinessName string    `json:"business_name"`
	Market       string    `json:"market,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
