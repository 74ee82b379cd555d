package domain

import "time"

// DefaultDeviceName is used when a client registers a fingerprint
// without a human-readable name.
const DefaultDeviceName = "Appareil Inconnu"

// MerchantDevice is a recognized (merchant, fingerprint) pair.
// Devices start untrusted; trust is granted explicitly, never by the
// upsert path.
type MerchantDevice struct {
	ID                int64     `json:"id"`
	MerchantID        int64     `json:"merchant_id"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	DeviceName        string    `json:"device_name"`
	TimesUsed         int       `json:"times_used"`
	IsTrusted         bool      `json:"is_trusted"`
	LastSeen          time.Time `json:"last_seen"`
	CreatedAt         time.Time `json:"created_at"`
}
