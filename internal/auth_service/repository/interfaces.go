package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pnavim/merchant_services/internal/auth_service/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUser     = errors.New("phone already registered")
	ErrMerchantNotFound  = errors.New("merchant not found")
	ErrChallengeNotFound = errors.New("merchant challenge not found")
	ErrDeviceNotFound    = errors.New("device not found")
)

// Querier defines the common surface of *pgxpool.Pool and pgx.Tx so
// repository methods can run inside or outside a transaction, and so
// tests can substitute a pgxmock pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a Querier that can also open transactions. Satisfied by
// *pgxpool.Pool and pgxmock.PgxPoolIface.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserRepository persists identity records.
type UserRepository interface {
	CreateWithPhone(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpdatePinHash(ctx context.Context, id int64, pinHash string) (*domain.User, error)
	MarkPhoneVerified(ctx context.Context, id int64) (*domain.User, error)
	// IncrementPinFailedAttempts must be a single atomic
	// increment-and-return statement, never read-then-write.
	IncrementPinFailedAttempts(ctx context.Context, id int64) (int, error)
	SetPinLockout(ctx context.Context, id int64, until time.Time) error
	ResetPinFailedAttempts(ctx context.Context, id int64) error
}

// MerchantRepository resolves the user -> merchant join key.
type MerchantRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Merchant, error)
}

// ChallengeRepository persists the question catalog links.
type ChallengeRepository interface {
	GetActiveByCategory(ctx context.Context, category string) ([]domain.SocialChallenge, error)
	GetMerchantChallenges(ctx context.Context, merchantID int64) ([]domain.MerchantChallengeDetail, error)
	GetPrimaryForMerchant(ctx context.Context, merchantID int64) (*domain.MerchantChallengeDetail, error)
	GetMerchantChallengeByID(ctx context.Context, id int64) (*domain.MerchantChallenge, error)
	// Create clears any existing primary flag for the merchant in the
	// same transaction when the new link is primary.
	Create(ctx context.Context, mc *domain.MerchantChallenge) (*domain.MerchantChallenge, error)
}

// DeviceRepository persists recognized client devices.
type DeviceRepository interface {
	Get(ctx context.Context, merchantID int64, fingerprint string) (*domain.MerchantDevice, error)
	// Upsert inserts the first sighting of a fingerprint or bumps
	// times_used and last_seen on later sightings, atomically.
	Upsert(ctx context.Context, merchantID int64, fingerprint, deviceName string) (*domain.MerchantDevice, error)
	Trust(ctx context.Context, merchantID int64, fingerprint string) (*domain.MerchantDevice, error)
}

// AttemptRepository is the append-only auth audit trail.
type AttemptRepository interface {
	Append(ctx context.Context, attempt *domain.AuthAttempt) (*domain.AuthAttempt, error)
	GetRecentByPhone(ctx context.Context, phone string, since time.Time) ([]domain.AuthAttempt, error)
	GetStatsForMerchant(ctx context.Context, merchantID int64, since time.Time) (*domain.AuthStats, error)
}
