package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pnavim/merchant_services/internal/settings_service/domain"
)

var ErrSettingsNotFound = errors.New("merchant settings not found")

// DB is the surface of *pgxpool.Pool the repository needs; pgxmock
// satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SettingsRepository persists the per-merchant configuration row.
type SettingsRepository interface {
	// Get returns (nil, nil) when the merchant has no row yet.
	Get(ctx context.Context, merchantID int64) (*domain.MerchantSettings, error)
	// CreateDefaults inserts the fixed defaults; if another request
	// won the race it returns the existing row.
	CreateDefaults(ctx context.Context, merchantID int64) (*domain.MerchantSettings, error)
	// Patch applies non-nil fields and bumps updated_at.
	Patch(ctx context.Context, merchantID int64, patch *domain.SettingsPatch) (*domain.MerchantSettings, error)
}
