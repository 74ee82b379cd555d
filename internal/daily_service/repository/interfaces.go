package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pnavim/merchant_services/internal/daily_service/domain"
)

var ErrSessionNotFound = errors.New("daily session not found")

// DB is the surface of *pgxpool.Pool the repositories need; pgxmock
// satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepository persists the per-day open/close rows. Dates are
// date-only strings (YYYY-MM-DD).
type SessionRepository interface {
	// GetByDate returns (nil, nil) when no row exists for the date.
	GetByDate(ctx context.Context, merchantID int64, date string) (*domain.DailySession, error)
	// UpsertOpen creates today's row with opened_at = now, or
	// refreshes opened_at on an existing row, leaving closed_at
	// untouched. Supplied notes replace stored ones; nil keeps them.
	UpsertOpen(ctx context.Context, merchantID int64, date string, openingNotes *string) (*domain.DailySession, error)
	Close(ctx context.Context, merchantID int64, date string, closingNotes *string) (*domain.DailySession, error)
	Reopen(ctx context.Context, merchantID int64, date string) (*domain.DailySession, error)
	History(ctx context.Context, merchantID int64, limit int) ([]domain.DailySession, error)
	// GetUnclosed returns the date's row only when opened_at is set
	// and closed_at is not; (nil, nil) otherwise.
	GetUnclosed(ctx context.Context, merchantID int64, date string) (*domain.DailySession, error)
}

// LoginRepository persists the one-row-per-day first-login marker.
type LoginRepository interface {
	// InsertFirstLogin reports true only when it created the row for
	// the date; a conflict on the natural key reports false.
	InsertFirstLogin(ctx context.Context, merchantID int64, date string) (bool, error)
	// GetByDate returns (nil, nil) when no row exists.
	GetByDate(ctx context.Context, merchantID int64, date string) (*domain.DailyLogin, error)
	SetBriefingShown(ctx context.Context, merchantID int64, date string) error
	SetBriefingSkipped(ctx context.Context, merchantID int64, date string) error
}
