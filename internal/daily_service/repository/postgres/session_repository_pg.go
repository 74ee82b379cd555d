package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/pnavim/merchant_services/internal/daily_service/domain"
	"github.com/pnavim/merchant_services/internal/daily_service/repository"
)

const sessionColumns = `id, merchant_id, session_date, opened_at, opening_notes, closed_at, closing_notes, created_at, updated_at`

type pgSessionRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgSessionRepository(db repository.DB, logger *slog.Logger) repository.SessionRepository {
	return &pgSessionRepository{db: db, logger: logger.With("component", "session_repository_pg")}
}

func scanSession(row pgx.Row) (*domain.DailySession, error) {
	s := &domain.DailySession{}
	err := row.Scan(
		&s.ID, &s.MerchantID, &s.SessionDate, &s.OpenedAt, &s.OpeningNotes,
		&s.ClosedAt, &s.ClosingNotes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgSessionRepository) GetByDate(ctx context.Context, merchantID int64, date string) (*domain.DailySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM merchant_daily_sessions WHERE merchant_id = $1 AND session_date = $2`
	session, err := scanSession(r.db.QueryRow(ctx, query, merchantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily session: %w", err)
	}
	return session, nil
}

// UpsertOpen pushes the one-row-per-day invariant into the store's
// unique key. Re-opening an already open or closed day refreshes
// opened_at and leaves closed_at as it was.
func (r *pgSessionRepository) UpsertOpen(ctx context.Context, merchantID int64, date string, openingNotes *string) (*domain.DailySession, error) {
	query := `
		INSERT INTO merchant_daily_sessions (merchant_id, session_date, opened_at, opening_notes, created_at, updated_at)
		VALUES ($1, $2, now(), $3, now(), now())
		ON CONFLICT (merchant_id, session_date)
		DO UPDATE SET opened_at = now(),
		              opening_notes = COALESCE(EXCLUDED.opening_notes, merchant_daily_sessions.opening_notes),
		              updated_at = now()
		RETURNING ` + sessionColumns
	session, err := scanSession(r.db.QueryRow(ctx, query, merchantID, date, openingNotes))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily session: %w", err)
	}
	return session, nil
}

func (r *pgSessionRepository) Close(ctx context.Context, merchantID int64, date string, closingNotes *string) (*domain.DailySession, error) {
	query := `
		UPDATE merchant_daily_sessions
		SET closed_at = now(),
		    closing_notes = COALESCE($3, closing_notes),
		    updated_at = now()
		WHERE merchant_id = $1 AND session_date = $2
		RETURNING ` + sessionColumns
	session, err := scanSession(r.db.QueryRow(ctx, query, merchantID, date, closingNotes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to close daily session: %w", err)
	}
	return session, nil
}

func (r *pgSessionRepository) Reopen(ctx context.Context, merchantID int64, date string) (*domain.DailySession, error) {
	query := `
		UPDATE merchant_daily_sessions
		SET closed_at = NULL, updated_at = now()
		WHERE merchant_id = $1 AND session_date = $2
		RETURNING ` + sessionColumns
	session, err := scanSession(r.db.QueryRow(ctx, query, merchantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to reopen daily session: %w", err)
	}
	return session, nil
}

func (r *pgSessionRepository) History(ctx context.Context, merchantID int64, limit int) ([]domain.DailySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM merchant_daily_sessions
		WHERE merchant_id = $1
		ORDER BY session_date DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, merchantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session history: %w", err)
	}
	defer rows.Close()

	var sessions []domain.DailySession
	for rows.Next() {
		var s domain.DailySession
		if err := rows.Scan(&s.ID, &s.MerchantID, &s.SessionDate, &s.OpenedAt, &s.OpeningNotes,
			&s.ClosedAt, &s.ClosingNotes, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *pgSessionRepository) GetUnclosed(ctx context.Context, merchantID int64, date string) (*domain.DailySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM merchant_daily_sessions
		WHERE merchant_id = $1 AND session_date = $2
		  AND opened_at IS NOT NULL AND closed_at IS NULL`
	session, err := scanSession(r.db.QueryRow(ctx, query, merchantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get unclosed session: %w", err)
	}
	return session, nil
}
