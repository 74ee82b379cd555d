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

type pgLoginRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgLoginRepository(db repository.DB, logger *slog.Logger) repository.LoginRepository {
	return &pgLoginRepository{db: db, logger: logger.With("component", "login_repository_pg")}
}

// InsertFirstLogin relies on the (merchant_id, login_date) unique key
// instead of a prior existence check, so concurrent first logins of
// the same day cannot both report true.
func (r *pgLoginRepository) InsertFirstLogin(ctx context.Context, merchantID int64, date string) (bool, error) {
	query := `
		INSERT INTO merchant_daily_logins (merchant_id, login_date, first_login_time, briefing_shown, briefing_skipped)
		VALUES ($1, $2, now(), false, false)
		ON CONFLICT (merchant_id, login_date) DO NOTHING`
	tag, err := r.db.Exec(ctx, query, merchantID, date)
	if err != nil {
		return false, fmt.Errorf("failed to insert daily login: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgLoginRepository) GetByDate(ctx context.Context, merchantID int64, date string) (*domain.DailyLogin, error) {
	query := `
		SELECT id, merchant_id, login_date, first_login_time, briefing_shown, briefing_skipped
		FROM merchant_daily_logins
		WHERE merchant_id = $1 AND login_date = $2`
	l := &domain.DailyLogin{}
	err := r.db.QueryRow(ctx, query, merchantID, date).Scan(
		&l.ID, &l.MerchantID, &l.LoginDate, &l.FirstLoginTime, &l.BriefingShown, &l.BriefingSkipped,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily login: %w", err)
	}
	return l, nil
}

func (r *pgLoginRepository) SetBriefingShown(ctx context.Context, merchantID int64, date string) error {
	query := `UPDATE merchant_daily_logins SET briefing_shown = true WHERE merchant_id = $1 AND login_date = $2`
	if _, err := r.db.Exec(ctx, query, merchantID, date); err != nil {
		return fmt.Errorf("failed to mark briefing shown: %w", err)
	}
	return nil
}

func (r *pgLoginRepository) SetBriefingSkipped(ctx context.Context, merchantID int64, date string) error {
	query := `UPDATE merchant_daily_logins SET briefing_skipped = true WHERE merchant_id = $1 AND login_date = $2`
	if _, err := r.db.Exec(ctx, query, merchantID, date); err != nil {
		return fmt.Errorf("failed to mark briefing skipped: %w", err)
	}
	return nil
}
