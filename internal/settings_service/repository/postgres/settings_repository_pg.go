package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/pnavim/merchant_services/internal/settings_service/domain"
	"github.com/pnavim/merchant_services/internal/settings_service/repository"
)

const settingsColumns = `id, merchant_id, savings_proposal_enabled, savings_proposal_threshold, savings_proposal_percentage,
	       grouped_order_notifications_enabled, morning_briefing_enabled, morning_briefing_time,
	       reminder_opening_time, reminder_closing_time, created_at, updated_at`

type pgSettingsRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgSettingsRepository(db repository.DB, logger *slog.Logger) repository.SettingsRepository {
	return &pgSettingsRepository{db: db, logger: logger.With("component", "settings_repository_pg")}
}

func scanSettings(row pgx.Row) (*domain.MerchantSettings, error) {
	s := &domain.MerchantSettings{}
	err := row.Scan(
		&s.ID, &s.MerchantID, &s.SavingsProposalEnabled, &s.SavingsProposalThreshold, &s.SavingsProposalPercentage,
		&s.GroupedOrderNotificationsEnabled, &s.MorningBriefingEnabled, &s.MorningBriefingTime,
		&s.ReminderOpeningTime, &s.ReminderClosingTime, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgSettingsRepository) Get(ctx context.Context, merchantID int64) (*domain.MerchantSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM merchant_settings WHERE merchant_id = $1`
	settings, err := scanSettings(r.db.QueryRow(ctx, query, merchantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get merchant settings: %w", err)
	}
	return settings, nil
}

func (r *pgSettingsRepository) CreateDefaults(ctx context.Context, merchantID int64) (*domain.MerchantSettings, error) {
	query := `
		INSERT INTO merchant_settings (
			merchant_id, savings_proposal_enabled, savings_proposal_threshold, savings_proposal_percentage,
			grouped_order_notifications_enabled, morning_briefing_enabled, morning_briefing_time,
			reminder_opening_time, reminder_closing_time, created_at, updated_at
		)
		VALUES ($1, true, $2, $3, true, true, $4, $5, $6, now(), now())
		ON CONFLICT (merchant_id) DO NOTHING
		RETURNING ` + settingsColumns
	settings, err := scanSettings(r.db.QueryRow(ctx, query,
		merchantID,
		domain.DefaultSavingsThreshold, domain.DefaultSavingsPercentage,
		domain.DefaultBriefingTime, domain.DefaultOpeningReminder, domain.DefaultClosingReminder,
	))
	if err != nil {
		// DO NOTHING yields no row when a concurrent create won; the
		// existing row is the answer either way.
		if errors.Is(err, pgx.ErrNoRows) {
			return r.Get(ctx, merchantID)
		}
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	return settings, nil
}

func (r *pgSettingsRepository) Patch(ctx context.Context, merchantID int64, patch *domain.SettingsPatch) (*domain.MerchantSettings, error) {
	query := `
		UPDATE merchant_settings
		SET savings_proposal_enabled            = COALESCE($2, savings_proposal_enabled),
		    savings_proposal_threshold          = COALESCE($3, savings_proposal_threshold),
		    savings_proposal_percentage         = COALESCE($4, savings_proposal_percentage),
		    grouped_order_notifications_enabled = COALESCE($5, grouped_order_notifications_enabled),
		    morning_briefing_enabled            = COALESCE($6, morning_briefing_enabled),
		    morning_briefing_time               = COALESCE($7, morning_briefing_time),
		    reminder_opening_time               = COALESCE($8, reminder_opening_time),
		    reminder_closing_time               = COALESCE($9, reminder_closing_time),
		    updated_at = now()
		WHERE merchant_id = $1
		RETURNING ` + settingsColumns
	settings, err := scanSettings(r.db.QueryRow(ctx, query,
		merchantID,
		patch.SavingsProposalEnabled, patch.SavingsProposalThreshold, patch.SavingsProposalPercentage,
		patch.GroupedOrderNotificationsEnabled, patch.MorningBriefingEnabled, patch.MorningBriefingTime,
		patch.ReminderOpeningTime, patch.ReminderClosingTime,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to patch merchant settings: %w", err)
	}
	return settings, nil
}
