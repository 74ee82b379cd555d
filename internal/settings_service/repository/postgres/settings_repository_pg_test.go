package postgres

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnavim/merchant_services/internal/settings_service/domain"
	"github.com/pnavim/merchant_services/internal/settings_service/repository"
)

var settingsRowColumns = []string{
	"id", "merchant_id", "savings_proposal_enabled", "savings_proposal_threshold", "savings_proposal_percentage",
	"grouped_order_notifications_enabled", "morning_briefing_enabled", "morning_briefing_time",
	"reminder_opening_time", "reminder_closing_time", "created_at", "updated_at",
}

func setupSettingsRepoTest(t *testing.T) (repository.SettingsRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewPgSettingsRepository(mockPool, logger)
	return repo, mockPool
}

func defaultSettingsRow(mockPool pgxmock.PgxPoolIface, merchantID int64) *pgxmock.Rows {
	return mockPool.NewRows(settingsRowColumns).AddRow(
		int64(1), merchantID, true, domain.DefaultSavingsThreshold, domain.DefaultSavingsPercentage,
		true, true, domain.DefaultBriefingTime,
		domain.DefaultOpeningReminder, domain.DefaultClosingReminder, time.Now(), time.Now(),
	)
}

func TestPgSettingsRepository_Get(t *testing.T) {
	repo, mockPool := setupSettingsRepoTest(t)
	defer mockPool.Close()

	merchantID := int64(9)

	t.Run("Found", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .+ FROM merchant_settings WHERE merchant_id = \$1`).
			WithArgs(merchantID).
			WillReturnRows(defaultSettingsRow(mockPool, merchantID))

		settings, err := repo.Get(context.Background(), merchantID)
		require.NoError(t, err)
		require.NotNil(t, settings)
		assert.Equal(t, domain.DefaultSavingsThreshold, settings.SavingsProposalThreshold)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoRowMeansNilNil", func(t *testing.T) {
		mockPool.ExpectQuery(`SELECT .+ FROM merchant_settings WHERE merchant_id = \$1`).
			WithArgs(merchantID).
			WillReturnError(pgx.ErrNoRows)

		settings, err := repo.Get(context.Background(), merchantID)
		require.NoError(t, err)
		assert.Nil(t, settings)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgSettingsRepository_CreateDefaults(t *testing.T) {
	repo, mockPool := setupSettingsRepoTest(t)
	defer mockPool.Close()

	merchantID := int64(9)
	defaultArgs := []any{
		merchantID,
		domain.DefaultSavingsThreshold, domain.DefaultSavingsPercentage,
		domain.DefaultBriefingTime, domain.DefaultOpeningReminder, domain.DefaultClosingReminder,
	}

	t.Run("InsertsDefaults", func(t *testing.T) {
		mockPool.ExpectQuery(`INSERT INTO merchant_settings .+ ON CONFLICT \(merchant_id\) DO NOTHING`).
			WithArgs(defaultArgs...).
			WillReturnRows(defaultSettingsRow(mockPool, merchantID))

		settings, err := repo.CreateDefaults(context.Background(), merchantID)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultBriefingTime, settings.MorningBriefingTime)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("LostRaceFallsBackToGet", func(t *testing.T) {
		mockPool.ExpectQuery(`INSERT INTO merchant_settings .+ DO NOTHING`).
			WithArgs(defaultArgs...).
			WillReturnError(pgx.ErrNoRows)
		mockPool.ExpectQuery(`SELECT .+ FROM merchant_settings WHERE merchant_id = \$1`).
			WithArgs(merchantID).
			WillReturnRows(defaultSettingsRow(mockPool, merchantID))

		settings, err := repo.CreateDefaults(context.Background(), merchantID)
		require.NoError(t, err)
		require.NotNil(t, settings)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgSettingsRepository_Patch(t *testing.T) {
	repo, mockPool := setupSettingsRepoTest(t)
	defer mockPool.Close()

	merchantID := int64(9)

	t.Run("PartialUpdate", func(t *testing.T) {
		newThreshold := "50000"
		patch := &domain.SettingsPatch{SavingsProposalThreshold: &newThreshold}

		rows := mockPool.NewRows(settingsRowColumns).AddRow(
			int64(1), merchantID, true, newThreshold, domain.DefaultSavingsPercentage,
			true, true, domain.DefaultBriefingTime,
			domain.DefaultOpeningReminder, domain.DefaultClosingReminder, time.Now(), time.Now(),
		)

		mockPool.ExpectQuery(`UPDATE merchant_settings\s+SET savings_proposal_enabled\s+= COALESCE\(\$2, savings_proposal_enabled\)`).
			WithArgs(merchantID,
				patch.SavingsProposalEnabled, patch.SavingsProposalThreshold, patch.SavingsProposalPercentage,
				patch.GroupedOrderNotificationsEnabled, patch.MorningBriefingEnabled, patch.MorningBriefingTime,
				patch.ReminderOpeningTime, patch.ReminderClosingTime).
			WillReturnRows(rows)

		settings, err := repo.Patch(context.Background(), merchantID, patch)
		require.NoError(t, err)
		assert.Equal(t, newThreshold, settings.SavingsProposalThreshold)
		assert.Equal(t, domain.DefaultSavingsPercentage, settings.SavingsProposalPercentage)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("MissingRow", func(t *testing.T) {
		patch := &domain.SettingsPatch{}
		mockPool.ExpectQuery(`UPDATE merchant_settings`).
			WithArgs(merchantID,
				patch.SavingsProposalEnabled, patch.SavingsProposalThreshold, patch.SavingsProposalPercentage,
				patch.GroupedOrderNotificationsEnabled, patch.MorningBriefingEnabled, patch.MorningBriefingTime,
				patch.ReminderOpeningTime, patch.ReminderClosingTime).
			WillReturnError(pgx.ErrNoRows)

		settings, err := repo.Patch(context.Background(), merchantID, patch)
		require.ErrorIs(t, err, repository.ErrSettingsNotFound)
		assert.Nil(t, settings)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
