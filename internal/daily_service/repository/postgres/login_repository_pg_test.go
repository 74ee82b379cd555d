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

	"github.com/pnavim/merchant_services/internal/daily_service/repository"
)

func setupLoginRepoTest(t *testing.T) (repository.LoginRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewPgLoginRepository(mockPool, logger)
	return repo, mockPool
}

func TestPgLoginRepository_InsertFirstLogin(t *testing.T) {
	repo, mockPool := setupLoginRepoTest(t)
	defer mockPool.Close()

	merchantID := int64(9)
	date := "2025-03-10"

	t.Run("FirstLoginInserts", func(t *testing.T) {
		mockPool.ExpectExec(`INSERT INTO merchant_daily_logins .+ ON CONFLICT \(merchant_id, login_date\) DO NOTHING`).
			WithArgs(merchantID, date).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		first, err := repo.InsertFirstLogin(context.Background(), merchantID, date)
		require.NoError(t, err)
		assert.True(t, first)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("ConflictReportsFalse", func(t *testing.T) {
		mockPool.ExpectExec(`INSERT INTO merchant_daily_logins .+ DO NOTHING`).
			WithArgs(merchantID, date).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		first, err := repo.InsertFirstLogin(context.Background(), merchantID, date)
		require.NoError(t, err)
		assert.False(t, first)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgLoginRepository_GetByDate(t *testing.T) {
	repo, mockPool := setupLoginRepoTest(t)
	defer mockPool.Close()

	merchantID := int64(9)
	date := "2025-03-10"

	t.Run("Found", func(t *testing.T) {
		rows := mockPool.NewRows([]string{"id", "merchant_id", "login_date", "first_login_time", "briefing_shown", "briefing_skipped"}).
			AddRow(int64(1), merchantID, date, time.Now(), true, false)

		mockPool.ExpectQuery(`SELECT id, merchant_id, login_date, first_login_time, briefing_shown, briefing_skipped\s+FROM merchant_daily_logins`).
			WithArgs(merchantID, date).
			WillReturnRows(rows)

		login, err := repo.GetByDate(context.Background(), merchantID, date)
		require.NoError(t, err)
		require.NotNil(t, login)
		assert.True(t, login.BriefingShown)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoRowMeansNilNil", func(t *testing.T) {
		mockPool.ExpectQuery(`FROM merchant_daily_logins`).
			WithArgs(merchantID, date).
			WillReturnError(pgx.ErrNoRows)

		login, err := repo.GetByDate(context.Background(), merchantID, date)
		require.NoError(t, err)
		assert.Nil(t, login)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgLoginRepository_SetBriefingFlags(t *testing.T) {
	repo, mockPool := setupLoginRepoTest(t)
	defer mockPool.Close()

	merchantID := int64(9)
	date := "2025-03-10"

	t.Run("ShownFlag", func(t *testing.T) {
		mockPool.ExpectExec(`UPDATE merchant_daily_logins SET briefing_shown = true`).
			WithArgs(merchantID, date).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetBriefingShown(context.Background(), merchantID, date))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("MissingRowIsNoOp", func(t *testing.T) {
		mockPool.ExpectExec(`UPDATE merchant_daily_logins SET briefing_skipped = true`).
			WithArgs(merchantID, date).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		require.NoError(t, repo.SetBriefingSkipped(context.Background(), merchantID, date))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
