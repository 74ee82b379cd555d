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

	"github.com/pnavim/merchant_services/internal/auth_service/domain"
	"github.com/pnavim/merchant_services/internal/auth_service/repository"
)

var merchantChallengeColumns = []string{"id", "merchant_id", "challenge_id", "answer_hash", "is_primary", "created_at"}

func setupChallengeRepoTest(t *testing.T) (repository.ChallengeRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewPgChallengeRepository(mockPool, logger)
	return repo, mockPool
}

func TestPgChallengeRepository_GetActiveByCategory(t *testing.T) {
	repo, mockPool := setupChallengeRepoTest(t)
	defer mockPool.Close()

	rows := mockPool.NewRows([]string{"id", "category", "question_fr", "question_dioula", "difficulty", "is_active", "created_at"}).
		AddRow(int64(1), "famille", "Quel est le prenom de votre mere ?", "I ba togo ?", 1, true, time.Now()).
		AddRow(int64(2), "famille", "Ou etes-vous ne ?", "", 2, true, time.Now())

	mockPool.ExpectQuery(`SELECT id, category, question_fr, question_dioula, difficulty, is_active, created_at\s+FROM social_challenges\s+WHERE category = \$1 AND is_active = true`).
		WithArgs("famille").
		WillReturnRows(rows)

	challenges, err := repo.GetActiveByCategory(context.Background(), "famille")
	require.NoError(t, err)
	require.Len(t, challenges, 2)
	assert.Equal(t, "famille", challenges[0].Category)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPgChallengeRepository_GetPrimaryForMerchant(t *testing.T) {
	repo, mockPool := setupChallengeRepoTest(t)
	defer mockPool.Close()

	merchantID := int64(9)

	t.Run("NoPrimarySet", func(t *testing.T) {
		mockPool.ExpectQuery(`WHERE mc\.merchant_id = \$1 AND mc\.is_primary = true`).
			WithArgs(merchantID).
			WillReturnError(pgx.ErrNoRows)

		detail, err := repo.GetPrimaryForMerchant(context.Background(), merchantID)
		require.NoError(t, err)
		assert.Nil(t, detail)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Found", func(t *testing.T) {
		rows := mockPool.NewRows([]string{"id", "merchant_id", "challenge_id", "answer_hash", "is_primary", "question_fr", "question_dioula", "category", "difficulty"}).
			AddRow(int64(4), merchantID, int64(1), "$2a$10$hash", true, "Quel est le prenom de votre mere ?", "", "famille", 1)

		mockPool.ExpectQuery(`WHERE mc\.merchant_id = \$1 AND mc\.is_primary = true`).
			WithArgs(merchantID).
			WillReturnRows(rows)

		detail, err := repo.GetPrimaryForMerchant(context.Background(), merchantID)
		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.True(t, detail.IsPrimary)
		assert.Equal(t, "famille", detail.Category)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPgChallengeRepository_Create(t *testing.T) {
	merchantID := int64(9)

	t.Run("NonPrimaryPlainInsert", func(t *testing.T) {
		repo, mockPool := setupChallengeRepoTest(t)
		defer mockPool.Close()

		rows := mockPool.NewRows(merchantChallengeColumns).
			AddRow(int64(4), merchantID, int64(1), "$2a$10$hash", false, time.Now())

		mockPool.ExpectQuery(`INSERT INTO merchant_challenges`).
			WithArgs(merchantID, int64(1), "$2a$10$hash", false).
			WillReturnRows(rows)

		created, err := repo.Create(context.Background(), &domain.MerchantChallenge{
			MerchantID: merchantID, ChallengeID: 1, AnswerHash: "$2a$10$hash", IsPrimary: false,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), created.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("PrimaryDemotesInTransaction", func(t *testing.T) {
		repo, mockPool := setupChallengeRepoTest(t)
		defer mockPool.Close()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE merchant_challenges SET is_primary = false WHERE merchant_id = \$1 AND is_primary = true`).
			WithArgs(merchantID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectQuery(`INSERT INTO merchant_challenges`).
			WithArgs(merchantID, int64(2), "$2a$10$hash2", true).
			WillReturnRows(mockPool.NewRows(merchantChallengeColumns).
				AddRow(int64(5), merchantID, int64(2), "$2a$10$hash2", true, time.Now()))
		mockPool.ExpectCommit()

		created, err := repo.Create(context.Background(), &domain.MerchantChallenge{
			MerchantID: merchantID, ChallengeID: 2, AnswerHash: "$2a$10$hash2", IsPrimary: true,
		})
		require.NoError(t, err)
		assert.True(t, created.IsPrimary)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("PrimaryInsertFailureRollsBack", func(t *testing.T) {
		repo, mockPool := setupChallengeRepoTest(t)
		defer mockPool.Close()

		mockPool.ExpectBegin()
		mockPool.ExpectExec(`UPDATE merchant_challenges SET is_primary = false`).
			WithArgs(merchantID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectQuery(`INSERT INTO merchant_challenges`).
			WithArgs(merchantID, int64(2), "$2a$10$hash2", true).
			WillReturnError(pgx.ErrTxClosed)
		mockPool.ExpectRollback()

		created, err := repo.Create(context.Background(), &domain.MerchantChallenge{
			MerchantID: merchantID, ChallengeID: 2, AnswerHash: "$2a$10$hash2", IsPrimary: true,
		})
		require.Error(t, err)
		assert.Nil(t, created)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
