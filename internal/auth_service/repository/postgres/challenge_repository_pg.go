package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/pnavim/merchant_services/internal/auth_service/domain"
	"github.com/pnavim/merchant_services/internal/auth_service/repository"
)

const merchantChallengeDetailColumns = `mc.id, mc.merchant_id, mc.challenge_id, mc.answer_hash, mc.is_primary,
	       sc.question_fr, sc.question_dioula, sc.category, sc.difficulty`

type pgChallengeRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgChallengeRepository(db repository.DB, logger *slog.Logger) repository.ChallengeRepository {
	return &pgChallengeRepository{db: db, logger: logger.With("component", "challenge_repository_pg")}
}

func (r *pgChallengeRepository) GetActiveByCategory(ctx context.Context, category string) ([]domain.SocialChallenge, error) {
	query := `
		SELECT id, category, question_fr, question_dioula, difficulty, is_active, created_at
		FROM social_challenges
		WHERE category = $1 AND is_active = true`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query active challenges: %w", err)
	}
	defer rows.Close()

	var challenges []domain.SocialChallenge
	for rows.Next() {
		var c domain.SocialChallenge
		if err := rows.Scan(&c.ID, &c.Category, &c.QuestionFr, &c.QuestionDioula, &c.Difficulty, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func scanMerchantChallengeDetail(row pgx.Row) (*domain.MerchantChallengeDetail, error) {
	d := &domain.MerchantChallengeDetail{}
	err := row.Scan(
		&d.ID, &d.MerchantID, &d.ChallengeID, &d.AnswerHash, &d.IsPrimary,
		&d.QuestionFr, &d.QuestionDioula, &d.Category, &d.Difficulty,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *pgChallengeRepository) GetMerchantChallenges(ctx context.Context, merchantID int64) ([]domain.MerchantChallengeDetail, error) {
	query := `
		SELECT ` + merchantChallengeDetailColumns + `
		FROM merchant_challenges mc
		INNER JOIN social_challenges sc ON mc.challenge_id = sc.id
		WHERE mc.merchant_id = $1`
	rows, err := r.db.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant challenges: %w", err)
	}
	defer rows.Close()

	var details []domain.MerchantChallengeDetail
	for rows.Next() {
		var d domain.MerchantChallengeDetail
		if err := rows.Scan(&d.ID, &d.MerchantID, &d.ChallengeID, &d.AnswerHash, &d.IsPrimary,
			&d.QuestionFr, &d.QuestionDioula, &d.Category, &d.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan merchant challenge: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *pgChallengeRepository) GetPrimaryForMerchant(ctx context.Context, merchantID int64) (*domain.MerchantChallengeDetail, error) {
	query := `
		SELECT ` + merchantChallengeDetailColumns + `
		FROM merchant_challenges mc
		INNER JOIN social_challenges sc ON mc.challenge_id = sc.id
		WHERE mc.merchant_id = $1 AND mc.is_primary = true`
	detail, err := scanMerchantChallengeDetail(r.db.QueryRow(ctx, query, merchantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get primary challenge: %w", err)
	}
	return detail, nil
}

func (r *pgChallengeRepository) GetMerchantChallengeByID(ctx context.Context, id int64) (*domain.MerchantChallenge, error) {
	query := `SELECT id, merchant_id, challenge_id, answer_hash, is_primary, created_at FROM merchant_challenges WHERE id = $1`
	mc := &domain.MerchantChallenge{}
	err := r.db.QueryRow(ctx, query, id).Scan(&mc.ID, &mc.MerchantID, &mc.ChallengeID, &mc.AnswerHash, &mc.IsPrimary, &mc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get merchant challenge: %w", err)
	}
	return mc, nil
}

// Create inserts a challenge link. A primary link demotes any current
// primary inside the same transaction, so at most one row per
// merchant carries the flag.
func (r *pgChallengeRepository) Create(ctx context.Context, mc *domain.MerchantChallenge) (*domain.MerchantChallenge, error) {
	insert := `
		INSERT INTO merchant_challenges (merchant_id, challenge_id, answer_hash, is_primary, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, merchant_id, challenge_id, answer_hash, is_primary, created_at`

	scanCreated := func(row pgx.Row) (*domain.MerchantChallenge, error) {
		created := &domain.MerchantChallenge{}
		err := row.Scan(&created.ID, &created.MerchantID, &created.ChallengeID,
			&created.AnswerHash, &created.IsPrimary, &created.CreatedAt)
		return created, err
	}

	if !mc.IsPrimary {
		created, err := scanCreated(r.db.QueryRow(ctx, insert, mc.MerchantID, mc.ChallengeID, mc.AnswerHash, mc.IsPrimary))
		if err != nil {
			return nil, fmt.Errorf("failed to insert merchant challenge: %w", err)
		}
		return created, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	demote := `UPDATE merchant_challenges SET is_primary = false WHERE merchant_id = $1 AND is_primary = true`
	if _, err := tx.Exec(ctx, demote, mc.MerchantID); err != nil {
		return nil, fmt.Errorf("failed to demote existing primary challenge: %w", err)
	}

	created, err := scanCreated(tx.QueryRow(ctx, insert, mc.MerchantID, mc.ChallengeID, mc.AnswerHash, mc.IsPrimary))
	if err != nil {
		return nil, fmt.Errorf("failed to insert primary merchant challenge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit merchant challenge: %w", err)
	}
	return created, nil
}
