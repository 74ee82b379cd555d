package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pnavim/merchant_services/internal/auth_service/domain"
	"github.com/pnavim/merchant_services/internal/auth_service/repository"
)

type pgAttemptRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgAttemptRepository(db repository.DB, logger *slog.Logger) repository.AttemptRepository {
	return &pgAttemptRepository{db: db, logger: logger.With("component", "attempt_repository_pg")}
}

// Append writes one audit row. The table is append-only; nothing in
// this repository mutates or deletes attempts.
func (r *pgAttemptRepository) Append(ctx context.Context, attempt *domain.AuthAttempt) (*domain.AuthAttempt, error) {
	query := `
		INSERT INTO auth_attempts (phone, user_id, success, trust_score, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, phone, user_id, success, trust_score, created_at`
	created := &domain.AuthAttempt{}
	err := r.db.QueryRow(ctx, query, attempt.Phone, attempt.UserID, attempt.Success, attempt.TrustScore).Scan(
		&created.ID, &created.Phone, &created.UserID, &created.Success, &created.TrustScore, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append auth attempt: %w", err)
	}
	return created, nil
}

func (r *pgAttemptRepository) GetRecentByPhone(ctx context.Context, phone string, since time.Time) ([]domain.AuthAttempt, error) {
	query := `
		SELECT id, phone, user_id, success, trust_score, created_at
		FROM auth_attempts
		WHERE phone = $1 AND created_at >= $2
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, phone, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent auth attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.AuthAttempt
	for rows.Next() {
		var a domain.AuthAttempt
		if err := rows.Scan(&a.ID, &a.Phone, &a.UserID, &a.Success, &a.TrustScore, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan auth attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *pgAttemptRepository) GetStatsForMerchant(ctx context.Context, merchantID int64, since time.Time) (*domain.AuthStats, error) {
	query := `
		SELECT count(*),
		       COALESCE(sum(CASE WHEN aa.success THEN 1 ELSE 0 END), 0),
		       COALESCE(sum(CASE WHEN NOT aa.success THEN 1 ELSE 0 END), 0),
		       COALESCE(avg(aa.trust_score), 0)
		FROM auth_attempts aa
		INNER JOIN users u ON aa.user_id = u.id
		INNER JOIN merchants m ON u.id = m.user_id
		WHERE m.id = $1 AND aa.created_at >= $2`
	stats := &domain.AuthStats{}
	err := r.db.QueryRow(ctx, query, merchantID, since).Scan(
		&stats.TotalAttempts, &stats.SuccessfulAttempts, &stats.FailedAttempts, &stats.AverageTrustScore,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth stats: %w", err)
	}
	return stats, nil
}
