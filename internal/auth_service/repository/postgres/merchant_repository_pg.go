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

type pgMerchantRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgMerchantRepository(db repository.DB, logger *slog.Logger) repository.MerchantRepository {
	return &pgMerchantRepository{db: db, logger: logger.With("component", "merchant_repository_pg")}
}

func (r *pgMerchantRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Merchant, error) {
	query := `SELECT id, user_id, business_name, market, created_at FROM merchants WHERE user_id = $1`
	m := &domain.Merchant{}
	err := r.db.QueryRow(ctx, query, userID).Scan(&m.ID, &m.UserID, &m.BusinessName, &m.Market, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant by user id: %w", err)
	}
	return m, nil
}
