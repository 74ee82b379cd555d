package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pnavim/merchant_services/internal/settings_service/domain"
	"github.com/pnavim/merchant_services/internal/settings_service/repository"
)

// SettingsService manages the passive per-merchant configuration.
type SettingsService struct {
	repo   repository.SettingsRepository
	logger *slog.Logger
}

func NewSettingsService(repo repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger.With("service", "settings")}
}

// GetMerchantSettings reads the merchant's row, creating it with
// fixed defaults on first access.
func (s *SettingsService) GetMerchantSettings(ctx context.Context, merchantID int64) (*domain.MerchantSettings, error) {
	settings, err := s.repo.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return s.repo.CreateDefaults(ctx, merchantID)
	}
	return settings, nil
}

// UpdateMerchantSettings ensures the row exists, then applies the
// partial update and bumps updated_at.
func (s *SettingsService) UpdateMerchantSettings(ctx context.Context, merchantID int64, patch *domain.SettingsPatch) (*domain.MerchantSettings, error) {
	if _, err := s.GetMerchantSettings(ctx, merchantID); err != nil {
		return nil, err
	}
	settings, err := s.repo.Patch(ctx, merchantID, patch)
	if err != nil {
		// The ensure-exists above makes this unlikely outside of a
		// concurrent delete.
		if errors.Is(err, repository.ErrSettingsNotFound) {
			s.logger.WarnContext(ctx, "Settings row vanished between ensure and patch", "merchant_id", merchantID)
		}
		return nil, err
	}
	return settings, nil
}
