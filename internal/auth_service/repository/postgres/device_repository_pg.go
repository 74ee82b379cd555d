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

const deviceColumns = `id, merchant_id, device_fingerprint, device_name, times_used, is_trusted, last_seen, created_at`

type pgDeviceRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgDeviceRepository(db repository.DB, logger *slog.Logger) repository.DeviceRepository {
	return &pgDeviceRepository{db: db, logger: logger.With("component", "device_repository_pg")}
}

func scanDevice(row pgx.Row) (*domain.MerchantDevice, error) {
	d := &domain.MerchantDevice{}
	err := row.Scan(
		&d.ID, &d.MerchantID, &d.DeviceFingerprint, &d.DeviceName,
		&d.TimesUsed, &d.IsTrusted, &d.LastSeen, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *pgDeviceRepository) Get(ctx context.Context, merchantID int64, fingerprint string) (*domain.MerchantDevice, error) {
	query := `SELECT ` + deviceColumns + ` FROM merchant_devices WHERE merchant_id = $1 AND device_fingerprint = $2`
	device, err := scanDevice(r.db.QueryRow(ctx, query, merchantID, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get merchant device: %w", err)
	}
	return device, nil
}

// Upsert is a single statement keyed by (merchant_id,
// device_fingerprint) so concurrent sightings of the same fingerprint
// cannot create duplicate rows or lose a counter bump.
func (r *pgDeviceRepository) Upsert(ctx context.Context, merchantID int64, fingerprint, deviceName string) (*domain.MerchantDevice, error) {
	if deviceName == "" {
		deviceName = domain.DefaultDeviceName
	}
	query := `
		INSERT INTO merchant_devices (merchant_id, device_fingerprint, device_name, times_used, is_trusted, last_seen, created_at)
		VALUES ($1, $2, $3, 1, false, now(), now())
		ON CONFLICT (merchant_id, device_fingerprint)
		DO UPDATE SET times_used = merchant_devices.times_used + 1, last_seen = now()
		RETURNING ` + deviceColumns
	device, err := scanDevice(r.db.QueryRow(ctx, query, merchantID, fingerprint, deviceName))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert merchant device: %w", err)
	}
	return device, nil
}

func (r *pgDeviceRepository) Trust(ctx context.Context, merchantID int64, fingerprint string) (*domain.MerchantDevice, error) {
	query := `
		UPDATE merchant_devices SET is_trusted = true
		WHERE merchant_id = $1 AND device_fingerprint = $2
		RETURNING ` + deviceColumns
	device, err := scanDevice(r.db.QueryRow(ctx, query, merchantID, fingerprint))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to trust merchant device: %w", err)
	}
	return device, nil
}
