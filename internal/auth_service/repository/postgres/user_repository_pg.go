package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pnavim/merchant_services/internal/auth_service/domain"
	"github.com/pnavim/merchant_services/internal/auth_service/repository"
)

const userColumns = `id, open_id, name, phone, phone_verified, pin_hash, pin_failed_attempts,
	       pin_locked_until, role, login_method, created_at, updated_at`

type pgUserRepository struct {
	db     repository.DB
	logger *slog.Logger
}

func NewPgUserRepository(db repository.DB, logger *slog.Logger) repository.UserRepository {
	return &pgUserRepository{db: db, logger: logger.With("component", "user_repository_pg")}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.OpenID, &u.Name, &u.Phone, &u.PhoneVerified, &u.PinHash,
		&u.PinFailedAttempts, &u.PinLockedUntil, &u.Role, &u.LoginMethod,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *pgUserRepository) CreateWithPhone(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (open_id, name, phone, phone_verified, pin_hash, role, login_method, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $5, $6, now(), now())
		RETURNING ` + userColumns
	row := r.db.QueryRow(ctx, query,
		user.OpenID, user.Name, user.Phone, user.PinHash, user.Role, user.LoginMethod,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdatePinHash(ctx context.Context, id int64, pinHash string) (*domain.User, error) {
	query := `UPDATE users SET pin_hash = $2, updated_at = now() WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, id, pinHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update pin hash: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) MarkPhoneVerified(ctx context.Context, id int64) (*domain.User, error) {
	query := `UPDATE users SET phone_verified = true, updated_at = now() WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to mark phone verified: %w", err)
	}
	return user, nil
}

// IncrementPinFailedAttempts bumps the counter in a single statement
// so concurrent failures from the same account cannot lose updates.
func (r *pgUserRepository) IncrementPinFailedAttempts(ctx context.Context, id int64) (int, error) {
	query := `
		UPDATE users
		SET pin_failed_attempts = COALESCE(pin_failed_attempts, 0) + 1, updated_at = now()
		WHERE id = $1
		RETURNING pin_failed_attempts`
	var attempts int
	if err := r.db.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to increment pin failed attempts: %w", err)
	}
	return attempts, nil
}

func (r *pgUserRepository) SetPinLockout(ctx context.Context, id int64, until time.Time) error {
	query := `UPDATE users SET pin_locked_until = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, until)
	if err != nil {
		return fmt.Errorf("failed to set pin lockout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *pgUserRepository) ResetPinFailedAttempts(ctx context.Context, id int64) error {
	query := `UPDATE users SET pin_failed_attempts = 0, pin_locked_until = NULL, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to reset pin failed attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}
