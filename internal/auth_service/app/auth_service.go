package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pnavim/merchant_services/internal/auth_service/domain"
	"github.com/pnavim/merchant_services/internal/auth_service/repository"
	"github.com/pnavim/merchant_services/internal/platform/messagebroker"
)

var (
	ErrPhoneExists      = errors.New("phone already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrDeviceNotFound   = errors.New("device not found")
)

// HashPin hashes a PIN code with bcrypt. PINs are never stored or
// compared in plaintext.
func HashPin(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPinHash compares a candidate PIN against a stored bcrypt hash.
func CheckPinHash(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

// normalizeAnswer applies the canonical challenge-answer form used at
// both enrollment and verification time.
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// AuthConfig carries the policy knobs of the auth engine.
type AuthConfig struct {
	JWTSecret            string
	JWTSessionTTLHours   int
	PinMaxFailedAttempts int
	PinLockoutMinutes    int
}

// LockoutStatus reports the outcome of one failed-PIN increment.
type LockoutStatus struct {
	Locked   bool `json:"locked"`
	Attempts int  `json:"attempts"`
}

// AuthResult is the outcome of the composed phone+PIN protocol.
// Authentication failures are data, not errors: the error return is
// reserved for store failures.
type AuthResult struct {
	Success        bool                   `json:"success"`
	Locked         bool                   `json:"locked"`
	LockedUntil    *time.Time             `json:"locked_until,omitempty"`
	FailedAttempts int                    `json:"failed_attempts,omitempty"`
	Token          string                 `json:"token,omitempty"`
	User           *domain.User           `json:"user,omitempty"`
	Merchant       *domain.Merchant       `json:"merchant,omitempty"`
	Device         *domain.MerchantDevice `json:"device,omitempty"`
}

// AuthService is the auth & trust engine: phone identity, PIN policy
// with time-boxed lockout, knowledge challenges, device trust, and
// the attempt audit trail.
type AuthService struct {
	userRepo      repository.UserRepository
	merchantRepo  repository.MerchantRepository
	challengeRepo repository.ChallengeRepository
	deviceRepo    repository.DeviceRepository
	attemptRepo   repository.AttemptRepository
	natsClient    *messagebroker.NatsClient
	config        AuthConfig
	logger        *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	merchantRepo repository.MerchantRepository,
	challengeRepo repository.ChallengeRepository,
	deviceRepo repository.DeviceRepository,
	attemptRepo repository.AttemptRepository,
	natsClient *messagebroker.NatsClient,
	config AuthConfig,
	logger *slog.Logger,
) *AuthService {
	if config.PinMaxFailedAttempts <= 0 {
		config.PinMaxFailedAttempts = 5
	}
	if config.PinLockoutMinutes <= 0 {
		config.PinLockoutMinutes = 15
	}
	return &AuthService{
		userRepo:      userRepo,
		merchantRepo:  merchantRepo,
		challengeRepo: challengeRepo,
		deviceRepo:    deviceRepo,
		attemptRepo:   attemptRepo,
		natsClient:    natsClient,
		config:        config,
		logger:        logger.With("service", "auth"),
	}
}

// RegisterWithPhone creates a user with a hashed PIN and a synthesized
// open id. Phone uniqueness ultimately rests on the store's unique
// constraint; the lookup here only gives a friendlier error.
func (s *AuthService) RegisterWithPhone(ctx context.Context, phone, name, pinCode string) (*domain.User, error) {
	existing, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.ErrorContext(ctx, "Error checking phone existence", "error", err, "phone", phone)
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneExists
	}

	pinHash, err := HashPin(pinCode)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hash PIN", "error", err)
		return nil, fmt.Errorf("failed to process registration: %w", err)
	}

	openID := fmt.Sprintf("phone-%s-%d", strings.ReplaceAll(phone, "+", ""), time.Now().UnixMilli())
	user := &domain.User{
		OpenID:      openID,
		Name:        name,
		Phone:       &phone,
		PinHash:     &pinHash,
		Role:        domain.RoleMerchant,
		LoginMethod: domain.LoginMethodPhoneSocial,
	}

	created, err := s.userRepo.CreateWithPhone(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrPhoneExists
		}
		s.logger.ErrorContext(ctx, "Failed to create user", "error", err, "phone", phone)
		return nil, err
	}

	s.publishEvent(ctx, "merchant.registered", map[string]any{
		"user_id": created.ID,
		"phone":   phone,
	})
	return created, nil
}

// FindUserByPhone returns ErrUserNotFound when no account carries the
// phone; no side effects either way.
func (s *AuthService) FindUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetMerchantByUserID resolves the merchant profile owned by a user.
func (s *AuthService) GetMerchantByUserID(ctx context.Context, userID int64) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return merchant, nil
}

// VerifyPinCode reports whether the candidate matches the stored
// hash. A missing user or unset PIN verifies false, never errors.
func (s *AuthService) VerifyPinCode(ctx context.Context, userID int64, pinCode string) bool {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.ErrorContext(ctx, "Error fetching user for PIN verification", "error", err, "user_id", userID)
		}
		return false
	}
	if user.PinHash == nil {
		return false
	}
	return CheckPinHash(pinCode, *user.PinHash)
}

// IncrementPinFailedAttempts atomically bumps the failure counter and
// arms the lockout once the threshold is reached. The counter is not
// reset on lockout; only a successful authentication clears it.
func (s *AuthService) IncrementPinFailedAttempts(ctx context.Context, userID int64) (*LockoutStatus, error) {
	attempts, err := s.userRepo.IncrementPinFailedAttempts(ctx, userID)
	if err != nil {
		return nil, err
	}

	if attempts >= s.config.PinMaxFailedAttempts {
		until := time.Now().Add(time.Duration(s.config.PinLockoutMinutes) * time.Minute)
		if err := s.userRepo.SetPinLockout(ctx, userID, until); err != nil {
			return nil, err
		}
		lockoutsTriggeredCounter.Inc()
		s.logger.WarnContext(ctx, "Account locked after repeated PIN failures",
			"user_id", userID, "attempts", attempts, "locked_until", until)
		s.publishEvent(ctx, "merchant.locked_out", map[string]any{
			"user_id":      userID,
			"attempts":     attempts,
			"locked_until": until,
		})
		return &LockoutStatus{Locked: true, Attempts: attempts}, nil
	}
	return &LockoutStatus{Locked: false, Attempts: attempts}, nil
}

// ResetPinFailedAttempts zeroes the counter and clears any lockout.
func (s *AuthService) ResetPinFailedAttempts(ctx context.Context, userID int64) error {
	return s.userRepo.ResetPinFailedAttempts(ctx, userID)
}

// IsAccountLocked is true iff a lockout timestamp exists strictly in
// the future. An expired lockout reads as unlocked but is not
// cleared; the next successful auth resets it.
func (s *AuthService) IsAccountLocked(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.PinLockedUntil != nil && time.Now().Before(*user.PinLockedUntil), nil
}

// UpdatePinCode replaces the stored credential. Failed-attempt state
// is deliberately left alone; callers reset it when appropriate.
func (s *AuthService) UpdatePinCode(ctx context.Context, userID int64, newPinCode string) (*domain.User, error) {
	pinHash, err := HashPin(newPinCode)
	if err != nil {
		return nil, fmt.Errorf("failed to hash new PIN: %w", err)
	}
	user, err := s.userRepo.UpdatePinHash(ctx, userID, pinHash)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// MarkPhoneAsVerified is idempotent.
func (s *AuthService) MarkPhoneAsVerified(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.MarkPhoneVerified(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnrollChallenge stores a merchant's answer to a catalog question.
// Answers are normalized (trim + casefold) before hashing so
// verification is whitespace- and case-insensitive.
func (s *AuthService) EnrollChallenge(ctx context.Context, merchantID, challengeID int64, answer string, isPrimary bool) (*domain.MerchantChallenge, error) {
	answerHash, err := bcrypt.GenerateFromPassword([]byte(normalizeAnswer(answer)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash challenge answer: %w", err)
	}
	return s.challengeRepo.Create(ctx, &domain.MerchantChallenge{
		MerchantID:  merchantID,
		ChallengeID: challengeID,
		AnswerHash:  string(answerHash),
		IsPrimary:   isPrimary,
	})
}

// VerifyChallenge checks a candidate answer against the stored hash.
// A missing challenge link verifies false rather than erroring.
func (s *AuthService) VerifyChallenge(ctx context.Context, merchantChallengeID int64, answer string) bool {
	mc, err := s.challengeRepo.GetMerchantChallengeByID(ctx, merchantChallengeID)
	if err != nil {
		if !errors.Is(err, repository.ErrChallengeNotFound) {
			s.logger.ErrorContext(ctx, "Error fetching merchant challenge", "error", err, "merchant_challenge_id", merchantChallengeID)
		}
		challengeVerificationsCounter.WithLabelValues("missing").Inc()
		return false
	}
	match := bcrypt.CompareHashAndPassword([]byte(mc.AnswerHash), []byte(normalizeAnswer(answer))) == nil
	if match {
		challengeVerificationsCounter.WithLabelValues("match").Inc()
	} else {
		challengeVerificationsCounter.WithLabelValues("mismatch").Inc()
	}
	return match
}

func (s *AuthService) GetActiveChallengesByCategory(ctx context.Context, category string) ([]domain.SocialChallenge, error) {
	return s.challengeRepo.GetActiveByCategory(ctx, category)
}

func (s *AuthService) GetMerchantChallenges(ctx context.Context, merchantID int64) ([]domain.MerchantChallengeDetail, error) {
	return s.challengeRepo.GetMerchantChallenges(ctx, merchantID)
}

// GetPrimaryChallengeForMerchant returns nil when no link carries the
// primary flag.
func (s *AuthService) GetPrimaryChallengeForMerchant(ctx context.Context, merchantID int64) (*domain.MerchantChallengeDetail, error) {
	return s.challengeRepo.GetPrimaryForMerchant(ctx, merchantID)
}

func (s *AuthService) GetMerchantDevice(ctx context.Context, merchantID int64, fingerprint string) (*domain.MerchantDevice, error) {
	device, err := s.deviceRepo.Get(ctx, merchantID, fingerprint)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return device, nil
}

// RegisterDeviceSighting upserts the (merchant, fingerprint) row:
// first sighting inserts an untrusted device with times_used = 1,
// later sightings bump the counter and last_seen.
func (s *AuthService) RegisterDeviceSighting(ctx context.Context, merchantID int64, fingerprint, deviceName string) (*domain.MerchantDevice, error) {
	return s.deviceRepo.Upsert(ctx, merchantID, fingerprint, deviceName)
}

// TrustDevice promotes a known device. Trust is never granted by the
// upsert path, only here.
func (s *AuthService) TrustDevice(ctx context.Context, merchantID int64, fingerprint string) (*domain.MerchantDevice, error) {
	device, err := s.deviceRepo.Trust(ctx, merchantID, fingerprint)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return device, nil
}

// LogAuthAttempt appends one audit row; store errors propagate.
func (s *AuthService) LogAuthAttempt(ctx context.Context, attempt *domain.AuthAttempt) (*domain.AuthAttempt, error) {
	return s.attemptRepo.Append(ctx, attempt)
}

// GetRecentAuthAttempts returns the attempts for a phone in the
// trailing window, newest first. hoursBack <= 0 means 24.
func (s *AuthService) GetRecentAuthAttempts(ctx context.Context, phone string, hoursBack int) ([]domain.AuthAttempt, error) {
	if hoursBack <= 0 {
		hoursBack = 24
	}
	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour)
	return s.attemptRepo.GetRecentByPhone(ctx, phone, since)
}

// GetAuthStats aggregates the merchant's attempts over the trailing
// 30 days.
func (s *AuthService) GetAuthStats(ctx context.Context, merchantID int64) (*domain.AuthStats, error) {
	since := time.Now().AddDate(0, 0, -30)
	return s.attemptRepo.GetStatsForMerchant(ctx, merchantID, since)
}

// AuthenticateWithPin runs the composed protocol: lookup -> lockout
// gate -> PIN check -> counter/lockout bookkeeping -> audit log ->
// device sighting -> session token. Knowledge challenges are a
// separate recovery factor and are not consulted here.
func (s *AuthService) AuthenticateWithPin(ctx context.Context, phone, pinCode, deviceFingerprint, deviceName string, trustScore float64) (*AuthResult, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			authAttemptsCounter.WithLabelValues("unknown_phone").Inc()
			s.logAttempt(ctx, phone, nil, false, trustScore)
			return &AuthResult{Success: false}, nil
		}
		return nil, err
	}

	if user.PinLockedUntil != nil && time.Now().Before(*user.PinLockedUntil) {
		authAttemptsCounter.WithLabelValues("locked").Inc()
		s.logger.WarnContext(ctx, "Authentication attempt on locked account", "user_id", user.ID, "locked_until", *user.PinLockedUntil)
		s.logAttempt(ctx, phone, &user.ID, false, trustScore)
		return &AuthResult{Success: false, Locked: true, LockedUntil: user.PinLockedUntil, FailedAttempts: user.PinFailedAttempts}, nil
	}

	if user.PinHash == nil || !CheckPinHash(pinCode, *user.PinHash) {
		status, err := s.IncrementPinFailedAttempts(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		authAttemptsCounter.WithLabelValues("invalid_pin").Inc()
		s.logAttempt(ctx, phone, &user.ID, false, trustScore)
		return &AuthResult{Success: false, Locked: status.Locked, FailedAttempts: status.Attempts}, nil
	}

	if err := s.userRepo.ResetPinFailedAttempts(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to reset PIN failure counter after successful auth", "error", err, "user_id", user.ID)
	}
	authAttemptsCounter.WithLabelValues("success").Inc()
	s.logAttempt(ctx, phone, &user.ID, true, trustScore)

	result := &AuthResult{Success: true, User: user}

	merchant, err := s.merchantRepo.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrMerchantNotFound) {
		return nil, err
	}
	result.Merchant = merchant

	if merchant != nil && deviceFingerprint != "" {
		device, err := s.deviceRepo.Upsert(ctx, merchant.ID, deviceFingerprint, deviceName)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to record device sighting", "error", err, "merchant_id", merchant.ID)
		} else {
			result.Device = device
		}
	}

	token, err := s.issueSessionToken(user, merchant)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sign session token", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("token generation error: %w", err)
	}
	result.Token = token

	s.publishEvent(ctx, "merchant.authenticated", map[string]any{
		"user_id": user.ID,
		"phone":   phone,
	})
	return result, nil
}

func (s *AuthService) issueSessionToken(user *domain.User, merchant *domain.Merchant) (string, error) {
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", user.ID),
		"rol": user.Role,
		"jti": uuid.NewString(),
		"exp": time.Now().Add(time.Duration(s.config.JWTSessionTTLHours) * time.Hour).Unix(),
		"iat": time.Now().Unix(),
		"iss": "pnavim-merchant-api",
	}
	if merchant != nil {
		claims["mid"] = merchant.ID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) logAttempt(ctx context.Context, phone string, userID *int64, success bool, trustScore float64) {
	if _, err := s.attemptRepo.Append(ctx, &domain.AuthAttempt{
		Phone:      phone,
		UserID:     userID,
		Success:    success,
		TrustScore: trustScore,
	}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to append auth attempt", "error", err, "phone", phone)
	}
}

func (s *AuthService) publishEvent(ctx context.Context, subject string, payload map[string]any) {
	if s.natsClient == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal event payload", "error", err, "subject", subject)
		return
	}
	if err := s.natsClient.Publish(ctx, subject, data); err != nil {
		// Event delivery is best effort; the mutation already happened.
		s.logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
