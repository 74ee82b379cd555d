package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/pnavim/merchant_services/internal/daily_service/domain"
	"github.com/pnavim/merchant_services/internal/daily_service/repository"
	"github.com/pnavim/merchant_services/internal/platform/messagebroker"
)

var ErrNoSessionToday = errors.New("no day session exists for today")

// DailyService tracks the once-per-day first-login/briefing gate and
// the explicit business-day open/close lifecycle, both keyed by
// (merchant, calendar date).
type DailyService struct {
	sessionRepo repository.SessionRepository
	loginRepo   repository.LoginRepository
	natsClient  *messagebroker.NatsClient
	logger      *slog.Logger
	now         func() time.Time
}

func NewDailyService(
	sessionRepo repository.SessionRepository,
	loginRepo repository.LoginRepository,
	natsClient *messagebroker.NatsClient,
	logger *slog.Logger,
) *DailyService {
	return &DailyService{
		sessionRepo: sessionRepo,
		loginRepo:   loginRepo,
		natsClient:  natsClient,
		logger:      logger.With("service", "daily"),
		now:         time.Now,
	}
}

// GetTodaySession returns today's session row, or nil when the day
// was never opened.
func (s *DailyService) GetTodaySession(ctx context.Context, merchantID int64) (*domain.DailySession, error) {
	return s.sessionRepo.GetByDate(ctx, merchantID, domain.DateString(s.now()))
}

// OpenDaySession opens (or re-opens) today's business day. Calling it
// on an already open or closed day refreshes opened_at and leaves
// closed_at untouched.
func (s *DailyService) OpenDaySession(ctx context.Context, merchantID int64, openingNotes *string) (*domain.DailySession, error) {
	session, err := s.sessionRepo.UpsertOpen(ctx, merchantID, domain.DateString(s.now()), openingNotes)
	if err != nil {
		return nil, err
	}
	daySessionOpensCounter.Inc()
	s.publishEvent(ctx, "merchant.day.opened", map[string]any{
		"merchant_id":  merchantID,
		"session_date": session.SessionDate,
	})
	return session, nil
}

// CloseDaySession stamps closed_at on today's session. Returns
// ErrNoSessionToday when the day was never opened.
func (s *DailyService) CloseDaySession(ctx context.Context, merchantID int64, closingNotes *string) (*domain.DailySession, error) {
	session, err := s.sessionRepo.Close(ctx, merchantID, domain.DateString(s.now()), closingNotes)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoSessionToday
		}
		return nil, err
	}
	daySessionClosesCounter.Inc()
	if hours, ok := session.Duration(); ok {
		daySessionDurationHist.Observe(hours)
	}
	s.publishEvent(ctx, "merchant.day.closed", map[string]any{
		"merchant_id":  merchantID,
		"session_date": session.SessionDate,
	})
	return session, nil
}

// ReopenDaySession clears closed_at on today's session, leaving the
// original opened_at intact.
func (s *DailyService) ReopenDaySession(ctx context.Context, merchantID int64) (*domain.DailySession, error) {
	session, err := s.sessionRepo.Reopen(ctx, merchantID, domain.DateString(s.now()))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoSessionToday
		}
		return nil, err
	}
	return session, nil
}

// GetSessionHistory returns past sessions most recent first.
// limit <= 0 means 30.
func (s *DailyService) GetSessionHistory(ctx context.Context, merchantID int64, limit int) ([]domain.DailySession, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.sessionRepo.History(ctx, merchantID, limit)
}

// CheckUnclosedYesterday returns yesterday's session only when it was
// opened and never closed; nil otherwise. Upstream uses it to prompt
// forced closure.
func (s *DailyService) CheckUnclosedYesterday(ctx context.Context, merchantID int64) (*domain.DailySession, error) {
	yesterday := domain.DateString(s.now().AddDate(0, 0, -1))
	return s.sessionRepo.GetUnclosed(ctx, merchantID, yesterday)
}

// RecordDailyLogin reports true only for the first login of the
// calendar date.
func (s *DailyService) RecordDailyLogin(ctx context.Context, merchantID int64) (bool, error) {
	first, err := s.loginRepo.InsertFirstLogin(ctx, merchantID, domain.DateString(s.now()))
	if err != nil {
		return false, err
	}
	if first {
		firstLoginsCounter.Inc()
	}
	return first, nil
}

// MarkBriefingShown flags today's login row; a missing row is a
// no-op.
func (s *DailyService) MarkBriefingShown(ctx context.Context, merchantID int64) error {
	return s.loginRepo.SetBriefingShown(ctx, merchantID, domain.DateString(s.now()))
}

// MarkBriefingSkipped flags today's login row; a missing row is a
// no-op.
func (s *DailyService) MarkBriefingSkipped(ctx context.Context, merchantID int64) error {
	return s.loginRepo.SetBriefingSkipped(ctx, merchantID, domain.DateString(s.now()))
}

// HasBriefingBeenShown is false only when today's row exists with
// both flags unset. A missing row or a store error reads true:
// indeterminate state suppresses the briefing rather than nagging the
// merchant twice. Deliberate availability/UX tradeoff.
func (s *DailyService) HasBriefingBeenShown(ctx context.Context, merchantID int64) bool {
	login, err := s.loginRepo.GetByDate(ctx, merchantID, domain.DateString(s.now()))
	if err != nil {
		s.logger.WarnContext(ctx, "Briefing check failed; suppressing briefing", "error", err, "merchant_id", merchantID)
		return true
	}
	if login == nil {
		return true
	}
	return login.BriefingShown || login.BriefingSkipped
}

func (s *DailyService) publishEvent(ctx context.Context, subject string, payload map[string]any) {
	if s.natsClient == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal event payload", "error", err, "subject", subject)
		return
	}
	if err := s.natsClient.Publish(ctx, subject, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
