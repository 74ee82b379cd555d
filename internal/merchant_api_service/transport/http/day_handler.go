package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	dailyapp "github.com/pnavim/merchant_services/internal/daily_service/app"
	"github.com/pnavim/merchant_services/internal/daily_service/domain"
	"github.com/pnavim/merchant_services/internal/merchant_api_service/middleware"
)

// DayHandler exposes the business-day lifecycle and the daily
// briefing gate. All routes require a merchant session.
type DayHandler struct {
	dailyService *dailyapp.DailyService
	logger       *slog.Logger
}

func NewDayHandler(dailyService *dailyapp.DailyService, logger *slog.Logger) *DayHandler {
	return &DayHandler{dailyService: dailyService, logger: logger.With("handler", "day")}
}

func (h *DayHandler) RegisterRoutes(r chi.Router) {
	r.Post("/day/open", h.handleOpen)
	r.Post("/day/close", h.handleClose)
	r.Post("/day/reopen", h.handleReopen)
	r.Get("/day/status", h.handleStatus)
	r.Get("/day/history", h.handleHistory)
	r.Get("/day/unclosed-yesterday", h.handleUnclosedYesterday)

	r.Post("/briefing/login", h.handleRecordLogin)
	r.Post("/briefing/shown", h.handleBriefingShown)
	r.Post("/briefing/skipped", h.handleBriefingSkipped)
	r.Get("/briefing/status", h.handleBriefingStatus)
}

func (h *DayHandler) merchantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok || identity.MerchantID == 0 {
		writeError(w, http.StatusForbidden, "Merchant profile required")
		return 0, false
	}
	return identity.MerchantID, true
}

func decodeNotes(r *http.Request) *string {
	var req DayNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil
	}
	return req.Notes
}

func sessionToStatusResponse(session *domain.DailySession) DayStatusResponse {
	resp := DayStatusResponse{Status: string(session.Status())}
	if session == nil {
		return resp
	}
	resp.SessionDate = session.SessionDate
	if session.OpenedAt != nil {
		resp.OpenedAt = session.OpenedAt.Format(time.RFC3339)
	}
	if session.ClosedAt != nil {
		resp.ClosedAt = session.ClosedAt.Format(time.RFC3339)
	}
	if hours, ok := session.Duration(); ok {
		resp.DurationHours = &hours
	}
	return resp
}

func (h *DayHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	session, err := h.dailyService.OpenDaySession(r.Context(), merchantID, decodeNotes(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to open day session", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to open day session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *DayHandler) handleClose(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	session, err := h.dailyService.CloseDaySession(r.Context(), merchantID, decodeNotes(r))
	if err != nil {
		if errors.Is(err, dailyapp.ErrNoSessionToday) {
			writeError(w, http.StatusNotFound, "No day session to close")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to close day session", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to close day session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *DayHandler) handleReopen(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	session, err := h.dailyService.ReopenDaySession(r.Context(), merchantID)
	if err != nil {
		if errors.Is(err, dailyapp.ErrNoSessionToday) {
			writeError(w, http.StatusNotFound, "No day session to reopen")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to reopen day session", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to reopen day session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *DayHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	session, err := h.dailyService.GetTodaySession(r.Context(), merchantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to fetch today's session", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch session status")
		return
	}
	writeJSON(w, http.StatusOK, sessionToStatusResponse(session))
}

func (h *DayHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	sessions, err := h.dailyService.GetSessionHistory(r.Context(), merchantID, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to fetch session history", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch session history")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *DayHandler) handleUnclosedYesterday(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	session, err := h.dailyService.CheckUnclosedYesterday(r.Context(), merchantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to check yesterday's session", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to check yesterday's session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unclosed": session != nil, "session": session})
}

func (h *DayHandler) handleRecordLogin(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	first, err := h.dailyService.RecordDailyLogin(r.Context(), merchantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to record daily login", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to record daily login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"first_login_of_day": first})
}

func (h *DayHandler) handleBriefingShown(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	if err := h.dailyService.MarkBriefingShown(r.Context(), merchantID); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to mark briefing shown", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to mark briefing shown")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DayHandler) handleBriefingSkipped(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	if err := h.dailyService.MarkBriefingSkipped(r.Context(), merchantID); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to mark briefing skipped", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to mark briefing skipped")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DayHandler) handleBriefingStatus(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	shown := h.dailyService.HasBriefingBeenShown(r.Context(), merchantID)
	writeJSON(w, http.StatusOK, map[string]bool{"briefing_shown": shown})
}
