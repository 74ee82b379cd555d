package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pnavim/merchant_services/internal/merchant_api_service/middleware"
	"github.com/pnavim/merchant_services/internal/settings_service/app"
	"github.com/pnavim/merchant_services/internal/settings_service/domain"
)

type SettingsHandler struct {
	settingsService *app.SettingsService
	logger          *slog.Logger
}

func NewSettingsHandler(settingsService *app.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, logger: logger.With("handler", "settings")}
}

func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleGet)
	r.Patch("/settings", h.handlePatch)
}

func (h *SettingsHandler) merchantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok || identity.MerchantID == 0 {
		writeError(w, http.StatusForbidden, "Merchant profile required")
		return 0, false
	}
	return identity.MerchantID, true
}

func (h *SettingsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	settings, err := h.settingsService.GetMerchantSettings(r.Context(), merchantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to fetch merchant settings", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) handlePatch(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchantID(w, r)
	if !ok {
		return
	}
	var patch domain.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	settings, err := h.settingsService.UpdateMerchantSettings(r.Context(), merchantID, &patch)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to update merchant settings", "error", err, "merchant_id", merchantID)
		writeError(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
