package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	authapp "github.com/pnavim/merchant_services/internal/auth_service/app"
	"github.com/pnavim/merchant_services/internal/merchant_api_service/middleware"
)

// AuthHandler handles registration, login, recovery challenges and
// device trust over HTTP.
type AuthHandler struct {
	authService *authapp.AuthService
	logger      *slog.Logger
	validate    *validator.Validate
}

func NewAuthHandler(authService *authapp.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.With("handler", "auth"),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterPublicRoutes mounts the routes usable without a session.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Get("/challenges", h.handleListChallenges)
	r.Post("/recovery/verify", h.handleVerifyChallenge)
}

// RegisterProtectedRoutes mounts the routes requiring a session.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/challenges/enroll", h.handleEnrollChallenge)
	r.Get("/challenges/mine", h.handleMerchantChallenges)
	r.Get("/challenges/primary", h.handlePrimaryChallenge)
	r.Post("/pin", h.handleUpdatePin)
	r.Post("/devices/trust", h.handleTrustDevice)
	r.Get("/stats", h.handleAuthStats)
}

func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Request body is empty")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authService.RegisterWithPhone(r.Context(), req.Phone, req.Name, req.PinCode)
	if err != nil {
		if errors.Is(err, authapp.ErrPhoneExists) {
			writeError(w, http.StatusConflict, "Phone already registered")
			return
		}
		h.logger.ErrorContext(r.Context(), "Registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.AuthenticateWithPin(
		r.Context(), req.Phone, req.PinCode, req.DeviceFingerprint, req.DeviceName, req.TrustScore,
	)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	resp := LoginResponse{
		Success:        result.Success,
		Token:          result.Token,
		Locked:         result.Locked,
		FailedAttempts: result.FailedAttempts,
	}
	if result.LockedUntil != nil {
		resp.LockedUntil = result.LockedUntil.Format(time.RFC3339)
	}
	if result.User != nil {
		resp.UserID = result.User.ID
		resp.Name = result.User.Name
	}
	if result.Merchant != nil {
		resp.MerchantID = result.Merchant.ID
	}

	status := http.StatusOK
	if !result.Success {
		// Lockout gets its own status so clients can show a timer.
		if result.Locked {
			status = http.StatusLocked
		} else {
			status = http.StatusUnauthorized
		}
	}
	writeJSON(w, status, resp)
}

func (h *AuthHandler) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter required")
		return
	}
	challenges, err := h.authService.GetActiveChallengesByCategory(r.Context(), category)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list challenges", "error", err, "category", category)
		writeError(w, http.StatusInternalServerError, "Failed to list challenges")
		return
	}
	writeJSON(w, http.StatusOK, challenges)
}

func (h *AuthHandler) handleVerifyChallenge(w http.ResponseWriter, r *http.Request) {
	var req VerifyChallengeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	ok := h.authService.VerifyChallenge(r.Context(), req.MerchantChallengeID, req.Answer)
	writeJSON(w, http.StatusOK, map[string]bool{"verified": ok})
}

func (h *AuthHandler) handleEnrollChallenge(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok || identity.MerchantID == 0 {
		writeError(w, http.StatusForbidden, "Merchant profile required")
		return
	}
	var req EnrollChallengeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	mc, err := h.authService.EnrollChallenge(r.Context(), identity.MerchantID, req.ChallengeID, req.Answer, req.IsPrimary)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to enroll challenge", "error", err, "merchant_id", identity.MerchantID)
		writeError(w, http.StatusInternalServerError, "Failed to enroll challenge")
		return
	}
	writeJSON(w, http.StatusCreated, mc)
}

func (h *AuthHandler) handleMerchantChallenges(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok || identity.MerchantID == 0 {
		writeError(w, http.StatusForbidden, "Merchant profile required")
		return
	}
	challenges, err := h.authService.GetMerchantChallenges(r.Context(), identity.MerchantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to fetch merchant challenges", "error", err, "merchant_id", identity.MerchantID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch challenges")
		return
	}
	writeJSON(w, http.StatusOK, challenges)
}

func (h *AuthHandler) handlePrimaryChallenge(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok || identity.MerchantID == 0 {
		writeError(w, http.StatusForbidden, "Merchant profile required")
		return
	}
	detail, err := h.authService.GetPrimaryChallengeForMerchant(r.Context(), identity.MerchantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to fetch primary challenge", "error", err, "merchant_id", identity.MerchantID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch primary challenge")
		return
	}
	if detail == nil {
		writeError(w, http.StatusNotFound, "No primary challenge set")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *AuthHandler) handleUpdatePin(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req UpdatePinRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if _, err := h.authService.UpdatePinCode(r.Context(), identity.UserID, req.NewPinCode); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to update PIN", "error", err, "user_id", identity.UserID)
		writeError(w, http.StatusInternalServerError, "Failed to update PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "PIN updated"})
}

func (h *AuthHandler) handleTrustDevice(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok || identity.MerchantID == 0 {
		writeError(w, http.StatusForbidden, "Merchant profile required")
		return
	}
	var req TrustDeviceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	device, err := h.authService.TrustDevice(r.Context(), identity.MerchantID, req.DeviceFingerprint)
	if err != nil {
		if errors.Is(err, authapp.ErrDeviceNotFound) {
			writeError(w, http.StatusNotFound, "Device not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to trust device", "error", err, "merchant_id", identity.MerchantID)
		writeError(w, http.StatusInternalServerError, "Failed to trust device")
		return
	}
	writeJSON(w, http.StatusOK, device)
}

func (h *AuthHandler) handleAuthStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.MerchantFromContext(r.Context())
	if !ok || identity.MerchantID == 0 {
		writeError(w, http.StatusForbidden, "Merchant profile required")
		return
	}
	stats, err := h.authService.GetAuthStats(r.Context(), identity.MerchantID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to fetch auth stats", "error", err, "merchant_id", identity.MerchantID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch auth stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
