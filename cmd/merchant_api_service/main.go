package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authapp "github.com/pnavim/merchant_services/internal/auth_service/app"
	authpg "github.com/pnavim/merchant_services/internal/auth_service/repository/postgres"
	dailyapp "github.com/pnavim/merchant_services/internal/daily_service/app"
	dailypg "github.com/pnavim/merchant_services/internal/daily_service/repository/postgres"
	"github.com/pnavim/merchant_services/internal/merchant_api_service/middleware"
	httptransport "github.com/pnavim/merchant_services/internal/merchant_api_service/transport/http"
	"github.com/pnavim/merchant_services/internal/platform/config"
	"github.com/pnavim/merchant_services/internal/platform/database"
	"github.com/pnavim/merchant_services/internal/platform/logger"
	"github.com/pnavim/merchant_services/internal/platform/messagebroker"
	settingsapp "github.com/pnavim/merchant_services/internal/settings_service/app"
	settingspg "github.com/pnavim/merchant_services/internal/settings_service/repository/postgres"
)

const serviceName = "merchant_api_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Merchant API service starting...", "port", cfg.MerchantAPIPort, "log_level", cfg.LogLevel)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Successfully connected to NATS")

	userRepo := authpg.NewPgUserRepository(dbPool, appLogger)
	merchantRepo := authpg.NewPgMerchantRepository(dbPool, appLogger)
	challengeRepo := authpg.NewPgChallengeRepository(dbPool, appLogger)
	deviceRepo := authpg.NewPgDeviceRepository(dbPool, appLogger)
	attemptRepo := authpg.NewPgAttemptRepository(dbPool, appLogger)
	sessionRepo := dailypg.NewPgSessionRepository(dbPool, appLogger)
	loginRepo := dailypg.NewPgLoginRepository(dbPool, appLogger)
	settingsRepo := settingspg.NewPgSettingsRepository(dbPool, appLogger)

	authCfg := authapp.AuthConfig{
		JWTSecret:            cfg.JWTSecret,
		JWTSessionTTLHours:   cfg.JWTSessionTTLHours,
		PinMaxFailedAttempts: cfg.PinMaxFailedAttempts,
		PinLockoutMinutes:    cfg.PinLockoutMinutes,
	}
	authService := authapp.NewAuthService(userRepo, merchantRepo, challengeRepo, deviceRepo, attemptRepo, natsClient, authCfg, appLogger)
	dailyService := dailyapp.NewDailyService(sessionRepo, loginRepo, natsClient, appLogger)
	settingsService := settingsapp.NewSettingsService(settingsRepo, appLogger)

	authHandler := httptransport.NewAuthHandler(authService, appLogger)
	dayHandler := httptransport.NewDayHandler(dailyService, appLogger)
	settingsHandler := httptransport.NewSettingsHandler(settingsService, appLogger)

	authMW := middleware.AuthMiddleware(cfg.JWTSecret, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "Merchant API service is healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(authRouter chi.Router) {
		authHandler.RegisterPublicRoutes(authRouter)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(authMW)
		protected.Route("/auth", func(authRouter chi.Router) {
			authHandler.RegisterProtectedRoutes(authRouter)
		})
		dayHandler.RegisterRoutes(protected)
		settingsHandler.RegisterRoutes(protected)
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.MerchantAPIPort), Handler: r}
	appLogger.Info(fmt.Sprintf("Merchant API server listening on port %d", cfg.MerchantAPIPort))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quitChan
	appLogger.Info("Shutdown signal received", "signal", receivedSignal.String())

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	} else {
		appLogger.Info("HTTP server shut down gracefully.")
	}
	appLogger.Info("Merchant API service shut down.")
}
