// Command api runs the event reservation HTTP server.
//
// @title Event Reservation API
// @version 1.0
// @description Capacity-safe event reservations with QR check-in.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"eventreservation/config"
	_ "eventreservation/docs"
	"eventreservation/internal/adapters/auth"
	"eventreservation/internal/adapters/email"
	"eventreservation/internal/adapters/metrics"
	"eventreservation/internal/adapters/qrcode"
	"eventreservation/internal/adapters/token"
	deliveryhttp "eventreservation/internal/delivery/http"
	"eventreservation/internal/delivery/http/controllers"
	"eventreservation/internal/delivery/http/middleware"
	"eventreservation/internal/repository/postgres"
	"eventreservation/internal/services"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
	shutdownTimeout        = 10 * time.Second
)

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}
	logger.Info("connected to postgres")

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret)
	recorder := metrics.NewRecorder()

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)

	// Services
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	eventService := services.NewEventService(eventRepo, cfg.RequestTimeout)
	reservationService := services.NewReservationService(
		reservationRepo,
		eventRepo,
		emailService,
		token.NewUUIDGenerator(),
		qrcode.NewEncoder(qrcode.DefaultSize),
		recorder,
		logger,
		cfg.FrontendURL,
		cfg.PublicAPIURL,
		cfg.RequestTimeout,
	)
	authService, err := services.NewAuthService(
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		jwtManager,
		services.AdminCredentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
		cfg.JWTExpiry,
	)
	if err != nil {
		return err
	}

	// HTTP
	publicLimiter := middleware.NewRateLimiter(cfg.RateLimit.PublicRPS, cfg.RateLimit.PublicBurst, logger)
	adminLimiter := middleware.NewRateLimiter(cfg.RateLimit.AdminRPS, cfg.RateLimit.AdminBurst, logger)
	publicLimiter.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)
	adminLimiter.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)

	handler := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:        controllers.NewAuthController(logger, authService),
		Event:       controllers.NewEventController(logger, eventService),
		Reservation: controllers.NewReservationController(logger, reservationService),
	}, deliveryhttp.RouterOptions{
		Logger:        logger,
		Verifier:      jwtManager,
		Metrics:       recorder,
		PublicLimiter: publicLimiter,
		AdminLimiter:  adminLimiter,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
