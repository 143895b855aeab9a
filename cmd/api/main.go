package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/medidesk/medidesk-platform/cmd/mainconfig"
	"github.com/medidesk/medidesk-platform/internal/api/router"
	"github.com/medidesk/medidesk-platform/internal/bookings"
	"github.com/medidesk/medidesk-platform/internal/clinics"
	appconfig "github.com/medidesk/medidesk-platform/internal/config"
	"github.com/medidesk/medidesk-platform/internal/doctors"
	"github.com/medidesk/medidesk-platform/internal/notify"
	"github.com/medidesk/medidesk-platform/internal/observability/metrics"
	"github.com/medidesk/medidesk-platform/internal/reporting"
	"github.com/medidesk/medidesk-platform/internal/slots"
	"github.com/medidesk/medidesk-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medidesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The directory runs on database/sql over the same database.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, token sequences fall back to the database", "error", err)
		}
	}

	m := metrics.NewBookingMetrics(nil)

	notifier := notify.NewService(buildEmailSender(ctx, cfg, logger), logger)

	// The fallback sequencer counts existing bookings directly, so it does
	// not need a token counter of its own.
	seqRepo := bookings.NewRepository(pool, nil)
	counter := bookings.NewTokenCounter(redisClient, cfg.TokenSequenceTTL,
		func(ctx context.Context, clinicID int64, day time.Time) (int64, error) {
			n, err := seqRepo.CountForDay(ctx, clinicID, day)
			if err != nil {
				return 0, err
			}
			return n + 1, nil
		}, logger)
	bookingRepo := bookings.NewRepository(pool, counter)
	bookingSvc := bookings.NewService(bookingRepo, m, notifier, logger)

	directoryRepo := doctors.NewRepository(sqlDB)

	r := router.New(&router.Config{
		Logger:             logger,
		SlotsHandler:       slots.NewHandler(slots.NewRepository(pool), m, logger),
		BookingsHandler:    bookings.NewHandler(bookingSvc, logger),
		DirectoryHandler:   doctors.NewHandler(directoryRepo, logger),
		ClinicsHandler:     clinics.NewHandler(clinics.NewRepository(pool), logger),
		Dashboard:          reporting.NewDashboardHandler(reporting.NewStatsRepository(pool), nil, logger),
		MetricsHandler:     promhttp.Handler(),
		AuthJWTSecret:      cfg.AuthJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildEmailSender picks the configured provider. Anything unset or
// unrecognized disables email rather than failing startup.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty, email disabled")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, email disabled", "error", err)
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "":
		return nil
	default:
		logger.Warn("unknown email provider, email disabled", "provider", cfg.EmailProvider)
		return nil
	}
}
