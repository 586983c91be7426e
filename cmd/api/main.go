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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/velvetdesk/salon-api/internal/api/router"
	"github.com/velvetdesk/salon-api/internal/appointments"
	"github.com/velvetdesk/salon-api/internal/catalog"
	appconfig "github.com/velvetdesk/salon-api/internal/config"
	"github.com/velvetdesk/salon-api/internal/events"
	"github.com/velvetdesk/salon-api/internal/finance"
	"github.com/velvetdesk/salon-api/internal/http/handlers"
	"github.com/velvetdesk/salon-api/internal/inventory"
	"github.com/velvetdesk/salon-api/internal/notify"
	"github.com/velvetdesk/salon-api/internal/observability/metrics"
	"github.com/velvetdesk/salon-api/internal/professionals"
	"github.com/velvetdesk/salon-api/internal/settings"
	"github.com/velvetdesk/salon-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon API server", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Separate database/sql handle for the reporting queries.
	reportDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open reporting db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = reportDB.Close() }()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	settingsStore := settings.NewStore(redisClient)
	professionalsRepo := professionals.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	inventoryRepo := inventory.NewRepository(pool)
	financeRepo := finance.NewRepository(pool)
	bookingRepo := appointments.NewRepository(pool)

	slotCache := appointments.NewSlotCache(redisClient, cfg.SlotCacheTTL, logger.Component("slotcache"))
	bookingService := appointments.NewService(bookingRepo, catalogRepo, professionalsRepo, settingsStore, logger.Component("bookings")).
		WithCache(slotCache).
		WithMetrics(bookingMetrics).
		WithFinance(financeRepo).
		WithGranularity(cfg.SlotGranularityMinutes)

	// Outbox deliverer pushes booking notifications over WhatsApp.
	if cfg.WhatsAppBaseURL != "" && cfg.WhatsAppToken != "" {
		whatsapp, err := notify.NewWhatsAppClient(notify.WhatsAppConfig{
			BaseURL: cfg.WhatsAppBaseURL,
			Token:   cfg.WhatsAppToken,
			Sender:  cfg.WhatsAppSender,
			Logger:  logger.Component("whatsapp"),
		})
		if err != nil {
			logger.Error("failed to create whatsapp client", "error", err)
			os.Exit(1)
		}
		dispatcher := notify.NewDispatcher(whatsapp, logger.Component("notify"))
		if cfg.FrontDeskEmail != "" {
			emailSender := notify.NewSendGridSender(notify.SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.SendGridFromEmail,
				FromName:  cfg.SendGridFromName,
			}, logger.Component("email"))
			if emailSender != nil {
				dispatcher = dispatcher.WithFrontDeskCopy(emailSender, cfg.FrontDeskEmail)
			}
		}
		deliverer := events.NewDeliverer(events.NewOutboxStore(pool), dispatcher, logger.Component("outbox")).
			WithBatchSize(int32(cfg.OutboxBatchSize)).
			WithInterval(cfg.OutboxInterval)
		go deliverer.Start(ctx)
	} else {
		logger.Warn("whatsapp not configured, booking notifications disabled")
	}

	routerCfg := &router.Config{
		Logger:             logger,
		Bookings:           appointments.NewHandler(bookingService, logger.Component("bookings")),
		Professionals:      professionals.NewHandler(professionalsRepo, logger.Component("professionals")),
		Catalog:            catalog.NewHandler(catalogRepo, logger.Component("catalog")),
		Settings:           settings.NewHandler(settingsStore, logger.Component("settings")),
		Inventory:          inventory.NewHandler(inventoryRepo, logger.Component("inventory")),
		Finance:            finance.NewHandler(financeRepo, logger.Component("finance")),
		Dashboard:          handlers.NewDashboardHandler(reportDB, logger.Component("dashboard")),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
