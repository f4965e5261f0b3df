package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"speakbook/internal/booking"
	"speakbook/internal/checkout"
	"speakbook/internal/config"
	"speakbook/internal/db"
	"speakbook/internal/email"
	"speakbook/internal/invoice"
	"speakbook/internal/jobs"
	"speakbook/internal/logger"
	"speakbook/internal/payment"
	"speakbook/internal/provider"
	"speakbook/internal/server"
	"speakbook/internal/slot"
	"speakbook/internal/sms"
	"speakbook/internal/user"

	"github.com/redis/go-redis/v9"
)

// @title SpeakBook API
// @version 1.0
// @description API for booking paid speaking practice slots.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting SpeakBook application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var transport email.Transport
	switch cfg.EmailTransport {
	case "sendgrid":
		transport = email.NewSendGridTransport(cfg.SendGridAPIKey)
	default:
		transport = email.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}
	emailService := email.New(rdb, transport, cfg.EmailFrom, cfg.EmailFromName)
	go emailService.Start(ctx)
	logger.Info("Email service initialized", "transport", cfg.EmailTransport)

	gateway, err := payment.New(cfg)
	if err != nil {
		logger.Fatalf("Failed to configure payment gateway: %v", err)
	}

	userRepo := user.NewRepository(database)
	providerRepo := provider.NewRepository(database)
	slotRepo := slot.NewRepository(database)
	bookingRepo := booking.NewRepository(database, cfg.DBLockTimeout)

	userService := user.NewService(userRepo, cfg.JWTSecret)
	providerService := provider.NewService(providerRepo, slotRepo)
	bookingService := booking.NewService(
		bookingRepo,
		slotRepo,
		providerService,
		checkout.NewRedisStore(rdb, cfg.CheckoutTTL),
		gateway,
		invoice.NewPDFRenderer(time.Local),
		emailService,
		sms.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber),
	)

	generator := slot.NewGenerator(slotRepo, providerRepo, cfg.SlotCount)
	if res, err := generator.Run(ctx); err != nil {
		logger.WithError(err).Error("initial slot generation failed")
	} else {
		logger.Info("Initial slot generation done", "providers", res.Providers, "created", res.Created)
	}

	scheduler := jobs.NewScheduler(ctx)
	if err := scheduler.ScheduleSlotGeneration(cfg.SlotSchedule, generator); err != nil {
		logger.Fatalf("Failed to schedule slot generation: %v", err)
	}
	scheduler.Start()

	srv := server.New(cfg, server.Handlers{
		User:     user.NewHandler(userService),
		Provider: provider.NewHandler(providerService),
		Slot:     slot.NewHandler(generator),
		Booking:  booking.NewHandler(bookingService),
	}, map[string]server.HealthCheck{
		"postgres": database.PingContext,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	cancel()
	scheduler.Stop()

	logger.Info("Server stopped")
}
