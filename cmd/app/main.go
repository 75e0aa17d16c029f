package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"tokenbook/internal/assignment"
	"tokenbook/internal/booking"
	"tokenbook/internal/chat"
	"tokenbook/internal/config"
	"tokenbook/internal/db"
	"tokenbook/internal/dispute"
	"tokenbook/internal/email"
	"tokenbook/internal/events"
	"tokenbook/internal/logger"
	"tokenbook/internal/moderation"
	"tokenbook/internal/realtime"
	"tokenbook/internal/server"
	"tokenbook/internal/templates"
	"tokenbook/internal/user"
	"tokenbook/internal/wallet"
)

// @title Tokenbook API
// @version 1.0
// @description Token-escrow booking marketplace with moderated chat and disputes.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting Tokenbook application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

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

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	var publisher events.Publisher = events.Nop{}
	checks := []server.HealthCheck{
		{Name: "postgres", Check: database.PingContext},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
	if cfg.EventsEnabled {
		amqpPub, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			logger.WithError(err).Warn("event publishing disabled")
		} else {
			defer amqpPub.Close()
			publisher = amqpPub
			checks = append(checks, server.HealthCheck{Name: "rabbitmq", Check: amqpPub.Check})
		}
	}

	vocabulary, err := moderation.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		logger.Fatalf("Failed to load moderation vocabulary: %v", err)
	}
	filter := moderation.NewFilter(vocabulary)
	logger.Info("Content filter ready", "vocabulary_version", filter.Version())

	tx := db.NewTxRunner(database, cfg.TxMaxRetries)
	ledger := wallet.NewLedger()

	userRepo := user.NewRepository(database)
	walletRepo := wallet.NewRepository(database)
	bookingRepo := booking.NewRepository(database)

	userService := user.NewService(userRepo, walletRepo, tx, cfg.JWTSecret)
	walletService := wallet.NewService(walletRepo, ledger, tx)
	bookingService := booking.NewService(bookingRepo, userRepo, ledger, tx)

	hub := realtime.NewHub()
	assignments := assignment.NewService(assignment.NewRedisStore(rdb), userRepo, bookingRepo)
	chatService := chat.NewService(chat.NewRepository(database), bookingRepo, filter, hub, assignments, publisher)
	disputeService := dispute.NewService(dispute.NewRepository(database), bookingService, tx, publisher)
	templateService := templates.NewService(templates.NewRepository(database), chatService)

	mailer := email.New(email.Config{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	}, rdb)
	defer mailer.Close()

	bookingService.Subscribe(chatService.OnBookingStatus)
	bookingService.Subscribe(email.NewNotifier(mailer, userRepo).OnBookingStatus)
	bookingService.Subscribe(assignments.OnBookingStatus)
	bookingService.Subscribe(events.BookingListener(publisher))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mailer.Start(ctx)
	go sampleQueue(ctx, mailer)

	srv := server.New(cfg, server.Handlers{
		User:       user.NewHandler(userService),
		Wallet:     wallet.NewHandler(walletService),
		Booking:    booking.NewHandler(bookingService),
		Chat:       chat.NewHandler(chatService),
		Dispute:    dispute.NewHandler(disputeService),
		Templates:  templates.NewHandler(templateService),
		Assignment: assignment.NewHandler(assignments),
		Realtime:   realtime.NewHandler(hub, chatService, cfg.JWTSecret, cfg.WSInsecureSkipVerify),
	}, checks...)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
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

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func sampleQueue(ctx context.Context, mailer *email.Service) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mailer.QueueLength(ctx)
		}
	}
}
