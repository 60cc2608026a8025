package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	telegoBot "moviecode-bot/bot"
	"moviecode-bot/internal/config"
	"moviecode-bot/internal/database"
	"moviecode-bot/internal/handlers"
	"moviecode-bot/internal/locales"
	"moviecode-bot/internal/reveal"
	"moviecode-bot/internal/subscription"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize localization bundle
	locales.Init(cfg.DefaultLanguage)

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Connect to MongoDB
	client, db, err := database.ConnectDB(cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	defer func() {
		if err = client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
			sentry.CaptureException(err)
		} else {
			log.Println("Disconnected from MongoDB.")
		}
	}()

	// Create repository instances
	catalogRepo := database.NewMongoCatalogRepository(db)
	mongoLogger := database.NewMongoLogger(db)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Bot Initialization ---
	var tgBot *telego.Bot
	if cfg.Debug {
		tgBot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		tgBot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	// Subscription gate over the configured required channels
	policy := subscription.AccessPolicy{
		AdminIDs:     cfg.AdminIDs,
		AdminsExempt: cfg.AdminsExempt,
	}
	verifier := subscription.NewVerifier(tgBot, cfg.RequiredChannels, policy, cfg.MembershipTimeout)

	// The reveal state machine over store + gate
	machine, err := reveal.NewMachine(catalogRepo, verifier)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Message handler with dependencies
	messageHandler := handlers.NewMessageHandler(
		machine,
		catalogRepo,
		policy,
		cfg.Version,
		mongoLogger,
		mongoLogger,
	)

	// Long polling updates channel
	updates, err := tgBot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to start long polling: %v", err)
	}

	// Create the bot wrapper
	appBot, err := telegoBot.New(tgBot, updates, cfg.Debug, messageHandler)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Start the bot wrapper's processing loop in a separate goroutine
	go appBot.Start(ctx)

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()

	log.Println("Shutting down bot...")
	appBot.Stop()

	log.Println("Bot shutdown complete.")
}
