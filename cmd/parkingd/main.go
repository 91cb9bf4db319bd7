package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"parking-reservation-backend/config"
	"parking-reservation-backend/internal/api"
	"parking-reservation-backend/internal/auth"
	"parking-reservation-backend/internal/booking"
	"parking-reservation-backend/internal/db"
	"parking-reservation-backend/internal/feedback"
	"parking-reservation-backend/internal/notification"
	"parking-reservation-backend/internal/qr"
	"parking-reservation-backend/internal/realtime"
	"parking-reservation-backend/internal/store"
	"parking-reservation-backend/internal/sweeper"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "parking-backend ", log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		logger.Println("no .env file found, using process environment")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Auth.JWTSecret == "" {
		logger.Fatalf("auth.jwt_secret (or JWT_SECRET) must be configured")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Printf("database initialized successfully (%s)", cfg.Database.Driver)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	// Realtime fan-out: local websocket hub, optionally relayed through Redis across replicas.
	hub := realtime.NewHub()
	go hub.Run(ctx.Done())

	var relay realtime.Relay
	if cfg.Realtime.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Realtime.RedisAddr,
			Password: cfg.Realtime.RedisPassword,
			DB:       cfg.Realtime.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Printf("redis at %s unreachable, events stay local to this instance: %v", cfg.Realtime.RedisAddr, err)
		} else {
			relay = realtime.NewRedisRelay(client, cfg.Realtime.Channel)
			logger.Printf("relaying change events through redis channel %s", cfg.Realtime.Channel)
		}
	}
	bus := realtime.NewBus(hub, relay)
	go bus.Run(ctx)

	responseCache := cache.New(time.Duration(cfg.Server.CacheTTLSeconds)*time.Second, 10*time.Minute)
	bus.OnEvent(func(realtime.Event) { responseCache.Flush() })

	// Push notifications are optional; without VAPID keys the engine runs without a notifier.
	var notifier booking.Notifier
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		workerPool.Start(ctx)
		notifier = workerPool
	} else {
		logger.Println("VAPID keys not configured, push notifications disabled")
	}

	engine := booking.NewEngine(appStore, bus, notifier)

	authSvc := auth.NewService(appStore, &cfg.Auth)
	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.SeedAdmin); err != nil {
		logger.Fatalf("failed to seed admin account: %v", err)
	}

	var sweep *sweeper.Sweeper
	if cfg.Sweeper.Enabled {
		sweep = sweeper.New(engine, 30*time.Second)
		if err := sweep.Start(cfg.Sweeper.Schedule); err != nil {
			logger.Fatalf("failed to start sweeper: %v", err)
		}
	}

	handler := api.NewHandler(
		appStore,
		engine,
		authSvc,
		feedback.NewService(appStore, bus),
		qr.NewService(appStore, cfg.Auth.JWTSecret),
		webpushOptions,
	)
	router := api.NewRouter(cfg.Server, handler, authSvc, hub, responseCache)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.WithCORS(router, cfg.Server.CORSOrigins),
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	if sweep != nil {
		sweep.Stop()
	}

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}
	cancel()

	logger.Println("Server gracefully stopped")
}
