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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/ticket-stream-backend/internal/adapters/primary/http"
	mw "github.com/lorrc/ticket-stream-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-stream-backend/internal/adapters/primary/stream"
	"github.com/lorrc/ticket-stream-backend/internal/adapters/secondary/broker"
	"github.com/lorrc/ticket-stream-backend/internal/adapters/secondary/postgres"
	"github.com/lorrc/ticket-stream-backend/internal/config"
	"github.com/lorrc/ticket-stream-backend/internal/core/services"
	"github.com/lorrc/ticket-stream-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Initialize Event Bridge
	// The process boots and serves traffic even when the broker is down;
	// publishes are rejected until the connection lands and subscriptions
	// replay on reconnect.
	brokerCfg := broker.Config{
		URL:            cfg.Broker.URL,
		Subject:        cfg.Broker.Subject,
		PublishTimeout: cfg.Broker.PublishTimeout,
		ReconnectWait:  cfg.Broker.ReconnectWait,
	}

	publisher, err := broker.NewPublisher(brokerCfg, logger)
	if err != nil {
		logger.Error("failed to initialize broker publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	subscriber, err := broker.NewSubscriber(brokerCfg, logger)
	if err != nil {
		logger.Error("failed to initialize broker subscriber", "error", err)
		os.Exit(1)
	}
	defer subscriber.Close()

	// 5. Initialize Streaming Hub and wire the inbound side of the bridge
	hub := stream.NewHub(cfg.Stream.HeartbeatInterval, cfg.Stream.SendBuffer, logger)
	defer hub.Shutdown()

	if err := subscriber.Subscribe(hub.Relay); err != nil {
		logger.Error("failed to subscribe to change events", "error", err)
		os.Exit(1)
	}

	// 6. Dependency Injection
	errorHandler := httpAdapter.NewErrorHandler(logger)

	ticketRepo := postgres.NewTicketRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	ticketService := services.NewTicketService(ticketRepo, publisher, cfg.Broker.PublishTimeout, logger)

	ticketHandler := httpAdapter.NewTicketHandler(ticketService, errorHandler, logger)
	userHandler := httpAdapter.NewUserHandler(userRepo, errorHandler, logger)
	streamHandler := httpAdapter.NewStreamHandler(hub,
		cfg.Stream.AllowedOrigins, cfg.Stream.ReadBufferSize, cfg.Stream.WriteBufferSize, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, publisher, hub, cfg.App.Version)

	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
	}

	// 7. Setup Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	corsOrigins := cfg.Stream.AllowedOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if rateLimiter != nil {
		r.Use(rateLimiter.Middleware)
	}

	healthHandler.RegisterRoutes(r)

	r.Route("/api/tickets", func(r chi.Router) {
		streamHandler.RegisterRoutes(r)
		ticketHandler.RegisterRoutes(r)
	})
	r.Route("/api/users", userHandler.RegisterRoutes)

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Close streaming sessions first so Shutdown does not wait on them.
	hub.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
