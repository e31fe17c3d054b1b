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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dropfour/internal/events"
	"dropfour/internal/leaderboard"
	"dropfour/internal/network"
	"dropfour/internal/services/cluster"
	"dropfour/internal/session"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar().Named("main")

	if envErr != nil {
		logger.Warnw("no .env file loaded, using process environment", "error", envErr)
	}
	logger.Infow("config loaded",
		"service", cfg.ServiceName,
		"port", cfg.ServerPort,
		"leaderboard", cfg.LeaderboardBackend,
		"promotionDelay", cfg.PromotionDelay,
		"forfeitDelay", cfg.ForfeitDelay,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl.Sugar()); err != nil {
		logger.Fatalw("server stopped with error", "error", err)
	}
	logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg *Config) (leaderboard.Store, error) {
	switch cfg.LeaderboardBackend {
	case "postgres":
		store, err := leaderboard.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		return store, nil
	case "redis":
		return leaderboard.NewRedisStore(cfg.RedisURL)
	default:
		return leaderboard.NewMemoryStore(), nil
	}
}

func run(ctx context.Context, cfg *Config, logger *zap.SugaredLogger) error {
	mainLog := logger.Named("main")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open leaderboard store: %w", err)
	}
	defer store.Close()

	health := cluster.NewHealthAggregator(cfg.StoreTimeout)
	health.AddCheck("leaderboard", store.Ping)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger.Named("events"))
		if err != nil {
			return err
		}
		health.AddCheck("nats", nats.Ping)
		publisher = nats
	}
	defer publisher.Close()

	gameHandler := session.NewGameHandler(session.Config{
		PromotionDelay: cfg.PromotionDelay,
		ForfeitDelay:   cfg.ForfeitDelay,
		StoreTimeout:   cfg.StoreTimeout,
	}, store, publisher, logger)

	wsServer := network.NewServer(gameHandler, cfg.AllowedOrigin, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Handle("/ws", wsServer)
	r.Get("/health", health.Handler())

	cors := leaderboard.AllowOrigin(cfg.AllowedOrigin)
	leaderboardHandler := leaderboard.CreateLeaderboardHandler(store, cfg.StoreTimeout, logger.Named("leaderboard"))
	r.With(cors).Get("/leaderboard", leaderboardHandler)
	r.With(cors).Options("/leaderboard", leaderboardHandler)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var registrar *cluster.ServiceRegistrar
	g, gctx := errgroup.WithContext(ctx)

	if cfg.ConsulAddrs != "" {
		manager, err := cluster.NewConsulManager(cfg.ConsulAddrs, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to consul: %w", err)
		}
		registrar, err = cluster.NewServiceRegistrar(manager, cfg.ServiceName, cfg.AdvertisedHost, cfg.ServerPort, logger)
		if err != nil {
			return err
		}
		manager.OnReconnect(registrar.Register)
		registrar.Register()
		g.Go(func() error { return manager.Monitor(gctx) })
	}

	g.Go(func() error {
		return wsServer.Run(gctx)
	})

	g.Go(func() error {
		mainLog.Infow("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		mainLog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if registrar != nil {
			if err := registrar.Deregister(); err != nil {
				mainLog.Warnw("failed to deregister from consul", "error", err)
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			mainLog.Warnw("http shutdown incomplete", "error", err)
		}
		if err := gameHandler.Shutdown(shutdownCtx); err != nil {
			mainLog.Warnw("pending game results were not persisted", "error", err)
		}
		return nil
	})

	return g.Wait()
}
