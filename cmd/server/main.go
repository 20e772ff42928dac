package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/weatherdash/internal/api"
	"github.com/neexbeast/weatherdash/internal/cache"
	"github.com/neexbeast/weatherdash/internal/config"
	"github.com/neexbeast/weatherdash/internal/dashboard"
	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/session"
	"github.com/neexbeast/weatherdash/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()

	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	applied, err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "dir", cfg.MigrationsDir, "applied", applied)

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	repo := storage.NewRepository(pool)
	dashCache := cache.NewCache(redisClient, cfg.CacheTTL)
	sessionKV := cache.NewKV(redisClient, cfg.SessionTTL)
	fetcher := provider.NewFetcher(cfg.OpenWeatherKey, cfg.Transport)
	builder := dashboard.NewBuilder(cfg.Policy)

	sessions := session.NewService(sessionKV, fetcher, builder, repo, dashCache, cfg.DefaultCity, log)
	handlers := api.NewHandlers(repo, dashCache, fetcher, builder, log)

	router := api.NewRouter(
		handlers,
		api.NewSessionHandlers(sessions, log),
		cfg.BearerToken,
		&pgxPoolPinger{pool: pool},
		&redisPingerAdapter{client: redisClient},
		log,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port, "default_city", cfg.DefaultCity)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool to the api.dbPinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.redisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
