package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/beehiiv-forecast/internal/analytics"
	"github.com/ignite/beehiiv-forecast/internal/api"
	"github.com/ignite/beehiiv-forecast/internal/beehiiv"
	"github.com/ignite/beehiiv-forecast/internal/config"
	"github.com/ignite/beehiiv-forecast/internal/forecast"
	"github.com/ignite/beehiiv-forecast/internal/notify"
	"github.com/ignite/beehiiv-forecast/internal/pkg/distlock"
	"github.com/ignite/beehiiv-forecast/internal/pkg/logger"
	"github.com/ignite/beehiiv-forecast/internal/report"
	"github.com/ignite/beehiiv-forecast/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedact(cfg.Logging.Redact)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fcfg, err := cfg.Forecast()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional; without it the cache is a local file and the
	// refresh lock is in-process.
	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			redisClient.Close()
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		defer redisClient.Close()
		logger.Info("redis connected", "addr", cfg.Cache.RedisAddr)
	}

	cache, err := storage.NewCache(cfg.Cache, redisClient)
	if err != nil {
		return err
	}

	writer, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	renderer, err := report.NewTextRenderer()
	if err != nil {
		return err
	}

	opts := []analytics.Option{analytics.WithWriter(writer)}
	if cfg.Notify.Enabled {
		mailer, err := notify.NewMailer(ctx, cfg.Notify)
		if err != nil {
			return fmt.Errorf("initializing mailer: %w", err)
		}
		opts = append(opts, analytics.WithNotifier(mailer))
	}

	svc := analytics.NewService(beehiiv.NewClient(cfg.Beehiiv), forecast.NewEngine(fcfg), renderer, opts...)

	interval := cfg.Cache.RefreshInterval()
	lockKey := cfg.Cache.Key + ":refresh-lock"
	refresher := analytics.NewRefresher(svc, cache, interval, func() distlock.DistLock {
		return distlock.NewLock(redisClient, lockKey, 10*time.Minute)
	})

	server := api.NewServer(cfg.Server, refresher, api.NewHealthChecker(cache, redisClient))

	go refresher.Start(ctx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr(),
			"refresh_interval_hours", interval.Hours(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-done:
		logger.Info("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
