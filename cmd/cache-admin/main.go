package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbeoliero/learncache/admin"
	"github.com/mbeoliero/learncache/config"
	"github.com/mbeoliero/learncache/logging"
	"github.com/mbeoliero/learncache/metrics"
	"github.com/mbeoliero/learncache/preset"
	"github.com/mbeoliero/learncache/tier/sqlsource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.NewDefault()
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	zl, err := logging.NewZap(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := logging.NewLogger(zl)

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = rdb.Ping(ctx).Err(); err != nil {
		// the cache degrades to source reads while redis is down
		zl.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := preset.Options{
		Name:      "content",
		Prefix:    cfg.Redis.KeyPrefix,
		Policy:    policy,
		Logger:    logger,
		Registry:  reg,
		ScanCount: cfg.Redis.ScanCount,
	}
	content := preset.NewManager[json.RawMessage](rdb, opts)
	reg.MustRegister(metrics.NewStatsCollector(content))

	handlerOpts := []admin.Option{
		admin.WithCaches(content),
		admin.WithGatherer(reg),
		admin.WithLogger(logger),
		admin.WithHealthCheck(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}

	if cfg.Subscription.DSN != "" {
		src, err := sqlsource.Open(cfg.Subscription.DSN)
		if err != nil {
			return err
		}
		defer src.Close()

		tiers := preset.NewTierService(rdb, src, cfg.Tier.TTL, preset.Options{
			Name:   "tier",
			Prefix: cfg.Redis.KeyPrefix + cfg.Tier.KeyPrefix,
			Logger: logger,
		})
		handlerOpts = append(handlerOpts, admin.WithTierService(tiers))
	} else {
		zl.Info("no subscription dsn configured, tier endpoints disabled")
	}

	srv := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      admin.New(handlerOpts...).Router(),
		ReadTimeout:  cfg.Admin.ReadTimeout,
		WriteTimeout: cfg.Admin.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("admin server listening", zap.String("addr", cfg.Admin.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zl.Info("shutting down admin server")
	return srv.Shutdown(shutdownCtx)
}
