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

	"go.uber.org/zap"

	httpHandlers "github.com/JeanGrijp/seo-report/internal/adapters/http/handlers"
	httpMiddleware "github.com/JeanGrijp/seo-report/internal/adapters/http/middleware"
	"github.com/JeanGrijp/seo-report/internal/adapters/metrics"
	"github.com/JeanGrijp/seo-report/internal/adapters/presenter/html"
	"github.com/JeanGrijp/seo-report/internal/adapters/storage/memory"
	redisstorage "github.com/JeanGrijp/seo-report/internal/adapters/storage/redis"
	"github.com/JeanGrijp/seo-report/internal/adapters/tracking/logsink"
	"github.com/JeanGrijp/seo-report/internal/adapters/tracking/sqlite"
	"github.com/JeanGrijp/seo-report/internal/adapters/upstream/dataforseo"
	"github.com/JeanGrijp/seo-report/internal/config"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
	"github.com/JeanGrijp/seo-report/internal/core/services"
	"github.com/JeanGrijp/seo-report/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, zl)
	stop()
	if err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}

// run monta as dependências e serve até ctx ser cancelado; os defers fecham os stores antes do retorno.
func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	var (
		appMetrics     ports.Metrics = ports.NopMetrics{}
		httpObserver   httpMiddleware.HTTPObserver
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		m := metrics.New(cfg.Metrics.Namespace)
		appMetrics, httpObserver, metricsHandler = m, m, m.Handler()
	}

	storage, closeStorage, err := initStorage(cfg.Storage, zl)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer closeStorage()

	limiter, err := services.NewRateLimiterService(storage, services.RateLimiterConfig{Rule: cfg.RateLimiter.IPRule})
	if err != nil {
		return fmt.Errorf("create limiter: %w", err)
	}

	client := dataforseo.New(dataforseo.Config{
		BaseURL:       cfg.Upstream.BaseURL,
		Login:         cfg.Upstream.Login,
		Password:      cfg.Upstream.Password,
		Timeout:       cfg.Upstream.Timeout,
		MaxRetries:    cfg.Upstream.MaxRetries,
		RatePerSecond: cfg.Upstream.RatePerSecond,
		Burst:         cfg.Upstream.Burst,
	}, appMetrics, zl)
	logAccount(ctx, client, zl)

	reports, err := services.NewReportService(client, services.ReportConfig{
		LocationCode:     cfg.Report.LocationCode,
		LanguageCode:     cfg.Report.LanguageCode,
		HistoryMonths:    cfg.Report.HistoryMonths,
		CompetitorRegion: cfg.Report.CompetitorRegion,
		Timeout:          cfg.Report.Timeout,
		Parallel:         cfg.Report.Parallel,
	}, appMetrics, zl)
	if err != nil {
		return fmt.Errorf("create report service: %w", err)
	}

	sinks := []ports.UsageSink{logsink.New(zl)}
	if cfg.Tracking.SQLitePath != "" {
		store, err := sqlite.NewStorage(cfg.Tracking.SQLitePath)
		if err != nil {
			return fmt.Errorf("open usage database %s: %w", cfg.Tracking.SQLitePath, err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				zl.Warn("failed to close usage database", zap.Error(err))
			}
		}()
		sinks = append(sinks, store)
	}

	presenter, err := html.New(cfg.Presenter.Language)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	tracker := services.NewUsageTracker(services.UsageTrackerConfig{BufferSize: cfg.Tracking.BufferSize}, appMetrics, zl, sinks...)

	router := httpHandlers.NewRouter(httpHandlers.RouterDeps{
		Builder:        reports,
		Limiter:        limiter,
		Tracker:        tracker,
		Renderer:       presenter,
		Metrics:        appMetrics,
		HTTPObserver:   httpObserver,
		MetricsHandler: metricsHandler,
		Log:            zl,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Type))
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("graceful shutdown failed", zap.Error(err))
	}
	if err := tracker.Close(shutdownCtx); err != nil {
		zl.Warn("usage tracker did not drain", zap.Error(err))
	}
	return serveErr
}

func initStorage(cfg config.StorageConfig, zl *zap.Logger) (ports.RateLimitStore, func(), error) {
	switch cfg.Type {
	case config.StorageMemory:
		return memory.New(), func() {}, nil
	case config.StorageRedis:
		storage, err := redisstorage.New(redisstorage.Config{
			Addr:      cfg.Redis.Addr(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				zl.Warn("failed to close redis storage", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// logAccount registra o saldo da conta; sem credenciais apenas avisa.
func logAccount(ctx context.Context, client *dataforseo.Client, zl *zap.Logger) {
	if err := client.Ready(); err != nil {
		zl.Warn("upstream not configured, reports will fail", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	account, err := client.UserData(ctx)
	if err != nil {
		zl.Warn("failed to fetch upstream account data", zap.Error(err))
		return
	}
	fields := []zap.Field{}
	if account.Login != nil {
		fields = append(fields, zap.String("login", *account.Login))
	}
	if account.Money != nil && account.Money.Balance != nil {
		fields = append(fields, zap.Float64("balance", *account.Money.Balance))
	}
	zl.Info("upstream account", fields...)
}
