package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/config"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/handler"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/cache"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/client"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/historystore"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/ledger"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/port"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/service"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// historyStore is what the ledger and the health checks need from a backend.
type historyStore interface {
	port.FundHistoryStore
	port.Pinger
}

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("history_backend", cfg.HistoryBackend),
		zap.String("display_timezone", cfg.DisplayTimezone),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("rate_limit", cfg.RateLimit),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "fundraise-dashboard-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Fund history store ---
	store, closeStore, err := openHistoryStore(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to open fund history store",
			zap.String("backend", cfg.HistoryBackend),
			zap.Error(err),
		)
	}
	defer closeStore()

	// --- Cache ---
	campaignCache := cache.New[*domain.Campaign](cfg.CacheTTL)
	defer campaignCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	onStateChange := resilience.WithStateChange(func(name string, from, to gobreaker.State) {
		metrics.SetBreakerState(name, float64(to))
		logger.Warn("circuit breaker state change",
			zap.String("service", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	profileClient := client.NewProfileClient(httpClient, cfg.ProfileAPIURL,
		resilience.NewCircuitBreaker("profile", onStateChange), resilienceCfg)
	notificationsClient := client.NewNotificationsClient(httpClient, cfg.NotificationsAPIURL,
		resilience.NewCircuitBreaker("notifications", onStateChange), resilienceCfg)
	campaignsClient := client.NewCampaignsClient(httpClient, cfg.CampaignsAPIURL,
		resilience.NewCircuitBreaker("campaign", onStateChange), resilienceCfg)

	// --- Services ---
	history := ledger.NewDisbursementHistory(store, cfg.Location(), logger)

	ledgerSvc := service.NewLedgerService(
		profileClient,
		notificationsClient,
		history,
		cfg.Location(),
		metrics,
		logger,
		service.WithBulkhead(resilience.NewBulkhead(resilienceCfg.MaxConcurrency)),
	)
	campaignSvc := service.NewCampaignService(campaignsClient, campaignCache, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Ledger:       ledgerSvc,
		Campaign:     campaignSvc,
		Tokens:       service.NewTokenVerifier(cfg.JWTSecret),
		HistoryStore: store,
		RateLimit:    cfg.RateLimit,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openHistoryStore builds the configured fund history backend.
func openHistoryStore(ctx context.Context, cfg *config.Config) (historyStore, func(), error) {
	switch cfg.HistoryBackend {
	case config.BackendRedis:
		rdb, err := historystore.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return historystore.NewRedis(rdb, cfg.RedisTTL), func() { _ = rdb.Close() }, nil
	case config.BackendSQLite:
		db, err := historystore.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	default:
		return historystore.NewMemory(), func() {}, nil
	}
}
