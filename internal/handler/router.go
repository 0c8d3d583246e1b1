package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/port"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

const defaultRateLimit = 120

// Services groups what the router serves. Nil services leave their routes
// answering 503, which keeps the operational endpoints testable alone.
type Services struct {
	Ledger   *service.LedgerService
	Campaign *service.CampaignService
	Tokens   *service.TokenVerifier
	// HistoryStore is pinged by the health endpoints.
	HistoryStore port.Pinger
	// RateLimit is the per-IP request budget per minute on /v1.
	RateLimit int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.HistoryStore))
	r.Get("/readyz", readyzHandler(svcs.HistoryStore, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	rateLimit := svcs.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware(rateLimit))
		r.Use(requireServices(svcs))
		r.Use(JWTAuthMiddleware(svcs.Tokens, logger))

		// Ledger
		r.Get("/me/ledger", getLedgerHandler(svcs.Ledger, logger))
		r.Get("/me/fund-history", getFundHistoryHandler(svcs.Ledger, logger))
		r.Delete("/me/fund-history", resetFundHistoryHandler(svcs.Ledger, logger))

		// Campaign lifecycle
		r.Get("/campaigns/{campaignId}/lifecycle", campaignLifecycleHandler(svcs.Campaign, logger))
		r.Post("/campaigns/lifecycle", evaluateLifecycleHandler(svcs.Campaign, logger))

		// Metrics
		r.Get("/metrics/ledger", ledgerMetricsHandler(metrics))
	})

	return r
}

// requireServices answers 503 on /v1 while the router runs without its
// services, as in operational-only tests.
func requireServices(svcs Services) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svcs.Ledger == nil || svcs.Campaign == nil || svcs.Tokens == nil {
				writeError(w, http.StatusServiceUnavailable, "service not configured")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================
// Operational
// ============================================================

func checkStore(ctx context.Context, store port.Pinger, now string) domain.ServiceHealth {
	start := time.Now()
	status := "healthy"

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		status = "unhealthy"
	}

	return domain.ServiceHealth{
		Name:        "fund-history-store",
		Status:      status,
		LatencyMs:   time.Since(start).Milliseconds(),
		LastChecked: now,
	}
}

func healthzHandler(store port.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}
		if store != nil {
			// The ledger keeps serving without its store, so a store
			// outage only degrades the service.
			s := checkStore(r.Context(), store, now)
			if s.Status != "healthy" {
				s.Status = "degraded"
			}
			services = append(services, s)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(store port.Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if s := checkStore(r.Context(), store, time.Now().Format(time.RFC3339)); s.Status != "healthy" {
				logger.Warn("readiness: fund history store unreachable")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLedgerSnapshot())
	}
}
