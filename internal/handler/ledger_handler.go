package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/authctx"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/ledger"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/service"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/timefmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ledgerQuery is the query string of GET /v1/me/ledger.
type ledgerQuery struct {
	Search     string `query:"search" validate:"max=200"`
	Project    string `query:"project" validate:"max=200"`
	SourceType string `query:"sourceType" validate:"omitempty,source_type"`
	Period     string `query:"period" validate:"omitempty,oneof=today week month year"`
}

func parseLedgerQuery(r *http.Request) (ledger.Criteria, error) {
	q := r.URL.Query()
	lq := ledgerQuery{
		Search:     q.Get("search"),
		Project:    q.Get("project"),
		SourceType: strings.ToUpper(strings.TrimSpace(q.Get("sourceType"))),
		Period:     strings.ToLower(strings.TrimSpace(q.Get("period"))),
	}
	if err := validateStruct(lq); err != nil {
		return ledger.Criteria{}, err
	}

	period, _ := timefmt.ParsePeriod(lq.Period)
	return ledger.Criteria{
		SearchTerm: lq.Search,
		Project:    lq.Project,
		SourceType: domain.SourceType(lq.SourceType),
		Period:     period,
	}, nil
}

func getLedgerHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/ledger")
		defer span.End()

		criteria, err := parseLedgerQuery(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		userID := authctx.UserID(ctx)
		span.SetAttributes(attribute.String("user.id", userID))

		view, err := svc.GetLedger(ctx, userID, criteria)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func getFundHistoryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/fund-history")
		defer span.End()

		userID := authctx.UserID(ctx)
		entries := svc.FundHistory(ctx, userID)
		writeJSON(w, http.StatusOK, map[string]any{
			"userId":  userID,
			"entries": entries,
		})
	}
}

func resetFundHistoryHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/me/fund-history")
		defer span.End()

		if err := svc.ResetFundHistory(ctx, authctx.UserID(ctx)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
