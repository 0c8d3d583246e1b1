package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type lifecycleRequest struct {
	Status       string `json:"status" validate:"required_without=StatusDetail,max=64"`
	StatusDetail string `json:"statusDetail" validate:"max=64"`
}

func campaignLifecycleHandler(svc *service.CampaignService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/campaigns/{campaignId}/lifecycle")
		defer span.End()

		campaignID := strings.TrimSpace(chi.URLParam(r, "campaignId"))
		if campaignID == "" {
			handleServiceError(w, &domain.ErrValidation{Field: "campaignId", Message: "is required"}, logger)
			return
		}
		span.SetAttributes(attribute.String("campaign.id", campaignID))

		lc, err := svc.Lifecycle(ctx, campaignID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lc)
	}
}

func evaluateLifecycleHandler(svc *service.CampaignService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/campaigns/lifecycle")
		defer span.End()

		var req lifecycleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, svc.Evaluate(req.Status, req.StatusDetail))
	}
}
