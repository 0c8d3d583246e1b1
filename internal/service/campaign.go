package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/authctx"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/campaign"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CampaignService derives campaign lifecycle predicates.
type CampaignService struct {
	campaignClient port.CampaignFetcher
	cache          port.Cache[*domain.Campaign]
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewCampaignService creates the campaign service.
func NewCampaignService(
	campaigns port.CampaignFetcher,
	cache port.Cache[*domain.Campaign],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignClient: campaigns,
		cache:          cache,
		metrics:        metrics,
		logger:         logger,
	}
}

// Lifecycle fetches campaignID and evaluates its lifecycle on every call.
// When the upstream is unavailable the caller's last fetched snapshot is
// evaluated instead and flagged stale. Other fetch errors are returned.
func (s *CampaignService) Lifecycle(ctx context.Context, campaignID string) (*domain.CampaignLifecycle, error) {
	ctx, span := tracer.Start(ctx, "CampaignService.Lifecycle")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", campaignID))

	c, stale, err := s.campaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("campaign.stale", stale))

	lc := campaign.Evaluate(*c)
	lc.CampaignID = campaignID
	lc.Stale = stale
	return &lc, nil
}

// Evaluate computes the lifecycle of a status pair supplied by the caller.
func (s *CampaignService) Evaluate(status, statusDetail string) *domain.CampaignLifecycle {
	lc := campaign.Evaluate(domain.Campaign{Status: status, StatusDetail: statusDetail})
	return &lc
}

func (s *CampaignService) campaign(ctx context.Context, campaignID string) (*domain.Campaign, bool, error) {
	// Snapshots are scoped to the caller whose token authorized the fetch.
	cacheKey := "campaign:" + authctx.UserID(ctx) + ":" + campaignID

	c, err := s.campaignClient.GetCampaign(ctx, campaignID)
	if err == nil {
		s.cache.Set(cacheKey, c)
		return c, false, nil
	}

	s.metrics.IncrExternalError("campaign")
	if !isUnavailable(err) {
		s.cache.Delete(cacheKey)
		s.logger.Error("failed to fetch campaign",
			zap.String("campaign_id", campaignID),
			zap.Error(err),
		)
		return nil, false, fmt.Errorf("campaign fetch: %w", err)
	}

	if last, ok := s.cache.Get(cacheKey); ok && last != nil {
		s.metrics.IncrCacheHit("campaign")
		s.logger.Warn("campaign upstream unavailable, evaluating last snapshot",
			zap.String("campaign_id", campaignID),
			zap.Error(err),
		)
		return last, true, nil
	}
	s.metrics.IncrCacheMiss("campaign")
	s.logger.Error("failed to fetch campaign",
		zap.String("campaign_id", campaignID),
		zap.Error(err),
	)
	return nil, false, fmt.Errorf("campaign fetch: %w", err)
}

// isUnavailable reports whether err means the upstream could not answer,
// as opposed to answering with a rejection.
func isUnavailable(err error) bool {
	var (
		open     *domain.ErrCircuitOpen
		timeout  *domain.ErrTimeout
		external *domain.ErrExternalService
	)
	if errors.As(err, &open) || errors.As(err, &timeout) {
		return true
	}
	return errors.As(err, &external) && !resilience.IsPermanent(err)
}
