package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// CampaignsClient fetches campaigns from the project backend.
type CampaignsClient struct {
	upstream
}

// NewCampaignsClient creates a new CampaignsClient.
func NewCampaignsClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CampaignsClient {
	return &CampaignsClient{upstream{
		service:    "campaign",
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}}
}

// GetCampaign fetches one campaign by id.
func (c *CampaignsClient) GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "CampaignsClient.GetCampaign")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", campaignID))

	var campaign domain.Campaign
	endpoint := c.baseURL + "/api/projects/" + url.PathEscape(campaignID)
	if err := c.getJSON(ctx, endpoint, campaignID, decodeInto(&campaign)); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if campaign.ID == "" {
		campaign.ID = campaignID
	}
	return &campaign, nil
}
