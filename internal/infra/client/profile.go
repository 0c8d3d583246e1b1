package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// ProfileClient fetches the authenticated user's profile from the Profile API.
type ProfileClient struct {
	upstream
}

// NewProfileClient creates a new ProfileClient.
func NewProfileClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *ProfileClient {
	return &ProfileClient{upstream{
		service:    "profile",
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}}
}

// GetProfile fetches the caller's profile with retry, circuit breaker, and tracing.
func (c *ProfileClient) GetProfile(ctx context.Context) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileClient.GetProfile")
	defer span.End()

	var profile domain.Profile
	if err := c.getJSON(ctx, c.baseURL+"/api/users/profile", "me", decodeInto(&profile)); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", profile.ID))
	return &profile, nil
}
