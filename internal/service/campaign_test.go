package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/authctx"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/cache"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/service"

	"go.uber.org/zap"
)

type mockCampaignClient struct {
	campaign *domain.Campaign
	err      error
	calls    int
}

func (m *mockCampaignClient) GetCampaign(_ context.Context, _ string) (*domain.Campaign, error) {
	m.calls++
	return m.campaign, m.err
}

func newCampaignService(t *testing.T, client *mockCampaignClient, metrics *observability.Metrics) *service.CampaignService {
	t.Helper()
	c := cache.New[*domain.Campaign](time.Minute)
	t.Cleanup(c.Close)
	return service.NewCampaignService(client, c, metrics, zap.NewNop())
}

func TestLifecycle_ClosedDetailWins(t *testing.T) {
	client := &mockCampaignClient{campaign: &domain.Campaign{ID: "7", Status: "IN_PROGRESS", StatusDetail: "Clôturé"}}
	svc := newCampaignService(t, client, observability.NewMetrics())

	lc, err := svc.Lifecycle(context.Background(), "7")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !lc.IsClosed || lc.CanEdit || lc.CanClose {
		t.Errorf("expected closed, non-editable lifecycle, got %+v", lc)
	}
	if lc.CampaignID != "7" {
		t.Errorf("expected campaign id 7, got %q", lc.CampaignID)
	}
}

func TestLifecycle_ReevaluatedOnEveryCall(t *testing.T) {
	client := &mockCampaignClient{campaign: &domain.Campaign{ID: "7", Status: "IN_PROGRESS"}}
	svc := newCampaignService(t, client, observability.NewMetrics())
	ctx := authctx.WithUser(context.Background(), "user-1", "token")

	lc, err := svc.Lifecycle(ctx, "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lc.CanClose || lc.IsClosed {
		t.Fatalf("expected open campaign, got %+v", lc)
	}

	client.campaign = &domain.Campaign{ID: "7", Status: "FINISHED", StatusDetail: "Clôturé"}

	lc, err = svc.Lifecycle(ctx, "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lc.IsClosed || lc.CanEdit || lc.CanClose || lc.Stale {
		t.Errorf("expected the closed status to be reflected, got %+v", lc)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", client.calls)
	}
}

func TestLifecycle_UnavailableUpstreamServesCallerSnapshot(t *testing.T) {
	metrics := observability.NewMetrics()
	client := &mockCampaignClient{campaign: &domain.Campaign{ID: "7", Status: "IN_PROGRESS"}}
	svc := newCampaignService(t, client, metrics)
	owner := authctx.WithUser(context.Background(), "user-1", "token-1")
	other := authctx.WithUser(context.Background(), "user-2", "token-2")

	if _, err := svc.Lifecycle(owner, "7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client.campaign = nil
	client.err = &domain.ErrCircuitOpen{Service: "campaign"}

	lc, err := svc.Lifecycle(owner, "7")
	if err != nil {
		t.Fatalf("expected snapshot fallback, got %v", err)
	}
	if !lc.Stale || !lc.IsInProgress {
		t.Errorf("expected stale in-progress lifecycle, got %+v", lc)
	}

	_, err = svc.Lifecycle(other, "7")
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Errorf("expected another caller to get the outage error, got %v", err)
	}

	if rate := metrics.GetLedgerSnapshot().CacheHitRate; rate != 0.5 {
		t.Errorf("expected 1/2 snapshot hit rate, got %v", rate)
	}
}

func TestLifecycle_RejectionDropsSnapshot(t *testing.T) {
	client := &mockCampaignClient{campaign: &domain.Campaign{ID: "7", Status: "IN_PROGRESS"}}
	svc := newCampaignService(t, client, observability.NewMetrics())
	ctx := authctx.WithUser(context.Background(), "user-1", "token")

	if _, err := svc.Lifecycle(ctx, "7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	client.campaign = nil
	client.err = &domain.ErrExternalService{
		Service: "campaign",
		Err:     resilience.Permanent(&domain.ErrNotFound{Resource: "campaign", ID: "7"}),
	}
	if _, err := svc.Lifecycle(ctx, "7"); err == nil {
		t.Fatal("expected the rejection to be returned")
	}

	client.err = &domain.ErrCircuitOpen{Service: "campaign"}
	if _, err := svc.Lifecycle(ctx, "7"); err == nil {
		t.Error("expected no snapshot after the campaign was rejected")
	}
}

func TestLifecycle_FetchErrorIsReturned(t *testing.T) {
	client := &mockCampaignClient{err: &domain.ErrNotFound{Resource: "campaign", ID: "404"}}
	svc := newCampaignService(t, client, observability.NewMetrics())

	_, err := svc.Lifecycle(context.Background(), "404")

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEvaluate_PostedStatus(t *testing.T) {
	svc := newCampaignService(t, &mockCampaignClient{}, observability.NewMetrics())

	lc := svc.Evaluate("APPROVED", "")
	if !lc.IsValidated || lc.CanEditStartDate || !lc.CanEdit {
		t.Errorf("unexpected lifecycle for APPROVED: %+v", lc)
	}

	lc = svc.Evaluate("PENDING", "En cours")
	if !lc.IsInProgress || !lc.CanClose {
		t.Errorf("expected detail to win, got %+v", lc)
	}
}
