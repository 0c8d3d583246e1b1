package observability_test

import (
	"testing"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/observability"
)

func TestLedgerSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrBuild(observability.BuildFull)
	m.IncrBuild(observability.BuildFull)
	m.IncrBuild(observability.BuildFull)
	m.IncrBuild(observability.BuildDegradedProfile)
	m.AddEmitted(domain.SourceContribution, 4)
	m.AddEmitted(domain.SourceAdmin, 2)
	m.AddEmitted(domain.SourceAdmin, 0)
	m.IncrHistoryEvent("seeded")
	m.IncrHistoryEvent("increased")
	m.IncrHistoryEvent("reset")
	m.IncrCacheHit("campaign")
	m.IncrCacheMiss("campaign")

	s := m.GetLedgerSnapshot()

	if s.TotalBuilds != 4 {
		t.Errorf("expected 4 builds, got %d", s.TotalBuilds)
	}
	if s.DegradedBuilds != 1 || s.DegradedRate != 0.25 {
		t.Errorf("expected 1 degraded build at 0.25, got %d at %v", s.DegradedBuilds, s.DegradedRate)
	}
	if s.ContributionsEmitted != 4 || s.DisbursementsEmitted != 2 {
		t.Errorf("unexpected emitted counts: %+v", s)
	}
	if s.DisbursementsDetected != 2 || s.BaselineResets != 1 {
		t.Errorf("unexpected history counts: %+v", s)
	}
	if s.CacheHitRate != 0.5 {
		t.Errorf("expected cache hit rate 0.5, got %v", s.CacheHitRate)
	}
}

func TestLedgerSnapshot_Empty(t *testing.T) {
	s := observability.NewMetrics().GetLedgerSnapshot()

	if s.TotalBuilds != 0 || s.DegradedRate != 0 || s.CacheHitRate != 0 {
		t.Errorf("expected zero snapshot, got %+v", s)
	}
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()
	a.IncrBuild(observability.BuildFull)

	if b.GetLedgerSnapshot().TotalBuilds != 0 {
		t.Error("expected registries to be independent")
	}
}
