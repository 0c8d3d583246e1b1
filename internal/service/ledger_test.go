package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/historystore"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/ledger"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/service"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/timefmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockProfileClient struct {
	profile *domain.Profile
	err     error
	calls   atomic.Int32
	delay   time.Duration
}

func (m *mockProfileClient) GetProfile(_ context.Context) (*domain.Profile, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.profile, m.err
}

type mockNotificationsClient struct {
	notifications []domain.Notification
	err           error
}

func (m *mockNotificationsClient) GetNotifications(_ context.Context) ([]domain.Notification, error) {
	return m.notifications, m.err
}

var fixedNow = time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)

func contributions() []domain.Notification {
	return []domain.Notification{
		{
			ID:      11,
			Type:    ledger.ContributionNotificationType,
			Content: "Aminata Coulibaly a contribué 50,000 FCFA dans votre projet Plateforme de Télémédecine.",
			SentAt:  "2025-10-15T09:30:00Z",
		},
		{
			ID:      12,
			Type:    ledger.ContributionNotificationType,
			Content: "Koffi Mensah a contribué 10 000 FCFA dans votre projet Bibliothèque.",
			SentAt:  "2025-09-01T10:00:00Z",
		},
	}
}

func newLedgerService(profile *mockProfileClient, notifications *mockNotificationsClient, store *historystore.Memory, metrics *observability.Metrics) *service.LedgerService {
	history := ledger.NewDisbursementHistory(store, time.UTC, zap.NewNop())
	return service.NewLedgerService(profile, notifications, history, time.UTC, metrics, zap.NewNop(),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithBulkhead(resilience.NewBulkhead(4)),
	)
}

// --- Tests ---

func TestGetLedger_Success(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := newLedgerService(
		&mockProfileClient{profile: &domain.Profile{ID: "u1", Fund: decimal.NewFromInt(500000)}},
		&mockNotificationsClient{notifications: contributions()},
		historystore.NewMemory(),
		metrics,
	)

	view, err := svc.GetLedger(context.Background(), "u1", ledger.Criteria{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if view.Degraded {
		t.Errorf("expected full ledger, got degraded (%s)", view.DegradedReason)
	}
	if view.BuildID == "" {
		t.Error("expected build id")
	}
	if len(view.Transactions) != 3 || view.Total != 3 {
		t.Fatalf("expected 3 transactions, got %d (total %d)", len(view.Transactions), view.Total)
	}
	if view.Transactions[0].ID != 11 {
		t.Errorf("expected newest contribution first, got id %d", view.Transactions[0].ID)
	}
	if view.Buckets.Len() != len(view.Transactions) {
		t.Errorf("bucket total %d != %d", view.Buckets.Len(), len(view.Transactions))
	}
	if view.Summary.Disbursements.Count != 1 {
		t.Errorf("expected 1 disbursement, got %d", view.Summary.Disbursements.Count)
	}
	if len(view.Projects) != 3 {
		t.Errorf("expected 3 projects, got %v", view.Projects)
	}

	snap := metrics.GetLedgerSnapshot()
	if snap.TotalBuilds != 1 || snap.DisbursementsDetected != 1 || snap.ContributionsEmitted != 2 {
		t.Errorf("unexpected metrics snapshot: %+v", snap)
	}
}

func TestGetLedger_AppliesCriteria(t *testing.T) {
	svc := newLedgerService(
		&mockProfileClient{profile: &domain.Profile{ID: "u1", Fund: decimal.NewFromInt(500000)}},
		&mockNotificationsClient{notifications: contributions()},
		historystore.NewMemory(),
		observability.NewMetrics(),
	)

	view, err := svc.GetLedger(context.Background(), "u1", ledger.Criteria{
		SourceType: domain.SourceContribution,
		Period:     timefmt.PeriodWeek,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(view.Transactions) != 1 || view.Transactions[0].ID != 11 {
		t.Fatalf("expected only the recent contribution, got %+v", view.Transactions)
	}
	if view.Total != 3 {
		t.Errorf("expected unfiltered total 3, got %d", view.Total)
	}
	if len(view.Projects) != 3 {
		t.Errorf("expected projects from the unfiltered ledger, got %v", view.Projects)
	}
}

func TestGetLedger_ProfileFailureServesDemo(t *testing.T) {
	metrics := observability.NewMetrics()
	store := historystore.NewMemory()
	svc := newLedgerService(
		&mockProfileClient{err: errors.New("connection refused")},
		&mockNotificationsClient{notifications: contributions()},
		store,
		metrics,
	)

	view, err := svc.GetLedger(context.Background(), "u1", ledger.Criteria{})
	if err != nil {
		t.Fatalf("expected degraded ledger, got error %v", err)
	}

	if !view.Degraded || view.DegradedReason != service.ReasonProfileUnavailable {
		t.Errorf("expected profile degradation, got %v/%s", view.Degraded, view.DegradedReason)
	}
	for _, tx := range view.Transactions {
		if tx.TransactionReason != ledger.DemoReason {
			t.Fatalf("expected demonstration data, got %+v", tx)
		}
	}
	if entries, _ := store.Get(context.Background(), "u1"); len(entries) != 0 {
		t.Error("expected the baseline to stay untouched")
	}
	if snap := metrics.GetLedgerSnapshot(); snap.DegradedBuilds != 1 {
		t.Errorf("expected 1 degraded build, got %d", snap.DegradedBuilds)
	}
}

func TestGetLedger_NotificationsFailureServesDisbursements(t *testing.T) {
	svc := newLedgerService(
		&mockProfileClient{profile: &domain.Profile{ID: "u1", Fund: decimal.NewFromInt(500000)}},
		&mockNotificationsClient{err: errors.New("timeout")},
		historystore.NewMemory(),
		observability.NewMetrics(),
	)

	view, err := svc.GetLedger(context.Background(), "u1", ledger.Criteria{})
	if err != nil {
		t.Fatalf("expected degraded ledger, got error %v", err)
	}

	if view.DegradedReason != service.ReasonNotificationsUnavailable {
		t.Errorf("expected notifications degradation, got %q", view.DegradedReason)
	}
	if len(view.Transactions) != 1 || view.Transactions[0].SourceType != domain.SourceAdmin {
		t.Fatalf("expected admin-only ledger, got %+v", view.Transactions)
	}
}

func TestGetLedger_RepeatedBuildsAreStable(t *testing.T) {
	store := historystore.NewMemory()
	svc := newLedgerService(
		&mockProfileClient{profile: &domain.Profile{ID: "u1", Fund: decimal.NewFromInt(500000)}},
		&mockNotificationsClient{},
		store,
		observability.NewMetrics(),
	)

	first, _ := svc.GetLedger(context.Background(), "u1", ledger.Criteria{})
	second, _ := svc.GetLedger(context.Background(), "u1", ledger.Criteria{})

	if len(first.Transactions) != len(second.Transactions) {
		t.Errorf("expected stable ledger, got %d then %d", len(first.Transactions), len(second.Transactions))
	}
	if entries, _ := store.Get(context.Background(), "u1"); len(entries) != 1 {
		t.Errorf("expected a single baseline entry, got %d", len(entries))
	}
}

func TestGetLedger_ConcurrentCallersShareBuild(t *testing.T) {
	profile := &mockProfileClient{
		profile: &domain.Profile{ID: "u1", Fund: decimal.NewFromInt(500000)},
		delay:   50 * time.Millisecond,
	}
	store := historystore.NewMemory()
	svc := newLedgerService(profile, &mockNotificationsClient{}, store, observability.NewMetrics())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetLedger(context.Background(), "u1", ledger.Criteria{}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := profile.calls.Load(); calls >= 5 {
		t.Errorf("expected concurrent builds to be shared, got %d profile fetches", calls)
	}
	if entries, _ := store.Get(context.Background(), "u1"); len(entries) != 1 {
		t.Errorf("expected a single seeded entry, got %d", len(entries))
	}
}

func TestGetLedger_CancelledContext(t *testing.T) {
	svc := newLedgerService(&mockProfileClient{}, &mockNotificationsClient{}, historystore.NewMemory(), observability.NewMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.GetLedger(ctx, "u1", ledger.Criteria{}); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFundHistory_GetAndReset(t *testing.T) {
	store := historystore.NewMemory()
	svc := newLedgerService(
		&mockProfileClient{profile: &domain.Profile{ID: "u1", Fund: decimal.NewFromInt(1000)}},
		&mockNotificationsClient{},
		store,
		observability.NewMetrics(),
	)

	if got := svc.FundHistory(context.Background(), "u1"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil history, got %v", got)
	}

	if _, err := svc.GetLedger(context.Background(), "u1", ledger.Criteria{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.FundHistory(context.Background(), "u1"); len(got) != 1 {
		t.Fatalf("expected seeded history, got %v", got)
	}

	if err := svc.ResetFundHistory(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected reset error: %v", err)
	}
	if got := svc.FundHistory(context.Background(), "u1"); len(got) != 0 {
		t.Errorf("expected cleared history, got %v", got)
	}
}
