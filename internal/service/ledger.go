package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/observability"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/ledger"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("service/ledger")

// Reasons reported on degraded ledgers.
const (
	ReasonProfileUnavailable       = "profile_unavailable"
	ReasonNotificationsUnavailable = "notifications_unavailable"
)

// LedgerView is the filtered ledger returned to the dashboard.
type LedgerView struct {
	BuildID        string               `json:"buildId"`
	Transactions   []domain.Transaction `json:"transactions"`
	Buckets        ledger.Buckets       `json:"buckets"`
	Summary        ledger.Summary       `json:"summary"`
	Projects       []string             `json:"projects"`
	Total          int                  `json:"total"`
	Degraded       bool                 `json:"degraded"`
	DegradedReason string               `json:"degradedReason,omitempty"`
	GeneratedAt    time.Time            `json:"generatedAt"`
}

// build is one unfiltered ledger, shared between concurrent callers of the
// same user.
type build struct {
	id           string
	transactions []domain.Transaction
	degraded     string
	at           time.Time
}

// LedgerService orchestrates the upstream fetches, the ledger builder and the
// filter engine, and applies the degradation policy.
type LedgerService struct {
	profileClient       port.ProfileFetcher
	notificationsClient port.NotificationsFetcher
	builder             *ledger.Builder
	history             *ledger.DisbursementHistory
	bulkhead            *resilience.Bulkhead
	builds              singleflight.Group
	metrics             *observability.Metrics
	logger              *zap.Logger
	loc                 *time.Location
	now                 func() time.Time
}

// LedgerOption customises a LedgerService.
type LedgerOption func(*LedgerService)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) { s.now = now }
}

// WithBulkhead bounds concurrent ledger builds.
func WithBulkhead(b *resilience.Bulkhead) LedgerOption {
	return func(s *LedgerService) { s.bulkhead = b }
}

// NewLedgerService creates the ledger service with all dependencies injected.
func NewLedgerService(
	profile port.ProfileFetcher,
	notifications port.NotificationsFetcher,
	history *ledger.DisbursementHistory,
	loc *time.Location,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...LedgerOption,
) *LedgerService {
	if loc == nil {
		loc = time.UTC
	}
	s := &LedgerService{
		profileClient:       profile,
		notificationsClient: notifications,
		builder:             ledger.NewBuilder(ledger.NewContributionParser(loc), history, loc),
		history:             history,
		metrics:             metrics,
		logger:              logger,
		loc:                 loc,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLedger builds the caller's ledger and applies criteria. Upstream
// failures degrade the ledger instead of failing the request.
func (s *LedgerService) GetLedger(ctx context.Context, userID string, criteria ledger.Criteria) (*LedgerView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "LedgerService.GetLedger")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	// Concurrent builds for one user share a single reconciliation.
	v, err, shared := s.builds.Do(userID, func() (any, error) {
		return s.build(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	b := v.(*build)
	span.SetAttributes(attribute.Bool("ledger.shared", shared))

	filtered := ledger.Filter(b.transactions, criteria, b.at, s.loc)
	buckets := ledger.Partition(filtered)

	return &LedgerView{
		BuildID:        b.id,
		Transactions:   filtered,
		Buckets:        buckets,
		Summary:        ledger.Summarize(buckets),
		Projects:       ledger.Projects(b.transactions),
		Total:          len(b.transactions),
		Degraded:       b.degraded != "",
		DegradedReason: b.degraded,
		GeneratedAt:    b.at,
	}, nil
}

func (s *LedgerService) build(ctx context.Context, userID string) (*build, error) {
	if s.bulkhead != nil {
		if err := s.bulkhead.Acquire(ctx); err != nil {
			return nil, &domain.ErrTimeout{Operation: "ledger build"}
		}
		defer s.bulkhead.Release()
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("ledger_build", time.Since(start))
	}()

	// --- Step 1: Fetch profile + notifications concurrently ---
	var (
		profile          *domain.Profile
		notifications    []domain.Notification
		profileErr       error
		notificationsErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		profile, profileErr = s.profileClient.GetProfile(ctx)
		return nil
	})
	g.Go(func() error {
		notifications, notificationsErr = s.notificationsClient.GetNotifications(ctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	b := &build{id: uuid.NewString(), at: now}

	// --- Step 2: Degrade on upstream failures ---
	if profileErr != nil {
		s.logger.Error("failed to fetch profile, serving demonstration ledger",
			zap.String("user_id", userID),
			zap.Error(profileErr),
		)
		s.metrics.IncrExternalError("profile")
		s.metrics.IncrBuild(observability.BuildDegradedProfile)

		b.transactions = ledger.DemoLedger(now, s.loc)
		b.degraded = ReasonProfileUnavailable
		return b, nil
	}

	if notificationsErr != nil {
		s.logger.Error("failed to fetch notifications, serving disbursements only",
			zap.String("user_id", userID),
			zap.Error(notificationsErr),
		)
		s.metrics.IncrExternalError("notifications")
		notifications = nil
		b.degraded = ReasonNotificationsUnavailable
	}

	if profile == nil {
		profile = &domain.Profile{}
	}

	// --- Step 3: Reconcile and merge ---
	result := s.builder.Build(ctx, userID, profile.Fund, notifications, now)
	b.transactions = result.Transactions

	s.metrics.IncrHistoryEvent(string(result.Reconcile.Event))
	s.recordEmitted(result.Transactions)
	if b.degraded != "" {
		s.metrics.IncrBuild(observability.BuildDegradedNotification)
	} else {
		s.metrics.IncrBuild(observability.BuildFull)
	}

	s.logger.Debug("ledger built",
		zap.String("user_id", userID),
		zap.String("profile_id", profile.ID),
		zap.String("build_id", b.id),
		zap.Int("transactions", len(b.transactions)),
		zap.String("history_event", string(result.Reconcile.Event)),
	)
	return b, nil
}

func (s *LedgerService) recordEmitted(txns []domain.Transaction) {
	var contributions, disbursements int
	for _, tx := range txns {
		if tx.SourceType == domain.SourceAdmin {
			disbursements++
		} else {
			contributions++
		}
	}
	s.metrics.AddEmitted(domain.SourceContribution, contributions)
	s.metrics.AddEmitted(domain.SourceAdmin, disbursements)
}

// FundHistory returns the persisted fund baseline of userID.
func (s *LedgerService) FundHistory(ctx context.Context, userID string) []domain.FundHistoryEntry {
	ctx, span := tracer.Start(ctx, "LedgerService.FundHistory")
	defer span.End()

	entries := s.history.History(ctx, userID)
	if entries == nil {
		entries = []domain.FundHistoryEntry{}
	}
	return entries
}

// ResetFundHistory clears the persisted baseline; the next build reseeds it.
func (s *LedgerService) ResetFundHistory(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "LedgerService.ResetFundHistory")
	defer span.End()

	if err := s.history.Reset(ctx, userID); err != nil {
		s.logger.Error("failed to reset fund history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "fund_history", Err: fmt.Errorf("reset: %w", err)}
	}
	s.logger.Info("fund history reset", zap.String("user_id", userID))
	return nil
}
