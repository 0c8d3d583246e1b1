package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/port"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/timefmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventKind describes what a reconciliation pass observed.
type EventKind string

const (
	EventSeeded    EventKind = "seeded"
	EventIncreased EventKind = "increased"
	EventUnchanged EventKind = "unchanged"
	EventReset     EventKind = "reset"
)

// IDGenerator assigns synthetic ids to disbursement transactions.
type IDGenerator func(index int) int64

// WallClockIDs derives ids from the current wall-clock milliseconds plus
// the index. Rapid repeated calls can collide.
func WallClockIDs(index int) int64 {
	return time.Now().UnixMilli() + int64(index)
}

// ReconcileResult is the outcome of one reconciliation pass.
type ReconcileResult struct {
	Transactions []domain.Transaction
	History      []domain.FundHistoryEntry
	Event        EventKind
	Delta        decimal.Decimal
}

// DisbursementHistory reconstructs admin disbursements by diffing the
// current fund balance against a persisted per-user baseline.
type DisbursementHistory struct {
	store  port.FundHistoryStore
	loc    *time.Location
	ids    IDGenerator
	logger *zap.Logger
}

// HistoryOption customises a DisbursementHistory.
type HistoryOption func(*DisbursementHistory)

// WithIDGenerator overrides the synthetic id scheme.
func WithIDGenerator(gen IDGenerator) HistoryOption {
	return func(h *DisbursementHistory) {
		if gen != nil {
			h.ids = gen
		}
	}
}

// NewDisbursementHistory creates the reconciler over store.
func NewDisbursementHistory(store port.FundHistoryStore, loc *time.Location, logger *zap.Logger, opts ...HistoryOption) *DisbursementHistory {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &DisbursementHistory{
		store:  store,
		loc:    loc,
		ids:    WallClockIDs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Reconcile diffs currentFund against the persisted baseline, updates the
// baseline and replays the whole history as ADMIN transactions. It never
// fails: store errors are logged and the pass continues.
func (h *DisbursementHistory) Reconcile(ctx context.Context, userID string, currentFund decimal.Decimal, now time.Time) ReconcileResult {
	history := h.load(ctx, userID)

	// No baseline yet: assume the current fund arrived in one disbursement yesterday.
	if len(history) == 0 && currentFund.IsPositive() {
		seed := domain.FundHistoryEntry{
			Amount: currentFund,
			Date:   now.Add(-24 * time.Hour).Format(time.RFC3339),
		}
		history = []domain.FundHistoryEntry{seed}
		h.save(ctx, userID, history)

		return ReconcileResult{
			Transactions: []domain.Transaction{h.disbursement(0, seed.Amount, seed.Date)},
			History:      history,
			Event:        EventSeeded,
			Delta:        currentFund,
		}
	}

	last := decimal.Zero
	if len(history) > 0 {
		last = history[len(history)-1].Amount
	}

	result := ReconcileResult{Event: EventUnchanged, Delta: currentFund.Sub(last)}
	entry := domain.FundHistoryEntry{Amount: currentFund, Date: now.Format(time.RFC3339)}

	switch currentFund.Cmp(last) {
	case 1:
		history = append(history, entry)
		h.save(ctx, userID, history)
		result.Event = EventIncreased
	case -1:
		// Decreases are external adjustments, not reversible disbursements.
		history = []domain.FundHistoryEntry{entry}
		h.save(ctx, userID, history)
		result.Event = EventReset
	}

	result.History = history
	result.Transactions = h.replay(history)
	return result
}

// History returns the persisted baseline for userID.
func (h *DisbursementHistory) History(ctx context.Context, userID string) []domain.FundHistoryEntry {
	return h.load(ctx, userID)
}

// Reset clears the persisted baseline for userID.
func (h *DisbursementHistory) Reset(ctx context.Context, userID string) error {
	return h.store.Delete(ctx, userID)
}

func (h *DisbursementHistory) replay(history []domain.FundHistoryEntry) []domain.Transaction {
	var txns []domain.Transaction
	if len(history) == 1 {
		if history[0].Amount.IsPositive() {
			txns = append(txns, h.disbursement(0, history[0].Amount, history[0].Date))
		}
		return txns
	}
	for i := 1; i < len(history); i++ {
		delta := history[i].Amount.Sub(history[i-1].Amount)
		if delta.IsPositive() {
			txns = append(txns, h.disbursement(len(txns), delta, history[i].Date))
		}
	}
	return txns
}

func (h *DisbursementHistory) disbursement(index int, amount decimal.Decimal, at string) domain.Transaction {
	date := timefmt.FormatDate(at, h.loc)
	tx := domain.Transaction{
		ID:                  h.ids(index),
		SourceType:          domain.SourceAdmin,
		Amount:              FormatAmount(amount),
		AmountValue:         amount,
		Date:                date,
		Time:                timefmt.FormatTime(at, h.loc),
		Project:             projectLabel("Fonds administrateur", date),
		PaymentMethodDetail: "Versement administrateur",
		RecipientNumber:     "Compte de collecte",
		TransactionReason:   "Déblocage des fonds collectés par l'administration",
	}
	tx.SetStatus(domain.StatusSuccess)
	return tx
}

func (h *DisbursementHistory) load(ctx context.Context, userID string) []domain.FundHistoryEntry {
	entries, err := h.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptHistory) {
			h.logger.Warn("fund history corrupt, reseeding",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			h.logger.Error("fund history load failed, continuing without baseline",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		return nil
	}
	out := make([]domain.FundHistoryEntry, len(entries))
	copy(out, entries)
	return out
}

func (h *DisbursementHistory) save(ctx context.Context, userID string, entries []domain.FundHistoryEntry) {
	if err := h.store.Put(ctx, userID, entries); err != nil {
		h.logger.Error("fund history persist failed",
			zap.String("user_id", userID),
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
	}
}
