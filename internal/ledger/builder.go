// Package ledger reconstructs the fund transaction ledger shown on the
// dashboard from contribution notifications and fund balance snapshots.
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/timefmt"

	"github.com/shopspring/decimal"
)

// Builder merges contribution and disbursement transactions into one ledger.
type Builder struct {
	parser  *ContributionParser
	history *DisbursementHistory
	loc     *time.Location
}

// NewBuilder creates a ledger builder.
func NewBuilder(parser *ContributionParser, history *DisbursementHistory, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{parser: parser, history: history, loc: loc}
}

// BuildResult is one ledger-building pass.
type BuildResult struct {
	Transactions []domain.Transaction
	Reconcile    ReconcileResult
}

// Build reconciles the fund balance, extracts contributions from
// notifications and returns the merged ledger, newest first.
func (b *Builder) Build(ctx context.Context, userID string, fund decimal.Decimal, notifications []domain.Notification, now time.Time) BuildResult {
	reconciled := b.history.Reconcile(ctx, userID, fund, now)

	txns := make([]domain.Transaction, 0, len(notifications)+len(reconciled.Transactions))
	txns = append(txns, b.Contributions(notifications)...)
	txns = append(txns, reconciled.Transactions...)
	SortLedger(txns, b.loc)

	return BuildResult{Transactions: txns, Reconcile: reconciled}
}

// Contributions extracts the contribution transactions from notifications.
func (b *Builder) Contributions(notifications []domain.Notification) []domain.Transaction {
	var txns []domain.Transaction
	for _, n := range notifications {
		if tx, ok := b.parser.TryExtract(n); ok {
			txns = append(txns, tx)
		}
	}
	return txns
}

// SortLedger stable-sorts txns newest first: by parsed display date, then by
// a descending string comparison of the HH:MM time.
func SortLedger(txns []domain.Transaction, loc *time.Location) {
	sort.SliceStable(txns, func(i, j int) bool {
		di := timefmt.ParseLocalDate(txns[i].Date, loc)
		dj := timefmt.ParseLocalDate(txns[j].Date, loc)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return txns[i].Time > txns[j].Time
	})
}
