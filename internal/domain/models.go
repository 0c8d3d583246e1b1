// Package domain defines the core entities of the fundraising dashboard BFA.
// These models are independent of external services and represent the
// canonical data structures used throughout the ledger and campaign engines.
package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ============================================================
// Ledger transactions
// ============================================================

// SourceType is the origin category of a ledger transaction.
type SourceType string

const (
	SourceContribution SourceType = "CONTRIBUTION"
	SourceAdmin        SourceType = "ADMIN"
)

// Valid reports whether s is one of the known source types.
func (s SourceType) Valid() bool {
	return s == SourceContribution || s == SourceAdmin
}

// TxStatus is the settlement status of a ledger transaction.
type TxStatus string

const (
	StatusSuccess TxStatus = "success"
	StatusPending TxStatus = "pending"
	StatusFailed  TxStatus = "failed"
)

// StatusPresentation is the fixed status/icon/label triple rendered by the dashboard.
type StatusPresentation struct {
	Status TxStatus `json:"status"`
	Icon   string   `json:"icon"`
	Label  string   `json:"label"`
}

var statusPresentations = map[TxStatus]StatusPresentation{
	StatusSuccess: {Status: StatusSuccess, Icon: "check-circle", Label: "Réussi"},
	StatusPending: {Status: StatusPending, Icon: "clock", Label: "En attente"},
	StatusFailed:  {Status: StatusFailed, Icon: "x-circle", Label: "Échoué"},
}

// StatusPresentationFor returns the presentation for status.
// Unknown statuses collapse to pending.
func StatusPresentationFor(status TxStatus) StatusPresentation {
	if p, ok := statusPresentations[status]; ok {
		return p
	}
	return statusPresentations[StatusPending]
}

// Transaction is the ledger's unit of record.
type Transaction struct {
	ID                  int64           `json:"id"`
	SourceType          SourceType      `json:"sourceType"`
	Status              TxStatus        `json:"status"`
	StatusIcon          string          `json:"statusIcon"`
	StatusLabel         string          `json:"statusLabel"`
	Amount              string          `json:"amount"`
	AmountValue         decimal.Decimal `json:"amountValue"`
	Date                string          `json:"date"` // DD/MM/YYYY
	Time                string          `json:"time"` // HH:MM
	Project             string          `json:"project"`
	PaymentMethodDetail string          `json:"paymentMethodDetail"`
	RecipientNumber     string          `json:"recipientNumber"`
	TransactionReason   string          `json:"transactionReason"`
	ContributorName     string          `json:"contributorName,omitempty"`
	ContributorInitials string          `json:"contributorInitials,omitempty"`
	ProjectDomain       string          `json:"projectDomain,omitempty"`
}

// SetStatus stamps the status together with its fixed presentation.
func (t *Transaction) SetStatus(status TxStatus) {
	p := StatusPresentationFor(status)
	t.Status = p.Status
	t.StatusIcon = p.Icon
	t.StatusLabel = p.Label
}

// ============================================================
// Fund history
// ============================================================

// FundHistoryEntry is one observed fund balance snapshot.
type FundHistoryEntry struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"` // RFC 3339
}

// MarshalJSON writes the amount as a JSON number, the format the dashboard
// has always persisted.
func (e FundHistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount json.Number `json:"amount"`
		Date   string      `json:"date"`
	}{
		Amount: json.Number(e.Amount.String()),
		Date:   e.Date,
	})
}
