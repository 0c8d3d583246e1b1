package ledger

import (
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/timefmt"

	"github.com/shopspring/decimal"
)

// DemoReason marks every transaction of the demonstration dataset.
const DemoReason = "Données de démonstration"

type demoRow struct {
	id          int64
	source      domain.SourceType
	status      domain.TxStatus
	amount      int64
	daysAgo     int
	clock       string
	project     string
	contributor string
	area        string
}

var demoRows = []demoRow{
	{900001, domain.SourceContribution, domain.StatusSuccess, 25000, 0, "10:15", "Forage Communautaire", "Awa Traoré", "Eau et assainissement"},
	{900002, domain.SourceAdmin, domain.StatusSuccess, 150000, 2, "16:40", "Fonds administrateur", "", ""},
	{900003, domain.SourceContribution, domain.StatusPending, 10000, 5, "08:05", "Bibliothèque Numérique", "Koffi Mensah", "Éducation"},
	{900004, domain.SourceContribution, domain.StatusFailed, 5000, 12, "19:30", "Forage Communautaire", "Fatou Diallo", "Eau et assainissement"},
	{900005, domain.SourceContribution, domain.StatusSuccess, 75000, 40, "11:00", "Bibliothèque Numérique", "Moussa Keita", "Éducation"},
}

// DemoLedger returns the fixed demonstration dataset served when the profile
// cannot be fetched. Dates are relative to now so period filters stay useful.
func DemoLedger(now time.Time, loc *time.Location) []domain.Transaction {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	txns := make([]domain.Transaction, 0, len(demoRows))
	for _, row := range demoRows {
		amount := decimal.NewFromInt(row.amount)
		date := now.AddDate(0, 0, -row.daysAgo).Format(timefmt.DateLayout)

		tx := domain.Transaction{
			ID:                row.id,
			SourceType:        row.source,
			Amount:            FormatAmount(amount),
			AmountValue:       amount,
			Date:              date,
			Time:              row.clock,
			Project:           projectLabel(row.project, date),
			RecipientNumber:   "DEMO",
			TransactionReason: DemoReason,
			ProjectDomain:     row.area,
		}
		if row.source == domain.SourceAdmin {
			tx.PaymentMethodDetail = "Versement administrateur"
		} else {
			tx.PaymentMethodDetail = "Contribution de " + row.contributor
			tx.ContributorName = row.contributor
			tx.ContributorInitials = Initials(row.contributor)
		}
		tx.SetStatus(row.status)
		txns = append(txns, tx)
	}
	SortLedger(txns, loc)
	return txns
}
