package ledger

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/timefmt"

	"github.com/shopspring/decimal"
)

var trailingDatePattern = regexp.MustCompile(`^(.*?)\s*(?:[-–—|,:]\s*)?\d{2}/\d{2}/\d{4}\s*$`)

// Criteria selects ledger transactions. Zero-valued fields are ignored.
type Criteria struct {
	SearchTerm string
	Project    string
	SourceType domain.SourceType
	Period     timefmt.Period
}

// ExtractProjectName strips the trailing date from a transaction's project
// label, falling back to the segment before the first " - ".
func ExtractProjectName(project string) string {
	if m := trailingDatePattern.FindStringSubmatch(project); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(strings.SplitN(project, " - ", 2)[0])
}

// Filter returns the transactions matching every non-empty criterion, in
// ledger order. Periods are judged on the display calendar of loc.
func Filter(ledger []domain.Transaction, c Criteria, now time.Time, loc *time.Location) []domain.Transaction {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	search := strings.ToLower(strings.TrimSpace(c.SearchTerm))
	project := strings.TrimSpace(c.Project)

	out := make([]domain.Transaction, 0, len(ledger))
	for _, tx := range ledger {
		if search != "" && !matchesSearch(tx, search) {
			continue
		}
		if project != "" && ExtractProjectName(tx.Project) != project {
			continue
		}
		if c.SourceType != "" && tx.SourceType != c.SourceType {
			continue
		}
		if c.Period != "" {
			date, ok := timefmt.ParseLocalDateStrict(tx.Date, loc)
			if !ok || !timefmt.IsWithinPeriod(date, now, c.Period) {
				continue
			}
		}
		out = append(out, tx)
	}
	return out
}

func matchesSearch(tx domain.Transaction, term string) bool {
	return strings.Contains(strings.ToLower(tx.Project), term) ||
		strings.Contains(strings.ToLower(tx.PaymentMethodDetail), term) ||
		strings.Contains(strings.ToLower(tx.TransactionReason), term)
}

// Buckets splits a ledger by status.
type Buckets struct {
	Success []domain.Transaction `json:"success"`
	Pending []domain.Transaction `json:"pending"`
	Failed  []domain.Transaction `json:"failed"`
}

// Len is the total number of transactions across buckets.
func (b Buckets) Len() int {
	return len(b.Success) + len(b.Pending) + len(b.Failed)
}

// Partition splits txns into status buckets. Every transaction lands in
// exactly one bucket.
func Partition(txns []domain.Transaction) Buckets {
	b := Buckets{
		Success: []domain.Transaction{},
		Pending: []domain.Transaction{},
		Failed:  []domain.Transaction{},
	}
	for _, tx := range txns {
		switch tx.Status {
		case domain.StatusSuccess:
			b.Success = append(b.Success, tx)
		case domain.StatusFailed:
			b.Failed = append(b.Failed, tx)
		default:
			b.Pending = append(b.Pending, tx)
		}
	}
	return b
}

// Total is a count and amount aggregate.
type Total struct {
	Count     int             `json:"count"`
	Amount    string          `json:"amount"`
	AmountRaw decimal.Decimal `json:"amountValue"`
}

func totalOf(txns []domain.Transaction) Total {
	sum := decimal.Zero
	for _, tx := range txns {
		sum = sum.Add(tx.AmountValue)
	}
	return Total{Count: len(txns), Amount: FormatAmount(sum), AmountRaw: sum}
}

// Summary aggregates a filtered ledger for the dashboard header cards.
type Summary struct {
	All           Total `json:"all"`
	Success       Total `json:"success"`
	Pending       Total `json:"pending"`
	Failed        Total `json:"failed"`
	Contributions Total `json:"contributions"`
	Disbursements Total `json:"disbursements"`
}

// Summarize computes totals per bucket and per source type.
func Summarize(b Buckets) Summary {
	all := make([]domain.Transaction, 0, b.Len())
	all = append(all, b.Success...)
	all = append(all, b.Pending...)
	all = append(all, b.Failed...)

	var contributions, disbursements []domain.Transaction
	for _, tx := range all {
		if tx.SourceType == domain.SourceAdmin {
			disbursements = append(disbursements, tx)
		} else {
			contributions = append(contributions, tx)
		}
	}

	return Summary{
		All:           totalOf(all),
		Success:       totalOf(b.Success),
		Pending:       totalOf(b.Pending),
		Failed:        totalOf(b.Failed),
		Contributions: totalOf(contributions),
		Disbursements: totalOf(disbursements),
	}
}

// Projects lists the distinct project names in ledger, sorted.
func Projects(ledger []domain.Transaction) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, tx := range ledger {
		name := ExtractProjectName(tx.Project)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
