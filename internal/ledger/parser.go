package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/timefmt"

	"github.com/shopspring/decimal"
)

const (
	// ContributionNotificationType is the notification type emitted for new contributions.
	ContributionNotificationType = "NEW_CONTRIBUTION"

	// AnonymousContributor is used when no name can be read from the text.
	AnonymousContributor = "Contributeur Anonyme"
	// DefaultProjectName is used when the text names no project.
	DefaultProjectName = "Projet"
)

var (
	contributorPattern = regexp.MustCompile(`(?i)([\p{L}][\p{L}'’-]*)\s+([\p{L}][\p{L}'’-]*)\s+a\s+contribué`)
	namePairPattern    = regexp.MustCompile(`(\p{Lu}[\p{Ll}'’-]+)\s+(\p{Lu}[\p{Ll}'’-]+)`)
	amountPattern      = regexp.MustCompile(`(?i)(\d[\d\s,.\x{00A0}\x{202F}]*)\s*FCFA`)
	amountNoise        = regexp.MustCompile(`[,\s\x{00A0}\x{202F}]`)
	projectPattern     = regexp.MustCompile(`(?i)dans votre projet\s+([^.]+)`)
	domainPattern      = regexp.MustCompile(`(?i)\bdomaine\s*:?\s+([\p{L}][\p{L}'’ -]*[\p{L}])`)
)

// ContributionFields is what can be read from a contribution notification.
type ContributionFields struct {
	ContributorName     string
	ContributorInitials string
	Amount              decimal.Decimal
	ProjectName         string
	ProjectDomain       string
}

// ParseContribution extracts contribution fields from free text. Each step
// falls back to its default independently; it never fails.
func ParseContribution(text string) ContributionFields {
	name := contributorName(text)
	return ContributionFields{
		ContributorName:     name,
		ContributorInitials: Initials(name),
		Amount:              contributionAmount(text),
		ProjectName:         projectName(text),
		ProjectDomain:       projectDomain(text),
	}
}

func contributorName(text string) string {
	if m := contributorPattern.FindStringSubmatch(text); m != nil {
		return m[1] + " " + m[2]
	}
	if m := namePairPattern.FindStringSubmatch(text); m != nil {
		return m[1] + " " + m[2]
	}
	return AnonymousContributor
}

// Initials returns the uppercased first letters of the first and last
// tokens, or the first two characters when name has a single token.
func Initials(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) >= 2 {
		first, _ := utf8.DecodeRuneInString(tokens[0])
		last, _ := utf8.DecodeRuneInString(tokens[len(tokens)-1])
		return string(unicode.ToUpper(first)) + string(unicode.ToUpper(last))
	}
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

func contributionAmount(text string) decimal.Decimal {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero
	}
	raw := strings.TrimRight(amountNoise.ReplaceAllString(m[1], ""), ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func projectName(text string) string {
	if m := projectPattern.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return DefaultProjectName
}

func projectDomain(text string) string {
	if m := domainPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// IsContribution reports whether n qualifies as a contribution record.
func IsContribution(n domain.Notification) bool {
	return n.Type == ContributionNotificationType ||
		strings.Contains(strings.ToLower(n.Title), "contribution")
}

// ContributionParser turns contribution notifications into ledger transactions.
type ContributionParser struct {
	loc *time.Location
}

// NewContributionParser creates a parser rendering dates in loc.
func NewContributionParser(loc *time.Location) *ContributionParser {
	if loc == nil {
		loc = time.UTC
	}
	return &ContributionParser{loc: loc}
}

// TryExtract returns the contribution transaction for n, or false when n is
// not a contribution notification.
func (p *ContributionParser) TryExtract(n domain.Notification) (domain.Transaction, bool) {
	if !IsContribution(n) {
		return domain.Transaction{}, false
	}

	text := n.Text()
	fields := ParseContribution(text)
	date := timefmt.FormatDate(n.Timestamp(), p.loc)

	tx := domain.Transaction{
		ID:                  int64(n.ID),
		SourceType:          domain.SourceContribution,
		Amount:              FormatAmount(fields.Amount),
		AmountValue:         fields.Amount,
		Date:                date,
		Time:                timefmt.FormatTime(n.Timestamp(), p.loc),
		Project:             projectLabel(fields.ProjectName, date),
		PaymentMethodDetail: "Contribution de " + fields.ContributorName,
		RecipientNumber:     fmt.Sprintf("CTB-%06d", n.ID),
		TransactionReason:   text,
		ContributorName:     fields.ContributorName,
		ContributorInitials: fields.ContributorInitials,
		ProjectDomain:       fields.ProjectDomain,
	}
	tx.SetStatus(domain.StatusSuccess)
	return tx, true
}

func projectLabel(name, date string) string {
	if date == "" {
		return name
	}
	return name + " - " + date
}
