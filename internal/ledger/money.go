package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the display currency suffix.
const Currency = "FCFA"

// FormatAmount renders d as a grouped amount, e.g. "1 234 567 FCFA" or
// "1 234,5 FCFA". Fractions are rounded to two places.
func FormatAmount(d decimal.Decimal) string {
	r := d.Round(2)
	neg := r.IsNegative()
	parts := strings.SplitN(r.Abs().String(), ".", 2)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(parts[0]))
	if len(parts) == 2 {
		if frac := strings.TrimRight(parts[1], "0"); frac != "" {
			b.WriteByte(',')
			b.WriteString(frac)
		}
	}
	b.WriteByte(' ')
	b.WriteString(Currency)
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
