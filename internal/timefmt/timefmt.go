// Package timefmt parses and formats the display date (DD/MM/YYYY) and time
// (HH:MM) used across the dashboard, and evaluates relative time windows.
package timefmt

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the display date format.
	DateLayout = "02/01/2006"
	// TimeLayout is the display time format (24-hour).
	TimeLayout = "15:04"
)

// Epoch is the sentinel returned for malformed display dates.
var Epoch = time.Unix(0, 0).UTC()

var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601-ish timestamp.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders value as DD/MM/YYYY in loc, or "" when unparsable.
func FormatDate(value string, loc *time.Location) string {
	t, ok := ParseTimestamp(value, loc)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatTime renders value as HH:MM in loc, or "" when unparsable.
func FormatTime(value string, loc *time.Location) string {
	t, ok := ParseTimestamp(value, loc)
	if !ok {
		return ""
	}
	return t.Format(TimeLayout)
}

// ParseLocalDateStrict parses DD/MM/YYYY. ok is false unless the string
// splits into exactly three numeric parts.
func ParseLocalDateStrict(s string, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Epoch, false
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return Epoch, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}

// ParseLocalDate parses DD/MM/YYYY and returns Epoch for malformed input,
// which sorts malformed dates to the oldest position.
func ParseLocalDate(s string, loc *time.Location) time.Time {
	t, _ := ParseLocalDateStrict(s, loc)
	return t
}

// Period is a relative time window.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

var periodWidths = map[Period]int{
	PeriodWeek:  7,
	PeriodMonth: 30,
	PeriodYear:  365,
}

// ParsePeriod maps a query value to a Period.
func ParsePeriod(s string) (Period, bool) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p == PeriodToday {
		return p, true
	}
	if _, ok := periodWidths[p]; ok {
		return p, true
	}
	return "", false
}

// IsWithinPeriod reports whether date falls inside period relative to now.
// today compares calendar days in date's location. Other windows are
// fixed-width days, not calendar-aware. Unknown periods match.
func IsWithinPeriod(date, now time.Time, period Period) bool {
	if period == PeriodToday {
		n := now.In(date.Location())
		return date.Year() == n.Year() && date.Month() == n.Month() && date.Day() == n.Day()
	}
	days, ok := periodWidths[period]
	if !ok {
		return true
	}
	return !date.Before(now.Add(-time.Duration(days) * 24 * time.Hour))
}
