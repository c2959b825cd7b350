package core

import (
	"fmt"
	"strings"
	"time"
)

const periodLayout = "2006-01"

var monthAbbrev = [...]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// PeriodKey identifies one calendar month ledger, formatted YYYY-MM.
// Keys sort chronologically as strings.
type PeriodKey string

// KeyFromTime derives the period key of the month containing t.
func KeyFromTime(t time.Time) PeriodKey {
	return PeriodKey(t.Format(periodLayout))
}

// ParsePeriodKey validates a YYYY-MM key.
func ParsePeriodKey(s string) (PeriodKey, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(periodLayout, s); err != nil {
		return "", fmt.Errorf("parse period key %q: %w", s, ErrInvalidPeriod)
	}
	return PeriodKey(s), nil
}

// Start returns the first instant of the period in UTC.
func (k PeriodKey) Start() time.Time {
	t, err := time.Parse(periodLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Label renders the key as "Jan/2026".
func (k PeriodKey) Label() string {
	t := k.Start()
	if t.IsZero() {
		return string(k)
	}
	return fmt.Sprintf("%s/%d", monthAbbrev[t.Month()-1], t.Year())
}

func (k PeriodKey) String() string {
	return string(k)
}

// StepMonth moves t by dir whole months. The day is clamped to the length of
// the target month, so Jan 31 + 1 is Feb 28 (or 29) rather than overflowing
// into March.
func StepMonth(t time.Time, dir int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, dir, 0)
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return target.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
