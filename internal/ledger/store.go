// Package ledger is the monthly ledger: one Period entry per calendar month,
// scoped to a selected month that the user steps through.
//
// Every mutation builds a complete replacement entry and swaps it in, so a
// Period value handed out by Get is never changed afterwards.
package ledger

import (
	"sort"
	"time"

	"finhelper/internal/core"
)

// Store holds the periods and the selected month. It is not safe for
// concurrent use; the owning service serializes access.
type Store struct {
	periods  map[core.PeriodKey]core.Period
	selected time.Time
	now      func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now for createdAt stamps and the default month.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New builds a store over periods. A zero selected time selects the current
// month.
func New(periods map[core.PeriodKey]core.Period, selected time.Time, opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.Replace(periods)
	if selected.IsZero() {
		selected = s.now()
	}
	s.selected = selected
	return s
}

// Selected returns the date that anchors the active period.
func (s *Store) Selected() time.Time {
	return s.selected
}

// ActiveKey is the period key of the selected month.
func (s *Store) ActiveKey() core.PeriodKey {
	return core.KeyFromTime(s.selected)
}

// ChangeMonth steps the selection by dir whole months.
func (s *Store) ChangeMonth(dir int) core.PeriodKey {
	s.selected = core.StepMonth(s.selected, dir)
	return s.ActiveKey()
}

func (s *Store) SelectMonth(t time.Time) core.PeriodKey {
	s.selected = t
	return s.ActiveKey()
}

// Get returns the entry for key, or the default entry when none exists.
func (s *Store) Get(key core.PeriodKey) core.Period {
	if p, ok := s.periods[key]; ok {
		return p.Clone()
	}
	return core.NewPeriod()
}

// Has reports whether an entry exists for key.
func (s *Store) Has(key core.PeriodKey) bool {
	_, ok := s.periods[key]
	return ok
}

// Active returns the entry of the selected month.
func (s *Store) Active() core.Period {
	return s.Get(s.ActiveKey())
}

// Keys returns the stored period keys in ascending order.
func (s *Store) Keys() []core.PeriodKey {
	keys := make([]core.PeriodKey, 0, len(s.periods))
	for k := range s.periods {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Periods returns a deep copy of every entry.
func (s *Store) Periods() map[core.PeriodKey]core.Period {
	out := make(map[core.PeriodKey]core.Period, len(s.periods))
	for k, p := range s.periods {
		out[k] = p.Clone()
	}
	return out
}

// Replace swaps all entries, normalizing missing collections.
func (s *Store) Replace(periods map[core.PeriodKey]core.Period) {
	s.periods = make(map[core.PeriodKey]core.Period, len(periods))
	for k, p := range periods {
		s.periods[k] = p.Clone().Normalize()
	}
}

// UpdateMonthlyIncome sets the active period's income.
func (s *Store) UpdateMonthlyIncome(income core.Money) core.PeriodKey {
	key := s.ActiveKey()
	s.apply(key, func(p *core.Period) {
		p.Income = income
	})
	return key
}

// UpdateCategorySpent records a manual spend override for a category in the
// active period.
func (s *Store) UpdateCategorySpent(categoryID string, amount core.Money) core.PeriodKey {
	key := s.ActiveKey()
	s.apply(key, func(p *core.Period) {
		p.ManualCategorySpent[categoryID] = amount
	})
	return key
}

// ResetCurrent replaces the active entry with the default one. Manual
// overrides and snapshots go with it.
func (s *Store) ResetCurrent() core.PeriodKey {
	key := s.ActiveKey()
	s.periods[key] = core.NewPeriod()
	return key
}

// SetSnapshot stores the last known resolved spend and category names of key.
func (s *Store) SetSnapshot(key core.PeriodKey, spent map[string]core.Money, names map[string]string) {
	s.apply(key, func(p *core.Period) {
		p.SnapshotSpent = make(map[string]core.Money, len(spent))
		for k, v := range spent {
			p.SnapshotSpent[k] = v
		}
		p.SnapshotCategoryNames = make(map[string]string, len(names))
		for k, v := range names {
			p.SnapshotCategoryNames[k] = v
		}
	})
}

// CategoryUsed reports whether any period has an expense for the category, a
// nonzero manual override or a nonzero snapshot value.
func (s *Store) CategoryUsed(categoryID string) bool {
	for _, p := range s.periods {
		for _, e := range p.Expenses {
			if e.CategoryID == categoryID {
				return true
			}
		}
		if v, ok := p.ManualCategorySpent[categoryID]; ok && !v.IsZero() {
			return true
		}
		if v, ok := p.SnapshotSpent[categoryID]; ok && !v.IsZero() {
			return true
		}
	}
	return false
}

// apply runs fn on a copy of key's entry (created on demand) and stores the
// result in place of the old entry.
func (s *Store) apply(key core.PeriodKey, fn func(p *core.Period)) {
	next := s.Get(key).Normalize()
	fn(&next)
	s.periods[key] = next
}

func (s *Store) stamp() core.Date {
	return core.DateOf(s.now().UTC())
}
