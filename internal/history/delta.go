package history

import (
	"math"

	"finhelper/internal/core"
)

// Delta is the change from a value A to a value B.
type Delta struct {
	From       float64 `json:"from"`
	To         float64 `json:"to"`
	Absolute   float64 `json:"absolute"`
	Percent    float64 `json:"percent"`
	IsPositive bool    `json:"isPositive"`
	IsNegative bool    `json:"isNegative"`
	IsNeutral  bool    `json:"isNeutral"`
}

// CalculateDelta returns b-a and its size relative to |a| in percent (0 when
// a is zero).
func CalculateDelta(a, b float64) Delta {
	diff := b - a
	var pct float64
	if a != 0 {
		pct = diff / math.Abs(a) * 100
	}
	return Delta{
		From:       a,
		To:         b,
		Absolute:   diff,
		Percent:    pct,
		IsPositive: diff > 0,
		IsNegative: diff < 0,
		IsNeutral:  diff == 0,
	}
}

// MoneyDelta is CalculateDelta over amounts, subtracting in cents so the
// absolute change carries no float drift.
func MoneyDelta(a, b core.Money) Delta {
	d := CalculateDelta(a.Float(), b.Float())
	d.Absolute = b.Sub(a).Float()
	d.IsPositive = b.Cents > a.Cents
	d.IsNegative = b.Cents < a.Cents
	d.IsNeutral = b.Cents == a.Cents
	if a.Cents != 0 {
		d.Percent = float64(b.Cents-a.Cents) / math.Abs(float64(a.Cents)) * 100
	}
	return d
}

// CategoryDelta compares one category between two months.
type CategoryDelta struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Delta
}

// Comparison holds the deltas of every summary metric between two months.
type Comparison struct {
	From             core.PeriodKey  `json:"from"`
	To               core.PeriodKey  `json:"to"`
	FromLabel        string          `json:"fromLabel"`
	ToLabel          string          `json:"toLabel"`
	Income           Delta           `json:"income"`
	TotalExpenses    Delta           `json:"totalExpenses"`
	Savings          Delta           `json:"savings"`
	SavingsRate      Delta           `json:"savingsRate"`
	TotalInvestments Delta           `json:"totalInvestments"`
	TotalDebts       Delta           `json:"totalDebts"`
	RemainingMoney   Delta           `json:"remainingMoney"`
	Categories       []CategoryDelta `json:"categories"`
}

// Compare computes the deltas from a to b. Categories follow the order
// given; names prefer b's snapshot.
func Compare(a, b PeriodSummary, categories []core.Category) Comparison {
	c := Comparison{
		From:             a.Period,
		To:               b.Period,
		FromLabel:        a.Label,
		ToLabel:          b.Label,
		Income:           MoneyDelta(a.Income, b.Income),
		TotalExpenses:    MoneyDelta(a.TotalExpenses, b.TotalExpenses),
		Savings:          MoneyDelta(a.Savings, b.Savings),
		SavingsRate:      CalculateDelta(a.SavingsRate, b.SavingsRate),
		TotalInvestments: MoneyDelta(a.TotalInvestments, b.TotalInvestments),
		TotalDebts:       MoneyDelta(a.TotalDebts, b.TotalDebts),
		RemainingMoney:   MoneyDelta(a.RemainingMoney, b.RemainingMoney),
		Categories:       make([]CategoryDelta, 0, len(categories)),
	}
	for _, cat := range categories {
		name := cat.Name
		if n, ok := b.CategoryNames[cat.ID]; ok && n != "" {
			name = n
		}
		c.Categories = append(c.Categories, CategoryDelta{
			CategoryID: cat.ID,
			Name:       name,
			Delta:      MoneyDelta(a.CategorySpent[cat.ID], b.CategorySpent[cat.ID]),
		})
	}
	return c
}

// DefaultPair picks the two most recent keys of an ascending list, or the
// only key twice. ok is false for an empty list.
func DefaultPair(keys []core.PeriodKey) (a, b core.PeriodKey, ok bool) {
	switch n := len(keys); n {
	case 0:
		return "", "", false
	case 1:
		return keys[0], keys[0], true
	default:
		return keys[n-2], keys[n-1], true
	}
}

// Find returns the summary of key from an aggregated series.
func Find(series []PeriodSummary, key core.PeriodKey) (PeriodSummary, bool) {
	for _, s := range series {
		if s.Period == key {
			return s, true
		}
	}
	return PeriodSummary{}, false
}
