// Package history rebuilds per-month summaries from the stored ledger and
// compares any two of them.
package history

import (
	"sort"

	"finhelper/internal/core"
)

// PeriodSummary is one month of the evolution series.
type PeriodSummary struct {
	Period           core.PeriodKey        `json:"month"`
	Label            string                `json:"monthLabel"`
	Income           core.Money            `json:"income"`
	TotalExpenses    core.Money            `json:"totalExpenses"`
	Savings          core.Money            `json:"savings"`
	SavingsRate      float64               `json:"savingsRate"`
	TotalInvestments core.Money            `json:"totalInvestments"`
	TotalDebts       core.Money            `json:"totalDebts"`
	RemainingMoney   core.Money            `json:"remainingMoney"`
	CategorySpent    map[string]core.Money `json:"categorySpent"`
	CategoryNames    map[string]string     `json:"categoryNames"`
}

// CategorySpent resolves a stored month's spend per current category. A
// snapshot value wins over the live category structure, then the sum of the
// category's current subcategories, then the manual override, then zero.
// Expense transactions are not consulted: months edited through the service
// always carry a snapshot.
func CategorySpent(p core.Period, categories []core.Category) map[string]core.Money {
	out := make(map[string]core.Money, len(categories))
	for _, c := range categories {
		if v, ok := p.SnapshotSpent[c.ID]; ok {
			out[c.ID] = v
			continue
		}
		if c.HasSubcategories() {
			out[c.ID] = c.SubcategoryTotal()
			continue
		}
		out[c.ID] = p.ManualCategorySpent[c.ID]
	}
	return out
}

// Summarize builds the summary of a single stored month.
func Summarize(key core.PeriodKey, p core.Period, categories []core.Category) PeriodSummary {
	spent := CategorySpent(p, categories)
	names := make(map[string]string, len(categories))
	var total core.Money
	for _, c := range categories {
		total = total.Add(spent[c.ID])
		names[c.ID] = c.Name
		if n, ok := p.SnapshotCategoryNames[c.ID]; ok && n != "" {
			names[c.ID] = n
		}
	}

	savings := p.Income.Sub(total)
	var rate float64
	if p.Income.Cents > 0 {
		rate = core.Ratio(savings, p.Income)
	}
	return PeriodSummary{
		Period:           key,
		Label:            key.Label(),
		Income:           p.Income,
		TotalExpenses:    total,
		Savings:          savings,
		SavingsRate:      rate,
		TotalInvestments: p.TotalInvestments(),
		TotalDebts:       p.TotalDebts(),
		RemainingMoney:   savings,
		CategorySpent:    spent,
		CategoryNames:    names,
	}
}

// Aggregate summarizes every stored month in ascending key order.
func Aggregate(periods map[core.PeriodKey]core.Period, categories []core.Category) []PeriodSummary {
	keys := make([]core.PeriodKey, 0, len(periods))
	for k := range periods {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]PeriodSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, Summarize(k, periods[k], categories))
	}
	return out
}
