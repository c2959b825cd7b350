// Package spend resolves how much was spent per category in a period and
// derives the budget figures built on it.
package spend

import (
	"time"

	"finhelper/internal/core"
)

// Source names the rule that produced a resolved spend value.
type Source string

const (
	SourceSubcategories Source = "subcategories"
	SourceManual        Source = "manual"
	SourceTransactions  Source = "transactions"
	SourceInvestments   Source = "investments"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusDanger  Status = "danger"
)

const (
	warningThreshold = 80
	dangerThreshold  = 100
)

// CategoryLine is one category's row of the monthly budget.
type CategoryLine struct {
	CategoryID    string     `json:"categoryId"`
	Name          string     `json:"name"`
	Color         string     `json:"color"`
	Percentage    float64    `json:"percentage"`
	Source        Source     `json:"source"`
	Spent         core.Money `json:"spent"`
	Budget        core.Money `json:"budget"`
	Remaining     core.Money `json:"remaining"`
	Utilization   float64    `json:"utilization"`
	ShareOfIncome float64    `json:"shareOfIncome"`
	Status        Status     `json:"status"`
}

// Summary is the derived view of one period under the current categories.
type Summary struct {
	Period           core.PeriodKey        `json:"period"`
	Label            string                `json:"label"`
	Income           core.Money            `json:"income"`
	TotalExpenses    core.Money            `json:"totalExpenses"`
	Savings          core.Money            `json:"savings"`
	SavingsRate      float64               `json:"savingsRate"`
	Lines            []CategoryLine        `json:"categories"`
	CategorySpent    map[string]core.Money `json:"categorySpent"`
	TopCategory      *core.CategoryAmount  `json:"topCategory,omitempty"`
	TotalInvestments core.Money            `json:"totalInvestments"`
	TotalDebts       core.Money            `json:"totalDebts"`
	TotalPaidDebts   core.Money            `json:"totalPaidDebts"`
	TotalUnpaidDebts core.Money            `json:"totalUnpaidDebts"`
	OverdueDebts     int                   `json:"overdueDebts"`
	Display          Display               `json:"display"`
}

// Display holds the headline figures formatted for people, e.g. "R$1.234,56"
// and "62.9%".
type Display struct {
	Income           string `json:"income"`
	TotalExpenses    string `json:"totalExpenses"`
	Savings          string `json:"savings"`
	SavingsRate      string `json:"savingsRate"`
	TotalInvestments string `json:"totalInvestments"`
	TotalUnpaidDebts string `json:"totalUnpaidDebts"`
}

// ResolveCategory applies the spend precedence for one category: the sum of
// its subcategories when it has any, else the period's manual override, else
// the sum of its expense transactions.
func ResolveCategory(p core.Period, c core.Category) (core.Money, Source) {
	if c.HasSubcategories() {
		return c.SubcategoryTotal(), SourceSubcategories
	}
	if v, ok := p.ManualCategorySpent[c.ID]; ok {
		return v, SourceManual
	}
	return p.ExpenseTotal(c.ID), SourceTransactions
}

// Resolve returns the resolved spend of every category.
func Resolve(p core.Period, categories []core.Category) map[string]core.Money {
	out := make(map[string]core.Money, len(categories))
	for _, c := range categories {
		out[c.ID], _ = ResolveCategory(p, c)
	}
	return out
}

// TotalExpenses sums the resolved spend over all categories.
func TotalExpenses(p core.Period, categories []core.Category) core.Money {
	var total core.Money
	for _, c := range categories {
		v, _ := ResolveCategory(p, c)
		total = total.Add(v)
	}
	return total
}

// StatusFor classifies a utilization percentage.
func StatusFor(utilization float64) Status {
	switch {
	case utilization > dangerThreshold:
		return StatusDanger
	case utilization > warningThreshold:
		return StatusWarning
	default:
		return StatusOK
	}
}

// TopCategory ranks categories by their raw expense-transaction totals. It
// ignores manual overrides and subcategories, so it can name a category other
// than the one with the largest resolved spend. Ties go to the category whose
// expense was recorded first. ok is false when there is no positive total.
func TopCategory(p core.Period, categories []core.Category) (core.CategoryAmount, bool) {
	totals := make(map[string]core.Money)
	var order []string
	for _, e := range p.Expenses {
		if _, seen := totals[e.CategoryID]; !seen {
			order = append(order, e.CategoryID)
		}
		totals[e.CategoryID] = totals[e.CategoryID].Add(e.Amount)
	}

	var top core.CategoryAmount
	for _, id := range order {
		if totals[id].Cents > top.Amount.Cents {
			top = core.CategoryAmount{CategoryID: id, Amount: totals[id]}
		}
	}
	if top.CategoryID == "" {
		return core.CategoryAmount{}, false
	}
	top.Name = top.CategoryID
	for _, c := range categories {
		if c.ID == top.CategoryID {
			top.Name = c.Name
			break
		}
	}
	return top, true
}

// Summarize derives the full budget view of period key. now decides which
// unpaid debts are overdue.
func Summarize(key core.PeriodKey, p core.Period, categories []core.Category, now time.Time) Summary {
	s := Summary{
		Period:        key,
		Label:         key.Label(),
		Income:        p.Income,
		Lines:         make([]CategoryLine, 0, len(categories)),
		CategorySpent: make(map[string]core.Money, len(categories)),
	}

	s.TotalInvestments = p.TotalInvestments()

	for _, c := range categories {
		resolved, source := ResolveCategory(p, c)
		s.CategorySpent[c.ID] = resolved
		s.TotalExpenses = s.TotalExpenses.Add(resolved)

		// The freedom line reports investments; totals keep the resolved value.
		spent := resolved
		if c.TracksInvestments() {
			spent, source = s.TotalInvestments, SourceInvestments
		}
		budget := p.Income.Percent(c.Percentage)
		utilization := core.Ratio(spent, budget)
		s.Lines = append(s.Lines, CategoryLine{
			CategoryID:    c.ID,
			Name:          c.Name,
			Color:         c.Color,
			Percentage:    c.Percentage,
			Source:        source,
			Spent:         spent,
			Budget:        budget,
			Remaining:     budget.Sub(spent),
			Utilization:   utilization,
			ShareOfIncome: core.Ratio(spent, p.Income),
			Status:        StatusFor(utilization),
		})
	}

	s.Savings = p.Income.Sub(s.TotalExpenses)
	s.SavingsRate = core.Ratio(s.Savings, p.Income)
	if top, ok := TopCategory(p, categories); ok {
		s.TopCategory = &top
	}

	s.TotalDebts = p.TotalDebts()
	s.TotalPaidDebts, s.TotalUnpaidDebts = p.DebtTotals()
	for _, d := range p.Debts {
		if d.Status(now) == core.DebtOverdue {
			s.OverdueDebts++
		}
	}
	s.Display = Display{
		Income:           core.FormatCurrency(s.Income),
		TotalExpenses:    core.FormatCurrency(s.TotalExpenses),
		Savings:          core.FormatCurrency(s.Savings),
		SavingsRate:      core.FormatPercent(s.SavingsRate),
		TotalInvestments: core.FormatCurrency(s.TotalInvestments),
		TotalUnpaidDebts: core.FormatCurrency(s.TotalUnpaidDebts),
	}
	return s
}

// Snapshot returns the resolved spend and the category names to freeze into
// the period as its historical record.
func Snapshot(p core.Period, categories []core.Category) (map[string]core.Money, map[string]string) {
	spent := Resolve(p, categories)
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return spent, names
}

// SnapshotChanged reports whether spent and names differ from what p holds.
func SnapshotChanged(p core.Period, spent map[string]core.Money, names map[string]string) bool {
	if p.SnapshotSpent == nil || len(p.SnapshotSpent) != len(spent) || len(p.SnapshotCategoryNames) != len(names) {
		return true
	}
	for k, v := range spent {
		if old, ok := p.SnapshotSpent[k]; !ok || old != v {
			return true
		}
	}
	for k, v := range names {
		if old, ok := p.SnapshotCategoryNames[k]; !ok || old != v {
			return true
		}
	}
	return false
}
