package transfer

import (
	"finhelper/internal/core"
	"finhelper/internal/spend"
)

// Report is the flat single-month payload consumed by PDF and spreadsheet
// exporters.
type Report struct {
	Period           core.PeriodKey        `json:"period"`
	Label            string                `json:"label"`
	MonthlyIncome    core.Money            `json:"monthlyIncome"`
	TotalExpenses    core.Money            `json:"totalExpenses"`
	Savings          core.Money            `json:"savings"`
	SavingsRate      float64               `json:"savingsRate"`
	Categories       []core.Category       `json:"categories"`
	CategorySpent    map[string]core.Money `json:"categorySpent"`
	Expenses         []core.Expense        `json:"expenses"`
	Investments      []core.Investment     `json:"investments"`
	Debts            []core.Debt           `json:"debts"`
	TotalInvestments core.Money            `json:"totalInvestments"`
	TotalDebts       core.Money            `json:"totalDebts"`
	TotalPaidDebts   core.Money            `json:"totalPaidDebts"`
	TotalUnpaidDebts core.Money            `json:"totalUnpaidDebts"`
}

// BuildReport flattens the summary of one month together with its records.
func BuildReport(s spend.Summary, p core.Period, categories []core.Category) Report {
	p = p.Normalize()
	return Report{
		Period:           s.Period,
		Label:            s.Label,
		MonthlyIncome:    s.Income,
		TotalExpenses:    s.TotalExpenses,
		Savings:          s.Savings,
		SavingsRate:      s.SavingsRate,
		Categories:       categories,
		CategorySpent:    s.CategorySpent,
		Expenses:         p.Expenses,
		Investments:      p.Investments,
		Debts:            p.Debts,
		TotalInvestments: s.TotalInvestments,
		TotalDebts:       s.TotalDebts,
		TotalPaidDebts:   s.TotalPaidDebts,
		TotalUnpaidDebts: s.TotalUnpaidDebts,
	}
}
