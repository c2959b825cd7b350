package transfer

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"finhelper/internal/core"
)

// WorkbookContentType is the MIME type of the workbook written by WriteWorkbook.
const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetSummary     = "Summary"
	sheetExpenses    = "Expenses"
	sheetInvestments = "Investments"
	sheetDebts       = "Debts"
	sheetGoals       = "Goals"
)

// WorkbookName is the download name of the workbook of key, e.g.
// "FinHelper_Mar_2024.xlsx".
func WorkbookName(key core.PeriodKey) string {
	return "FinHelper_" + strings.Replace(key.Label(), "/", "_", 1) + ".xlsx"
}

// WriteWorkbook renders r as a spreadsheet: a summary sheet, the expense
// list, investments and debts when present, and the category goals.
func WriteWorkbook(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: "D4A259"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F5F5F5"}},
	})
	if err != nil {
		return fmt.Errorf("workbook style: %w", err)
	}

	sheets := []struct {
		name   string
		widths []float64
		rows   [][]any
		titles []int
		skip   bool
	}{
		{name: sheetSummary, widths: []float64{25, 15, 15, 15, 15, 15}, rows: summaryRows(r), titles: []int{1, 4, 11, 15}},
		{name: sheetExpenses, widths: []float64{12, 20, 40, 15}, rows: expenseRows(r), titles: []int{1}},
		{name: sheetInvestments, widths: []float64{30, 15, 15}, rows: investmentRows(r), titles: []int{1}, skip: len(r.Investments) == 0},
		{name: sheetDebts, widths: []float64{30, 15, 15, 12}, rows: debtRows(r), titles: []int{1}, skip: len(r.Debts) == 0},
		{name: sheetGoals, widths: []float64{25, 12, 15}, rows: goalRows(r), titles: []int{1}},
	}

	first := true
	for _, s := range sheets {
		if s.skip {
			continue
		}
		if first {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("workbook sheet %s: %w", s.name, err)
			}
			first = false
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("workbook sheet %s: %w", s.name, err)
		}
		if err := fillSheet(f, s.name, s.rows, s.widths); err != nil {
			return err
		}
		for _, row := range s.titles {
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetCellStyle(s.name, cell, cell, title); err != nil {
				return fmt.Errorf("workbook style %s!%s: %w", s.name, cell, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, rows [][]any, widths []float64) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("workbook row %s!%s: %w", sheet, cell, err)
		}
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("workbook column %s!%s: %w", sheet, col, err)
		}
	}
	return nil
}

func summaryRows(r Report) [][]any {
	rows := [][]any{
		{"FinHelper - Financial report"},
		{"Period: " + r.Label},
		{},
		{"Month overview"},
		{"Total income", r.MonthlyIncome.Float()},
		{"Total expenses", r.TotalExpenses.Float()},
		{"Total invested", r.TotalInvestments.Float()},
		{"Total debts", r.TotalDebts.Float()},
		{"Money left", r.MonthlyIncome.Sub(r.TotalExpenses).Float()},
		{},
		{"Savings"},
		{"Total saved", r.Savings.Float()},
		{"Savings rate (%)", round2(r.SavingsRate)},
		{},
		{"By category"},
		{"Category", "Goal (%)", "Budget", "Spent", "Remaining", "Used (%)"},
	}
	for _, c := range r.Categories {
		budget := r.MonthlyIncome.Percent(c.Percentage)
		spent := r.CategorySpent[c.ID]
		rows = append(rows, []any{
			c.Name,
			c.Percentage,
			budget.Float(),
			spent.Float(),
			budget.Sub(spent).Float(),
			round2(core.Ratio(spent, budget)),
		})
	}
	return rows
}

func expenseRows(r Report) [][]any {
	rows := [][]any{
		{"Expenses"},
		{"Period: " + r.Label},
		{},
		{"Date", "Category", "Description", "Amount"},
	}
	names := make(map[string]string, len(r.Categories))
	for _, c := range r.Categories {
		names[c.ID] = c.Name
	}
	for _, e := range r.Expenses {
		name, ok := names[e.CategoryID]
		if !ok {
			name = "N/A"
		}
		desc := e.Description
		if desc == "" {
			desc = "No description"
		}
		rows = append(rows, []any{formatDay(e.Date), name, desc, e.Amount.Float()})
	}
	return rows
}

func investmentRows(r Report) [][]any {
	rows := [][]any{
		{"Investments"},
		{"Period: " + r.Label},
		{},
		{"Investment", "Amount", "% of portfolio"},
	}
	for _, inv := range r.Investments {
		rows = append(rows, []any{inv.Name, inv.Amount.Float(), round2(core.Ratio(inv.Amount, r.TotalInvestments))})
	}
	return append(rows, []any{}, []any{"TOTAL", r.TotalInvestments.Float(), 100})
}

func debtRows(r Report) [][]any {
	rows := [][]any{
		{"Debts"},
		{"Period: " + r.Label},
		{},
		{"Description", "Amount", "Due", "Status"},
	}
	for _, d := range r.Debts {
		status := "Pending"
		if d.IsPaid {
			status = "Paid"
		}
		rows = append(rows, []any{d.Name, d.Amount.Float(), formatDay(d.DueDate), status})
	}
	return append(rows,
		[]any{},
		[]any{"Total debts", r.TotalDebts.Float()},
		[]any{"Paid debts", r.TotalPaidDebts.Float()},
		[]any{"Pending debts", r.TotalUnpaidDebts.Float()},
	)
}

func goalRows(r Report) [][]any {
	rows := [][]any{
		{"Category goals"},
		{"Period: " + r.Label},
		{},
		{"Category", "Goal (%)", "Budget"},
	}
	for _, c := range r.Categories {
		rows = append(rows, []any{c.Name, c.Percentage, r.MonthlyIncome.Percent(c.Percentage).Float()})
	}
	return rows
}

func formatDay(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("02/01/2006")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
