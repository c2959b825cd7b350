package services

import (
	"context"
	"fmt"

	"finhelper/internal/core"
	"finhelper/internal/ledger"
	"finhelper/internal/log"
	"finhelper/internal/storage"
)

func ledgerChange(reason string, keys ...core.PeriodKey) change {
	return change{reason: reason, periods: keys, keys: []string{storage.KeyMonthlyData}}
}

func (s *FinanceService) UpdateMonthlyIncome(ctx context.Context, income core.Money) (core.Period, error) {
	var out core.Period
	err := s.mutate(ctx, func() (change, error) {
		key := s.ledger.UpdateMonthlyIncome(income)
		out = s.ledger.Get(key)
		return ledgerChange("income-updated", key), nil
	})
	return out, err
}

// UpdateCategorySpent records a manual spend for the active month. The
// freedom category and categories with subcategories derive their spend and
// refuse the override.
func (s *FinanceService) UpdateCategorySpent(ctx context.Context, categoryID string, amount core.Money) error {
	return s.mutate(ctx, func() (change, error) {
		cat, ok := s.catalog.Get(categoryID)
		if !ok {
			return change{}, fmt.Errorf("update spent of %s: %w", categoryID, core.ErrCategoryNotFound)
		}
		if cat.TracksInvestments() {
			return change{}, core.ErrCategoryTracksInvestments
		}
		if cat.HasSubcategories() {
			return change{}, core.ErrCategoryHasSubcategories
		}
		key := s.ledger.UpdateCategorySpent(categoryID, amount)
		return ledgerChange("category-spent-updated", key), nil
	})
}

// AddExpense files the expense under the month of its date.
func (s *FinanceService) AddExpense(ctx context.Context, in ledger.ExpenseInput) (core.Expense, error) {
	var out core.Expense
	err := s.mutate(ctx, func() (change, error) {
		e, key := s.ledger.AddExpense(in)
		out = e
		s.logger.InfoContext(ctx, "Expense added",
			log.NewFields().WithPeriod(key.String()).WithRecord(e.ID, e.Amount.Cents).WithCategory(e.CategoryID).ToSlice()...)
		return ledgerChange("expense-added", key), nil
	})
	return out, err
}

func (s *FinanceService) UpdateExpense(ctx context.Context, id string, patch ledger.ExpensePatch) (core.Expense, error) {
	var out core.Expense
	err := s.mutate(ctx, func() (change, error) {
		e, keys, err := s.ledger.UpdateExpense(id, patch)
		if err != nil {
			return change{}, err
		}
		out = e
		return ledgerChange("expense-updated", keys...), nil
	})
	return out, err
}

func (s *FinanceService) RemoveExpense(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (change, error) {
		key, err := s.ledger.RemoveExpense(id)
		if err != nil {
			return change{}, err
		}
		return ledgerChange("expense-removed", key), nil
	})
}

func (s *FinanceService) AddInvestment(ctx context.Context, in ledger.InvestmentInput) (core.Investment, error) {
	var out core.Investment
	err := s.mutate(ctx, func() (change, error) {
		inv, key := s.ledger.AddInvestment(in)
		out = inv
		return ledgerChange("investment-added", key), nil
	})
	return out, err
}

func (s *FinanceService) UpdateInvestment(ctx context.Context, id string, patch ledger.InvestmentPatch) (core.Investment, error) {
	var out core.Investment
	err := s.mutate(ctx, func() (change, error) {
		inv, err := s.ledger.UpdateInvestment(id, patch)
		if err != nil {
			return change{}, err
		}
		out = inv
		return ledgerChange("investment-updated", s.ledger.ActiveKey()), nil
	})
	return out, err
}

func (s *FinanceService) RemoveInvestment(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (change, error) {
		if err := s.ledger.RemoveInvestment(id); err != nil {
			return change{}, err
		}
		return ledgerChange("investment-removed", s.ledger.ActiveKey()), nil
	})
}

func (s *FinanceService) AddDebt(ctx context.Context, in ledger.DebtInput) (core.Debt, error) {
	var out core.Debt
	err := s.mutate(ctx, func() (change, error) {
		d, key := s.ledger.AddDebt(in)
		out = d
		return ledgerChange("debt-added", key), nil
	})
	return out, err
}

func (s *FinanceService) UpdateDebt(ctx context.Context, id string, patch ledger.DebtPatch) (core.Debt, error) {
	var out core.Debt
	err := s.mutate(ctx, func() (change, error) {
		d, err := s.ledger.UpdateDebt(id, patch)
		if err != nil {
			return change{}, err
		}
		out = d
		return ledgerChange("debt-updated", s.ledger.ActiveKey()), nil
	})
	return out, err
}

func (s *FinanceService) ToggleDebtPaid(ctx context.Context, id string) (core.Debt, error) {
	var out core.Debt
	err := s.mutate(ctx, func() (change, error) {
		d, err := s.ledger.ToggleDebtPaid(id)
		if err != nil {
			return change{}, err
		}
		out = d
		return ledgerChange("debt-toggled", s.ledger.ActiveKey()), nil
	})
	return out, err
}

func (s *FinanceService) RemoveDebt(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (change, error) {
		if err := s.ledger.RemoveDebt(id); err != nil {
			return change{}, err
		}
		return ledgerChange("debt-removed", s.ledger.ActiveKey()), nil
	})
}

// ResetCurrent clears the active month.
func (s *FinanceService) ResetCurrent(ctx context.Context) error {
	return s.mutate(ctx, func() (change, error) {
		key := s.ledger.ResetCurrent()
		s.logger.WarnContext(ctx, "Active month reset", log.FieldPeriod, key.String())
		return ledgerChange("month-reset", key), nil
	})
}
