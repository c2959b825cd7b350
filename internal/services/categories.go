package services

import (
	"context"

	"finhelper/internal/budget"
	"finhelper/internal/core"
	"finhelper/internal/storage"
)

// Categories lists the categories in stored order.
func (s *FinanceService) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.All()
}

// SortedCategories lists the categories by percentage, largest first.
func (s *FinanceService) SortedCategories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Sorted()
}

// BudgetCheck reports whether a percentage still fits the 100% budget.
type BudgetCheck struct {
	Valid     bool    `json:"valid"`
	Total     float64 `json:"total"`
	Available float64 `json:"available"`
}

func (s *FinanceService) ValidateBudgetTotal(newPercentage float64, excludeID string) BudgetCheck {
	s.mu.Lock()
	defer s.mu.Unlock()
	others := s.catalog.TotalPercentage(excludeID)
	return BudgetCheck{
		Valid:     s.catalog.ValidateBudgetTotal(newPercentage, excludeID),
		Total:     others + newPercentage,
		Available: 100 - others,
	}
}

func (s *FinanceService) AddCategory(ctx context.Context, in budget.CategoryInput) (core.Category, error) {
	var out core.Category
	err := s.mutate(ctx, func() (change, error) {
		out = s.catalog.Add(in)
		return s.categoryChange("category-added"), nil
	})
	return out, err
}

func (s *FinanceService) UpdateCategory(ctx context.Context, id string, patch budget.CategoryPatch) (core.Category, error) {
	var out core.Category
	err := s.mutate(ctx, func() (change, error) {
		cat, err := s.catalog.Update(id, patch)
		if err != nil {
			return change{}, err
		}
		out = cat
		return s.categoryChange("category-updated"), nil
	})
	return out, err
}

// DeleteCategory refuses categories referenced by any stored month and
// categories whose subcategories still hold value.
func (s *FinanceService) DeleteCategory(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (change, error) {
		if err := s.catalog.Delete(id, s.ledger); err != nil {
			return change{}, err
		}
		return s.categoryChange("category-deleted"), nil
	})
}

// Redistribute sets the percentage of the category at index and rebalances
// the others so the total stays 100.
func (s *FinanceService) Redistribute(ctx context.Context, index int, newValue float64) ([]core.Category, error) {
	var out []core.Category
	err := s.mutate(ctx, func() (change, error) {
		next, err := budget.Redistribute(s.catalog.All(), index, newValue)
		if err != nil {
			return change{}, err
		}
		s.catalog.Replace(next)
		out = s.catalog.All()
		return s.categoryChange("categories-redistributed"), nil
	})
	return out, err
}

// ResetCategories restores the six defaults.
func (s *FinanceService) ResetCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	err := s.mutate(ctx, func() (change, error) {
		s.catalog.Reset()
		out = s.catalog.All()
		return s.categoryChange("categories-reset"), nil
	})
	return out, err
}

func (s *FinanceService) AddSubcategory(ctx context.Context, categoryID, name string, value core.Money) (core.Subcategory, error) {
	var out core.Subcategory
	err := s.mutate(ctx, func() (change, error) {
		sub, err := s.catalog.AddSubcategory(categoryID, name, value)
		if err != nil {
			return change{}, err
		}
		out = sub
		return s.categoryChange("subcategory-added"), nil
	})
	return out, err
}

func (s *FinanceService) UpdateSubcategory(ctx context.Context, categoryID, subID string, patch budget.SubcategoryPatch) (core.Subcategory, error) {
	var out core.Subcategory
	err := s.mutate(ctx, func() (change, error) {
		sub, err := s.catalog.UpdateSubcategory(categoryID, subID, patch)
		if err != nil {
			return change{}, err
		}
		out = sub
		return s.categoryChange("subcategory-updated"), nil
	})
	return out, err
}

func (s *FinanceService) RemoveSubcategory(ctx context.Context, categoryID, subID string) error {
	return s.mutate(ctx, func() (change, error) {
		if err := s.catalog.RemoveSubcategory(categoryID, subID); err != nil {
			return change{}, err
		}
		return s.categoryChange("subcategory-removed"), nil
	})
}

// categoryChange refreshes only the active month: stored months keep the
// names and amounts they were frozen with.
func (s *FinanceService) categoryChange(reason string) change {
	return change{
		reason:  reason,
		periods: []core.PeriodKey{s.ledger.ActiveKey()},
		keys:    []string{storage.KeyCategoriesGoals},
	}
}
