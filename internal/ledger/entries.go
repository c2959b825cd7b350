package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"finhelper/internal/core"
)

type (
	ExpenseInput struct {
		CategoryID  string
		Amount      core.Money
		Description string
		Date        core.Date
	}

	ExpensePatch struct {
		CategoryID  *string
		Amount      *core.Money
		Description *string
		Date        *core.Date
	}

	InvestmentInput struct {
		Name   string
		Amount core.Money
	}

	InvestmentPatch struct {
		Name   *string
		Amount *core.Money
	}

	DebtInput struct {
		Name    string
		Amount  core.Money
		DueDate core.Date
		IsPaid  bool
	}

	DebtPatch struct {
		Name    *string
		Amount  *core.Money
		DueDate *core.Date
		IsPaid  *bool
	}
)

// AddExpense files a new expense under the month of its own date, or under
// the active month when the date is empty. It returns the key used.
func (s *Store) AddExpense(in ExpenseInput) (core.Expense, core.PeriodKey) {
	e := core.Expense{
		ID:          "exp_" + uuid.NewString(),
		CategoryID:  in.CategoryID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		CreatedAt:   s.stamp(),
	}
	key := s.expenseKey(e.Date)
	s.apply(key, func(p *core.Period) {
		p.Expenses = append(p.Expenses, e)
	})
	return e, key
}

// UpdateExpense merges patch into an expense of the active month. When the
// new date falls in another month the expense moves there. The returned keys
// are every period that changed.
func (s *Store) UpdateExpense(id string, patch ExpensePatch) (core.Expense, []core.PeriodKey, error) {
	from := s.ActiveKey()
	current := s.Get(from)
	i := indexOf(current.Expenses, func(e core.Expense) bool { return e.ID == id })
	if i < 0 {
		return core.Expense{}, nil, fmt.Errorf("update expense %s: %w", id, core.ErrNotFound)
	}

	e := current.Expenses[i]
	if patch.CategoryID != nil {
		e.CategoryID = *patch.CategoryID
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Description != nil {
		e.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}

	to := s.expenseKey(e.Date)
	if to == from {
		s.apply(from, func(p *core.Period) {
			p.Expenses[i] = e
		})
		return e, []core.PeriodKey{from}, nil
	}
	s.apply(from, func(p *core.Period) {
		p.Expenses = append(p.Expenses[:i:i], p.Expenses[i+1:]...)
	})
	s.apply(to, func(p *core.Period) {
		p.Expenses = append(p.Expenses, e)
	})
	return e, []core.PeriodKey{from, to}, nil
}

// RemoveExpense deletes an expense of the active month.
func (s *Store) RemoveExpense(id string) (core.PeriodKey, error) {
	key := s.ActiveKey()
	if !s.modify(key, func(p *core.Period) bool {
		i := indexOf(p.Expenses, func(e core.Expense) bool { return e.ID == id })
		if i < 0 {
			return false
		}
		p.Expenses = append(p.Expenses[:i:i], p.Expenses[i+1:]...)
		return true
	}) {
		return key, fmt.Errorf("remove expense %s: %w", id, core.ErrNotFound)
	}
	return key, nil
}

func (s *Store) AddInvestment(in InvestmentInput) (core.Investment, core.PeriodKey) {
	inv := core.Investment{
		ID:        "inv_" + uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Amount:    in.Amount,
		CreatedAt: s.stamp(),
	}
	key := s.ActiveKey()
	s.apply(key, func(p *core.Period) {
		p.Investments = append(p.Investments, inv)
	})
	return inv, key
}

func (s *Store) UpdateInvestment(id string, patch InvestmentPatch) (core.Investment, error) {
	key := s.ActiveKey()
	var out core.Investment
	ok := s.modify(key, func(p *core.Period) bool {
		i := indexOf(p.Investments, func(inv core.Investment) bool { return inv.ID == id })
		if i < 0 {
			return false
		}
		if patch.Name != nil {
			p.Investments[i].Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Amount != nil {
			p.Investments[i].Amount = *patch.Amount
		}
		out = p.Investments[i]
		return true
	})
	if !ok {
		return core.Investment{}, fmt.Errorf("update investment %s: %w", id, core.ErrNotFound)
	}
	return out, nil
}

func (s *Store) RemoveInvestment(id string) error {
	ok := s.modify(s.ActiveKey(), func(p *core.Period) bool {
		i := indexOf(p.Investments, func(inv core.Investment) bool { return inv.ID == id })
		if i < 0 {
			return false
		}
		p.Investments = append(p.Investments[:i:i], p.Investments[i+1:]...)
		return true
	})
	if !ok {
		return fmt.Errorf("remove investment %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) AddDebt(in DebtInput) (core.Debt, core.PeriodKey) {
	d := core.Debt{
		ID:        "debt_" + uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Amount:    in.Amount,
		DueDate:   in.DueDate,
		IsPaid:    in.IsPaid,
		CreatedAt: s.stamp(),
	}
	key := s.ActiveKey()
	s.apply(key, func(p *core.Period) {
		p.Debts = append(p.Debts, d)
	})
	return d, key
}

func (s *Store) UpdateDebt(id string, patch DebtPatch) (core.Debt, error) {
	var out core.Debt
	ok := s.modify(s.ActiveKey(), func(p *core.Period) bool {
		i := indexOf(p.Debts, func(d core.Debt) bool { return d.ID == id })
		if i < 0 {
			return false
		}
		d := &p.Debts[i]
		if patch.Name != nil {
			d.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Amount != nil {
			d.Amount = *patch.Amount
		}
		if patch.DueDate != nil {
			d.DueDate = *patch.DueDate
		}
		if patch.IsPaid != nil {
			d.IsPaid = *patch.IsPaid
		}
		out = *d
		return true
	})
	if !ok {
		return core.Debt{}, fmt.Errorf("update debt %s: %w", id, core.ErrNotFound)
	}
	return out, nil
}

// ToggleDebtPaid flips the paid flag of a debt in the active month.
func (s *Store) ToggleDebtPaid(id string) (core.Debt, error) {
	var out core.Debt
	ok := s.modify(s.ActiveKey(), func(p *core.Period) bool {
		i := indexOf(p.Debts, func(d core.Debt) bool { return d.ID == id })
		if i < 0 {
			return false
		}
		p.Debts[i].IsPaid = !p.Debts[i].IsPaid
		out = p.Debts[i]
		return true
	})
	if !ok {
		return core.Debt{}, fmt.Errorf("toggle debt %s: %w", id, core.ErrNotFound)
	}
	return out, nil
}

func (s *Store) RemoveDebt(id string) error {
	ok := s.modify(s.ActiveKey(), func(p *core.Period) bool {
		i := indexOf(p.Debts, func(d core.Debt) bool { return d.ID == id })
		if i < 0 {
			return false
		}
		p.Debts = append(p.Debts[:i:i], p.Debts[i+1:]...)
		return true
	})
	if !ok {
		return fmt.Errorf("remove debt %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// modify applies fn to a copy of key's entry and keeps the copy only when fn
// reports a match, so a miss leaves the ledger untouched.
func (s *Store) modify(key core.PeriodKey, fn func(p *core.Period) bool) bool {
	next := s.Get(key).Normalize()
	if !fn(&next) {
		return false
	}
	s.periods[key] = next
	return true
}

func (s *Store) expenseKey(d core.Date) core.PeriodKey {
	if d.IsEmpty() {
		return s.ActiveKey()
	}
	return core.KeyFromTime(d.Time)
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}
