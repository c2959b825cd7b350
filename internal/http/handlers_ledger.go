package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"finhelper/internal/core"
	"finhelper/internal/ledger"
	"finhelper/internal/log"
)

type incomeRequest struct {
	Income *core.Money `json:"income"`
}

type spentRequest struct {
	Amount *core.Money `json:"amount"`
}

type expenseRequest struct {
	CategoryID  string     `json:"categoryId"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
}

type expensePatchRequest struct {
	CategoryID  *string     `json:"categoryId"`
	Amount      *core.Money `json:"amount"`
	Description *string     `json:"description"`
	Date        *core.Date  `json:"date"`
}

type investmentRequest struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

type investmentPatchRequest struct {
	Name   *string     `json:"name"`
	Amount *core.Money `json:"amount"`
}

type debtRequest struct {
	Name    string     `json:"name"`
	Amount  core.Money `json:"amount"`
	DueDate core.Date  `json:"dueDate"`
	IsPaid  bool       `json:"isPaid"`
}

type debtPatchRequest struct {
	Name    *string     `json:"name"`
	Amount  *core.Money `json:"amount"`
	DueDate *core.Date  `json:"dueDate"`
	IsPaid  *bool       `json:"isPaid"`
}

func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	key, err := parseMonthParam(r.URL.Query(), "month", s.finance.ActiveMonth())
	if err != nil {
		s.fail(w, r, "get_period", err)
		return
	}
	OK(map[string]any{"month": key, "period": s.finance.Period(key)}).Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_income", err)
		return
	}
	switch {
	case req.Income == nil:
		s.fail(w, r, "update_income", requireField("income"))
		return
	case req.Income.IsNegative():
		s.fail(w, r, "update_income", &core.ValidationError{Field: "income", Err: core.ErrInvalidAmount})
		return
	}

	period, err := s.finance.UpdateMonthlyIncome(r.Context(), *req.Income)
	if err != nil {
		s.fail(w, r, "update_income", err)
		return
	}
	OK(period).Write(w)
}

func (s *Server) handleUpdateSpent(w http.ResponseWriter, r *http.Request) {
	var req spentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_spent", err)
		return
	}
	switch {
	case req.Amount == nil:
		s.fail(w, r, "update_spent", requireField("amount"))
		return
	case req.Amount.IsNegative():
		s.fail(w, r, "update_spent", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount})
		return
	}

	if err := s.finance.UpdateCategorySpent(r.Context(), chi.URLParam(r, "id"), *req.Amount); err != nil {
		s.fail(w, r, "update_spent", err)
		return
	}
	OK(s.finance.Summary(s.finance.ActiveMonth())).Write(w)
}

func (s *Server) handleResetPeriod(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.ResetCurrent(r.Context()); err != nil {
		s.fail(w, r, "reset_period", err)
		return
	}
	OK(s.finance.Period(s.finance.ActiveMonth())).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_expense", err)
		return
	}
	in := ledger.ExpenseInput{
		CategoryID:  sanitizeInput(req.CategoryID),
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		Date:        req.Date,
	}
	e := core.Expense{CategoryID: in.CategoryID, Amount: in.Amount, Description: in.Description}
	if err := e.Validate(); err != nil {
		s.fail(w, r, "create_expense", err)
		return
	}
	if !s.categoryExists(in.CategoryID) {
		s.fail(w, r, "create_expense", &core.ValidationError{Field: "categoryId", Err: core.ErrCategoryNotFound})
		return
	}

	created, err := s.finance.AddExpense(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create_expense", err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.NewFields().WithOperation(log.OpCreate).WithRecord(created.ID, created.Amount.Cents).ToSlice()...)
	Created(created).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expensePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_expense", err)
		return
	}
	patch := ledger.ExpensePatch{
		CategoryID:  sanitizePtr(req.CategoryID),
		Amount:      req.Amount,
		Description: sanitizePtr(req.Description),
		Date:        req.Date,
	}
	if err := s.validateExpensePatch(patch); err != nil {
		s.fail(w, r, "update_expense", err)
		return
	}

	updated, err := s.finance.UpdateExpense(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, "update_expense", err)
		return
	}
	OK(updated).Write(w)
}

func (s *Server) validateExpensePatch(p ledger.ExpensePatch) error {
	if p.CategoryID != nil {
		if *p.CategoryID == "" {
			return &core.ValidationError{Field: "categoryId", Err: core.ErrEmptyCategory}
		}
		if !s.categoryExists(*p.CategoryID) {
			return &core.ValidationError{Field: "categoryId", Err: core.ErrCategoryNotFound}
		}
	}
	if p.Amount != nil && p.Amount.Cents <= 0 {
		return &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	if p.Description != nil && len(*p.Description) > 200 {
		return &core.ValidationError{Field: "description", Err: core.ErrDescriptionTooLong}
	}
	return nil
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.RemoveExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "delete_expense", err)
		return
	}
	OK(nil).Write(w)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_investment", err)
		return
	}
	in := ledger.InvestmentInput{Name: sanitizeInput(req.Name), Amount: req.Amount}
	if err := (core.Investment{Name: in.Name, Amount: in.Amount}).Validate(); err != nil {
		s.fail(w, r, "create_investment", err)
		return
	}

	inv, err := s.finance.AddInvestment(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create_investment", err)
		return
	}
	Created(inv).Write(w)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var req investmentPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_investment", err)
		return
	}
	patch := ledger.InvestmentPatch{Name: sanitizePtr(req.Name), Amount: req.Amount}
	if err := validateNamedPatch(patch.Name, patch.Amount); err != nil {
		s.fail(w, r, "update_investment", err)
		return
	}

	inv, err := s.finance.UpdateInvestment(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, "update_investment", err)
		return
	}
	OK(inv).Write(w)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.RemoveInvestment(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "delete_investment", err)
		return
	}
	OK(nil).Write(w)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_debt", err)
		return
	}
	in := ledger.DebtInput{
		Name:    sanitizeInput(req.Name),
		Amount:  req.Amount,
		DueDate: req.DueDate,
		IsPaid:  req.IsPaid,
	}
	if err := (core.Debt{Name: in.Name, Amount: in.Amount, DueDate: in.DueDate}).Validate(); err != nil {
		s.fail(w, r, "create_debt", err)
		return
	}

	debt, err := s.finance.AddDebt(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create_debt", err)
		return
	}
	Created(debt).Write(w)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_debt", err)
		return
	}
	patch := ledger.DebtPatch{
		Name:    sanitizePtr(req.Name),
		Amount:  req.Amount,
		DueDate: req.DueDate,
		IsPaid:  req.IsPaid,
	}
	if err := validateNamedPatch(patch.Name, patch.Amount); err != nil {
		s.fail(w, r, "update_debt", err)
		return
	}
	if patch.DueDate != nil && patch.DueDate.IsEmpty() {
		s.fail(w, r, "update_debt", &core.ValidationError{Field: "dueDate", Err: core.ErrInvalidDate})
		return
	}

	debt, err := s.finance.UpdateDebt(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, "update_debt", err)
		return
	}
	OK(debt).Write(w)
}

func (s *Server) handleToggleDebt(w http.ResponseWriter, r *http.Request) {
	debt, err := s.finance.ToggleDebtPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "toggle_debt", err)
		return
	}
	OK(debt).Write(w)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.RemoveDebt(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "delete_debt", err)
		return
	}
	OK(nil).Write(w)
}

// validateNamedPatch checks the name and amount fields shared by investment
// and debt patches.
func validateNamedPatch(name *string, amount *core.Money) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return &core.ValidationError{Field: "name", Err: core.ErrEmptyName}
	}
	if amount != nil && amount.Cents <= 0 {
		return &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	return nil
}

func (s *Server) categoryExists(id string) bool {
	for _, c := range s.finance.Categories() {
		if c.ID == id {
			return true
		}
	}
	return false
}
