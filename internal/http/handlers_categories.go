package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finhelper/internal/budget"
	"finhelper/internal/core"
)

var errBudgetExceeded = errors.New("category percentages would exceed 100%")

type categoryRequest struct {
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Percentage float64 `json:"percentage"`
}

type categoryPatchRequest struct {
	Name       *string  `json:"name"`
	Color      *string  `json:"color"`
	Percentage *float64 `json:"percentage"`
	IsArchived *bool    `json:"isArchived"`
}

type validateBudgetRequest struct {
	Percentage *float64 `json:"percentage"`
	ExcludeID  string   `json:"excludeId"`
}

type redistributeRequest struct {
	Index *int     `json:"index"`
	Value *float64 `json:"value"`
}

type subcategoryRequest struct {
	Name  string     `json:"name"`
	Value core.Money `json:"value"`
}

type subcategoryPatchRequest struct {
	Name  *string     `json:"name"`
	Value *core.Money `json:"value"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("sorted") == "true" {
		OK(s.finance.SortedCategories()).Write(w)
		return
	}
	OK(s.finance.Categories()).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_category", err)
		return
	}
	in := budget.CategoryInput{
		Name:       sanitizeInput(req.Name),
		Color:      sanitizeInput(req.Color),
		Percentage: req.Percentage,
	}
	if err := (core.Category{Name: in.Name, Percentage: in.Percentage}).Validate(); err != nil {
		s.fail(w, r, "create_category", err)
		return
	}
	if !s.finance.ValidateBudgetTotal(in.Percentage, "").Valid {
		s.fail(w, r, "create_category", &core.ValidationError{Field: "percentage", Err: errBudgetExceeded})
		return
	}

	cat, err := s.finance.AddCategory(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create_category", err)
		return
	}
	Created(cat).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req categoryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_category", err)
		return
	}
	patch := budget.CategoryPatch{
		Name:       sanitizePtr(req.Name),
		Color:      sanitizePtr(req.Color),
		Percentage: req.Percentage,
		IsArchived: req.IsArchived,
	}
	if patch.Name != nil && *patch.Name == "" {
		s.fail(w, r, "update_category", &core.ValidationError{Field: "name", Err: core.ErrEmptyName})
		return
	}
	if p := patch.Percentage; p != nil {
		if *p < 0 || *p > 100 {
			s.fail(w, r, "update_category", &core.ValidationError{Field: "percentage", Err: core.ErrInvalidPercentage})
			return
		}
		if !s.finance.ValidateBudgetTotal(*p, id).Valid {
			s.fail(w, r, "update_category", &core.ValidationError{Field: "percentage", Err: errBudgetExceeded})
			return
		}
	}

	cat, err := s.finance.UpdateCategory(r.Context(), id, patch)
	if err != nil {
		s.fail(w, r, "update_category", err)
		return
	}
	OK(cat).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "delete_category", err)
		return
	}
	OK(nil).Write(w)
}

func (s *Server) handleValidateBudget(w http.ResponseWriter, r *http.Request) {
	var req validateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "validate_budget", err)
		return
	}
	if req.Percentage == nil {
		s.fail(w, r, "validate_budget", requireField("percentage"))
		return
	}
	OK(s.finance.ValidateBudgetTotal(*req.Percentage, req.ExcludeID)).Write(w)
}

func (s *Server) handleRedistribute(w http.ResponseWriter, r *http.Request) {
	var req redistributeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "redistribute", err)
		return
	}
	switch {
	case req.Index == nil:
		s.fail(w, r, "redistribute", requireField("index"))
		return
	case req.Value == nil:
		s.fail(w, r, "redistribute", requireField("value"))
		return
	}

	cats, err := s.finance.Redistribute(r.Context(), *req.Index, *req.Value)
	if err != nil {
		s.fail(w, r, "redistribute", err)
		return
	}
	OK(cats).Write(w)
}

func (s *Server) handleResetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.finance.ResetCategories(r.Context())
	if err != nil {
		s.fail(w, r, "reset_categories", err)
		return
	}
	OK(cats).Write(w)
}

func (s *Server) handleCreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req subcategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_subcategory", err)
		return
	}
	name := sanitizeInput(req.Name)
	if err := (core.Subcategory{Name: name, Value: req.Value}).Validate(); err != nil {
		s.fail(w, r, "create_subcategory", err)
		return
	}

	sub, err := s.finance.AddSubcategory(r.Context(), chi.URLParam(r, "id"), name, req.Value)
	if err != nil {
		s.fail(w, r, "create_subcategory", err)
		return
	}
	Created(sub).Write(w)
}

func (s *Server) handleUpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req subcategoryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_subcategory", err)
		return
	}
	patch := budget.SubcategoryPatch{Name: sanitizePtr(req.Name), Value: req.Value}
	if patch.Name != nil && *patch.Name == "" {
		s.fail(w, r, "update_subcategory", &core.ValidationError{Field: "name", Err: core.ErrEmptyName})
		return
	}
	if patch.Value != nil && patch.Value.IsNegative() {
		s.fail(w, r, "update_subcategory", &core.ValidationError{Field: "value", Err: core.ErrInvalidAmount})
		return
	}

	sub, err := s.finance.UpdateSubcategory(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subID"), patch)
	if err != nil {
		s.fail(w, r, "update_subcategory", err)
		return
	}
	OK(sub).Write(w)
}

func (s *Server) handleDeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	err := s.finance.RemoveSubcategory(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subID"))
	if err != nil {
		s.fail(w, r, "delete_subcategory", err)
		return
	}
	OK(nil).Write(w)
}
