package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finhelper/internal/core"
	"finhelper/internal/goals"
)

type goalRequest struct {
	Name          string     `json:"name"`
	TargetAmount  core.Money `json:"targetAmount"`
	CurrentAmount core.Money `json:"currentAmount"`
}

type goalPatchRequest struct {
	Name          *string     `json:"name"`
	TargetAmount  *core.Money `json:"targetAmount"`
	CurrentAmount *core.Money `json:"currentAmount"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	OK(s.finance.Goals()).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "create_goal", err)
		return
	}
	in := goals.Input{
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
	}
	g := core.FinancialGoal{Name: in.Name, TargetAmount: in.TargetAmount, CurrentAmount: in.CurrentAmount}
	if err := g.Validate(); err != nil {
		s.fail(w, r, "create_goal", err)
		return
	}

	view, err := s.finance.AddGoal(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create_goal", err)
		return
	}
	Created(view).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "update_goal", err)
		return
	}
	patch := goals.Patch{
		Name:          sanitizePtr(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
	}
	switch {
	case patch.Name != nil && *patch.Name == "":
		s.fail(w, r, "update_goal", &core.ValidationError{Field: "name", Err: core.ErrEmptyName})
		return
	case patch.TargetAmount != nil && patch.TargetAmount.Cents <= 0:
		s.fail(w, r, "update_goal", &core.ValidationError{Field: "targetAmount", Err: core.ErrInvalidAmount})
		return
	case patch.CurrentAmount != nil && patch.CurrentAmount.IsNegative():
		s.fail(w, r, "update_goal", &core.ValidationError{Field: "currentAmount", Err: core.ErrInvalidAmount})
		return
	}

	view, err := s.finance.UpdateGoal(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.fail(w, r, "update_goal", err)
		return
	}
	OK(view).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "delete_goal", err)
		return
	}
	OK(nil).Write(w)
}
