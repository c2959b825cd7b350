package http

import (
	"errors"
	"net/http"

	"finhelper/internal/core"
)

var (
	errInvalidTheme     = errors.New("theme must be light or dark")
	errInvalidDirection = errors.New("direction must be -1 or 1")
)

type profileRequest struct {
	Theme    *string `json:"theme"`
	UserName *string `json:"userName"`
}

type monthRequest struct {
	Month string `json:"month"`
}

type stepRequest struct {
	Direction int `json:"direction"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	OK(s.finance.State()).Write(w)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "profile", err)
		return
	}
	req.Theme = sanitizePtr(req.Theme)
	req.UserName = sanitizePtr(req.UserName)
	if req.Theme != nil && *req.Theme != "light" && *req.Theme != "dark" {
		s.fail(w, r, "profile", &core.ValidationError{Field: "theme", Err: errInvalidTheme})
		return
	}

	state, err := s.finance.SetProfile(r.Context(), req.Theme, req.UserName)
	if err != nil {
		s.fail(w, r, "profile", err)
		return
	}
	OK(state).Write(w)
}

func (s *Server) handleSelectMonth(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "select_month", err)
		return
	}
	key, err := core.ParsePeriodKey(req.Month)
	if err != nil {
		s.fail(w, r, "select_month", &core.ValidationError{Field: "month", Err: core.ErrInvalidPeriod})
		return
	}

	if _, err := s.finance.SelectMonth(r.Context(), key); err != nil {
		s.fail(w, r, "select_month", err)
		return
	}
	OK(s.finance.State()).Write(w)
}

func (s *Server) handleStepMonth(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, "step_month", err)
		return
	}
	if req.Direction != -1 && req.Direction != 1 {
		s.fail(w, r, "step_month", &core.ValidationError{Field: "direction", Err: errInvalidDirection})
		return
	}

	if _, err := s.finance.ChangeMonth(r.Context(), req.Direction); err != nil {
		s.fail(w, r, "step_month", err)
		return
	}
	OK(s.finance.State()).Write(w)
}
