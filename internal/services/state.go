package services

import (
	"context"
	"strings"
	"time"

	"finhelper/internal/core"
	"finhelper/internal/storage"
)

// State is the application state as the client sees it on load.
type State struct {
	Theme         string           `json:"theme"`
	UserName      string           `json:"userName"`
	SelectedMonth time.Time        `json:"selectedMonth"`
	ActiveMonth   core.PeriodKey   `json:"activeMonth"`
	MonthLabel    string           `json:"monthLabel"`
	Categories    []core.Category  `json:"categories"`
	Period        core.Period      `json:"period"`
	Months        []core.PeriodKey `json:"months"`
}

func (s *FinanceService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *FinanceService) stateLocked() State {
	key := s.ledger.ActiveKey()
	return State{
		Theme:         s.theme,
		UserName:      s.userName,
		SelectedMonth: s.ledger.Selected(),
		ActiveMonth:   key,
		MonthLabel:    key.Label(),
		Categories:    s.catalog.All(),
		Period:        s.ledger.Get(key),
		Months:        s.ledger.Keys(),
	}
}

// SetProfile updates the theme and the user name. Nil fields are kept.
func (s *FinanceService) SetProfile(ctx context.Context, theme, userName *string) (State, error) {
	var out State
	err := s.mutate(ctx, func() (change, error) {
		ch := change{reason: "profile"}
		if theme != nil {
			s.theme = strings.TrimSpace(*theme)
			ch.keys = append(ch.keys, storage.KeyTheme)
		}
		if userName != nil {
			s.userName = strings.TrimSpace(*userName)
			ch.keys = append(ch.keys, storage.KeyUserName)
		}
		out = s.stateLocked()
		return ch, nil
	})
	return out, err
}

// ChangeMonth steps the selected month by dir.
func (s *FinanceService) ChangeMonth(ctx context.Context, dir int) (core.PeriodKey, error) {
	var key core.PeriodKey
	err := s.mutate(ctx, func() (change, error) {
		key = s.ledger.ChangeMonth(dir)
		return change{reason: "select-month", keys: []string{storage.KeySelectedMonth}}, nil
	})
	return key, err
}

// SelectMonth jumps to the month of key.
func (s *FinanceService) SelectMonth(ctx context.Context, key core.PeriodKey) (core.PeriodKey, error) {
	var out core.PeriodKey
	err := s.mutate(ctx, func() (change, error) {
		out = s.ledger.SelectMonth(key.Start())
		return change{reason: "select-month", keys: []string{storage.KeySelectedMonth}}, nil
	})
	return out, err
}

// ActiveMonth is the key of the selected month.
func (s *FinanceService) ActiveMonth() core.PeriodKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ActiveKey()
}

// Period returns the entry of key, or the default entry when absent.
func (s *FinanceService) Period(key core.PeriodKey) core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Get(key)
}
