package services

import (
	"context"

	"finhelper/internal/goals"
	"finhelper/internal/storage"
)

func goalChange(reason string) change {
	return change{reason: reason, keys: []string{storage.KeyFinancialGoals}}
}

// Goals lists the savings goals with their progress.
func (s *FinanceService) Goals() []goals.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goals.Views()
}

func (s *FinanceService) AddGoal(ctx context.Context, in goals.Input) (goals.View, error) {
	var out goals.View
	err := s.mutate(ctx, func() (change, error) {
		out = goals.ViewOf(s.goals.Add(in))
		return goalChange("goal-added"), nil
	})
	return out, err
}

func (s *FinanceService) UpdateGoal(ctx context.Context, id string, patch goals.Patch) (goals.View, error) {
	var out goals.View
	err := s.mutate(ctx, func() (change, error) {
		g, err := s.goals.Update(id, patch)
		if err != nil {
			return change{}, err
		}
		out = goals.ViewOf(g)
		return goalChange("goal-updated"), nil
	})
	return out, err
}

func (s *FinanceService) DeleteGoal(ctx context.Context, id string) error {
	return s.mutate(ctx, func() (change, error) {
		if err := s.goals.Delete(id); err != nil {
			return change{}, err
		}
		return goalChange("goal-deleted"), nil
	})
}
