// Package goals keeps the list of savings goals. It stores whatever values it
// is given; form rules live in core.FinancialGoal.Validate.
package goals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"finhelper/internal/core"
)

type Input struct {
	Name          string
	TargetAmount  core.Money
	CurrentAmount core.Money
}

type Patch struct {
	Name          *string
	TargetAmount  *core.Money
	CurrentAmount *core.Money
}

// View is a goal with its derived progress.
type View struct {
	core.FinancialGoal
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

// Tracker is not safe for concurrent use.
type Tracker struct {
	goals []core.FinancialGoal
	now   func() time.Time
}

func NewTracker(goals []core.FinancialGoal, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{now: now}
	t.Replace(goals)
	return t
}

func (t *Tracker) List() []core.FinancialGoal {
	return append([]core.FinancialGoal{}, t.goals...)
}

// Views returns every goal with progress and completion filled in.
func (t *Tracker) Views() []View {
	out := make([]View, len(t.goals))
	for i, g := range t.goals {
		out[i] = ViewOf(g)
	}
	return out
}

func ViewOf(g core.FinancialGoal) View {
	return View{FinancialGoal: g, Progress: g.Progress(), Completed: g.Completed()}
}

func (t *Tracker) Replace(goals []core.FinancialGoal) {
	t.goals = append([]core.FinancialGoal{}, goals...)
}

func (t *Tracker) Add(in Input) core.FinancialGoal {
	g := core.FinancialGoal{
		ID:            "goal_" + uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		CreatedAt:     core.DateOf(t.now().UTC()),
	}
	t.goals = append(t.goals, g)
	return g
}

func (t *Tracker) Update(id string, patch Patch) (core.FinancialGoal, error) {
	for i := range t.goals {
		if t.goals[i].ID != id {
			continue
		}
		g := t.goals[i]
		if patch.Name != nil {
			g.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.TargetAmount != nil {
			g.TargetAmount = *patch.TargetAmount
		}
		if patch.CurrentAmount != nil {
			g.CurrentAmount = *patch.CurrentAmount
		}
		t.goals[i] = g
		return g, nil
	}
	return core.FinancialGoal{}, fmt.Errorf("update goal %s: %w", id, core.ErrNotFound)
}

func (t *Tracker) Delete(id string) error {
	for i := range t.goals {
		if t.goals[i].ID == id {
			t.goals = append(t.goals[:i:i], t.goals[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete goal %s: %w", id, core.ErrNotFound)
}
