package budget

import (
	"errors"
	"testing"

	"finhelper/internal/core"
)

func percentages(cats []core.Category) []float64 {
	out := make([]float64, len(cats))
	for i, c := range cats {
		out[i] = c.Percentage
	}
	return out
}

func withPercentages(pcts ...float64) []core.Category {
	out := make([]core.Category, len(pcts))
	for i, p := range pcts {
		out[i] = core.Category{ID: string(rune('a' + i)), Percentage: p}
	}
	return out
}

func TestRedistributeSumsTo100(t *testing.T) {
	tests := []struct {
		name    string
		in      []float64
		index   int
		value   float64
		changed float64
	}{
		{"defaults raise first", percentages(DefaultCategories()), 0, 50, 50},
		{"defaults lower last", percentages(DefaultCategories()), 5, 0, 0},
		{"rounding drift", []float64{33, 33, 34}, 1, 10, 10},
		{"all others zero", []float64{100, 0, 0, 0}, 0, 40, 40},
		{"thirds from zero", []float64{0, 0, 0, 0}, 2, 1, 1},
		{"clamped above", []float64{50, 50}, 0, 140, 100},
		{"clamped below", []float64{50, 50}, 1, -20, 0},
		{"odd split", []float64{10, 20, 30, 40}, 3, 77, 77},
		{"residual below zero on empty first", []float64{0, 50, 25, 25}, 1, 55, 55},
		{"fraction truncated", []float64{50, 50}, 0, 33.6, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Redistribute(withPercentages(tt.in...), tt.index, tt.value)
			if err != nil {
				t.Fatalf("Redistribute: %v", err)
			}
			var total float64
			for _, c := range out {
				total += c.Percentage
			}
			if total != 100 {
				t.Fatalf("sum = %v, want 100 (%v)", total, percentages(out))
			}
			for i, c := range out {
				if c.Percentage < 0 || c.Percentage > 100 {
					t.Fatalf("category %d out of range: %v", i, percentages(out))
				}
			}
			if out[tt.index].Percentage != tt.changed {
				t.Fatalf("changed = %v, want %v", out[tt.index].Percentage, tt.changed)
			}
		})
	}
}

func TestRedistributeResidualGoesToFirstUnchanged(t *testing.T) {
	// 90 split over 33/33/34 rounds to 30/30/31, one over.
	out, err := Redistribute(withPercentages(0, 33, 33, 34), 0, 10)
	if err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	got := percentages(out)
	want := []float64{10, 29, 30, 31}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRedistributeResidualSkipsEmptyCategory(t *testing.T) {
	// 45 split over 0/25/25 rounds to 0/23/23, one over; the empty first
	// category cannot absorb it.
	out, err := Redistribute(withPercentages(0, 50, 25, 25), 1, 55)
	if err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	got := percentages(out)
	want := []float64{0, 55, 22, 23}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRedistributeProportional(t *testing.T) {
	out, err := Redistribute(withPercentages(50, 30, 20), 0, 0)
	if err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	got := percentages(out)
	if got[1] != 60 || got[2] != 40 {
		t.Fatalf("expected 60/40, got %v", got)
	}
}

func TestRedistributeDoesNotMutateInput(t *testing.T) {
	in := withPercentages(50, 50)
	if _, err := Redistribute(in, 0, 20); err != nil {
		t.Fatalf("Redistribute: %v", err)
	}
	if in[0].Percentage != 50 || in[1].Percentage != 50 {
		t.Fatalf("input mutated: %v", percentages(in))
	}
}

func TestRedistributeErrors(t *testing.T) {
	if _, err := Redistribute(withPercentages(50, 50), 2, 10); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for bad index, got %v", err)
	}
	if _, err := Redistribute(withPercentages(100), 0, 10); !errors.Is(err, ErrNotEnoughCategories) {
		t.Fatalf("expected ErrNotEnoughCategories, got %v", err)
	}
}
