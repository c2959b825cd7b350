package budget

import (
	"errors"
	"fmt"
	"math"

	"finhelper/internal/core"
)

var ErrNotEnoughCategories = errors.New("redistribution needs at least two categories")

// Redistribute sets categories[changedIndex] to newValue and spreads the
// remaining 100-newValue over the other categories in proportion to their
// current share, or evenly when all of them are zero. Percentages are whole
// numbers and newValue is truncated to one. The rounding residual goes to the
// first category that was not changed; whatever would push it outside 0-100
// moves on to the next unchanged category, so the result always sums to
// exactly 100 with every share in range.
//
// The input slice is not modified.
func Redistribute(categories []core.Category, changedIndex int, newValue float64) ([]core.Category, error) {
	if changedIndex < 0 || changedIndex >= len(categories) {
		return nil, fmt.Errorf("redistribute index %d: %w", changedIndex, core.ErrCategoryNotFound)
	}
	if len(categories) < 2 {
		return nil, ErrNotEnoughCategories
	}

	out := make([]core.Category, len(categories))
	for i, c := range categories {
		out[i] = c.Clone()
	}

	newValue = math.Trunc(clamp(newValue, 0, 100))
	out[changedIndex].Percentage = newValue

	var totalOthers float64
	for i, c := range out {
		if i != changedIndex {
			totalOthers += c.Percentage
		}
	}

	remaining := 100 - newValue
	if totalOthers == 0 {
		even := remaining / float64(len(out)-1)
		for i := range out {
			if i != changedIndex {
				out[i].Percentage = math.Round(even)
			}
		}
	} else {
		ratio := remaining / totalOthers
		for i := range out {
			if i != changedIndex {
				out[i].Percentage = math.Round(out[i].Percentage * ratio)
			}
		}
	}

	var total float64
	for _, c := range out {
		total += c.Percentage
	}
	residual := 100 - total
	for i := range out {
		if residual == 0 {
			break
		}
		if i == changedIndex {
			continue
		}
		adjusted := clamp(out[i].Percentage+residual, 0, 100)
		residual -= adjusted - out[i].Percentage
		out[i].Percentage = adjusted
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v) || v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
