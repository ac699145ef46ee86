package selector

import (
	"math/rand"

	"github.com/arcoapp/arco/internal/model"
)

// candidate pairs a prospective generated item with its selection weight.
// The articulation mode rides along so the final assignment step can honor
// per-item restrictions.
type candidate struct {
	item   model.GeneratedItem
	mode   model.ArticulationMode
	weight float64
}

// sample picks up to k candidates without replacement using roulette-wheel
// selection. A pool whose total weight is zero (or negative) degrades to a
// uniform pick. The input slice is not modified.
func sample(rnd *rand.Rand, pool []candidate, k int) []candidate {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	remaining := make([]candidate, len(pool))
	copy(remaining, pool)

	if k > len(remaining) {
		k = len(remaining)
	}
	selected := make([]candidate, 0, k)
	for len(selected) < k && len(remaining) > 0 {
		total := 0.0
		for _, c := range remaining {
			total += c.weight
		}
		idx := 0
		if total <= 0 {
			idx = rnd.Intn(len(remaining))
		} else {
			r := rnd.Float64() * total
			acc := 0.0
			for i, c := range remaining {
				acc += c.weight
				if acc >= r {
					idx = i
					break
				}
			}
		}
		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return selected
}
