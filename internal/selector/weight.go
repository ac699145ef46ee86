package selector

import (
	"github.com/arcoapp/arco/internal/config"
	"github.com/arcoapp/arco/internal/model"
)

// neverPracticedDays stands in for days-since-practice when an item has no
// practiced entries, so fresh items rank like long-neglected ones.
const neverPracticedDays = 30

// ItemWeight computes the selection weight for one item:
//
//	base * base_multiplier * (1 + days_since/days_factor) / (practice_count + count_divisor)
//
// Weight grows with the recency gap and shrinks with the practice count.
// The weighting config must be normalized (positive factor and divisor).
func ItemWeight(baseWeight float64, stats model.PracticeStats, w config.Weighting) float64 {
	days := float64(stats.DaysSince)
	if !stats.Practiced {
		days = neverPracticedDays
	}
	return baseWeight * w.BaseMultiplier * (1 + days/w.DaysSincePracticeFac) / (float64(stats.Count) + w.PracticeCountDivisor)
}
