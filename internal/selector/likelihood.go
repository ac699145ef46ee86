package selector

import (
	"context"
	"fmt"

	"github.com/arcoapp/arco/internal/model"
)

// Likelihoods returns each enabled item's share of the total baseline
// weight, in [0,1] and summing to 1 for a non-empty catalog. It applies no
// octave penalty and no weekly-focus boost, so with focus slot reservation
// active the generator's real odds diverge from these numbers; the values
// are honest for the unfocused sampling path only. A catalog whose weights
// sum to zero yields a uniform 1/N.
func (s *Selector) Likelihoods(ctx context.Context) (map[model.ItemRef]float64, error) {
	cfg, err := s.repo.AlgorithmConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load algorithm config: %w", err)
	}
	cfg = cfg.Normalize()

	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	weights := make(map[model.ItemRef]float64, len(snapshot))
	total := 0.0
	for _, is := range snapshot {
		w := ItemWeight(is.item.Weight, is.stats, cfg.Weighting)
		weights[is.item.Ref()] = w
		total += w
	}

	out := make(map[model.ItemRef]float64, len(weights))
	for ref, w := range weights {
		if total <= 0 {
			out[ref] = 1 / float64(len(weights))
		} else {
			out[ref] = w / total
		}
	}
	return out, nil
}
