// Package selector implements weighted practice set generation.
package selector

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/arcoapp/arco/internal/config"
	"github.com/arcoapp/arco/internal/model"
)

// Repository supplies catalog snapshots, practice stats, and the algorithm
// configuration. Implementations must not expect the selector to mutate
// anything through it.
type Repository interface {
	ListEnabledItems(ctx context.Context, category model.Category) ([]model.CatalogItem, error)
	PracticeStats(ctx context.Context, category model.Category, id int64) (model.PracticeStats, error)
	AlgorithmConfig(ctx context.Context) (config.Algorithm, error)
}

// Selector generates practice sets from the repository's catalog and
// history, biased toward items practiced less recently or less often.
type Selector struct {
	repo Repository
	rnd  *rand.Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand injects the random source, for deterministic tests.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Selector) {
		s.rnd = rnd
	}
}

// New returns a Selector seeded with the current time unless WithRand is given.
func New(repo Repository, opts ...Option) *Selector {
	s := &Selector{
		repo: repo,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate assembles one practice set according to the algorithm config.
//
// With weekly focus active, slots are reserved for focus items first
// (probability_increase percent of the set, rounded), the rest is filled
// from non-focus items, and any shortfall falls back to the combined pool.
// Without focus, declared slots allocate the set per category/subtype
// share; with neither, the whole set is sampled from one pool. The result
// is shuffled and each item gets an articulation suggestion.
func (s *Selector) Generate(ctx context.Context) ([]model.GeneratedItem, error) {
	cfg, err := s.repo.AlgorithmConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load algorithm config: %w", err)
	}
	cfg = cfg.Normalize()

	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	total := cfg.TotalItems
	oct := NewOctaveState()
	excluded := map[model.ItemRef]bool{}
	var picked []candidate

	commit := func(sel []candidate) {
		for _, c := range sel {
			picked = append(picked, c)
			oct.Mark(c.item.Octaves)
			excluded[c.item.Ref()] = true
		}
	}

	switch {
	case cfg.WeeklyFocus.Active():
		focusSlots := int(math.Round(float64(total) * cfg.WeeklyFocus.ProbabilityIncrease / 100))
		nonFocusSlots := total - focusSlots

		focusPool, _ := buildPools(snapshot, cfg, oct, excluded)
		commit(sample(s.rnd, focusPool, focusSlots))

		_, nonFocusPool := buildPools(snapshot, cfg, oct, excluded)
		commit(sample(s.rnd, nonFocusPool, nonFocusSlots))

		if len(picked) < total {
			focusPool, nonFocusPool = buildPools(snapshot, cfg, oct, excluded)
			commit(sample(s.rnd, append(focusPool, nonFocusPool...), total-len(picked)))
		}
	case len(cfg.Slots) > 0:
		for _, slot := range cfg.Slots {
			remaining := total - len(picked)
			if remaining <= 0 {
				break
			}
			count := s.slotCount(slot, cfg, remaining)
			pool := buildSlotPool(snapshot, cfg, slot, oct, excluded)
			commit(sample(s.rnd, pool, count))
		}
		if len(picked) < total {
			// Fill the remainder from all enabled items, ignoring slot limits.
			focusPool, nonFocusPool := buildPools(snapshot, cfg, oct, excluded)
			commit(sample(s.rnd, append(focusPool, nonFocusPool...), total-len(picked)))
		}
	default:
		focusPool, nonFocusPool := buildPools(snapshot, cfg, oct, excluded)
		commit(sample(s.rnd, append(focusPool, nonFocusPool...), total))
	}

	s.rnd.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	out := make([]model.GeneratedItem, len(picked))
	for i, c := range picked {
		item := c.item
		item.Articulation = s.articulate(c.mode, cfg.SlurredPercent)
		out[i] = item
	}
	return out, nil
}

// slotCount converts a slot's percent target into an item count, widened by
// the configured variation and clamped to the remaining capacity.
func (s *Selector) slotCount(slot config.Slot, cfg config.Algorithm, remaining int) int {
	minPct := clampPercent(slot.Percent - cfg.Variation/2)
	maxPct := clampPercent(slot.Percent + cfg.Variation/2)

	lower := int(float64(cfg.TotalItems) * minPct / 100)
	upper := int(float64(cfg.TotalItems) * maxPct / 100)
	if upper > remaining {
		upper = remaining
	}
	if lower > upper {
		lower = upper
	}
	if upper <= lower {
		return lower
	}
	return lower + s.rnd.Intn(upper-lower+1)
}

func (s *Selector) articulate(mode model.ArticulationMode, slurredPercent float64) model.Articulation {
	switch mode {
	case model.ArticulationSeparateOnly:
		return model.ArticulationSeparate
	case model.ArticulationSlurredOnly:
		return model.ArticulationSlurred
	}
	if s.rnd.Float64()*100 < slurredPercent {
		return model.ArticulationSlurred
	}
	return model.ArticulationSeparate
}

// snapshot fetches all enabled items with their practice stats. Pool
// building afterwards is pure computation over this slice.
func (s *Selector) snapshot(ctx context.Context) ([]itemStat, error) {
	var snapshot []itemStat
	for _, category := range []model.Category{model.CategoryScale, model.CategoryArpeggio} {
		items, err := s.repo.ListEnabledItems(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("failed to list enabled %ss: %w", category, err)
		}
		for _, item := range items {
			stats, err := s.repo.PracticeStats(ctx, item.Category, item.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load practice stats for %s: %w", item.Ref(), err)
			}
			snapshot = append(snapshot, itemStat{item: item, stats: stats})
		}
	}
	return snapshot, nil
}

func clampPercent(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
