package selector

import (
	"github.com/arcoapp/arco/internal/config"
	"github.com/arcoapp/arco/internal/model"
)

// octavePenalty halves the weight of an item whose octave count already
// appears in the set under construction.
const octavePenalty = 0.5

// itemStat pairs a catalog item with its practice stats snapshot.
type itemStat struct {
	item  model.CatalogItem
	stats model.PracticeStats
}

// OctaveState records octave counts used earlier in a generation, so later
// pool builds can penalize repeats. It is threaded explicitly through the
// generator's phases rather than shared.
type OctaveState struct {
	used map[int]bool
}

// NewOctaveState returns an empty octave state.
func NewOctaveState() *OctaveState {
	return &OctaveState{used: map[int]bool{}}
}

// Mark records an octave count as used.
func (s *OctaveState) Mark(octaves int) {
	s.used[octaves] = true
}

// Used reports whether an octave count was already used.
func (s *OctaveState) Used(octaves int) bool {
	return s.used[octaves]
}

// isFocus classifies an item against the weekly focus config. An empty
// category set passes every category, but focus with no keys, types, and
// categories at all matches nothing: enabling focus without choosing
// anything must not flag the whole catalog.
func isFocus(item model.CatalogItem, f config.WeeklyFocus) bool {
	if !f.Enabled {
		return false
	}
	if len(f.Keys) == 0 && len(f.Types) == 0 && len(f.Categories) == 0 {
		return false
	}
	if len(f.Categories) > 0 && !containsCategory(f.Categories, item.Category) {
		return false
	}
	if len(f.Keys) == 0 && len(f.Types) == 0 {
		return true
	}
	return containsString(f.Keys, item.Note) || containsString(f.Types, item.Type)
}

// buildPools computes a weighted candidate for every snapshot item not in
// excluded, applying the octave penalty against oct, and splits the result
// into weekly-focus and non-focus pools.
func buildPools(snapshot []itemStat, cfg config.Algorithm, oct *OctaveState, excluded map[model.ItemRef]bool) (focus, nonFocus []candidate) {
	for _, is := range snapshot {
		if excluded[is.item.Ref()] {
			continue
		}
		c := newCandidate(is, cfg, oct)
		if isFocus(is.item, cfg.WeeklyFocus) {
			c.item.IsWeeklyFocus = true
			focus = append(focus, c)
		} else {
			nonFocus = append(nonFocus, c)
		}
	}
	return focus, nonFocus
}

// buildSlotPool restricts the pool to one slot's category and subtypes.
// When weekly focus is enabled, matching items get a multiplicative boost
// instead of reserved slots.
func buildSlotPool(snapshot []itemStat, cfg config.Algorithm, slot config.Slot, oct *OctaveState, excluded map[model.ItemRef]bool) []candidate {
	var pool []candidate
	for _, is := range snapshot {
		if excluded[is.item.Ref()] {
			continue
		}
		if is.item.Category != slot.ItemType {
			continue
		}
		if len(slot.Types) > 0 && !containsString(slot.Types, is.item.Type) {
			continue
		}
		c := newCandidate(is, cfg, oct)
		if isFocus(is.item, cfg.WeeklyFocus) {
			c.item.IsWeeklyFocus = true
			c.weight *= 1 + cfg.WeeklyFocus.ProbabilityIncrease/100
		}
		pool = append(pool, c)
	}
	return pool
}

func newCandidate(is itemStat, cfg config.Algorithm, oct *OctaveState) candidate {
	weight := ItemWeight(is.item.Weight, is.stats, cfg.Weighting)
	if cfg.OctaveVariety && oct.Used(is.item.Octaves) {
		weight *= octavePenalty
	}
	bpm := is.item.TargetBPM
	if bpm == 0 {
		bpm = cfg.DefaultBPM(is.item.Category)
	}
	return candidate{
		item: model.GeneratedItem{
			Category:    is.item.Category,
			ID:          is.item.ID,
			DisplayName: is.item.DisplayName(),
			Octaves:     is.item.Octaves,
			TargetBPM:   bpm,
		},
		mode:   is.item.ArticulationMode,
		weight: weight,
	}
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func containsCategory(values []model.Category, v model.Category) bool {
	for _, c := range values {
		if c == v {
			return true
		}
	}
	return false
}
