package selector

import (
	"context"
	"math/rand"
	"testing"

	"github.com/arcoapp/arco/internal/config"
	"github.com/arcoapp/arco/internal/model"
)

type fakeRepo struct {
	items map[model.Category][]model.CatalogItem
	stats map[model.ItemRef]model.PracticeStats
	cfg   config.Algorithm
}

func (r *fakeRepo) ListEnabledItems(_ context.Context, category model.Category) ([]model.CatalogItem, error) {
	return r.items[category], nil
}

func (r *fakeRepo) PracticeStats(_ context.Context, category model.Category, id int64) (model.PracticeStats, error) {
	return r.stats[model.ItemRef{Category: category, ID: id}], nil
}

func (r *fakeRepo) AlgorithmConfig(_ context.Context) (config.Algorithm, error) {
	return r.cfg, nil
}

func newFakeRepo(cfg config.Algorithm) *fakeRepo {
	return &fakeRepo{
		items: map[model.Category][]model.CatalogItem{},
		stats: map[model.ItemRef]model.PracticeStats{},
		cfg:   cfg,
	}
}

func (r *fakeRepo) add(item model.CatalogItem) {
	if item.Weight == 0 {
		item.Weight = 1.0
	}
	if item.ArticulationMode == "" {
		item.ArticulationMode = model.ArticulationBoth
	}
	item.Enabled = true
	r.items[item.Category] = append(r.items[item.Category], item)
}

func scaleItem(id int64, note, subtype string, octaves int) model.CatalogItem {
	return model.CatalogItem{Category: model.CategoryScale, ID: id, Note: note, Type: subtype, Octaves: octaves}
}

func newTestSelector(repo *fakeRepo, seed int64) *Selector {
	return New(repo, WithRand(rand.New(rand.NewSource(seed))))
}

func TestGenerateEmptyCatalog(t *testing.T) {
	repo := newFakeRepo(config.DefaultAlgorithm())
	items, err := newTestSelector(repo, 1).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty set, got %d items", len(items))
	}
}

func TestGenerateSizeAndUniqueness(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.Slots = nil
	cfg.TotalItems = 5
	repo := newFakeRepo(cfg)
	for id := int64(1); id <= 8; id++ {
		repo.add(scaleItem(id, "A", "major", int(id%3)+1))
	}

	for seed := int64(0); seed < 10; seed++ {
		items, err := newTestSelector(repo, seed).Generate(context.Background())
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(items) != 5 {
			t.Fatalf("seed %d: expected 5 items, got %d", seed, len(items))
		}
		seen := map[model.ItemRef]bool{}
		for _, item := range items {
			if seen[item.Ref()] {
				t.Fatalf("seed %d: duplicate item %s", seed, item.Ref())
			}
			seen[item.Ref()] = true
		}
	}
}

func TestGenerateUnderfilledSet(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.Slots = nil
	cfg.TotalItems = 10
	repo := newFakeRepo(cfg)
	repo.add(scaleItem(1, "A", "major", 1))
	repo.add(scaleItem(2, "B", "major", 2))

	items, err := newTestSelector(repo, 3).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items from a 2-item catalog, got %d", len(items))
	}
}

func TestArticulationModeContract(t *testing.T) {
	for _, tc := range []struct {
		mode model.ArticulationMode
		want model.Articulation
	}{
		{model.ArticulationSeparateOnly, model.ArticulationSeparate},
		{model.ArticulationSlurredOnly, model.ArticulationSlurred},
	} {
		cfg := config.DefaultAlgorithm()
		cfg.Slots = nil
		cfg.TotalItems = 1
		repo := newFakeRepo(cfg)
		item := scaleItem(1, "A", "major", 1)
		item.ArticulationMode = tc.mode
		repo.add(item)

		for seed := int64(0); seed < 15; seed++ {
			items, err := newTestSelector(repo, seed).Generate(context.Background())
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(items))
			}
			if items[0].Articulation != tc.want {
				t.Fatalf("mode %s: got articulation %s on seed %d", tc.mode, items[0].Articulation, seed)
			}
		}
	}
}

func TestSlurredPercentExtremes(t *testing.T) {
	for _, tc := range []struct {
		percent float64
		want    model.Articulation
	}{
		{0, model.ArticulationSeparate},
		{100, model.ArticulationSlurred},
	} {
		cfg := config.DefaultAlgorithm()
		cfg.Slots = nil
		cfg.TotalItems = 3
		cfg.SlurredPercent = tc.percent
		repo := newFakeRepo(cfg)
		for id := int64(1); id <= 3; id++ {
			repo.add(scaleItem(id, "A", "major", 1))
		}
		for seed := int64(0); seed < 10; seed++ {
			items, err := newTestSelector(repo, seed).Generate(context.Background())
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			for _, item := range items {
				if item.Articulation != tc.want {
					t.Fatalf("slurred_percent=%v: got %s", tc.percent, item.Articulation)
				}
			}
		}
	}
}

func TestWeeklyFocusFullReservation(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.Slots = nil
	cfg.TotalItems = 5
	cfg.WeeklyFocus.Enabled = true
	cfg.WeeklyFocus.Keys = []string{"A"}
	cfg.WeeklyFocus.ProbabilityIncrease = 100
	repo := newFakeRepo(cfg)
	for id := int64(1); id <= 3; id++ {
		repo.add(scaleItem(id, "A", "major", 1))
	}
	for id := int64(4); id <= 6; id++ {
		repo.add(scaleItem(id, "C", "major", 2))
	}

	for seed := int64(0); seed < 10; seed++ {
		items, err := newTestSelector(repo, seed).Generate(context.Background())
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(items) != 5 {
			t.Fatalf("seed %d: expected 5 items, got %d", seed, len(items))
		}
		focus := 0
		for _, item := range items {
			if item.IsWeeklyFocus {
				focus++
			}
		}
		// Only 3 focus items exist, so the fallback fills the last 2 slots.
		if focus != 3 {
			t.Fatalf("seed %d: expected 3 focus items, got %d", seed, focus)
		}
	}
}

func TestWeeklyFocusPartialReservation(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.Slots = nil
	cfg.TotalItems = 5
	cfg.WeeklyFocus.Enabled = true
	cfg.WeeklyFocus.Keys = []string{"A"}
	cfg.WeeklyFocus.ProbabilityIncrease = 60
	repo := newFakeRepo(cfg)
	for id := int64(1); id <= 5; id++ {
		repo.add(scaleItem(id, "A", "major", 1))
	}
	for id := int64(6); id <= 10; id++ {
		repo.add(scaleItem(id, "C", "major", 2))
	}

	for seed := int64(0); seed < 10; seed++ {
		items, err := newTestSelector(repo, seed).Generate(context.Background())
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		focus, nonFocus := 0, 0
		for _, item := range items {
			if item.IsWeeklyFocus {
				focus++
			} else {
				nonFocus++
			}
		}
		// round(5 * 0.6) = 3 reserved focus slots.
		if focus != 3 || nonFocus != 2 {
			t.Fatalf("seed %d: expected 3 focus / 2 non-focus, got %d / %d", seed, focus, nonFocus)
		}
	}
}

func TestSlotAllocation(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.TotalItems = 10
	cfg.Variation = 0
	cfg.Slots = []config.Slot{
		{Name: "Scales", Types: []string{"major"}, ItemType: model.CategoryScale, Percent: 50},
		{Name: "Arpeggios", Types: []string{"minor"}, ItemType: model.CategoryArpeggio, Percent: 50},
	}
	repo := newFakeRepo(cfg)
	for id := int64(1); id <= 8; id++ {
		repo.add(scaleItem(id, "A", "major", 1))
	}
	for id := int64(1); id <= 8; id++ {
		repo.add(model.CatalogItem{Category: model.CategoryArpeggio, ID: id, Note: "C", Type: "minor", Octaves: 2})
	}

	for seed := int64(0); seed < 10; seed++ {
		items, err := newTestSelector(repo, seed).Generate(context.Background())
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(items) != 10 {
			t.Fatalf("seed %d: expected 10 items, got %d", seed, len(items))
		}
		scales := 0
		for _, item := range items {
			if item.Category == model.CategoryScale {
				scales++
			}
		}
		// With zero variation each slot yields exactly its 50% share.
		if scales != 5 {
			t.Fatalf("seed %d: expected 5 scales, got %d", seed, scales)
		}
	}
}

func TestSlotShortfallFill(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.TotalItems = 4
	cfg.Variation = 0
	cfg.Slots = []config.Slot{
		{Name: "Chromatic", Types: []string{"chromatic"}, ItemType: model.CategoryScale, Percent: 100},
	}
	repo := newFakeRepo(cfg)
	repo.add(scaleItem(1, "A", "chromatic", 1))
	// The slot pool has one item; the fill phase must ignore slot limits.
	repo.add(scaleItem(2, "B", "major", 2))
	repo.add(scaleItem(3, "C", "major", 3))
	repo.add(scaleItem(4, "D", "major", 1))

	items, err := newTestSelector(repo, 7).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items after shortfall fill, got %d", len(items))
	}
}

func TestGenerateReproducible(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.Slots = nil
	repo := newFakeRepo(cfg)
	for id := int64(1); id <= 10; id++ {
		repo.add(scaleItem(id, "A", "major", int(id%3)+1))
	}

	first, err := newTestSelector(repo, 42).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	second, err := newTestSelector(repo, 42).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("item %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestTargetBPMDefaults(t *testing.T) {
	cfg := config.DefaultAlgorithm()
	cfg.Slots = nil
	cfg.TotalItems = 2
	repo := newFakeRepo(cfg)
	withBPM := scaleItem(1, "A", "major", 1)
	withBPM.TargetBPM = 96
	repo.add(withBPM)
	repo.add(model.CatalogItem{Category: model.CategoryArpeggio, ID: 2, Note: "C", Type: "minor", Octaves: 2})

	items, err := newTestSelector(repo, 5).Generate(context.Background())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, item := range items {
		switch item.ID {
		case 1:
			if item.TargetBPM != 96 {
				t.Fatalf("expected item target BPM 96, got %d", item.TargetBPM)
			}
		case 2:
			if item.TargetBPM != config.DefaultArpeggioBPM {
				t.Fatalf("expected arpeggio default BPM %d, got %d", config.DefaultArpeggioBPM, item.TargetBPM)
			}
		}
	}
}
