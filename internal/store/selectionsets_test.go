package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/arcoapp/arco/internal/model"
)

func TestCreateSelectionSetCapturesEnabled(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	if _, err := st.BulkEnable(ctx, model.CategoryScale, []int64{1, 2, 3}, true); err != nil {
		t.Fatalf("failed to enable scales: %v", err)
	}
	if _, err := st.BulkEnable(ctx, model.CategoryArpeggio, []int64{5}, true); err != nil {
		t.Fatalf("failed to enable arpeggios: %v", err)
	}

	set, err := st.CreateSelectionSet(ctx, "  warmup  ")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}
	if set.Name != "warmup" {
		t.Errorf("name = %q, want trimmed %q", set.Name, "warmup")
	}
	if set.Active {
		t.Error("new set should not be active")
	}
	if !reflect.DeepEqual(set.ScaleIDs, []int64{1, 2, 3}) {
		t.Errorf("scale ids = %v, want [1 2 3]", set.ScaleIDs)
	}
	if !reflect.DeepEqual(set.ArpeggioIDs, []int64{5}) {
		t.Errorf("arpeggio ids = %v, want [5]", set.ArpeggioIDs)
	}
}

func TestCreateSelectionSetRejectsDuplicateAndEmptyName(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	if _, err := st.CreateSelectionSet(ctx, "exam"); err != nil {
		t.Fatalf("failed to create set: %v", err)
	}
	if _, err := st.CreateSelectionSet(ctx, "exam"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("duplicate name: got %v, want ErrNameTaken", err)
	}
	if _, err := st.CreateSelectionSet(ctx, "   "); err == nil {
		t.Fatal("blank name accepted")
	}
}

func TestLoadSelectionSetReplacesSelection(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	if _, err := st.BulkEnable(ctx, model.CategoryScale, []int64{1, 2}, true); err != nil {
		t.Fatalf("failed to enable scales: %v", err)
	}
	set, err := st.CreateSelectionSet(ctx, "scales only")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}

	// Change the live selection, then load the saved set back.
	if _, err := st.BulkEnable(ctx, model.CategoryScale, []int64{1, 2}, false); err != nil {
		t.Fatalf("failed to disable scales: %v", err)
	}
	if _, err := st.BulkEnable(ctx, model.CategoryArpeggio, []int64{7, 8, 9}, true); err != nil {
		t.Fatalf("failed to enable arpeggios: %v", err)
	}

	result, err := st.LoadSelectionSet(ctx, set.ID)
	if err != nil {
		t.Fatalf("failed to load set: %v", err)
	}
	if result.ScalesEnabled != 2 || result.ArpeggiosEnabled != 0 {
		t.Fatalf("load result = %+v, want 2 scales, 0 arpeggios", result)
	}

	scales, err := st.ListEnabledItems(ctx, model.CategoryScale)
	if err != nil {
		t.Fatalf("failed to list scales: %v", err)
	}
	if len(scales) != 2 {
		t.Errorf("enabled scales = %d, want 2", len(scales))
	}
	arpeggios, err := st.ListEnabledItems(ctx, model.CategoryArpeggio)
	if err != nil {
		t.Fatalf("failed to list arpeggios: %v", err)
	}
	if len(arpeggios) != 0 {
		t.Errorf("enabled arpeggios = %d, want 0", len(arpeggios))
	}

	active, err := st.ActiveSelectionSet(ctx)
	if err != nil {
		t.Fatalf("failed to get active set: %v", err)
	}
	if active.ID != set.ID {
		t.Errorf("active set = %d, want %d", active.ID, set.ID)
	}
}

func TestLoadSelectionSetSwitchesActive(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	first, err := st.CreateSelectionSet(ctx, "first")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}
	second, err := st.CreateSelectionSet(ctx, "second")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}

	if _, err := st.LoadSelectionSet(ctx, first.ID); err != nil {
		t.Fatalf("failed to load first: %v", err)
	}
	if _, err := st.LoadSelectionSet(ctx, second.ID); err != nil {
		t.Fatalf("failed to load second: %v", err)
	}

	active, err := st.ActiveSelectionSet(ctx)
	if err != nil {
		t.Fatalf("failed to get active set: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active set = %d, want %d", active.ID, second.ID)
	}
	reloaded, err := st.GetSelectionSet(ctx, first.ID)
	if err != nil {
		t.Fatalf("failed to get first set: %v", err)
	}
	if reloaded.Active {
		t.Error("first set still active after loading second")
	}
}

func TestDeactivateSelectionSets(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	if _, err := st.BulkEnable(ctx, model.CategoryScale, []int64{1}, true); err != nil {
		t.Fatalf("failed to enable scale: %v", err)
	}
	set, err := st.CreateSelectionSet(ctx, "temp")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}
	if _, err := st.LoadSelectionSet(ctx, set.ID); err != nil {
		t.Fatalf("failed to load set: %v", err)
	}

	if err := st.DeactivateSelectionSets(ctx); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}
	if _, err := st.ActiveSelectionSet(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("active after deactivate: got %v, want ErrNotFound", err)
	}
	scales, err := st.ListEnabledItems(ctx, model.CategoryScale)
	if err != nil {
		t.Fatalf("failed to list scales: %v", err)
	}
	if len(scales) != 0 {
		t.Errorf("enabled scales = %d, want 0 after deactivate", len(scales))
	}
}

func TestUpdateSelectionSet(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	set, err := st.CreateSelectionSet(ctx, "draft")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}

	name := "final"
	updated, err := st.UpdateSelectionSet(ctx, set.ID, SelectionSetUpdate{
		Name:     &name,
		ScaleIDs: []int64{4, 5},
	})
	if err != nil {
		t.Fatalf("failed to update set: %v", err)
	}
	if updated.Name != "final" {
		t.Errorf("name = %q, want %q", updated.Name, "final")
	}
	if !reflect.DeepEqual(updated.ScaleIDs, []int64{4, 5}) {
		t.Errorf("scale ids = %v, want [4 5]", updated.ScaleIDs)
	}

	// FromCurrent recaptures the live selection.
	if _, err := st.BulkEnable(ctx, model.CategoryArpeggio, []int64{10}, true); err != nil {
		t.Fatalf("failed to enable arpeggio: %v", err)
	}
	updated, err = st.UpdateSelectionSet(ctx, set.ID, SelectionSetUpdate{FromCurrent: true})
	if err != nil {
		t.Fatalf("failed to update from current: %v", err)
	}
	if !reflect.DeepEqual(updated.ArpeggioIDs, []int64{10}) {
		t.Errorf("arpeggio ids = %v, want [10]", updated.ArpeggioIDs)
	}

	other, err := st.CreateSelectionSet(ctx, "other")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}
	taken := "final"
	if _, err := st.UpdateSelectionSet(ctx, other.ID, SelectionSetUpdate{Name: &taken}); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("rename to taken name: got %v, want ErrNameTaken", err)
	}
}

func TestDeleteSelectionSet(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	set, err := st.CreateSelectionSet(ctx, "gone")
	if err != nil {
		t.Fatalf("failed to create set: %v", err)
	}
	if err := st.DeleteSelectionSet(ctx, set.ID); err != nil {
		t.Fatalf("failed to delete set: %v", err)
	}
	if _, err := st.GetSelectionSet(ctx, set.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
	if err := st.DeleteSelectionSet(ctx, set.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestListSelectionSetsOrderedByName(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := st.CreateSelectionSet(ctx, name); err != nil {
			t.Fatalf("failed to create %q: %v", name, err)
		}
	}
	sets, err := st.ListSelectionSets(ctx)
	if err != nil {
		t.Fatalf("failed to list sets: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("got %d sets, want 3", len(sets))
	}
	if sets[0].Name != "alpha" || sets[1].Name != "mid" || sets[2].Name != "zeta" {
		t.Errorf("sets out of order: %q, %q, %q", sets[0].Name, sets[1].Name, sets[2].Name)
	}
}
