package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arcoapp/arco/internal/model"
)

// ErrNameTaken is returned when a selection set name is already in use.
var ErrNameTaken = errors.New("selection set name already in use")

// SelectionSetUpdate describes a partial selection set update. A nil name
// or nil ID slice is left unchanged; FromCurrent overrides the ID slices
// with the currently enabled items.
type SelectionSetUpdate struct {
	Name        *string
	ScaleIDs    []int64
	ArpeggioIDs []int64
	FromCurrent bool
}

// LoadResult reports how many items a loaded selection set enabled.
type LoadResult struct {
	ScalesEnabled    int64 `json:"scales_enabled"`
	ArpeggiosEnabled int64 `json:"arpeggios_enabled"`
}

const selectionSetColumns = `id, name, is_active, scale_ids, arpeggio_ids, created_at, updated_at`

func scanSelectionSet(row interface{ Scan(...any) error }) (model.SelectionSet, error) {
	var (
		set       model.SelectionSet
		active    int
		scaleJSON string
		arpJSON   string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&set.ID, &set.Name, &active, &scaleJSON, &arpJSON, &createdAt, &updatedAt); err != nil {
		return model.SelectionSet{}, err
	}
	set.Active = active != 0
	if err := json.Unmarshal([]byte(scaleJSON), &set.ScaleIDs); err != nil {
		return model.SelectionSet{}, fmt.Errorf("bad scale_ids for set %d: %w", set.ID, err)
	}
	if err := json.Unmarshal([]byte(arpJSON), &set.ArpeggioIDs); err != nil {
		return model.SelectionSet{}, fmt.Errorf("bad arpeggio_ids for set %d: %w", set.ID, err)
	}
	var err error
	if set.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.SelectionSet{}, err
	}
	if set.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return model.SelectionSet{}, err
	}
	return set, nil
}

func marshalIDs(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ListSelectionSets returns all saved selection sets ordered by name.
func (s *Store) ListSelectionSets(ctx context.Context) ([]model.SelectionSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectionSetColumns+` FROM selection_sets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sets []model.SelectionSet
	for rows.Next() {
		set, err := scanSelectionSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

// GetSelectionSet returns one selection set by id.
func (s *Store) GetSelectionSet(ctx context.Context, id int64) (model.SelectionSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectionSetColumns+` FROM selection_sets WHERE id = ?`, id)
	set, err := scanSelectionSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SelectionSet{}, ErrNotFound
	}
	return set, err
}

// GetSelectionSetByName returns one selection set by its exact name.
func (s *Store) GetSelectionSetByName(ctx context.Context, name string) (model.SelectionSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectionSetColumns+` FROM selection_sets WHERE name = ?`, name)
	set, err := scanSelectionSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SelectionSet{}, ErrNotFound
	}
	return set, err
}

// ActiveSelectionSet returns the active selection set, or ErrNotFound when
// no set is active.
func (s *Store) ActiveSelectionSet(ctx context.Context) (model.SelectionSet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectionSetColumns+` FROM selection_sets WHERE is_active = 1 LIMIT 1`)
	set, err := scanSelectionSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SelectionSet{}, ErrNotFound
	}
	return set, err
}

// CreateSelectionSet captures the currently enabled items under a new name.
func (s *Store) CreateSelectionSet(ctx context.Context, name string) (model.SelectionSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.SelectionSet{}, fmt.Errorf("selection set name must not be empty")
	}
	if _, err := s.GetSelectionSetByName(ctx, name); err == nil {
		return model.SelectionSet{}, ErrNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return model.SelectionSet{}, err
	}

	scaleIDs, err := s.enabledIDs(ctx, model.CategoryScale)
	if err != nil {
		return model.SelectionSet{}, err
	}
	arpeggioIDs, err := s.enabledIDs(ctx, model.CategoryArpeggio)
	if err != nil {
		return model.SelectionSet{}, err
	}
	scaleJSON, err := marshalIDs(scaleIDs)
	if err != nil {
		return model.SelectionSet{}, err
	}
	arpJSON, err := marshalIDs(arpeggioIDs)
	if err != nil {
		return model.SelectionSet{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO selection_sets (name, is_active, scale_ids, arpeggio_ids, created_at, updated_at)
		 VALUES (?, 0, ?, ?, ?, ?)`,
		name, scaleJSON, arpJSON, now, now)
	if err != nil {
		return model.SelectionSet{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.SelectionSet{}, err
	}
	return s.GetSelectionSet(ctx, id)
}

// UpdateSelectionSet renames a set and/or replaces its captured selection.
func (s *Store) UpdateSelectionSet(ctx context.Context, id int64, update SelectionSetUpdate) (model.SelectionSet, error) {
	set, err := s.GetSelectionSet(ctx, id)
	if err != nil {
		return model.SelectionSet{}, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return model.SelectionSet{}, fmt.Errorf("selection set name must not be empty")
		}
		if other, err := s.GetSelectionSetByName(ctx, name); err == nil && other.ID != id {
			return model.SelectionSet{}, ErrNameTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return model.SelectionSet{}, err
		}
		set.Name = name
	}

	if update.FromCurrent {
		if set.ScaleIDs, err = s.enabledIDs(ctx, model.CategoryScale); err != nil {
			return model.SelectionSet{}, err
		}
		if set.ArpeggioIDs, err = s.enabledIDs(ctx, model.CategoryArpeggio); err != nil {
			return model.SelectionSet{}, err
		}
	} else {
		if update.ScaleIDs != nil {
			set.ScaleIDs = update.ScaleIDs
		}
		if update.ArpeggioIDs != nil {
			set.ArpeggioIDs = update.ArpeggioIDs
		}
	}

	scaleJSON, err := marshalIDs(set.ScaleIDs)
	if err != nil {
		return model.SelectionSet{}, err
	}
	arpJSON, err := marshalIDs(set.ArpeggioIDs)
	if err != nil {
		return model.SelectionSet{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE selection_sets SET name = ?, scale_ids = ?, arpeggio_ids = ?, updated_at = ? WHERE id = ?`,
		set.Name, scaleJSON, arpJSON, time.Now().UTC().Format(time.RFC3339Nano), id); err != nil {
		return model.SelectionSet{}, err
	}
	return s.GetSelectionSet(ctx, id)
}

// DeleteSelectionSet removes a selection set.
func (s *Store) DeleteSelectionSet(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM selection_sets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadSelectionSet applies a set: its items become the enabled selection,
// everything else is disabled, and the set becomes the single active one.
func (s *Store) LoadSelectionSet(ctx context.Context, id int64) (LoadResult, error) {
	set, err := s.GetSelectionSet(ctx, id)
	if err != nil {
		return LoadResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LoadResult{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE selection_sets SET is_active = 0 WHERE is_active = 1`); err != nil {
		return LoadResult{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE scales SET enabled = 0`); err != nil {
		return LoadResult{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE arpeggios SET enabled = 0`); err != nil {
		return LoadResult{}, err
	}

	var result LoadResult
	if result.ScalesEnabled, err = enableIDsTx(ctx, tx, "scales", set.ScaleIDs); err != nil {
		return LoadResult{}, err
	}
	if result.ArpeggiosEnabled, err = enableIDsTx(ctx, tx, "arpeggios", set.ArpeggioIDs); err != nil {
		return LoadResult{}, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE selection_sets SET is_active = 1 WHERE id = ?`, id); err != nil {
		return LoadResult{}, err
	}
	if err = tx.Commit(); err != nil {
		return LoadResult{}, err
	}
	return result, nil
}

// DeactivateSelectionSets deactivates every set and disables every item.
func (s *Store) DeactivateSelectionSets(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE selection_sets SET is_active = 0 WHERE is_active = 1`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE scales SET enabled = 0`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE arpeggios SET enabled = 0`); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) enabledIDs(ctx context.Context, category model.Category) ([]int64, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE enabled = 1 ORDER BY id`, table))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func enableIDsTx(ctx context.Context, tx *sql.Tx, table string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET enabled = 1 WHERE id IN (%s)`, table, placeholders), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
