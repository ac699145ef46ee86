package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arcoapp/arco/internal/model"
)

// Catalog seeding grid, one row per combination.
var (
	seedNotes         = []string{"A", "B", "C", "D", "E", "F", "G"}
	seedAccidentals   = []string{"", "flat", "sharp"}
	seedScaleTypes    = []string{"major", "minor_harmonic", "minor_melodic", "chromatic"}
	seedArpeggioTypes = []string{"major", "minor", "diminished", "dominant"}
	seedOctaves       = []int{1, 2, 3}
)

// CatalogUpdate describes a partial item update. Nil fields are left unchanged.
type CatalogUpdate struct {
	Enabled          *bool
	Weight           *float64
	TargetBPM        *int // <= 0 clears the target
	ArticulationMode *model.ArticulationMode
}

// SeedResult reports what SeedCatalog did.
type SeedResult struct {
	Scales    int  `json:"scales"`
	Arpeggios int  `json:"arpeggios"`
	Seeded    bool `json:"seeded"`
}

func errInvalidCategory(category model.Category) error {
	return fmt.Errorf("unknown category %q", category)
}

func tableFor(category model.Category) (string, error) {
	switch category {
	case model.CategoryScale:
		return "scales", nil
	case model.CategoryArpeggio:
		return "arpeggios", nil
	}
	return "", errInvalidCategory(category)
}

const catalogColumns = `id, note, accidental, type, octaves, enabled, weight, target_bpm, articulation_mode, created_at`

func scanItem(category model.Category, scan func(dest ...any) error) (model.CatalogItem, error) {
	var (
		item      model.CatalogItem
		targetBPM sql.NullInt64
		createdAt string
	)
	item.Category = category
	if err := scan(&item.ID, &item.Note, &item.Accidental, &item.Type, &item.Octaves,
		&item.Enabled, &item.Weight, &targetBPM, &item.ArticulationMode, &createdAt); err != nil {
		return model.CatalogItem{}, err
	}
	if targetBPM.Valid {
		item.TargetBPM = int(targetBPM.Int64)
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.CatalogItem{}, err
	}
	item.CreatedAt = parsed
	return item, nil
}

// ListItems returns catalog items of one category matching the filter,
// ordered by note, accidental, type, octaves.
func (s *Store) ListItems(ctx context.Context, category model.Category, filter model.CatalogFilter) ([]model.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Note != "" {
		clauses = append(clauses, "note = ?")
		args = append(args, filter.Note)
	}
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Octaves > 0 {
		clauses = append(clauses, "octaves = ?")
		args = append(args, filter.Octaves)
	}
	if filter.Enabled != nil {
		clauses = append(clauses, "enabled = ?")
		args = append(args, *filter.Enabled)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY note, accidental, type, octaves`,
		catalogColumns, table, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var items []model.CatalogItem
	for rows.Next() {
		item, err := scanItem(category, rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListEnabledItems returns the enabled items of one category.
func (s *Store) ListEnabledItems(ctx context.Context, category model.Category) ([]model.CatalogItem, error) {
	enabled := true
	return s.ListItems(ctx, category, model.CatalogFilter{Enabled: &enabled})
}

// GetItem fetches a single catalog item.
func (s *Store) GetItem(ctx context.Context, category model.Category, id int64) (model.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return model.CatalogItem{}, err
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, catalogColumns, table), id)
	item, err := scanItem(category, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CatalogItem{}, ErrNotFound
	}
	if err != nil {
		return model.CatalogItem{}, err
	}
	return item, nil
}

// UpdateItem applies a partial update and returns the updated item.
func (s *Store) UpdateItem(ctx context.Context, category model.Category, id int64, update CatalogUpdate) (model.CatalogItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return model.CatalogItem{}, err
	}
	sets := []string{}
	args := []any{}
	if update.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, *update.Enabled)
	}
	if update.Weight != nil {
		sets = append(sets, "weight = ?")
		args = append(args, *update.Weight)
	}
	if update.TargetBPM != nil {
		sets = append(sets, "target_bpm = ?")
		if *update.TargetBPM > 0 {
			args = append(args, *update.TargetBPM)
		} else {
			args = append(args, nil)
		}
	}
	if update.ArticulationMode != nil {
		if !update.ArticulationMode.Valid() {
			return model.CatalogItem{}, fmt.Errorf("invalid articulation mode %q", *update.ArticulationMode)
		}
		sets = append(sets, "articulation_mode = ?")
		args = append(args, *update.ArticulationMode)
	}
	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, table, strings.Join(sets, ", ")), args...)
		if err != nil {
			return model.CatalogItem{}, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return model.CatalogItem{}, err
		}
		if affected == 0 {
			return model.CatalogItem{}, ErrNotFound
		}
	}
	return s.GetItem(ctx, category, id)
}

// BulkEnable flips the enabled flag for the given ids and reports how many
// rows changed.
func (s *Store) BulkEnable(ctx context.Context, category model.Category, ids []int64, enabled bool) (int64, error) {
	return s.bulkUpdate(ctx, category, ids, "enabled = ?", enabled)
}

// BulkArticulation sets the articulation mode for the given ids.
func (s *Store) BulkArticulation(ctx context.Context, category model.Category, ids []int64, mode model.ArticulationMode) (int64, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("invalid articulation mode %q", mode)
	}
	return s.bulkUpdate(ctx, category, ids, "articulation_mode = ?", mode)
}

func (s *Store) bulkUpdate(ctx context.Context, category model.Category, ids []int64, set string, value any) (int64, error) {
	table, err := tableFor(category)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := []any{value}
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s WHERE id IN (%s)`, table, set, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SeedCatalog fills an empty catalog with every note/accidental/type/octave
// combination, disabled and at base weight. A non-empty catalog is left
// untouched.
func (s *Store) SeedCatalog(ctx context.Context) (SeedResult, error) {
	var existing int
	if err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM scales) + (SELECT COUNT(*) FROM arpeggios)`).Scan(&existing); err != nil {
		return SeedResult{}, err
	}
	if existing > 0 {
		var scales, arpeggios int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scales`).Scan(&scales); err != nil {
			return SeedResult{}, err
		}
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM arpeggios`).Scan(&arpeggios); err != nil {
			return SeedResult{}, err
		}
		return SeedResult{Scales: scales, Arpeggios: arpeggios, Seeded: false}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SeedResult{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	result := SeedResult{Seeded: true}
	for _, grid := range []struct {
		table string
		types []string
		count *int
	}{
		{"scales", seedScaleTypes, &result.Scales},
		{"arpeggios", seedArpeggioTypes, &result.Arpeggios},
	} {
		stmt, perr := tx.PrepareContext(ctx, fmt.Sprintf(
			`INSERT INTO %s (note, accidental, type, octaves, enabled, weight, created_at) VALUES (?, ?, ?, ?, 0, 1.0, ?)`,
			grid.table))
		if perr != nil {
			err = perr
			return SeedResult{}, err
		}
		for _, note := range seedNotes {
			for _, accidental := range seedAccidentals {
				for _, subtype := range grid.types {
					for _, octaves := range seedOctaves {
						if _, err = stmt.ExecContext(ctx, note, accidental, subtype, octaves, now); err != nil {
							closeStmt(stmt)
							return SeedResult{}, err
						}
						*grid.count++
					}
				}
			}
		}
		closeStmt(stmt)
	}

	if err = tx.Commit(); err != nil {
		return SeedResult{}, err
	}
	return result, nil
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}
