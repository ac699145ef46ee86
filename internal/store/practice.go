package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/arcoapp/arco/internal/model"
)

// InsertSession stores a practice session with its entries. An entry counts
// as practiced when either articulation was played, regardless of the
// legacy was_practiced flag.
func (s *Store) InsertSession(ctx context.Context, entries []model.PracticeEntry) (model.SessionSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.SessionSummary{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO practice_sessions (created_at) VALUES (?)`, now.Format(time.RFC3339Nano))
	if err != nil {
		return model.SessionSummary{}, err
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return model.SessionSummary{}, err
	}

	practiced := 0
	if len(entries) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO practice_entries (session_id, item_type, item_id, articulation, was_practiced, practiced_slurred, practiced_separate, practiced_bpm, target_bpm, matched_target_bpm, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return model.SessionSummary{}, err
		}
		defer closeStmt(stmt)
		for _, entry := range entries {
			wasPracticed := entry.WasPracticed || entry.PracticedSlurred || entry.PracticedSeparate
			if wasPracticed {
				practiced++
			}
			if _, err = stmt.ExecContext(ctx,
				sessionID,
				entry.ItemType,
				entry.ItemID,
				nullString(string(entry.Articulation)),
				wasPracticed,
				entry.PracticedSlurred,
				entry.PracticedSeparate,
				nullInt(entry.PracticedBPM),
				nullInt(entry.TargetBPM),
				entry.MatchedTargetBPM,
				now.Format(time.RFC3339Nano),
			); err != nil {
				return model.SessionSummary{}, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return model.SessionSummary{}, err
	}
	return model.SessionSummary{
		ID:             sessionID,
		CreatedAt:      now,
		EntriesCount:   len(entries),
		PracticedCount: practiced,
	}, nil
}

// PracticeStats returns how often and how recently one item was practiced.
func (s *Store) PracticeStats(ctx context.Context, category model.Category, id int64) (model.PracticeStats, error) {
	var (
		count int
		last  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(created_at) FROM practice_entries
		 WHERE item_type = ? AND item_id = ? AND was_practiced = 1`,
		category, id).Scan(&count, &last)
	if err != nil {
		return model.PracticeStats{}, err
	}
	stats := model.PracticeStats{Count: count}
	if last.Valid {
		parsed, err := time.Parse(time.RFC3339Nano, last.String)
		if err != nil {
			return model.PracticeStats{}, err
		}
		stats.Practiced = true
		days := int(time.Since(parsed).Hours() / 24)
		if days < 0 {
			days = 0
		}
		stats.DaysSince = days
	}
	return stats, nil
}

type entryAggregate struct {
	totalSessions  int
	timesPracticed int
	lastPracticed  sql.NullString
	maxBPM         sql.NullInt64
}

// History returns practice aggregates for every enabled item, least
// practiced first. An empty category returns both categories.
func (s *Store) History(ctx context.Context, category model.Category) ([]model.HistoryItem, error) {
	categories := []model.Category{model.CategoryScale, model.CategoryArpeggio}
	if category != "" {
		if !category.Valid() {
			return nil, errInvalidCategory(category)
		}
		categories = []model.Category{category}
	}

	var history []model.HistoryItem
	for _, cat := range categories {
		items, err := s.ListEnabledItems(ctx, cat)
		if err != nil {
			return nil, err
		}
		aggs, err := s.entryAggregates(ctx, cat)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			agg := aggs[item.ID]
			row := model.HistoryItem{
				ItemType:       cat,
				ItemID:         item.ID,
				DisplayName:    item.DisplayName(),
				TotalSessions:  agg.totalSessions,
				TimesPracticed: agg.timesPracticed,
				TargetBPM:      item.TargetBPM,
			}
			if agg.lastPracticed.Valid {
				parsed, err := time.Parse(time.RFC3339Nano, agg.lastPracticed.String)
				if err != nil {
					return nil, err
				}
				row.LastPracticed = &parsed
			}
			if agg.maxBPM.Valid {
				row.MaxPracticedBPM = int(agg.maxBPM.Int64)
			}
			history = append(history, row)
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].TimesPracticed < history[j].TimesPracticed
	})
	return history, nil
}

func (s *Store) entryAggregates(ctx context.Context, category model.Category) (map[int64]entryAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, COUNT(*),
			SUM(was_practiced),
			MAX(CASE WHEN was_practiced = 1 THEN created_at END),
			MAX(CASE WHEN was_practiced = 1 THEN practiced_bpm END)
		 FROM practice_entries
		 WHERE item_type = ?
		 GROUP BY item_id`, category)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	aggs := map[int64]entryAggregate{}
	for rows.Next() {
		var (
			id  int64
			agg entryAggregate
		)
		if err := rows.Scan(&id, &agg.totalSessions, &agg.timesPracticed, &agg.lastPracticed, &agg.maxBPM); err != nil {
			return nil, err
		}
		aggs[id] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggs, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
