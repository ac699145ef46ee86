package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arcoapp/arco/internal/config"
)

const algorithmSettingKey = "selection_algorithm"

// AlgorithmConfig loads the persisted selection algorithm configuration.
// When none is stored, the documented defaults apply; stored values are
// layered over the defaults so missing fields keep their default.
func (s *Store) AlgorithmConfig(ctx context.Context) (config.Algorithm, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, algorithmSettingKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return config.DefaultAlgorithm(), nil
	}
	if err != nil {
		return config.Algorithm{}, err
	}
	cfg := config.DefaultAlgorithm()
	if err := json.Unmarshal([]byte(value), &cfg); err != nil {
		return config.Algorithm{}, fmt.Errorf("failed to decode algorithm config: %w", err)
	}
	return cfg.Normalize(), nil
}

// SaveAlgorithmConfig persists the configuration, normalized.
func (s *Store) SaveAlgorithmConfig(ctx context.Context, cfg config.Algorithm) error {
	data, err := json.Marshal(cfg.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode algorithm config: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		algorithmSettingKey, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// ResetAlgorithmConfig restores the default configuration.
func (s *Store) ResetAlgorithmConfig(ctx context.Context) error {
	return s.SaveAlgorithmConfig(ctx, config.DefaultAlgorithm())
}
