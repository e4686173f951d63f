package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingsStore is a small key/value table for UI state that outlives a
// session (viewport, active canvas).
type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored value and whether it exists.
func (s *SettingsStore) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.queryRow(ctx, `SELECT value FROM app_settings WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", name, err)
	}
	return value, true, nil
}

// Set stores value under name.
func (s *SettingsStore) Set(ctx context.Context, name, value string) error {
	if err := s.db.upsert(ctx, "app_settings", "name", name, []string{"name", "value"}, []any{name, value}); err != nil {
		return fmt.Errorf("set setting %s: %w", name, err)
	}
	return nil
}
