package database

import (
	"context"
	"fmt"
)

// GetSetting returns the value stored under key.
func (d *Database) GetSetting(ctx context.Context, key string) (string, error) {
	return getOne(ctx, d.db, "get_setting", func(r RowScanner) (string, error) {
		var v string
		err := r.Scan(&v)
		return v, err
	}, `SELECT value FROM settings WHERE key = ?`, key)
}

// SetSetting stores value under key, replacing any previous value.
func (d *Database) SetSetting(ctx context.Context, key, value string) error {
	_, err := execOn(ctx, d.db, "set_setting",
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes key. Deleting a missing key returns ErrNotFound.
func (d *Database) DeleteSetting(ctx context.Context, key string) error {
	n, err := execOn(ctx, d.db, "delete_setting", `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSettings returns all settings ordered by key.
func (d *Database) ListSettings(ctx context.Context) ([]Setting, error) {
	return selectOn(ctx, d.db, "list_settings", func(r RowScanner) (Setting, error) {
		var s Setting
		err := r.Scan(&s.Key, &s.Value)
		return s, err
	}, `SELECT key, value FROM settings ORDER BY key`)
}
