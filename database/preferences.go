package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const createPreferencesTable = `
	CREATE TABLE IF NOT EXISTS visitor_preferences (
		pref_key   VARCHAR(191) NOT NULL PRIMARY KEY,
		pref_value VARCHAR(255) NOT NULL,
		updated_at DATETIME NOT NULL
	)
`

// PreferenceStore persists visitor preferences in MySQL.
type PreferenceStore struct {
	conn *Connection
}

func NewPreferenceStore(conn *Connection) *PreferenceStore {
	return &PreferenceStore{conn: conn}
}

// EnsureSchema creates the preferences table when it is missing.
func (s *PreferenceStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.db.ExecContext(ctx, createPreferencesTable); err != nil {
		return fmt.Errorf("error creating visitor_preferences: %w", err)
	}
	return nil
}

func (s *PreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var value string
	err := s.conn.db.QueryRowContext(ctx,
		`SELECT pref_value FROM visitor_preferences WHERE pref_key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error reading preference %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PreferenceStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.conn.db.ExecContext(ctx, `
		INSERT INTO visitor_preferences (pref_key, pref_value, updated_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE pref_value = VALUES(pref_value), updated_at = NOW()
	`, key, value)
	if err != nil {
		s.conn.logger.Error().Err(err).Str("key", key).Msg("Error writing preference")
		return fmt.Errorf("error writing preference %s: %w", key, err)
	}
	return nil
}
