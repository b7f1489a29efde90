package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brojonat/minisolscan/service/prefs"
	"github.com/jackc/pgx/v5"
)

var _ prefs.Store = (*Store)(nil)

// Get returns the preference stored under key, or prefs.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM preferences WHERE key = $1`, key).Scan(&value)
	s.observe("get", "preferences", start, err)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", prefs.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preference %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a preference.
func (s *Store) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preferences (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	s.observe("set", "preferences", start, err)

	if err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}
