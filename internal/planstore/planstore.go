// Package planstore caches the last plan fetched from the planning API per user.
package planstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/sqlite"
)

// Cached is a stored plan.
type Cached struct {
	Workouts  []plan.Workout
	FetchedAt time.Time
}

type Store struct {
	db  *sqlite.Database
	now func() time.Time
}

func New(db *sqlite.Database) *Store {
	return &Store{db: db, now: time.Now}
}

// Save replaces the user's cached plan. Workouts are stored as their original JSON objects.
func (s *Store) Save(ctx context.Context, userID string, workouts []plan.Workout) error {
	if workouts == nil {
		workouts = []plan.Workout{}
	}
	body, err := json.Marshal(workouts)
	if err != nil {
		return fmt.Errorf("marshal workouts: %w", err)
	}
	_, err = s.db.ReadWrite.ExecContext(ctx, `INSERT INTO plan_cache (user_id, body, fetched_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		userID, string(body), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, "upsert plan cache", slog.String("user_id", userID))
	}
	return nil
}

// Load returns the user's cached plan. It reports false when nothing is cached.
func (s *Store) Load(ctx context.Context, userID string) (Cached, bool, error) {
	var body, fetchedAt string
	err := s.db.ReadOnly.QueryRowContext(ctx, `SELECT body, fetched_at FROM plan_cache WHERE user_id = ?`, userID).
		Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Cached{}, false, nil
	}
	if err != nil {
		return Cached{}, false, errors.Wrap(err, "select plan cache", slog.String("user_id", userID))
	}
	workouts, err := plan.DecodeWorkouts([]byte(body))
	if err != nil {
		return Cached{}, false, fmt.Errorf("decode cached plan: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return Cached{}, false, fmt.Errorf("parse fetched_at: %w", err)
	}
	return Cached{Workouts: workouts, FetchedAt: at}, true, nil
}

// Delete forgets the user's cached plan.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ReadWrite.ExecContext(ctx, `DELETE FROM plan_cache WHERE user_id = ?`, userID); err != nil {
		return errors.Wrap(err, "delete plan cache", slog.String("user_id", userID))
	}
	return nil
}

// Count returns how many users have a cached plan. It doubles as a readiness probe of the database.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.ReadOnly.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_cache`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count cached plans")
	}
	return n, nil
}
