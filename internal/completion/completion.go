// Package completion keeps the local ledger of workouts marked done and delivers the changes to the planning API.
//
// A change is always stored locally first. Delivery is best-effort: when the API cannot be reached the row stays
// pending, together with the bearer token it was made with, and RetryPending tries again later. The token is kept
// only while the user is logged in: Suspend clears it at logout and Resume restores it at the next login.
package completion

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/sqlite"
)

const (
	// MaxAttempts bounds delivery attempts per change.
	MaxAttempts = 10
	retryBatch  = 100
)

// Completion is the local state of one workout.
type Completion struct {
	UserID      string
	WorkoutID   plan.ID
	Completed   bool
	CompletedAt *time.Time
	Synced      bool
	Attempts    int
	UpdatedAt   time.Time
}

// Apply returns w with completed_at reflecting the local state.
func (c Completion) Apply(w plan.Workout) (plan.Workout, error) {
	if !c.Completed {
		return w.WithCompletedAt(nil)
	}
	return w.WithCompletedAt(c.CompletedAt)
}

// Result of marking a workout.
type Result struct {
	Completion Completion
	// Synced is false when the planning API did not accept the change yet.
	Synced bool
}

// Syncer delivers a completion to the planning API.
type Syncer interface {
	MarkWorkoutComplete(ctx context.Context, token string, workoutID plan.ID, completed bool) error
}

type Service struct {
	db     *sqlite.Database
	api    Syncer
	logger *slog.Logger
	now    func() time.Time
}

func NewService(db *sqlite.Database, api Syncer, logger *slog.Logger) *Service {
	return &Service{db: db, api: api, logger: logger, now: time.Now}
}

// Mark records the completion state locally and then tries to deliver it. A failed delivery is not an error; the
// change stays pending and Result.Synced is false.
func (s *Service) Mark(ctx context.Context, userID, token string, workoutID plan.ID, completed bool) (Result, error) {
	now := s.now().UTC()
	c := Completion{
		UserID:      userID,
		WorkoutID:   workoutID,
		Completed:   completed,
		CompletedAt: nil,
		Synced:      false,
		Attempts:    0,
		UpdatedAt:   now,
	}
	if completed {
		at := now.Truncate(time.Second)
		c.CompletedAt = &at
	}

	_, err := s.db.ReadWrite.ExecContext(ctx, `INSERT INTO workout_completions
    (user_id, workout_id, completed, completed_at, synced, attempts, token, updated_at)
VALUES (?, ?, ?, ?, 0, 0, ?, ?)
ON CONFLICT (user_id, workout_id) DO UPDATE SET completed    = excluded.completed,
                                                completed_at = excluded.completed_at,
                                                synced       = 0,
                                                attempts     = 0,
                                                token        = excluded.token,
                                                updated_at   = excluded.updated_at`,
		userID, string(workoutID), completed, formatTime(c.CompletedAt), token, formatUpdatedAt(now))
	if err != nil {
		return Result{}, errors.Wrap(err, "store completion",
			slog.String("user_id", userID), slog.String("workout_id", string(workoutID)))
	}

	synced, err := s.deliver(ctx, pending{completion: c, token: token})
	if err != nil {
		return Result{}, err
	}
	c.Synced = synced
	c.Attempts = 1
	return Result{Completion: c, Synced: synced}, nil
}

type pending struct {
	completion Completion
	token      string
}

// deliver sends one change and records the attempt. The update only applies when the row still holds the same
// change, so a newer Mark is never overwritten. It returns an error only when the local update fails.
func (s *Service) deliver(ctx context.Context, p pending) (bool, error) {
	c := p.completion
	attrs := []slog.Attr{
		slog.String("user_id", c.UserID),
		slog.String("workout_id", string(c.WorkoutID)),
		slog.Bool("completed", c.Completed),
	}

	apiErr := s.api.MarkWorkoutComplete(ctx, p.token, c.WorkoutID, c.Completed)
	attempts := c.Attempts + 1

	var query string
	switch {
	case apiErr == nil:
		syncsTotal.WithLabelValues(outcomeSynced).Inc()
		query = `UPDATE workout_completions SET synced = 1, token = NULL, attempts = ?
WHERE user_id = ? AND workout_id = ? AND updated_at = ?`
	case permanent(apiErr) || attempts >= MaxAttempts:
		syncsTotal.WithLabelValues(outcomeAbandoned).Inc()
		s.logger.LogAttrs(ctx, slog.LevelWarn, "giving up on completion sync",
			append(attrs, slog.Int("attempts", attempts), errors.SlogError(apiErr))...)
		attempts = MaxAttempts
		query = `UPDATE workout_completions SET token = NULL, attempts = ?
WHERE user_id = ? AND workout_id = ? AND updated_at = ?`
	default:
		syncsTotal.WithLabelValues(outcomeFailed).Inc()
		s.logger.LogAttrs(ctx, slog.LevelWarn, "completion sync failed, kept pending",
			append(attrs, slog.Int("attempts", attempts), errors.SlogError(apiErr))...)
		query = `UPDATE workout_completions SET attempts = ?
WHERE user_id = ? AND workout_id = ? AND updated_at = ?`
	}

	if _, err := s.db.ReadWrite.ExecContext(ctx, query,
		attempts, c.UserID, string(c.WorkoutID), formatUpdatedAt(c.UpdatedAt)); err != nil {
		return false, errors.Wrap(err, "record sync attempt", attrs...)
	}
	return apiErr == nil, nil
}

// permanent reports API rejections that retrying cannot fix.
func permanent(err error) bool {
	var apiErr *planapi.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound,
		http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

// RetryPending delivers pending changes that have attempts left and returns how many were synced.
func (s *Service) RetryPending(ctx context.Context) (int, error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx, `SELECT user_id, workout_id, completed, completed_at, attempts,
       token, updated_at
FROM workout_completions
WHERE synced = 0 AND attempts < ? AND token IS NOT NULL
ORDER BY updated_at
LIMIT ?`, MaxAttempts, retryBatch)
	if err != nil {
		return 0, fmt.Errorf("query pending completions: %w", err)
	}
	var batch []pending
	for rows.Next() {
		var (
			p           pending
			completedAt sql.NullString
			updatedAt   string
		)
		if err = rows.Scan(&p.completion.UserID, &p.completion.WorkoutID, &p.completion.Completed, &completedAt,
			&p.completion.Attempts, &p.token, &updatedAt); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan pending completion: %w", err)
		}
		if p.completion.CompletedAt, p.completion.UpdatedAt, err = parseTimes(completedAt, updatedAt); err != nil {
			_ = rows.Close()
			return 0, err
		}
		batch = append(batch, p)
	}
	if err = errors.Join(rows.Err(), rows.Close()); err != nil {
		return 0, fmt.Errorf("iterate pending completions: %w", err)
	}

	synced := 0
	for _, p := range batch {
		if ctx.Err() != nil {
			break
		}
		ok, deliverErr := s.deliver(ctx, p)
		if deliverErr != nil {
			return synced, deliverErr
		}
		if ok {
			synced++
		}
	}
	if len(batch) > 0 {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "retried pending completions",
			slog.Int("pending", len(batch)), slog.Int("synced", synced))
	}
	return synced, nil
}

// Suspend drops the tokens kept for the user's pending changes. The changes stay pending without a token until
// Resume hands a new one; RetryPending skips them meanwhile.
func (s *Service) Suspend(ctx context.Context, userID string) error {
	if _, err := s.db.ReadWrite.ExecContext(ctx, `UPDATE workout_completions SET token = NULL
WHERE user_id = ? AND token IS NOT NULL`, userID); err != nil {
		return errors.Wrap(err, "clear completion tokens", slog.String("user_id", userID))
	}
	return nil
}

// Resume attaches token to the user's pending changes that have attempts left.
func (s *Service) Resume(ctx context.Context, userID, token string) error {
	if _, err := s.db.ReadWrite.ExecContext(ctx, `UPDATE workout_completions SET token = ?
WHERE user_id = ? AND synced = 0 AND attempts < ?`, token, userID, MaxAttempts); err != nil {
		return errors.Wrap(err, "set completion tokens", slog.String("user_id", userID))
	}
	return nil
}

// Completed returns the local completion state of the user's workouts keyed by workout id.
func (s *Service) Completed(ctx context.Context, userID string) (map[plan.ID]Completion, error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx, `SELECT workout_id, completed, completed_at, synced, attempts,
       updated_at
FROM workout_completions
WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	completions := make(map[plan.ID]Completion)
	for rows.Next() {
		c := Completion{UserID: userID} //nolint:exhaustruct // scanned below.
		var (
			completedAt sql.NullString
			updatedAt   string
		)
		if err = rows.Scan(&c.WorkoutID, &c.Completed, &completedAt, &c.Synced, &c.Attempts, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		if c.CompletedAt, c.UpdatedAt, err = parseTimes(completedAt, updatedAt); err != nil {
			return nil, err
		}
		completions[c.WorkoutID] = c
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return completions, nil
}

// Get returns the local completion state of one workout.
func (s *Service) Get(ctx context.Context, userID string, workoutID plan.ID) (Completion, bool, error) {
	all, err := s.Completed(ctx, userID)
	if err != nil {
		return Completion{}, false, err
	}
	c, ok := all[workoutID]
	return c, ok, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func formatUpdatedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimes(completedAt sql.NullString, updatedAt string) (*time.Time, time.Time, error) {
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if !completedAt.Valid {
		return nil, updated, nil
	}
	at, err := time.Parse(time.RFC3339, completedAt.String)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse completed_at: %w", err)
	}
	return &at, updated, nil
}
