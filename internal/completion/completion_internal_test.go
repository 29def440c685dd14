package completion

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/sqlite"
	"github.com/myrjola/coach21k/internal/testhelpers"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type delivery struct {
	token     string
	workoutID plan.ID
	completed bool
}

type fakeSyncer struct {
	err        error
	deliveries []delivery
}

func (f *fakeSyncer) MarkWorkoutComplete(_ context.Context, token string, workoutID plan.ID, completed bool) error {
	f.deliveries = append(f.deliveries, delivery{token: token, workoutID: workoutID, completed: completed})
	return f.err
}

func newService(t *testing.T, api Syncer) *Service {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := NewService(db, api, logger)
	now := time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s
}

func TestService_MarkSynced(t *testing.T) {
	api := &fakeSyncer{err: nil, deliveries: nil}
	s := newService(t, api)
	ctx := t.Context()
	before := testutil.ToFloat64(syncsTotal.WithLabelValues(outcomeSynced))

	res, err := s.Mark(ctx, "42", "tok", "7", true)
	if err != nil {
		t.Fatalf("Mark() error: %v", err)
	}
	if !res.Synced || !res.Completion.Completed || res.Completion.CompletedAt == nil {
		t.Errorf("Mark() = %+v, want synced completion", res)
	}
	if len(api.deliveries) != 1 || api.deliveries[0] != (delivery{token: "tok", workoutID: "7", completed: true}) {
		t.Errorf("deliveries = %+v", api.deliveries)
	}
	if got := testutil.ToFloat64(syncsTotal.WithLabelValues(outcomeSynced)) - before; got != 1 {
		t.Errorf("synced counter grew by %v, want 1", got)
	}

	completions, err := s.Completed(ctx, "42")
	if err != nil {
		t.Fatalf("Completed() error: %v", err)
	}
	c, ok := completions["7"]
	if !ok || !c.Synced || !c.Completed || c.Attempts != 1 {
		t.Errorf("stored completion = %+v, found %v", c, ok)
	}

	// Nothing is left to retry.
	n, err := s.RetryPending(ctx)
	if err != nil || n != 0 || len(api.deliveries) != 1 {
		t.Errorf("RetryPending() = %d, %v with %d deliveries", n, err, len(api.deliveries))
	}
}

func TestService_MarkOfflineThenRetry(t *testing.T) {
	api := &fakeSyncer{err: errors.New("connection refused"), deliveries: nil}
	s := newService(t, api)
	ctx := t.Context()

	res, err := s.Mark(ctx, "42", "tok", "7", true)
	if err != nil {
		t.Fatalf("Mark() error: %v", err)
	}
	if res.Synced {
		t.Error("Mark() reported synced while the API is down")
	}
	c, found, err := s.Get(ctx, "42", "7")
	if err != nil || !found {
		t.Fatalf("Get() = found %v, err %v", found, err)
	}
	if !c.Completed || c.Synced || c.Attempts != 1 {
		t.Errorf("pending completion = %+v", c)
	}

	api.err = nil
	n, err := s.RetryPending(ctx)
	if err != nil {
		t.Fatalf("RetryPending() error: %v", err)
	}
	if n != 1 {
		t.Errorf("RetryPending() synced %d, want 1", n)
	}
	if c, _, _ = s.Get(ctx, "42", "7"); !c.Synced || c.Attempts != 2 {
		t.Errorf("after retry = %+v", c)
	}
	if last := api.deliveries[len(api.deliveries)-1]; last.token != "tok" || !last.completed {
		t.Errorf("retry delivered %+v", last)
	}
}

func storedTokens(t *testing.T, s *Service, userID string) []string {
	t.Helper()
	rows, err := s.db.ReadOnly.QueryContext(t.Context(),
		`SELECT token FROM workout_completions WHERE user_id = ? AND token IS NOT NULL`, userID)
	if err != nil {
		t.Fatalf("query tokens: %v", err)
	}
	defer rows.Close()
	var tokens []string
	for rows.Next() {
		var tok string
		if err = rows.Scan(&tok); err != nil {
			t.Fatalf("scan token: %v", err)
		}
		tokens = append(tokens, tok)
	}
	if err = rows.Err(); err != nil {
		t.Fatalf("iterate tokens: %v", err)
	}
	return tokens
}

func TestService_SuspendAndResume(t *testing.T) {
	api := &fakeSyncer{err: errors.New("connection refused"), deliveries: nil}
	s := newService(t, api)
	ctx := t.Context()

	if _, err := s.Mark(ctx, "42", "old", "7", true); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}
	if _, err := s.Mark(ctx, "99", "other", "7", true); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}

	if err := s.Suspend(ctx, "42"); err != nil {
		t.Fatalf("Suspend() error: %v", err)
	}
	if tokens := storedTokens(t, s, "42"); len(tokens) != 0 {
		t.Errorf("tokens after Suspend = %v, want none", tokens)
	}
	if tokens := storedTokens(t, s, "99"); len(tokens) != 1 {
		t.Errorf("other user's tokens = %v, want kept", tokens)
	}

	api.err = nil
	delivered := len(api.deliveries)
	if _, err := s.RetryPending(ctx); err != nil {
		t.Fatalf("RetryPending() error: %v", err)
	}
	for _, d := range api.deliveries[delivered:] {
		if d.token == "old" || d.token == "" {
			t.Errorf("suspended change delivered with token %q", d.token)
		}
	}
	if c, _, _ := s.Get(ctx, "42", "7"); c.Synced {
		t.Error("suspended change synced")
	}

	if err := s.Resume(ctx, "42", "new"); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	if n, err := s.RetryPending(ctx); err != nil || n != 1 {
		t.Fatalf("RetryPending() = %d, %v, want 1 synced", n, err)
	}
	if last := api.deliveries[len(api.deliveries)-1]; last.token != "new" {
		t.Errorf("resumed change delivered with token %q, want new", last.token)
	}
	if tokens := storedTokens(t, s, "42"); len(tokens) != 0 {
		t.Errorf("tokens after sync = %v, want none", tokens)
	}
}

func TestService_MarkUndo(t *testing.T) {
	api := &fakeSyncer{err: nil, deliveries: nil}
	s := newService(t, api)
	ctx := t.Context()

	if _, err := s.Mark(ctx, "42", "tok", "7", true); err != nil {
		t.Fatalf("Mark(true) error: %v", err)
	}
	res, err := s.Mark(ctx, "42", "tok", "7", false)
	if err != nil {
		t.Fatalf("Mark(false) error: %v", err)
	}
	if res.Completion.Completed || res.Completion.CompletedAt != nil {
		t.Errorf("undo = %+v", res.Completion)
	}
	c, _, _ := s.Get(ctx, "42", "7")
	if c.Completed || c.CompletedAt != nil {
		t.Errorf("stored undo = %+v", c)
	}
}

func TestService_RetryGivesUp(t *testing.T) {
	api := &fakeSyncer{err: errors.New("timeout"), deliveries: nil}
	s := newService(t, api)
	ctx := t.Context()
	before := testutil.ToFloat64(syncsTotal.WithLabelValues(outcomeAbandoned))

	if _, err := s.Mark(ctx, "42", "tok", "7", true); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}
	for range MaxAttempts {
		if _, err := s.RetryPending(ctx); err != nil {
			t.Fatalf("RetryPending() error: %v", err)
		}
	}
	if len(api.deliveries) != MaxAttempts {
		t.Errorf("delivered %d times, want %d", len(api.deliveries), MaxAttempts)
	}
	if got := testutil.ToFloat64(syncsTotal.WithLabelValues(outcomeAbandoned)) - before; got != 1 {
		t.Errorf("abandoned counter grew by %v, want 1", got)
	}
	c, _, _ := s.Get(ctx, "42", "7")
	if !c.Completed || c.Synced {
		t.Errorf("abandoned change must stay completed locally, got %+v", c)
	}
}

func TestService_PermanentRejection(t *testing.T) {
	api := &fakeSyncer{err: &planapi.APIError{Status: http.StatusUnauthorized, Message: "token expired"}, deliveries: nil}
	s := newService(t, api)
	ctx := t.Context()

	if _, err := s.Mark(ctx, "42", "tok", "7", true); err != nil {
		t.Fatalf("Mark() error: %v", err)
	}
	if n, err := s.RetryPending(ctx); err != nil || n != 0 {
		t.Errorf("RetryPending() = %d, %v", n, err)
	}
	if len(api.deliveries) != 1 {
		t.Errorf("rejected change was retried %d times", len(api.deliveries)-1)
	}
}

func TestCompletion_Apply(t *testing.T) {
	w, _, err := plan.DecodeWorkout([]byte(`{"id":7,"date":"2026-10-20"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	at := time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC)
	done, err := Completion{Completed: true, CompletedAt: &at}.Apply(w) //nolint:exhaustruct // only state matters.
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if !done.Completed() {
		t.Error("Apply() did not mark the workout completed")
	}
	undone, err := Completion{Completed: false}.Apply(done) //nolint:exhaustruct // only state matters.
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if undone.Completed() {
		t.Error("Apply() kept completed_at after undo")
	}
}
