// Package session keeps the per-browser state of the web client in a server-side session: the signed-in user with
// their planning API token, the questionnaire answers, the pending plan request and the workout being viewed.
package session

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/sqlite"
	"github.com/myrjola/coach21k/internal/wizard"
)

// User is the signed-in user as returned by the planning API on login.
type User struct {
	Token    string
	Username string
	UserID   string
}

// State of the session.
type State int

const (
	// Anonymous sessions have never signed in.
	Anonymous State = iota
	Authenticated
	// LoggedOut lasts until the next login.
	LoggedOut
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case LoggedOut:
		return "logged_out"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type sessionKey string

const (
	userKey           sessionKey = "user"
	loggedOutKey      sessionKey = "logged_out"
	formKey           sessionKey = "wizard_form"
	pendingPlanKey    sessionKey = "pending_plan"
	currentWorkoutKey sessionKey = "current_workout"
	flashKey          sessionKey = "flash"
)

func init() {
	gob.Register(User{})                //nolint:exhaustruct // type registration.
	gob.Register(planapi.PlanRequest{}) //nolint:exhaustruct // type registration.
}

type Manager struct {
	logger   *slog.Logger
	sessions *scs.SessionManager
}

// NewManager stores sessions in db. Set secure to false only when serving plain HTTP, e.g. in tests.
func NewManager(db *sqlite.Database, secure bool, logger *slog.Logger) *Manager {
	sessions := scs.New()
	sessions.Store = sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessions.Lifetime = 12 * time.Hour                                               //nolint:mnd // half a day
	sessions.Cookie.Persist = true
	sessions.Cookie.Secure = secure
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteStrictMode
	sessions.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.LogAttrs(r.Context(), slog.LevelError, "session error", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return &Manager{logger: logger, sessions: sessions}
}

// LoadAndSave loads the session for the request and commits it before the response is written.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return m.sessions.LoadAndSave(next)
}

// Login renews the session token to prevent fixation and stores the user.
func (m *Manager) Login(ctx context.Context, user User) error {
	if err := m.sessions.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	m.sessions.Remove(ctx, string(loggedOutKey))
	m.sessions.Put(ctx, string(userKey), user)
	return nil
}

// User returns the signed-in user.
func (m *Manager) User(ctx context.Context) (User, bool) {
	user, ok := m.sessions.Get(ctx, string(userKey)).(User)
	if !ok || user.Token == "" {
		return User{}, false
	}
	return user, true
}

func (m *Manager) State(ctx context.Context) State {
	if _, ok := m.User(ctx); ok {
		return Authenticated
	}
	if m.sessions.GetBool(ctx, string(loggedOutKey)) {
		return LoggedOut
	}
	return Anonymous
}

// Logout renews the token, forgets everything stored in the session and remembers that the user logged out.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.sessions.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	if err := m.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	m.sessions.Put(ctx, string(loggedOutKey), true)
	return nil
}

// SaveForm stores the questionnaire answers.
func (m *Manager) SaveForm(ctx context.Context, form wizard.Form) {
	m.sessions.Put(ctx, string(formKey), form)
}

// Form returns the stored questionnaire answers or an empty form at the first step.
func (m *Manager) Form(ctx context.Context) wizard.Form {
	form, _ := m.sessions.Get(ctx, string(formKey)).(wizard.Form)
	return form
}

func (m *Manager) ClearForm(ctx context.Context) {
	m.sessions.Remove(ctx, string(formKey))
}

// SavePendingPlan stores a plan request until generation succeeds, so that a failed generation can be retried.
func (m *Manager) SavePendingPlan(ctx context.Context, req planapi.PlanRequest) {
	m.sessions.Put(ctx, string(pendingPlanKey), req)
}

func (m *Manager) PendingPlan(ctx context.Context) (planapi.PlanRequest, bool) {
	req, ok := m.sessions.Get(ctx, string(pendingPlanKey)).(planapi.PlanRequest)
	return req, ok
}

func (m *Manager) ClearPendingPlan(ctx context.Context) {
	m.sessions.Remove(ctx, string(pendingPlanKey))
}

// SaveCurrentWorkout remembers the workout last opened so that its detail page survives a reload. The record is
// kept as JSON to preserve fields this client does not know about.
func (m *Manager) SaveCurrentWorkout(ctx context.Context, w plan.Workout) error {
	b, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal current workout: %w", err)
	}
	m.sessions.Put(ctx, string(currentWorkoutKey), b)
	return nil
}

func (m *Manager) CurrentWorkout(ctx context.Context) (plan.Workout, bool) {
	b := m.sessions.GetBytes(ctx, string(currentWorkoutKey))
	if len(b) == 0 {
		return plan.Workout{}, false
	}
	w, ok, err := plan.DecodeWorkout(b)
	if err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "dropping unreadable current workout", slog.Any("error", err))
		m.sessions.Remove(ctx, string(currentWorkoutKey))
		return plan.Workout{}, false
	}
	return w, ok
}

// Flash stores a message shown once on the next page.
func (m *Manager) Flash(ctx context.Context, msg string) {
	m.sessions.Put(ctx, string(flashKey), msg)
}

func (m *Manager) PopFlash(ctx context.Context) string {
	return m.sessions.PopString(ctx, string(flashKey))
}
