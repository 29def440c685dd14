package session_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/coach21k/internal/contexthelpers"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/session"
	"github.com/myrjola/coach21k/internal/sqlite"
	"github.com/myrjola/coach21k/internal/testhelpers"
	"github.com/myrjola/coach21k/internal/wizard"
)

// newServer serves a few routes that drive the manager and report what the session holds.
func newServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	m := session.NewManager(db, false, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if err := m.Login(r.Context(), session.User{Token: "tok", Username: "ana", UserID: "42"}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		if err := m.Logout(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("GET /state", func(w http.ResponseWriter, r *http.Request) {
		user, _ := m.User(r.Context())
		_, _ = fmt.Fprintf(w, "%s %s %s %t", m.State(r.Context()), user.Username,
			contexthelpers.AuthenticatedUserID(r.Context()), contexthelpers.IsAuthenticated(r.Context()))
	})
	mux.HandleFunc("POST /scratch", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		form := wizard.Form{}.Set(wizard.StepRaceType, "21k") //nolint:exhaustruct // empty form.
		form.Index = 2
		m.SaveForm(ctx, form)
		m.SavePendingPlan(ctx, planapi.PlanRequest{UserID: "42", RaceType: "21k"}) //nolint:exhaustruct // partial.
		workout, _, err := plan.DecodeWorkout([]byte(`{"id":3,"date":"2026-10-20","extra":{"x":1}}`))
		if err == nil {
			err = m.SaveCurrentWorkout(ctx, workout)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		m.Flash(ctx, "saved")
	})
	mux.HandleFunc("GET /scratch", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		form := m.Form(ctx)
		req, hasPlan := m.PendingPlan(ctx)
		workout, hasWorkout := m.CurrentWorkout(ctx)
		raw := []byte("null")
		if hasWorkout {
			raw, _ = workout.MarshalJSON()
		}
		_, _ = fmt.Fprintf(w, "%s %d %t %s %t %s %q", form.Value(wizard.StepRaceType), form.Index, hasPlan,
			req.RaceType, hasWorkout, raw, m.PopFlash(ctx))
	})
	mux.HandleFunc("POST /scratch/clear", func(_ http.ResponseWriter, r *http.Request) {
		m.ClearForm(r.Context())
		m.ClearPendingPlan(r.Context())
	})

	server := httptest.NewServer(m.LoadAndSave(m.Authenticate(mux)))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return server, &http.Client{Jar: jar} //nolint:exhaustruct // defaults are fine.
}

func call(t *testing.T, client *http.Client, method, url string) string {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s %s = %d: %s", method, url, resp.StatusCode, body)
	}
	return string(body)
}

func TestManager_lifecycle(t *testing.T) {
	server, client := newServer(t)

	steps := []struct {
		method string
		path   string
		want   string
	}{
		{method: http.MethodGet, path: "/state", want: "anonymous   false"},
		{method: http.MethodPost, path: "/login", want: ""},
		{method: http.MethodGet, path: "/state", want: "authenticated ana 42 true"},
		{method: http.MethodPost, path: "/logout", want: ""},
		{method: http.MethodGet, path: "/state", want: "logged_out   false"},
		{method: http.MethodPost, path: "/login", want: ""},
		{method: http.MethodGet, path: "/state", want: "authenticated ana 42 true"},
	}
	for _, step := range steps {
		got := call(t, client, step.method, server.URL+step.path)
		if diff := cmp.Diff(step.want, got); diff != "" {
			t.Errorf("%s %s mismatch (-want +got):\n%s", step.method, step.path, diff)
		}
	}
}

func TestManager_scratchData(t *testing.T) {
	server, client := newServer(t)

	if got := call(t, client, http.MethodGet, server.URL+"/scratch"); got != ` 0 false  false null ""` {
		t.Errorf("empty session scratch = %q", got)
	}
	call(t, client, http.MethodPost, server.URL+"/scratch")

	want := `21k 2 true 21k true {"id":3,"date":"2026-10-20","extra":{"x":1}} "saved"`
	if diff := cmp.Diff(want, call(t, client, http.MethodGet, server.URL+"/scratch")); diff != "" {
		t.Errorf("scratch mismatch (-want +got):\n%s", diff)
	}
	// The flash message is shown once.
	want = `21k 2 true 21k true {"id":3,"date":"2026-10-20","extra":{"x":1}} ""`
	if diff := cmp.Diff(want, call(t, client, http.MethodGet, server.URL+"/scratch")); diff != "" {
		t.Errorf("scratch after flash mismatch (-want +got):\n%s", diff)
	}

	call(t, client, http.MethodPost, server.URL+"/scratch/clear")
	want = ` 0 false  true {"id":3,"date":"2026-10-20","extra":{"x":1}} ""`
	if diff := cmp.Diff(want, call(t, client, http.MethodGet, server.URL+"/scratch")); diff != "" {
		t.Errorf("scratch after clear mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_logoutClearsScratch(t *testing.T) {
	server, client := newServer(t)
	call(t, client, http.MethodPost, server.URL+"/login")
	call(t, client, http.MethodPost, server.URL+"/scratch")
	call(t, client, http.MethodPost, server.URL+"/logout")

	if got := call(t, client, http.MethodGet, server.URL+"/scratch"); got != ` 0 false  false null ""` {
		t.Errorf("scratch after logout = %q", got)
	}
}
