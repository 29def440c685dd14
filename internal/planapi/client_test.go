package planapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/myrjola/coach21k/internal/plan"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/ptr"
	"github.com/myrjola/coach21k/internal/testhelpers"
)

type recorded struct {
	method        string
	path          string
	authorization string
	requestID     string
	body          map[string]any
}

// newServer serves a fixed status and body and records the last request.
func newServer(t *testing.T, status int, body string) (*planapi.Client, *recorded) {
	t.Helper()
	rec := &recorded{} //nolint:exhaustruct // filled by the handler.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.authorization = r.Header.Get("Authorization")
		rec.requestID = r.Header.Get("X-Request-ID")
		rec.body = nil
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			if err := json.Unmarshal(b, &rec.body); err != nil {
				t.Errorf("request body is not json: %s", b)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	return planapi.NewClient(srv.URL+"/", time.Second, 2*time.Second, logger), rec
}

func TestClient_Login(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"token":"tok","username":"ana","userId":42}`)

	got, err := client.Login(t.Context(), "ana", "secret")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if diff := cmp.Diff(planapi.LoginResponse{Token: "tok", Username: "ana", UserID: "42"}, got); diff != "" {
		t.Errorf("Login() mismatch (-want +got):\n%s", diff)
	}
	if rec.method != http.MethodPost || rec.path != "/login" {
		t.Errorf("request = %s %s, want POST /login", rec.method, rec.path)
	}
	if diff := cmp.Diff(map[string]any{"username": "ana", "password": "secret"}, rec.body); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
	if rec.authorization != "" {
		t.Errorf("login sent Authorization %q", rec.authorization)
	}
	if _, err = uuid.Parse(rec.requestID); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid: %v", rec.requestID, err)
	}
}

func TestClient_LoginErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "api error message",
			status:      http.StatusUnauthorized,
			body:        `{"error":"Credenciales inválidas"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Credenciales inválidas",
		},
		{
			name:        "plain text error",
			status:      http.StatusInternalServerError,
			body:        `boom`,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newServer(t, tt.status, tt.body)
			_, err := client.Login(t.Context(), "ana", "wrong")
			var apiErr *planapi.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Login() error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.wantStatus || apiErr.Message != tt.wantMessage {
				t.Errorf("APIError = %+v", apiErr)
			}
			if got := planapi.Message(err, "fallback"); tt.wantMessage == "" && got != "fallback" {
				t.Errorf("Message() = %q, want fallback", got)
			}
		})
	}
}

func TestClient_LoginWithoutToken(t *testing.T) {
	client, _ := newServer(t, http.StatusOK, `{"username":"ana"}`)
	if _, err := client.Login(t.Context(), "ana", "secret"); err == nil {
		t.Fatal("Login() accepted a response without token")
	}
}

func TestClient_Register(t *testing.T) {
	client, rec := newServer(t, http.StatusCreated, `{"message":"Usuario registrado"}`)
	msg, err := client.Register(t.Context(), planapi.RegisterRequest{
		Username:        "ana",
		Email:           "ana@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if msg != "Usuario registrado" {
		t.Errorf("Register() = %q", msg)
	}
	if rec.body["confirmPassword"] != "pw" || rec.body["email"] != "ana@example.com" {
		t.Errorf("unexpected request body %v", rec.body)
	}
}

func TestClient_HomeData(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"message":"Hola ana"}`)
	msg, err := client.HomeData(t.Context(), "tok")
	if err != nil {
		t.Fatalf("HomeData() error: %v", err)
	}
	if msg != "Hola ana" || rec.authorization != "Bearer tok" || rec.path != "/home-data" {
		t.Errorf("HomeData() = %q with auth %q on %s", msg, rec.authorization, rec.path)
	}
}

func TestClient_GeneratePlan(t *testing.T) {
	req := planapi.PlanRequest{
		UserID:              "42",
		RaceType:            "21k",
		Level:               "intermedio",
		DaysPerWeek:         4,
		RaceDate:            "2027-03-28",
		WeeksUntilRace:      23,
		PreferredLongRunDay: nil,
		TargetTimeMinutes:   ptr.Ref(105.0),
		Recent5KMinutes:     nil,
	}
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "success envelope", body: `{"success":true,"data":{"workouts":[]}}`, want: `{"workouts":[]}`},
		{name: "bare body", body: `[{"id":1}]`, want: `[{"id":1}]`},
		{name: "failed envelope is kept", body: `{"success":false,"data":null}`, want: `{"success":false,"data":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, rec := newServer(t, http.StatusOK, tt.body)
			got, err := client.GeneratePlan(t.Context(), "tok", req)
			if err != nil {
				t.Fatalf("GeneratePlan() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("GeneratePlan() = %s, want %s", got, tt.want)
			}
			if rec.path != "/api/generate-plan" {
				t.Errorf("path = %s", rec.path)
			}
			if rec.body["preferred_longrun_day"] != nil || rec.body["target_time_minutes"] != 105.0 ||
				rec.body["days_per_week"] != 4.0 || rec.body["userId"] != "42" {
				t.Errorf("unexpected request body %v", rec.body)
			}
		})
	}
}

func TestClient_NextWorkout(t *testing.T) {
	client, _ := newServer(t, http.StatusOK, `{"workout":{"id":5,"date":"2026-10-20","type":"Rodaje"}}`)
	w, found, err := client.NextWorkout(t.Context(), "tok")
	if err != nil || !found {
		t.Fatalf("NextWorkout() = found %v, err %v", found, err)
	}
	if w.ID != "5" || w.Type != "Rodaje" {
		t.Errorf("NextWorkout() = %+v", w)
	}

	empty, _ := newServer(t, http.StatusOK, `null`)
	if _, found, err = empty.NextWorkout(t.Context(), "tok"); err != nil || found {
		t.Errorf("NextWorkout(null) = found %v, err %v", found, err)
	}
}

func TestClient_Workouts(t *testing.T) {
	client, rec := newServer(t, http.StatusOK, `{"data":[{"id":1,"date":"2026-10-20"},{"id":2,"date":"2026-10-22"}]}`)
	workouts, err := client.Workouts(t.Context(), "tok")
	if err != nil {
		t.Fatalf("Workouts() error: %v", err)
	}
	if len(workouts) != 2 || rec.path != "/api/workouts" {
		t.Errorf("Workouts() = %d workouts from %s", len(workouts), rec.path)
	}

	broken, _ := newServer(t, http.StatusOK, `{"message":"nope"}`)
	if _, err = broken.Workouts(t.Context(), "tok"); err == nil {
		t.Error("Workouts() accepted an unexpected shape")
	}
}

func TestClient_MarkWorkoutComplete(t *testing.T) {
	tests := []struct {
		id     string
		wantID any
	}{
		{id: "17", wantID: 17.0},
		{id: "w-17", wantID: "w-17"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			client, rec := newServer(t, http.StatusOK, `{"ok":true}`)
			if err := client.MarkWorkoutComplete(t.Context(), "tok", plan.ID(tt.id), true); err != nil {
				t.Fatalf("MarkWorkoutComplete() error: %v", err)
			}
			want := map[string]any{"workoutId": tt.wantID, "completed": true}
			if diff := cmp.Diff(want, rec.body); diff != "" {
				t.Errorf("request body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := planapi.NewClient(srv.URL, 50*time.Millisecond, time.Second, testhelpers.NewLogger(testhelpers.NewWriter(t)))
	err := client.MarkWorkoutComplete(t.Context(), "tok", "1", true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("MarkWorkoutComplete() error = %v, want deadline exceeded", err)
	}
}
