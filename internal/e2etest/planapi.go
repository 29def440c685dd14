package e2etest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// PlanAPI is an in-memory stand-in for the remote planning API.
type PlanAPI struct {
	server *httptest.Server

	mu          sync.Mutex
	users       map[string]fakeUser // by username
	tokens      map[string]string   // token to username
	plans       map[string][]map[string]any
	completions []Completion
	failing     map[string]int
}

type fakeUser struct {
	id       int
	password string
	email    string
}

// Completion is a mark-workout-complete call received by the fake API.
type Completion struct {
	Username  string
	WorkoutID string
	Completed bool
}

// NewPlanAPI starts the fake API. It is closed when the test ends.
func NewPlanAPI(t *testing.T) *PlanAPI {
	t.Helper()
	api := &PlanAPI{
		server:      nil,
		mu:          sync.Mutex{},
		users:       make(map[string]fakeUser),
		tokens:      make(map[string]string),
		plans:       make(map[string][]map[string]any),
		completions: nil,
		failing:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", api.login)
	mux.HandleFunc("POST /register", api.register)
	mux.HandleFunc("GET /home-data", api.authenticated(api.homeData))
	mux.HandleFunc("POST /api/generate-plan", api.authenticated(api.generatePlan))
	mux.HandleFunc("GET /api/workouts", api.authenticated(api.workouts))
	mux.HandleFunc("GET /api/next-workout", api.authenticated(api.nextWorkout))
	mux.HandleFunc("POST /api/mark-workout-complete", api.authenticated(api.markComplete))

	api.server = httptest.NewServer(api.faults(mux))
	t.Cleanup(api.server.Close)
	return api
}

// URL is the base URL to configure the web application with.
func (a *PlanAPI) URL() string {
	return a.server.URL
}

// Fail makes the next n requests to path respond with 503.
func (a *PlanAPI) Fail(path string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failing[path] = n
}

// SetPlan replaces the plan of a registered user. Workouts are JSON objects as the real API sends them.
func (a *PlanAPI) SetPlan(username string, workouts ...string) error {
	plan := make([]map[string]any, 0, len(workouts))
	for _, w := range workouts {
		var fields map[string]any
		if err := json.Unmarshal([]byte(w), &fields); err != nil {
			return fmt.Errorf("unmarshal workout: %w", err)
		}
		plan = append(plan, fields)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plans[username] = plan
	return nil
}

// Completions returns the completion calls received so far.
func (a *PlanAPI) Completions() []Completion {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Completion(nil), a.completions...)
}

func (a *PlanAPI) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		n := a.failing[r.URL.Path]
		if n > 0 {
			a.failing[r.URL.Path] = n - 1
		}
		a.mu.Unlock()
		if n > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "servicio no disponible"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *PlanAPI) authenticated(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		a.mu.Lock()
		username, ok := a.tokens[token]
		a.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Token inválido"})
			return
		}
		next(w, r, username)
	}
}

func (a *PlanAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "JSON inválido"})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	user, ok := a.users[body.Username]
	if !ok || user.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Credenciales incorrectas"})
		return
	}
	token := fmt.Sprintf("token-%s-%d", body.Username, len(a.tokens)+1)
	a.tokens[token] = body.Username
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "username": body.Username, "userId": user.id})
}

func (a *PlanAPI) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "JSON inválido"})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.users[body.Username]; exists {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "El usuario ya existe"})
		return
	}
	if body.Password == "" || body.Password != body.ConfirmPassword {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Contraseña inválida"})
		return
	}
	a.users[body.Username] = fakeUser{id: len(a.users) + 1, password: body.Password, email: body.Email}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Usuario registrado"})
}

func (a *PlanAPI) homeData(w http.ResponseWriter, _ *http.Request, username string) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "Hola " + username + ", a por ello"})
}

// generatePlan builds a small plan counting back from the race date: the race itself and one workout every other
// day before it.
func (a *PlanAPI) generatePlan(w http.ResponseWriter, r *http.Request, username string) {
	var req struct {
		RaceType    string `json:"race_type"`
		RaceDate    string `json:"race_date"`
		DaysPerWeek int    `json:"days_per_week"`
		Weeks       int    `json:"weeks_until_race"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "JSON inválido"})
		return
	}
	race, err := time.Parse(time.DateOnly, req.RaceDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Fecha inválida"})
		return
	}
	const maxWorkouts = 12
	n := min(max(req.DaysPerWeek*req.Weeks, 1), maxWorkouts)
	plan := make([]map[string]any, n)
	for i := range n {
		date := race.AddDate(0, 0, -2*(n-1-i))
		plan[i] = map[string]any{
			"id":          i + 1,
			"date":        date.Format(time.DateOnly),
			"week":        i/7 + 1,
			"type":        "Rodaje suave",
			"distance_km": 6,
			"pace_min_km": "6:00",
			"description": "Calienta 10 minutos. Rodaje continuo.",
			"advice":      "Hidrátate **bien**.",
		}
	}
	plan[n-1]["type"] = "Carrera " + req.RaceType

	a.mu.Lock()
	a.plans[username] = plan
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": plan})
}

func (a *PlanAPI) workouts(w http.ResponseWriter, _ *http.Request, username string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	plan := a.plans[username]
	if plan == nil {
		plan = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, plan)
}

func (a *PlanAPI) nextWorkout(w http.ResponseWriter, _ *http.Request, username string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	today := time.Now().Format(time.DateOnly)
	for _, workout := range a.plans[username] {
		if date, _ := workout["date"].(string); date >= today && workout["completed_at"] == nil {
			writeJSON(w, http.StatusOK, map[string]any{"workout": workout})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"workout": nil})
}

func (a *PlanAPI) markComplete(w http.ResponseWriter, r *http.Request, username string) {
	var body struct {
		WorkoutID json.RawMessage `json:"workoutId"`
		Completed bool            `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "JSON inválido"})
		return
	}
	id := strings.Trim(string(body.WorkoutID), `"`)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.completions = append(a.completions, Completion{Username: username, WorkoutID: id, Completed: body.Completed})
	for _, workout := range a.plans[username] {
		if fmt.Sprint(workout["id"]) == id {
			if body.Completed {
				workout["completed_at"] = time.Now().UTC().Format(time.RFC3339)
			} else {
				workout["completed_at"] = nil
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
