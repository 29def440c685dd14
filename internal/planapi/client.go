// Package planapi is the HTTP client for the remote planning API that owns users, plan generation and workouts.
package planapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/plan"
)

const maxResponseBytes = 10 << 20

// APIError is a non-2xx response from the planning API.
type APIError struct {
	Status int
	// Message is the error field of the response body, empty when the body did not carry one.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("planning api responded %d", e.Status)
	}
	return fmt.Sprintf("planning api responded %d: %s", e.Status, e.Message)
}

// Message returns the user-facing message of an *APIError in err's chain, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Client talks JSON to the planning API.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	timeout         time.Duration
	generateTimeout time.Duration
	logger          *slog.Logger
}

// NewClient creates a client for baseURL. timeout bounds every call except plan generation, which is bounded by
// generateTimeout.
func NewClient(baseURL string, timeout, generateTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{}, //nolint:exhaustruct // timeouts come from the request context.
		timeout:         timeout,
		generateTimeout: generateTimeout,
		logger:          logger,
	}
}

type call struct {
	endpoint string
	method   string
	path     string
	token    string
	body     any
	timeout  time.Duration
	// decode parses a 2xx response body. Nil skips decoding.
	decode func(body []byte) error
}

// do performs the call and decodes the body of a 2xx response.
func (c *Client) do(ctx context.Context, cl call) error {
	started := time.Now()
	requestID := uuid.NewString()

	var reqBody io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", cl.endpoint, err)
		}
		reqBody = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return fmt.Errorf("new %s request: %w", cl.endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(cl.endpoint, outcomeTransport, started)
		return errors.Wrap(err, "planning api request", slog.String("endpoint", cl.endpoint),
			slog.String("request_id", requestID))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		observe(cl.endpoint, outcomeTransport, started)
		return errors.Wrap(err, "read planning api response", slog.String("endpoint", cl.endpoint),
			slog.String("request_id", requestID))
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "planning api call",
		slog.String("endpoint", cl.endpoint),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(started)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		observe(cl.endpoint, outcomeAPIError, started)
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	if cl.decode != nil {
		if err = cl.decode(body); err != nil {
			observe(cl.endpoint, outcomeDecode, started)
			return fmt.Errorf("decode %s response: %w", cl.endpoint, err)
		}
	}
	observe(cl.endpoint, outcomeOK, started)
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error plan.Text `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return string(payload.Error)
}

// LoginResponse carries the bearer token of a successful login.
type LoginResponse struct {
	Token    string
	Username string
	UserID   string
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var payload struct {
		Token    plan.Text `json:"token"`
		Username plan.Text `json:"username"`
		UserID   plan.Text `json:"userId"`
	}
	err := c.do(ctx, call{
		endpoint: "login",
		method:   http.MethodPost,
		path:     "/login",
		token:    "",
		body:     map[string]string{"username": username, "password": password},
		timeout:  c.timeout,
		decode: func(body []byte) error {
			if err := json.Unmarshal(body, &payload); err != nil {
				return err //nolint:wrapcheck // wrapped by do.
			}
			if payload.Token == "" {
				return errors.New("missing token")
			}
			return nil
		},
	})
	if err != nil {
		return LoginResponse{}, err
	}
	resp := LoginResponse{
		Token:    string(payload.Token),
		Username: string(payload.Username),
		UserID:   string(payload.UserID),
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return resp, nil
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register creates an account and returns the API's confirmation message.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var message string
	err := c.do(ctx, call{
		endpoint: "register",
		method:   http.MethodPost,
		path:     "/register",
		token:    "",
		body:     req,
		timeout:  c.timeout,
		decode:   messageInto(&message),
	})
	return message, err
}

// HomeData returns the greeting message shown on the dashboard.
func (c *Client) HomeData(ctx context.Context, token string) (string, error) {
	var message string
	err := c.do(ctx, call{
		endpoint: "home_data",
		method:   http.MethodGet,
		path:     "/home-data",
		token:    token,
		body:     nil,
		timeout:  c.timeout,
		decode:   messageInto(&message),
	})
	return message, err
}

func messageInto(message *string) func([]byte) error {
	return func(body []byte) error {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		var payload struct {
			Message plan.Text `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return err //nolint:wrapcheck // wrapped by do.
		}
		*message = string(payload.Message)
		return nil
	}
}

// PlanRequest is the questionnaire payload sent to plan generation.
type PlanRequest struct {
	UserID              string   `json:"userId"`
	RaceType            string   `json:"race_type"`
	Level               string   `json:"level"`
	DaysPerWeek         int      `json:"days_per_week"`
	RaceDate            string   `json:"race_date"`
	WeeksUntilRace      int      `json:"weeks_until_race"`
	PreferredLongRunDay *string  `json:"preferred_longrun_day"`
	TargetTimeMinutes   *float64 `json:"target_time_minutes"`
	Recent5KMinutes     *float64 `json:"recent_5k_minutes"`
}

// GeneratePlan asks the API to generate a plan. A {"success": true, "data": ...} envelope is unwrapped.
func (c *Client) GeneratePlan(ctx context.Context, token string, req PlanRequest) (json.RawMessage, error) {
	var generated json.RawMessage
	err := c.do(ctx, call{
		endpoint: "generate_plan",
		method:   http.MethodPost,
		path:     "/api/generate-plan",
		token:    token,
		body:     req,
		timeout:  c.generateTimeout,
		decode: func(body []byte) error {
			body = bytes.TrimSpace(body)
			if len(body) == 0 {
				return errors.New("empty body")
			}
			var envelope struct {
				Success bool            `json:"success"`
				Data    json.RawMessage `json:"data"`
			}
			if json.Unmarshal(body, &envelope) == nil && envelope.Success && len(envelope.Data) > 0 &&
				string(envelope.Data) != "null" {
				generated = envelope.Data
				return nil
			}
			if !json.Valid(body) {
				return errors.New("invalid json")
			}
			generated = body
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return generated, nil
}

// NextWorkout returns the user's next workout. It reports false when the API has none.
func (c *Client) NextWorkout(ctx context.Context, token string) (plan.Workout, bool, error) {
	var (
		w     plan.Workout
		found bool
	)
	err := c.do(ctx, call{
		endpoint: "next_workout",
		method:   http.MethodGet,
		path:     "/api/next-workout",
		token:    token,
		body:     nil,
		timeout:  c.timeout,
		decode: func(body []byte) error {
			var err error
			w, found, err = plan.DecodeWorkout(body)
			return err //nolint:wrapcheck // wrapped by do.
		},
	})
	if err != nil {
		return plan.Workout{}, false, err
	}
	return w, found, nil
}

// Workouts returns every workout of the user's current plan.
func (c *Client) Workouts(ctx context.Context, token string) ([]plan.Workout, error) {
	var workouts []plan.Workout
	err := c.do(ctx, call{
		endpoint: "workouts",
		method:   http.MethodGet,
		path:     "/api/workouts",
		token:    token,
		body:     nil,
		timeout:  c.timeout,
		decode: func(body []byte) error {
			var err error
			workouts, err = plan.DecodeWorkouts(body)
			return err //nolint:wrapcheck // wrapped by do.
		},
	})
	if err != nil {
		return nil, err
	}
	return workouts, nil
}

var numericID = regexp.MustCompile(`^\d{1,15}$`)

// workoutIDValue sends numeric ids as JSON numbers, the way the API issues them.
func workoutIDValue(id plan.ID) any {
	if numericID.MatchString(string(id)) {
		return json.Number(id)
	}
	return string(id)
}

// MarkWorkoutComplete records the completion state of a workout remotely.
func (c *Client) MarkWorkoutComplete(ctx context.Context, token string, workoutID plan.ID, completed bool) error {
	return c.do(ctx, call{
		endpoint: "mark_workout_complete",
		method:   http.MethodPost,
		path:     "/api/mark-workout-complete",
		token:    token,
		body: map[string]any{
			"workoutId": workoutIDValue(workoutID),
			"completed": completed,
		},
		timeout: c.timeout,
		decode:  nil,
	})
}
