package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/coach21k/internal/e2etest"
	"github.com/myrjola/coach21k/internal/logging"
	"github.com/myrjola/coach21k/internal/testhelpers"
	"golang.org/x/sync/errgroup"
)

const (
	userRegistrationTimeout    = 30 * time.Second
	scenarioTimeout            = 30 * time.Second
	maxConcurrentRegistrations = 10
	maxConcurrentOperations    = 20
	scenarioRounds             = 5
	successRateThreshold       = 95.0
	expectedArgsCount          = 2
	percentageMultiplier       = 100
)

// AuthenticatedUser holds a client with valid session.
type AuthenticatedUser struct {
	Client   *e2etest.Client
	Username string
}

// RegisterAndAuthenticateUser creates a new user with the planning API and logs them in.
func RegisterAndAuthenticateUser(ctx context.Context, url string, logger *slog.Logger) (*AuthenticatedUser, error) {
	// Each user needs their own session.
	client, err := e2etest.NewClient(url)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	username := "stress-" + uuid.NewString()[:8]
	password := uuid.NewString()
	if _, err = client.Register(ctx, username, username+"@example.com", password); err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}
	if _, err = client.Login(ctx, username, password); err != nil {
		return nil, fmt.Errorf("login %s: %w", username, err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "User registered and authenticated", slog.String("username", username))
	return &AuthenticatedUser{Client: client, Username: username}, nil
}

// SetupUsers registers and authenticates the specified number of users.
func SetupUsers(ctx context.Context, url string, numUsers int, logger *slog.Logger) ([]*AuthenticatedUser, error) {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting user registration", slog.Int("num_users", numUsers))

	var (
		users   = make([]*AuthenticatedUser, 0, numUsers)
		usersMu sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRegistrations)
	for range numUsers {
		g.Go(func() error {
			userCtx, cancel := context.WithTimeout(gctx, userRegistrationTimeout)
			defer cancel()
			user, err := RegisterAndAuthenticateUser(userCtx, url, logger)
			if err != nil {
				return err
			}
			usersMu.Lock()
			users = append(users, user)
			usersMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return users, fmt.Errorf("registration failure: %w", err)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "All users registered successfully", slog.Int("total_users", len(users)))
	return users, nil
}

// BrowseScenario visits the pages a runner opens when checking the plan.
func BrowseScenario(ctx context.Context, user *AuthenticatedUser, logger *slog.Logger) error {
	client := user.Client
	for _, path := range []string{"/main", "/plan", "/plans/new"} {
		if _, err := client.GetDoc(ctx, path); err != nil {
			return fmt.Errorf("get %s: %w", path, err)
		}
	}

	resp, err := client.Get(ctx, "/plan/calendar.ics")
	if err != nil {
		return fmt.Errorf("get calendar: %w", err)
	}
	_ = resp.Body.Close()
	// A user without a plan gets an empty calendar. 502 means the planning API is down.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get calendar: unexpected status code: %d", resp.StatusCode)
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "Browse scenario completed", slog.String("username", user.Username))
	return nil
}

// RunLoadTest performs the actual load testing with authenticated users.
func RunLoadTest(ctx context.Context, users []*AuthenticatedUser, logger *slog.Logger) error {
	runs := len(users) * scenarioRounds
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("num_users", len(users)),
		slog.Int("runs", runs))

	var successCount, failureCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for range scenarioRounds {
		for _, user := range users {
			g.Go(func() error {
				scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
				defer cancel()

				if err := BrowseScenario(scenarioCtx, user, logger); err != nil {
					failureCount.Add(1)
					// Individual failures do not stop the other scenarios.
					logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
						slog.String("username", user.Username), slog.Any("error", err))
					return nil
				}
				successCount.Add(1)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / float64(runs) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate))

	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		numUsers = 10
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}

	setupStart := time.Now()
	users, err := SetupUsers(ctx, url, numUsers, logger)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to setup users", slog.Any("error", err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "User setup completed",
		slog.Duration("setup_duration", time.Since(setupStart)),
		slog.Int("authenticated_users", len(users)))

	loadTestStart := time.Now()
	if err = RunLoadTest(ctx, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Duration("load_test_duration", time.Since(loadTestStart)),
		slog.Int("users_tested", len(users)))
}
