package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/myrjola/coach21k/internal/e2etest"
	"github.com/myrjola/coach21k/internal/logging"
	"github.com/myrjola/coach21k/internal/testhelpers"
)

var errNotSignedIn = errors.New("dashboard not shown after login")

// TestAuth registers a throwaway user against the planning API behind the deployment, then logs out and back in.
func TestAuth(client *e2etest.Client) error {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second) //nolint:mnd // registration hits the remote API.
	defer cancel()
	var (
		doc *goquery.Document
		err error
	)

	username := "smoke-" + uuid.NewString()[:8]
	password := uuid.NewString()
	if _, err = client.Register(ctx, username, username+"@example.com", password); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	if doc, err = client.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login user: %w", err)
	}
	if doc.Find("form[action='/logout']").Length() == 0 && doc.Url.Path != "/main" {
		return errNotSignedIn
	}
	if _, err = client.Logout(ctx); err != nil {
		return fmt.Errorf("logout user: %w", err)
	}
	if _, err = client.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login again: %w", err)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", slog.Any("error", err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", slog.Any("error", err))
		os.Exit(1)
	}
	if err = TestAuth(client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing auth", slog.Any("error", err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
	os.Exit(0)
}
