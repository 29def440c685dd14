package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/coach21k/internal/logging"
)

// Server is a running instance of the web application.
type Server struct {
	url    string
	client *Client
	db     *sql.DB
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// LogDsnKey is the data source name key used to log the SQL DSN.
const LogDsnKey = "sqlDsn"

// RunFunc starts the application and blocks until ctx is cancelled.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Env returns a lookupEnv for an in-memory application on a random port talking to apiURL. Entries of overrides
// replace the defaults.
func Env(apiURL string, overrides map[string]string) func(string) (string, bool) {
	env := map[string]string{
		"COACH_SQLITE_URL":     ":memory:",
		"COACH_ADDR":           "localhost:0",
		"COACH_API_URL":        apiURL,
		"COACH_SECURE_COOKIES": "false",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// startupInfo is what the server logs while starting that the tests need.
type startupInfo struct {
	addr chan string
	dsn  chan string
}

func (s startupInfo) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case LogAddrKey:
		s.addr <- a.Value.String()
	case LogDsnKey:
		s.dsn <- a.Value.String()
	}
	return a
}

// StartServer runs the application, waits until it is healthy and shuts it down when the test ends.
//
// logSink receives the server logs, usually a testhelpers.Writer. lookupEnv has the signature of [os.LookupEnv].
// run must log the listening address under LogAddrKey and the database DSN under LogDsnKey.
func StartServer(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) (*Server, error) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(t.Context())
	info := startupInfo{addr: make(chan string, 1), dsn: make(chan string, 1)}
	logger := logging.NewLogger(logSink, slog.LevelDebug, info.replaceAttr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()
	stop := func() {
		cancel(nil)
		<-done
	}

	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			stop()
			return nil, fmt.Errorf("server stopped before it was ready: %w", context.Cause(ctx))
		case addr = <-info.addr:
		case dsn = <-info.dsn:
		}
	}
	t.Cleanup(stop)

	serverURL := "http://" + addr
	client, err := NewClient(serverURL)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &Server{url: serverURL, client: client, db: db, cancel: cancel, done: done}, nil
}

// Client is a client with its own cookie jar, logged out at start.
func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// DB opens the application database for assertions on stored state.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for it to exit. Tests do not need to call it.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.done
}
