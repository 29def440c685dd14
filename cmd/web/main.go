package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/myrjola/coach21k/internal/completion"
	"github.com/myrjola/coach21k/internal/envstruct"
	"github.com/myrjola/coach21k/internal/errors"
	"github.com/myrjola/coach21k/internal/logging"
	"github.com/myrjola/coach21k/internal/planapi"
	"github.com/myrjola/coach21k/internal/planstore"
	"github.com/myrjola/coach21k/internal/session"
	"github.com/myrjola/coach21k/internal/sqlite"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"
)

type application struct {
	logger          *slog.Logger
	api             *planapi.Client
	sessions        *session.Manager
	completions     *completion.Service
	plans           *planstore.Store
	templateFS      fs.FS
	markdown        goldmark.Markdown
	now             func() time.Time
	requestTimeout  time.Duration
	generateTimeout time.Duration
	secureCookies   bool
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"COACH_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"COACH_SQLITE_URL" envDefault:"./coach21k.sqlite3"`
	// APIURL is the base URL of the planning API.
	APIURL string `env:"COACH_API_URL" envDefault:"http://localhost:4000"`
	// TemplatePath is the path to the directory containing the HTML templates.
	TemplatePath string `env:"COACH_TEMPLATE_PATH" envDefault:""`
	// APITimeout bounds planning API calls other than plan generation.
	APITimeout      time.Duration `env:"COACH_API_TIMEOUT" envDefault:"10s"`
	GenerateTimeout time.Duration `env:"COACH_GENERATE_TIMEOUT" envDefault:"120s"`
	// SyncSchedule is the cron spec for retrying completions the planning API has not accepted yet.
	SyncSchedule     string `env:"COACH_SYNC_SCHEDULE" envDefault:"@every 5m"`
	OptimizeSchedule string `env:"COACH_OPTIMIZE_SCHEDULE" envDefault:"@hourly"`
	// SecureCookies should only be disabled when serving plain HTTP outside localhost.
	SecureCookies bool `env:"COACH_SECURE_COOKIES" envDefault:"true"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var htmlTemplatePath string
	if htmlTemplatePath, err = resolveAndVerifyTemplatePath(cfg.TemplatePath); err != nil {
		return errors.Wrap(err, "resolve template path")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	api := planapi.NewClient(cfg.APIURL, cfg.APITimeout, cfg.GenerateTimeout, logger)
	app := application{
		logger:          logger,
		api:             api,
		sessions:        session.NewManager(db, cfg.SecureCookies, logger),
		completions:     completion.NewService(db, api, logger),
		plans:           planstore.New(db),
		templateFS:      os.DirFS(htmlTemplatePath),
		markdown:        goldmark.New(),
		now:             time.Now,
		requestTimeout:  cfg.APITimeout + 2*time.Second,      //nolint:mnd // room to render after the API answers.
		generateTimeout: cfg.GenerateTimeout + 5*time.Second, //nolint:mnd // room to render after generation.
		secureCookies:   cfg.SecureCookies,
	}

	scheduler, err := app.newScheduler(ctx, db, cfg.SyncSchedule, cfg.OptimizeSchedule)
	if err != nil {
		return errors.Wrap(err, "schedule background jobs")
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "configure routes")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.run(ctx)
		return nil
	})
	g.Go(func() error {
		return app.configureAndStartServer(ctx, cfg.Addr, handler)
	})
	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "run server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	level := slog.LevelDebug
	if name, ok := os.LookupEnv("COACH_LOG_LEVEL"); ok {
		parsed, err := logging.ParseLevel(name)
		if err != nil {
			logging.NewLogger(os.Stdout, level, nil).LogAttrs(ctx, slog.LevelError, "invalid log level",
				errors.SlogError(err))
			os.Exit(1)
		}
		level = parsed
	}
	logger := logging.NewLogger(os.Stdout, level, nil)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
