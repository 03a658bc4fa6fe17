package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/finbot/core/config"
	coredatabase "github.com/m3rciful/finbot/core/database"
	"github.com/m3rciful/finbot/core/logger"
)

// ErrNilConfig is returned when Run is called without core configuration.
var ErrNilConfig = errors.New("bootstrap: nil config provided")

// Options describe the infrastructure pipeline: logger, database, migrations.
// Nil funcs fall back to the core implementations.
type Options struct {
	Config     *coreconfig.Config
	Database   coredatabase.Config
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config, fs.FS) error
}

// Result carries the infrastructure opened by Run. The caller owns DB.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, opens the database pool and applies migrations.
// The pool is closed again when migrations fail.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, ErrNilConfig
	}
	if opts.LoggerInit == nil {
		opts.LoggerInit = logger.InitLogger
	}
	if opts.Connect == nil {
		opts.Connect = coredatabase.Connect
	}
	if opts.Migrate == nil {
		opts.Migrate = coredatabase.RunMigrations
	}

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, wrap("logger init", err)
	}

	start := time.Now()
	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, wrap("database connect", err)
	}

	if opts.Migrations != nil {
		if err := opts.Migrate(opts.Database, opts.Migrations); err != nil {
			_ = db.Close()
			return nil, wrap("migrations", err)
		}
	}

	logger.Info(context.Background(), "app", "bootstrap.done",
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return &Result{DB: db}, nil
}

func wrap(step string, err error) error {
	return &StepError{Step: step, Err: err}
}

// StepError reports which pipeline step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return "bootstrap: " + e.Step + " failed: " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }
