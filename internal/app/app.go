// Package app wires finbot: configuration, infrastructure, handlers and
// the reminder schedule.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/finbot/core/bootstrap"
	corecmd "github.com/m3rciful/finbot/core/cmd"
	"github.com/m3rciful/finbot/core/logger"
	coretelegram "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/core/telegram/middleware"
	"github.com/m3rciful/finbot/core/telegram/router"
	"github.com/m3rciful/finbot/core/telegram/state"
	"github.com/m3rciful/finbot/internal/bot"
	"github.com/m3rciful/finbot/internal/reminder"
	"github.com/m3rciful/finbot/internal/storage"
	"github.com/m3rciful/finbot/migrations"
)

// App owns the infrastructure opened by Bootstrap.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	rdb      *redis.Client
	sessions bot.Sessions
	handlers *bot.Handlers

	notifier  *reminder.BotNotifier
	job       *reminder.Job
	scheduler *reminder.Scheduler
}

// LoadConfig adapts Load to the runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return Load(path)
}

// Bootstrap initialises logging, the database and the session store.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Session.Backend == SessionRedis {
		rdb, err = connectRedis(cfg.Session)
		if err != nil {
			_ = res.DB.Close()
			return nil, err
		}
	}
	a, err := assemble(cfg, res.DB, rdb)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func connectRedis(cfg SessionConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("app: redis ping %s: %w", cfg.RedisAddr, err)
	}
	logger.SVCSessions.Info("redis connected",
		slog.String("event", "redis.connect"),
		slog.String("addr", cfg.RedisAddr),
	)
	return rdb, nil
}

// assemble builds the session store, handlers and reminder on open connections.
// The returned App is non-nil so the caller can always Close it.
func assemble(cfg *Config, db *sqlx.DB, rdb *redis.Client) (*App, error) {
	a := &App{cfg: cfg, db: db, rdb: rdb}
	if rdb != nil {
		a.sessions = state.NewRedisManager[bot.Pending](rdb, state.RedisOptions{
			Prefix: cfg.Session.Prefix,
			TTL:    cfg.Session.TTL,
		})
	} else {
		a.sessions = state.NewMemoryManager[bot.Pending]()
	}

	store := storage.New(db)
	opts := bot.Options{
		Store:    store,
		Sessions: a.sessions,
		Location: cfg.Location(),
	}
	if cfg.Reminder.On() {
		a.notifier = &reminder.BotNotifier{}
		a.job = reminder.NewJob(store, a.notifier, cfg.Location())
		scheduler, err := reminder.NewScheduler(a.job, cfg.Reminder.Schedule, cfg.Location())
		if err != nil {
			return a, err
		}
		a.scheduler = scheduler
		opts.Reminder = a.job
	}

	handlers, err := bot.New(opts)
	if err != nil {
		return a, err
	}
	a.handlers = handlers
	return a, nil
}

// TelegramRunOptions builds the routing table and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	table := router.NewTable(router.Options{
		Admin: middleware.AdminOptions{AdminID: core.Telegram.AdminID},
	})
	a.handlers.Register(table)

	return coretelegram.RunOptions{
		Config:      core,
		Middlewares: coretelegram.DefaultMiddlewares(core, bot.RateLimited),
		Routes:      table.Routes(a.sessions),
		Commands:    table.BotCommands(),
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(_ context.Context, rt coretelegram.Runtime) error {
	if a.scheduler == nil {
		logger.SVCReminders.Info("reminder disabled", slog.String("event", "reminder.schedule"))
		return nil
	}
	a.notifier.Bot = rt.Bot
	a.scheduler.Start()
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.scheduler == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(ctx)
}

// Close releases Redis and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
