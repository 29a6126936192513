// Package bot wires the horoscope bot: configuration, handlers and the
// infrastructure started alongside the Telegram runtime.
package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/horoscopebot/core/bootstrap"
	coretelegram "github.com/m3rciful/horoscopebot/core/telegram"
	"github.com/m3rciful/horoscopebot/core/telegram/netutil"
	"github.com/m3rciful/horoscopebot/core/telegram/router"
	"github.com/m3rciful/horoscopebot/core/telegram/state"
	"github.com/m3rciful/horoscopebot/internal/conversation"
	"github.com/m3rciful/horoscopebot/internal/health"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/internal/stats"
	"github.com/m3rciful/horoscopebot/migrations"
)

// Deps are the external pieces an App is built from.
type Deps struct {
	// DB is optional; without it statistics stay in memory.
	DB       *sqlx.DB
	Provider horoscope.Provider
}

// App is a fully wired bot ready to hand to the Telegram runtime.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	store    stats.Store
	sessions state.Manager
	service  *horoscope.Service
	ctrl     *conversation.Controller
	registry *coretelegram.Registry
	health   *health.Server
	modules  bootstrap.Modules
}

// Bootstrap initializes logging and the database, then builds the App
// against the live horoscope provider.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, Deps{DB: res.DB, Provider: NewProvider(cfg.Horoscope)})
}

// NewProvider builds the HTTP horoscope client from configuration.
func NewProvider(cfg HoroscopeConfig) *horoscope.Client {
	httpClient := netutil.NewHTTPClient(netutil.ClientOptions{
		Timeout:       cfg.Timeout(),
		RetryAttempts: cfg.Retries,
	})
	return horoscope.NewClient(httpClient, cfg.BaseURL)
}

// New wires an App from already initialized dependencies.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if deps.Provider == nil {
		return nil, fmt.Errorf("bot: horoscope provider is required")
	}

	a := &App{
		cfg:      cfg,
		db:       deps.DB,
		sessions: state.NewMemoryManager(),
		registry: coretelegram.NewRegistry(),
	}
	if deps.DB != nil {
		a.store = stats.NewSQLStore(deps.DB)
	} else {
		a.store = stats.NewMemoryStore()
	}
	a.service = horoscope.NewService(deps.Provider, a.store)
	a.ctrl = conversation.New(a.sessions, a.service)

	if err := a.registerHandlers(); err != nil {
		return nil, err
	}

	if cfg.Health.Listen != "" {
		a.health = health.New(cfg.Health.Listen)
		if a.db != nil {
			a.health.AddCheck("database", a.db.PingContext)
		}
		a.modules = append(a.modules, bootstrap.FuncModule{
			ModuleName: "health",
			OnStart: func(context.Context) error {
				if err := a.health.Start(); err != nil {
					return err
				}
				a.health.SetReady(true)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				a.health.SetReady(false)
				return a.health.Shutdown(ctx)
			},
		})
	}
	if a.db != nil {
		// registered first so it is closed last
		a.modules = append(bootstrap.Modules{bootstrap.FuncModule{
			ModuleName: "database",
			OnStop: func(context.Context) error {
				return a.db.Close()
			},
		}}, a.modules...)
	}
	return a, nil
}

// Registry returns the command and button registry.
func (a *App) Registry() *coretelegram.Registry { return a.registry }

// Sessions returns the per-chat conversation store.
func (a *App) Sessions() state.Manager { return a.sessions }

// TelegramRunOptions assembles the runtime options for RunTelegram.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.onAdminReject,
	})
	routes = append(routes, router.TextRoutes(a.sessions, a.registry, router.TextOptionsFrom(a))...)

	return coretelegram.RunOptions{
		Config:            &a.cfg.Config,
		Registry:          a.registry,
		DispatcherOptions: coretelegram.DispatcherOptionsFrom(a.cfg.Sender),
		Middlewares:       coretelegram.DefaultMiddlewares(a.sessions),
		Routes:            routes,
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			return a.modules.Start(ctx)
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			return a.modules.Stop(ctx)
		},
	}, nil
}
