// Package bootstrap prepares process-wide infrastructure: the logger and,
// when configured, the database with its schema.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/horoscopebot/core/config"
	coredatabase "github.com/m3rciful/horoscopebot/core/database"
	"github.com/m3rciful/horoscopebot/core/logger"
)

var errNilConfig = errors.New("bootstrap: nil config provided")

// Options control the bootstrap pipeline. Nil funcs use the real
// implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations holds one directory of migration files per driver.
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config, fs.FS) error
}

func (o Options) withDefaults() Options {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	return o
}

// Result holds what Run initialized. DB is nil without a database driver.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, then opens and migrates the database if one
// is configured. A failed migration closes the connection again.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errNilConfig
	}
	opts = opts.withDefaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	if !opts.Database.Enabled() {
		logger.DB.Info("database disabled",
			slog.String("event", "db.connect"),
			slog.String("status", "skip"),
		)
		return &Result{}, nil
	}

	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if err := migrate(opts); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &Result{DB: db}, nil
}

func migrate(opts Options) error {
	if opts.Migrations == nil {
		return nil
	}
	if err := opts.Migrate(opts.Database, opts.Migrations); err != nil {
		return fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return nil
}
