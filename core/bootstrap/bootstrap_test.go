package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/horoscopebot/core/config"
	coredatabase "github.com/m3rciful/horoscopebot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	connected := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	require.NoError(t, err)
	require.Nil(t, res.DB)
	require.False(t, connected)
}

func TestRunNilConfig(t *testing.T) {
	_, err := Run(Options{})
	require.Error(t, err)
}

func TestRunLoggerFailure(t *testing.T) {
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("boom") },
	})
	require.ErrorContains(t, err, "logger init failed")
}

func TestRunSQLiteConnectsAndMigrates(t *testing.T) {
	dbCfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	migrations := fstest.MapFS{"sqlite/000001_a.up.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")}}

	var gotFS fs.FS
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   dbCfg,
		Migrations: migrations,
		LoggerInit: noLogger,
		Migrate: func(_ coredatabase.Config, fsys fs.FS) error {
			gotFS = fsys
			return nil
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.DB)
	require.NotNil(t, gotFS)
	require.NoError(t, res.DB.Close())
}

func TestRunMigrationFailureClosesDB(t *testing.T) {
	dbCfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: filepath.Join(t.TempDir(), "bot.db")}
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   dbCfg,
		Migrations: fstest.MapFS{},
		LoggerInit: noLogger,
		Migrate:    func(coredatabase.Config, fs.FS) error { return errors.New("dirty") },
	})
	require.ErrorContains(t, err, "migrations failed")
}

func TestModulesStartStopOrder(t *testing.T) {
	var events []string
	mod := func(name string, startErr error) Module {
		return FuncModule{
			ModuleName: name,
			OnStart: func(context.Context) error {
				events = append(events, "start "+name)
				return startErr
			},
			OnStop: func(context.Context) error {
				events = append(events, "stop "+name)
				return nil
			},
		}
	}

	ms := Modules{mod("db", nil), mod("health", nil)}
	require.NoError(t, ms.Start(context.Background()))
	require.NoError(t, ms.Stop(context.Background()))
	require.Equal(t, []string{"start db", "start health", "stop health", "stop db"}, events)

	events = nil
	ms = Modules{mod("db", nil), mod("health", errors.New("port in use")), mod("late", nil)}
	err := ms.Start(context.Background())
	require.ErrorContains(t, err, "start health: port in use")
	require.Equal(t, []string{"start db", "start health", "stop db"}, events)
}

func TestModulesStopJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	ms := Modules{
		FuncModule{ModuleName: "a", OnStop: func(context.Context) error { return errA }},
		FuncModule{ModuleName: "noop"},
	}
	err := ms.Stop(context.Background())
	require.ErrorIs(t, err, errA)
}
