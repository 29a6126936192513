package database

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/horoscopebot/core/logger"
)

const (
	postgresWait = 30 * time.Second
	previewFiles = 6
)

// migrationFile is one "<version>_<name>.up.sql" entry.
type migrationFile struct {
	version uint64
	name    string
}

// RunMigrations applies every pending up migration from the fsys directory
// named after cfg.Driver. Running it on an up-to-date schema is a no-op.
func RunMigrations(cfg Config, fsys fs.FS) error {
	if cfg.Driver == DriverPostgres {
		ctx, cancel := context.WithTimeout(context.Background(), postgresWait)
		err := WaitForPostgres(ctx, cfg.MigrateURL())
		cancel()
		if err != nil {
			logger.MIG.Error("db not ready", slog.String("event", "db.migrate"), slog.Any("err", err))
			return fmt.Errorf("database not ready: %w", err)
		}
	}

	dir := cfg.Driver
	files := scanMigrations(fsys, dir)
	logger.MIG.Debug("migrations resolved",
		append([]any{slog.String("event", "resolve"), slog.String("path", dir)}, fileAttrs(files)...)...)

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("open migrations %q: %w", dir, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), slog.Any("err", err))
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	from := currentVersion(m)
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.Any("err", err),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return fmt.Errorf("migration execution failed: %w", err)
	}
	took := time.Since(start)
	to := currentVersion(m)

	applied := between(files, from, to)
	if len(applied) > 0 {
		logger.MIG.Debug("applied files", append([]any{slog.String("event", "apply")}, fileAttrs(applied)...)...)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}

func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

// scanMigrations lists the up migrations in dir ordered by version.
// A missing dir yields nil.
func scanMigrations(fsys fs.FS, dir string) []migrationFile {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var files []migrationFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, _ := strconv.ParseUint(prefix, 10, 64)
		files = append(files, migrationFile{version: v, name: name})
	}
	slices.SortFunc(files, func(a, b migrationFile) int {
		return cmp.Or(cmp.Compare(a.version, b.version), strings.Compare(a.name, b.name))
	})
	return files
}

// between keeps the files with from < version <= to.
func between(files []migrationFile, from, to uint64) []migrationFile {
	var out []migrationFile
	for _, f := range files {
		if f.version > from && f.version <= to {
			out = append(out, f)
		}
	}
	return out
}

func fileAttrs(files []migrationFile) []any {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	attrs := []any{slog.Int("files_total", len(files))}
	preview, truncated := logger.SummarizeStrings(names, previewFiles)
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}
