package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/horoscopebot/core/buildinfo"
	corecmd "github.com/m3rciful/horoscopebot/core/cmd"
	"github.com/m3rciful/horoscopebot/core/database"
	"github.com/m3rciful/horoscopebot/core/logger"
	"github.com/m3rciful/horoscopebot/internal/bot"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/migrations"
)

func readConfig() (*bot.Config, error) {
	path, err := corecmd.ResolveConfigPath(corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
	})
	if err != nil {
		return nil, err
	}
	return bot.ReadConfig(path)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return errors.New("migrate: database.driver is not configured")
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	if err := database.RunMigrations(cfg.Database, migrations.FS); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Database.Driver)
	return nil
}

func runFetch(cmd *cobra.Command, _ []string) error {
	sign, ok := horoscope.ParseSign(fetchSign)
	if !ok {
		return fmt.Errorf("fetch: unknown sign %q", fetchSign)
	}
	day, ok := horoscope.ParseDay(fetchDay)
	if !ok {
		return fmt.Errorf("fetch: invalid day %q", fetchDay)
	}
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc := horoscope.NewService(bot.NewProvider(cfg.Horoscope), nil)
	res, err := svc.Fetch(ctx, sign, day)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sign: %s\nDay: %s\n\n%s\n", res.Sign.Title(), res.Date, res.Text)
	return nil
}

func runVersion(cmd *cobra.Command, _ []string) {
	date := buildinfo.Date
	if date == "" {
		date = "unknown"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "horoscopebot %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, date)
}
