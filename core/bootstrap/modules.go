package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/horoscopebot/core/logger"
)

// Module is a piece of infrastructure that lives as long as the bot runs.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// FuncModule adapts plain functions to Module. Nil hooks are no-ops.
type FuncModule struct {
	ModuleName string
	OnStart    func(ctx context.Context) error
	OnStop     func(ctx context.Context) error
}

// Name returns the module name used in logs.
func (m FuncModule) Name() string { return m.ModuleName }

// Start runs OnStart.
func (m FuncModule) Start(ctx context.Context) error {
	if m.OnStart == nil {
		return nil
	}
	return m.OnStart(ctx)
}

// Stop runs OnStop.
func (m FuncModule) Stop(ctx context.Context) error {
	if m.OnStop == nil {
		return nil
	}
	return m.OnStop(ctx)
}

// Modules starts in order and stops in reverse order.
type Modules []Module

// Start starts every module. If one fails, the ones already started are
// stopped before the error is returned.
func (ms Modules) Start(ctx context.Context) error {
	for i, m := range ms {
		start := time.Now()
		if err := m.Start(ctx); err != nil {
			logger.L.Error("module start failed",
				slog.String("event", "module.start"),
				slog.String("module", m.Name()),
				slog.String("err", err.Error()),
			)
			_ = ms[:i].Stop(ctx)
			return fmt.Errorf("start %s: %w", m.Name(), err)
		}
		logger.L.Debug("module started",
			slog.String("event", "module.start"),
			slog.String("module", m.Name()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	return nil
}

// Stop stops every module in reverse order and joins their errors.
func (ms Modules) Stop(ctx context.Context) error {
	var errs []error
	for i := len(ms) - 1; i >= 0; i-- {
		m := ms[i]
		if err := m.Stop(ctx); err != nil {
			logger.L.Warn("module stop failed",
				slog.String("event", "module.stop"),
				slog.String("module", m.Name()),
				slog.String("err", err.Error()),
			)
			errs = append(errs, fmt.Errorf("stop %s: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}
