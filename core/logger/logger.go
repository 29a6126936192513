// Package logger wires a process-wide slog logger with a fixed event schema:
// every record carries a component and an event name, plus whatever request
// metadata the context holds.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/horoscopebot/core/buildinfo"
	coreconfig "github.com/m3rciful/horoscopebot/core/config"
)

var (
	initOnce sync.Once

	sinkMu  sync.Mutex
	sink    *asyncWriter
	logFile *os.File

	levelVar     slog.LevelVar
	debugSampler = newRatioSampler(1, 50)
	forceDebug   bool

	// L is the root logger. It is slog.Default() until InitLogger runs.
	L = slog.Default()

	DB    *slog.Logger // database connections
	MIG   *slog.Logger // schema migrations
	TG    *slog.Logger // Telegram transport
	TWire *slog.Logger // handler and route wiring
	Conv  *slog.Logger // conversation flow
	HTTP  *slog.Logger // health endpoints
)

func init() {
	bindComponents()
}

func bindComponents() {
	for ptr, name := range map[**slog.Logger]string{
		&DB:    "db",
		&MIG:   "db.migrate",
		&TG:    "tg",
		&TWire: "tg.wire",
		&Conv:  "conversation",
		&HTTP:  "http.health",
	} {
		*ptr = L.With("component", name)
	}
}

// InitLogger installs the structured handler described by cfg.Logging.
// Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		err = install(resolveSettings(cfg))
	})
	return err
}

func install(s settings) error {
	outputs := []io.Writer{os.Stdout}
	if s.file != "" {
		f, err := openLogFile(s.file)
		if err != nil {
			return err
		}
		logFile = f
		outputs = append(outputs, f)
	}

	levelVar.Set(s.level)
	debugSampler.Set(s.sampleNum, s.sampleDen)
	forceDebug = s.trace

	sinkMu.Lock()
	sink = newAsyncWriter(outputs, 64*1024)
	sinkMu.Unlock()

	L = slog.New(newStructuredHandler(handlerConfig{
		level:    &levelVar,
		writer:   sink,
		format:   s.format,
		keyOrder: s.keyOrder,
	}))
	slog.SetDefault(L)
	bindComponents()

	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("go_version", runtime.Version()),
		slog.String("cfg_profile", s.profile),
	)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// Shutdown drains buffered records and closes the log file. Later calls
// return nil.
func Shutdown() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()

	var errs []error
	if sink != nil {
		errs = append(errs, sink.Flush(), sink.Close())
		sink = nil
	}
	if logFile != nil {
		errs = append(errs, logFile.Close())
		logFile = nil
	}
	return errors.Join(errs...)
}

// Named returns L scoped to component. A blank name yields L itself.
func Named(component string) *slog.Logger {
	if component = strings.TrimSpace(component); component != "" {
		return L.With("component", component)
	}
	return L
}

// Emit writes one event record. With a nil logg the context logger is used,
// then L.
func Emit(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		logg = L
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(orBackground(ctx), level, "", attrs...)
}

// Debug logs event for component at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Emit(ctx, Named(component), slog.LevelDebug, event, attrs...)
}

// Info logs event for component at info level.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Emit(ctx, Named(component), slog.LevelInfo, event, attrs...)
}

// Warn logs event for component at warn level.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Emit(ctx, Named(component), slog.LevelWarn, event, attrs...)
}

// Error logs event for component at error level.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Emit(ctx, Named(component), slog.LevelError, event, attrs...)
}

// ShouldSampleDebug gates high-volume debug events. TRACE=1 or LOG_TRACE=1
// lets every one through.
func ShouldSampleDebug() bool {
	return forceDebug || debugSampler.Allow()
}
