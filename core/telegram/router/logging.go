package router

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/horoscopebot/core/logger"
	tghelpers "github.com/m3rciful/horoscopebot/core/telegram/helpers"
	"github.com/m3rciful/horoscopebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// tracked runs fn as handler name and reports it in one handler.handled line.
func tracked(c tele.Context, name string, start time.Time, fn func() error) error {
	tghelpers.WithHandler(c, name)
	err := fn()
	status, outcome := "ok", "ok"
	switch {
	case errors.Is(err, context.Canceled):
		status, outcome = "cancelled", "cancelled"
	case err != nil:
		status, outcome = "fail", "fail"
	}
	report(c, name, start, status, outcome, err)
	return err
}

// skipped reports an update that no handler took.
func skipped(c tele.Context, name string, start time.Time) {
	report(c, name, start, "skip", "ok", nil)
}

func report(c tele.Context, name string, start time.Time, status, outcome string, err error) {
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
			slog.String("cause", name),
		)
	}
	logger.Emit(ctx, nil, slog.LevelInfo, "handler.handled", attrs...)
}

// handlerName turns a command or button label into a log-friendly token.
func handlerName(kind, label string) string {
	label = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(label), "/"))
	if label == "" {
		label = "unknown"
	}
	return kind + "." + strings.ReplaceAll(label, " ", "_")
}

// errorCode prefers an error's own Code() and falls back to its type name.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	upper := func(s string) string { return strings.ToUpper(strings.ReplaceAll(s, " ", "_")) }

	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return upper(code)
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return upper(t.Name())
}
