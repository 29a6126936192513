package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/horoscopebot/core/logger"
	tg "github.com/m3rciful/horoscopebot/core/telegram"
	"github.com/m3rciful/horoscopebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
// Every alias gets its own endpoint bound to the same handler.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	aliases := 0
	for cmd, def := range reg.Commands() {
		name := handlerName("command", cmd)
		inner := def.Handler
		var h tele.HandlerFunc = func(c tele.Context) error {
			return tracked(c, name, time.Now(), func() error {
				return inner(c)
			})
		}
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		endpoints := def.Endpoints(cmd)
		for _, ep := range endpoints {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: h})
		}
		aliases += len(endpoints) - 1
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("aliases", aliases),
		slog.Int("buttons", len(reg.ListButtons())),
	)

	return routes
}
