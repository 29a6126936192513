package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/horoscopebot/core/telegram"
	"github.com/m3rciful/horoscopebot/core/telegram/middleware"
	"github.com/m3rciful/horoscopebot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(chatID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextOptionsFrom takes both fallbacks from a provider.
func TextOptionsFrom(p ui.FallbackProvider) TextOptions {
	if p == nil {
		return TextOptions{}
	}
	return TextOptions{
		UnknownText:     p.UnknownText(),
		UnknownDocument: p.UnknownDocument(),
	}
}

// TextHandler routes a plain text message. A pending conversation step
// receives every message, including button labels. Otherwise an exact
// button label wins, then a slash command known by alias. Unknown slash
// commands are ignored; any other text goes to the fallback.
func TextHandler(fsmMgr FSM, reg *tg.Registry, opts TextOptions) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if fsmMgr != nil && c.Chat() != nil && fsmMgr.InProgress(c.Chat().ID) {
			return tracked(c, "fsm", start, func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if h, ok := reg.LookupButton(text); ok {
				return tracked(c, handlerName("button", text), start, func() error {
					return h(c)
				})
			}
		}

		if strings.HasPrefix(text, "/") {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && !cmd.AdminOnly {
					return tracked(c, handlerName("command", key), start, func() error {
						return cmd.Handler(c)
					})
				}
			}
			skipped(c, "unknown_command", start)
			return nil
		}

		if opts.UnknownText != nil {
			return tracked(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		skipped(c, "unknown_text", start)
		return nil
	}
}

// TextRoutes builds handlers for text and document routing.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return tracked(c, "unexpected_document", start, func() error {
				return opts.UnknownDocument(c)
			})
		}
		skipped(c, "unexpected_document", start)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(TextHandler(fsmMgr, reg, opts))),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
