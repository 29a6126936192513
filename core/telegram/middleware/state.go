package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/horoscopebot/core/logger"
	tghelpers "github.com/m3rciful/horoscopebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ChatLocker is the minimal interface required from an FSM manager.
type ChatLocker interface {
	Lock(chatID int64) func()
}

// SerializeChat runs handlers for the same chat one at a time so a
// conversation step never observes a half-applied transition.
// Updates without a chat pass through unlocked.
func SerializeChat(locker ChatLocker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if locker == nil || chat == nil {
				return next(c)
			}
			start := time.Now()
			unlock := locker.Lock(chat.ID)
			defer unlock()
			if waited := time.Since(start); waited > 100*time.Millisecond {
				logger.Debug(tghelpers.Context(c), "tg", "fsm.lock.wait",
					slog.Int64("chat_id", chat.ID),
					slog.Duration("duration", logger.RoundMS(waited)),
				)
			}
			return next(c)
		}
	}
}
