package middleware

import (
	"log/slog"
	"sync"

	"github.com/m3rciful/horoscopebot/core/logger"
	tghelpers "github.com/m3rciful/horoscopebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers the last few update ids so an update that passes
// through LoggerMiddleware on two branches is reported once.
type seenUpdates struct {
	mu   sync.Mutex
	ring [256]int
	pos  int
	set  map[int]struct{}
}

var received = &seenUpdates{set: make(map[int]struct{})}

func (s *seenUpdates) first(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[id]; ok {
		return false
	}
	delete(s.set, s.ring[s.pos])
	s.ring[s.pos] = id
	s.pos = (s.pos + 1) % len(s.ring)
	s.set[id] = struct{}{}
	return true
}

// LoggerMiddleware derives the update's logging context and emits a sampled
// update.received debug line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.Fresh(c)
		if logger.ShouldSampleDebug() && received.first(c.Update().ID) {
			logger.Emit(ctx, nil, slog.LevelDebug, "update.received", receivedAttrs(c)...)
		}
		return next(c)
	}
}

func receivedAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	if c.Message() != nil {
		if text := c.Text(); text != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, 256)))
		}
	}
	return attrs
}
