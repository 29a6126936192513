package telegram

import (
	"github.com/m3rciful/horoscopebot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
// When locker is set, updates from one chat are handled one at a time.
func DefaultMiddlewares(locker middleware.ChatLocker) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
	if locker != nil {
		mws = append(mws, Middleware{Name: "serialize_chat", Use: middleware.SerializeChat(locker)})
	}
	mws = append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
	return mws
}
