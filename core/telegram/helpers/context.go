// Package helpers bridges telebot contexts to the logging context and the
// outbound dispatcher.
package helpers

import (
	"context"

	"github.com/m3rciful/horoscopebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxSlot = "std_ctx"

// Attach stores ctx on c so later helpers reuse the same metadata.
func Attach(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxSlot, ctx)
	}
}

func attached(c tele.Context) context.Context {
	if c == nil {
		return nil
	}
	ctx, _ := c.Get(ctxSlot).(context.Context)
	return ctx
}

// Fresh derives a logging context from the update in c (rid, update, chat
// and user ids) and attaches it, replacing any previous one.
func Fresh(c tele.Context) context.Context {
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Named("tg"))
	Attach(c, ctx)
	return ctx
}

// Context returns the attached context, deriving one on first use.
func Context(c tele.Context) context.Context {
	if ctx := attached(c); ctx != nil {
		return ctx
	}
	return Fresh(c)
}

func amend(c tele.Context, fn func(context.Context) context.Context) context.Context {
	ctx := fn(Context(c))
	Attach(c, ctx)
	return ctx
}

// WithHandler tags later log lines of this update with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	return amend(c, func(ctx context.Context) context.Context {
		return logger.WithHandler(ctx, handler)
	})
}

// WithFlow tags later log lines of this update with the conversation state.
func WithFlow(c tele.Context, state string) context.Context {
	return amend(c, func(ctx context.Context) context.Context {
		return logger.WithFlow(ctx, state)
	})
}
