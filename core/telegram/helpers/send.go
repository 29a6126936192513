package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/horoscopebot/core/logger"
	"github.com/m3rciful/horoscopebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d. Nil restores inline sends.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// message is one outgoing chat message.
type message struct {
	action string
	text   string
	markup *tele.ReplyMarkup
	mode   tele.ParseMode
}

func (m message) options() *tele.SendOptions {
	if m.markup == nil && m.mode == tele.ModeDefault {
		return nil
	}
	return &tele.SendOptions{ReplyMarkup: m.markup, ParseMode: m.mode}
}

// deliver queues m on the dispatcher, or sends inline when none is wired.
// A full or closed queue degrades to an inline send.
func deliver(c tele.Context, m message) error {
	send := func() error {
		if opts := m.options(); opts != nil {
			return c.Send(m.text, opts)
		}
		return c.Send(m.text)
	}

	d := dispatcher.Load()
	if d == nil {
		return send()
	}
	ctx := Context(c)
	err := d.Enqueue(ctx, m.action, "sendMessage", send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", m.action),
			slog.Any("err", err),
		)
		return send()
	}
	return err
}

// SendText sends plain text. With a dispatcher wired the call returns once
// the message is queued.
func SendText(c tele.Context, text string) error {
	return deliver(c, message{action: "send.text", text: text})
}

// SendMarkup sends plain text together with a reply keyboard.
func SendMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return deliver(c, message{action: "send.markup", text: text, markup: markup})
}

// SendMD sends legacy Markdown without touching the current keyboard.
func SendMD(c tele.Context, text string) error {
	return deliver(c, message{action: "send.markdown", text: text, mode: tele.ModeMarkdown})
}
