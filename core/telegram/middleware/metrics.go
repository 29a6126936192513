package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersSlot = "send_counters"

// sendCounters are updated from dispatcher workers as well as the handler
// goroutine.
type sendCounters struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

func (s *sendCounters) record(opts []any) {
	s.messages.Add(1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				s.keyboard.Store(true)
			}
		case *tele.ReplyMarkup:
			if v != nil {
				s.keyboard.Store(true)
			}
		}
	}
}

// countingContext counts successful Send and Reply calls.
type countingContext struct {
	tele.Context
	n *sendCounters
}

func (m countingContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.n.record(opts)
	}
	return err
}

func (m countingContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.n.record(opts)
	}
	return err
}

// MessageMetricsMiddleware counts what a handler sends so the
// handler.handled line can report messages and kb.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &sendCounters{}
		c.Set(countersSlot, n)
		return next(countingContext{Context: c, n: n})
	}
}

// GetCounters returns the messages sent so far and whether any carried a
// keyboard. Without the middleware both are zero.
func GetCounters(c tele.Context) (int, bool) {
	n, ok := c.Get(countersSlot).(*sendCounters)
	if !ok {
		return 0, false
	}
	return int(n.messages.Load()), n.keyboard.Load()
}
