// Package conversation drives the sign -> day -> fetch horoscope flow.
//
// Step handlers run under the chat lock taken by the telegram middleware
// chain, so a chat's session is never read and written concurrently.
package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/horoscopebot/core/logger"
	tghelpers "github.com/m3rciful/horoscopebot/core/telegram/helpers"
	"github.com/m3rciful/horoscopebot/core/telegram/state"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/internal/presenter"

	tele "gopkg.in/telebot.v4"
)

// Flow states.
const (
	StateAwaitingSign state.State = "horoscope.awaiting_sign"
	StateAwaitingDay  state.State = "horoscope.awaiting_day"
)

const keySign = "sign"

// Fetcher returns the daily horoscope for a validated sign and day.
type Fetcher interface {
	Fetch(ctx context.Context, sign horoscope.Sign, day horoscope.Day) (horoscope.Result, error)
}

// Controller owns the horoscope conversation.
type Controller struct {
	sessions state.Manager
	fetcher  Fetcher
}

// New builds a Controller and registers its step handlers on sessions.
func New(sessions state.Manager, fetcher Fetcher) *Controller {
	c := &Controller{sessions: sessions, fetcher: fetcher}
	sessions.Handle(StateAwaitingSign, c.onSign)
	sessions.Handle(StateAwaitingDay, c.onDay)
	return c
}

// Begin starts the flow, replacing anything pending for the chat.
func (c *Controller) Begin(tc tele.Context) error {
	chatID := tc.Chat().ID
	from := c.sessions.Get(chatID).State
	c.sessions.Set(chatID, state.Session{State: StateAwaitingSign})
	c.transition(tc, from, StateAwaitingSign, "ok")
	return tghelpers.SendMarkup(tc, presenter.TextChooseSign, presenter.SignKeyboard())
}

// Reset drops any pending step for the chat. It reports whether one existed.
func (c *Controller) Reset(tc tele.Context) bool {
	chat := tc.Chat()
	if chat == nil {
		return false
	}
	sess := c.sessions.Get(chat.ID)
	if sess.State == state.StateIdle {
		return false
	}
	c.sessions.Clear(chat.ID)
	c.transition(tc, sess.State, state.StateIdle, "cancelled", slog.String("reason", "command"))
	return true
}

func (c *Controller) onSign(tc tele.Context, sess state.Session) error {
	input := strings.TrimSpace(tc.Text())
	if done, err := c.escape(tc, sess.State, input); done {
		return err
	}

	sign, ok := horoscope.ParseSign(input)
	if !ok {
		c.transition(tc, sess.State, sess.State, "reprompt")
		return tghelpers.SendMarkup(tc, presenter.TextInvalidSign, presenter.SignKeyboard())
	}

	c.sessions.Set(tc.Chat().ID, state.Session{
		State: StateAwaitingDay,
		Data:  map[string]string{keySign: string(sign)},
	})
	c.transition(tc, sess.State, StateAwaitingDay, "ok", slog.String("sign", string(sign)))
	return tghelpers.SendMarkup(tc, presenter.TextChooseDay, presenter.DayKeyboard())
}

func (c *Controller) onDay(tc tele.Context, sess state.Session) error {
	input := strings.TrimSpace(tc.Text())
	if done, err := c.escape(tc, sess.State, input); done {
		return err
	}

	sign, ok := horoscope.ParseSign(sess.Value(keySign))
	if !ok {
		// a day step without a stored sign restarts the flow
		return c.Begin(tc)
	}
	day, ok := horoscope.ParseDay(input)
	if !ok {
		c.transition(tc, sess.State, sess.State, "reprompt", slog.String("sign", string(sign)))
		return tghelpers.SendMarkup(tc, presenter.TextInvalidDay, presenter.DayKeyboard())
	}

	chatID := tc.Chat().ID
	c.sessions.Clear(chatID)
	c.transition(tc, sess.State, state.StateIdle, "ok",
		slog.String("sign", string(sign)),
		slog.String("day", string(day)),
	)

	ctx := tghelpers.Context(tc)
	res, err := c.fetcher.Fetch(ctx, sign, day)
	if err != nil {
		return tghelpers.SendMarkup(tc, presenter.TextFailure, presenter.MainMenu())
	}
	if err := tghelpers.SendMarkup(tc, presenter.TextResultIntro, presenter.MainMenu()); err != nil {
		return err
	}
	return tghelpers.SendMD(tc, presenter.FormatResult(res))
}

// escape handles CANCEL and MENU, which leave the flow from any step
// without contacting the provider.
func (c *Controller) escape(tc tele.Context, from state.State, input string) (bool, error) {
	var text string
	switch strings.ToUpper(input) {
	case presenter.BtnCancel:
		text = presenter.TextCancelled
	case presenter.BtnMenu:
		text = presenter.TextMenu
	default:
		return false, nil
	}
	c.sessions.Clear(tc.Chat().ID)
	c.transition(tc, from, state.StateIdle, "cancelled", slog.String("reason", strings.ToLower(input)))
	return true, tghelpers.SendMarkup(tc, text, presenter.MainMenu())
}

func (c *Controller) transition(tc tele.Context, from, to state.State, outcome string, extra ...slog.Attr) {
	ctx := tghelpers.Context(tc)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("from_state", string(from)),
		slog.String("to_state", string(to)),
		slog.String("outcome", outcome),
	}
	attrs = append(attrs, extra...)
	logger.Emit(ctx, logger.Conv, slog.LevelInfo, "fsm.transition", attrs...)
}
