package router

import (
	"errors"
	"testing"

	tg "github.com/m3rciful/horoscopebot/core/telegram"
	"github.com/m3rciful/horoscopebot/core/telegram/commands"
	"github.com/m3rciful/horoscopebot/core/telegram/teletest"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type fakeFSM struct {
	pending map[int64]bool
	handled []string
}

func (f *fakeFSM) InProgress(chatID int64) bool { return f.pending[chatID] }

func (f *fakeFSM) ManagerHandler(c tele.Context) error {
	f.handled = append(f.handled, c.Text())
	return nil
}

func recorder(hits *[]string) func(string) tele.HandlerFunc {
	return func(name string) tele.HandlerFunc {
		return func(tele.Context) error {
			*hits = append(*hits, name)
			return nil
		}
	}
}

func newTestRegistry(t *testing.T, hits *[]string) *tg.Registry {
	record := recorder(hits)
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/help", commands.Command{Handler: record("help"), Description: "help"}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Handler: record("stats"), Description: "stats", AdminOnly: true}))
	require.NoError(t, reg.RegisterButton("HELP", record("button.help")))
	return reg
}

func TestTextHandlerOrder(t *testing.T) {
	var hits []string
	fsm := &fakeFSM{pending: map[int64]bool{1: true}}
	h := TextHandler(fsm, newTestRegistry(t, &hits), TextOptions{UnknownText: recorder(&hits)("fallback")})

	// pending chat: everything goes to the conversation, buttons included
	require.NoError(t, h(teletest.NewText(1, 1, "HELP")))
	require.Equal(t, []string{"HELP"}, fsm.handled)
	require.Empty(t, hits)

	require.NoError(t, h(teletest.NewText(2, 2, "HELP")))
	require.NoError(t, h(teletest.NewText(2, 2, "/help@horoscope_bot")))
	require.NoError(t, h(teletest.NewText(2, 2, "/stats")))
	require.NoError(t, h(teletest.NewText(2, 2, "/nonsense")))
	require.NoError(t, h(teletest.NewText(2, 2, "what's up")))
	require.Equal(t, []string{"button.help", "help", "fallback"}, hits)
}

func TestTextHandlerUnknownTextOption(t *testing.T) {
	var called bool
	reg := tg.NewRegistry()
	h := TextHandler(nil, reg, TextOptions{UnknownText: func(tele.Context) error {
		called = true
		return nil
	}})
	require.NoError(t, h(teletest.NewText(3, 3, "hi")))
	require.True(t, called)
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "provider timeout" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	require.Empty(t, errorCode(nil))
	require.Equal(t, "PROVIDER_TIMEOUT", errorCode(codedErr{}))
	require.Equal(t, "PLAINERR", errorCode(&plainErr{}))
	require.Equal(t, "ERRORSTRING", errorCode(errors.New("x")))
}

func TestHandlerName(t *testing.T) {
	require.Equal(t, "command.unknown", handlerName("command", " "))
	require.Equal(t, "command.start", handlerName("command", "/Start"))
	require.Equal(t, "button.my_button", handlerName("button", "My Button"))
}

type fallbacks struct{ hits *[]string }

func (f fallbacks) UnknownText() tele.HandlerFunc {
	return func(tele.Context) error { *f.hits = append(*f.hits, "text"); return nil }
}

func (f fallbacks) UnknownDocument() tele.HandlerFunc {
	return func(tele.Context) error { *f.hits = append(*f.hits, "document"); return nil }
}

func TestTextOptionsFrom(t *testing.T) {
	require.Equal(t, TextOptions{}, TextOptionsFrom(nil))

	var hits []string
	opts := TextOptionsFrom(fallbacks{hits: &hits})
	require.NoError(t, opts.UnknownText(nil))
	require.NoError(t, opts.UnknownDocument(nil))
	require.Equal(t, []string{"text", "document"}, hits)
}
