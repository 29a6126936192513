package telegram

import (
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/horoscopebot/core/config"
	"github.com/m3rciful/horoscopebot/core/telegram/commands"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "greeting", Aliases: []string{"hello"}}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "stats", AdminOnly: true, Hidden: true}))
	require.NoError(t, reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "help"}))
	require.ErrorIs(t, reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRegistration)
	require.ErrorIs(t, reg.RegisterCommand("/empty", commands.Command{Handler: noop}), ErrInvalidRegistration)
	require.ErrorIs(t, reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "dup"}), ErrDuplicate)
	require.ErrorIs(t, reg.RegisterCommand("/hi", commands.Command{Handler: noop, Description: "x", Aliases: []string{"/hello"}}), ErrDuplicate)

	require.Len(t, reg.Commands(), 3)
	require.Equal(t, "help", reg.Commands()["/help"].Description)

	visible := reg.ListCommands(true)
	require.Equal(t, []tele.Command{
		{Text: "/help", Description: "help"},
		{Text: "/start", Description: "greeting"},
	}, visible)
	require.Len(t, reg.ListCommands(false), 3)

	for _, in := range []string{"/start", "start", "/hello", "/hello@horoscope_bot", "/start payload", "/start\nmore"} {
		key, _, ok := reg.LookupCommand(in)
		require.True(t, ok, in)
		require.Equal(t, "/start", key, in)
	}
	_, _, ok := reg.LookupCommand("/unknown")
	require.False(t, ok)
	_, _, ok = reg.LookupCommand("/hi")
	require.False(t, ok)
}

func TestRegistryButtons(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterButton("HELP", noop))
	require.ErrorIs(t, reg.RegisterButton("HELP", noop), ErrDuplicate)
	require.ErrorIs(t, reg.RegisterButton(" ", noop), ErrInvalidRegistration)
	require.ErrorIs(t, reg.RegisterButton("INFO", nil), ErrInvalidRegistration)

	_, ok := reg.LookupButton(" HELP ")
	require.True(t, ok)
	_, ok = reg.LookupButton("help")
	require.False(t, ok)
	require.Equal(t, []string{"HELP"}, reg.ListButtons())
}

type fakeSetter struct {
	got []tele.Command
	err error
}

func (f *fakeSetter) SetCommands(opts ...any) error {
	if len(opts) > 0 {
		f.got, _ = opts[0].([]tele.Command)
	}
	return f.err
}

func TestInitBotCommandsPublishesVisible(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/info", commands.Command{Handler: noop, Description: "info"}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "stats", AdminOnly: true}))

	s := &fakeSetter{}
	InitBotCommands(s, reg)
	require.Equal(t, []tele.Command{{Text: "/info", Description: "info"}}, s.got)

	InitBotCommands(&fakeSetter{err: errors.New("network")}, reg)
}

func TestDispatcherOptionsFrom(t *testing.T) {
	opts := DispatcherOptionsFrom(coreconfigSender(8, 2, 3, 250))
	require.Equal(t, 8, opts.QueueSize)
	require.Equal(t, 2, opts.Workers)
	require.Equal(t, 3, opts.MaxRetries)
	require.Equal(t, int64(250), opts.RetryBackoff.Milliseconds())
}

func coreconfigSender(queue, workers, retries, backoffMS int) coreconfig.SenderConfig {
	return coreconfig.SenderConfig{QueueSize: queue, Workers: workers, MaxRetries: retries, RetryBackoffMS: backoffMS}
}
