package bot

import (
	"log/slog"

	"github.com/m3rciful/horoscopebot/core/logger"
	"github.com/m3rciful/horoscopebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/horoscopebot/core/telegram/helpers"
	"github.com/m3rciful/horoscopebot/internal/presenter"

	tele "gopkg.in/telebot.v4"
)

const statsTopSigns = 3

func (a *App) registerHandlers() error {
	reg := a.registry
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: a.command(a.onStart), Description: "greeting", Aliases: []string{"/hello"}}},
		{"/horoscope", commands.Command{Handler: a.command(a.ctrl.Begin), Description: "get daily horoscope"}},
		{"/help", commands.Command{Handler: a.command(a.onHelp), Description: "show help"}},
		{"/info", commands.Command{Handler: a.command(a.onInfo), Description: "info about the bot"}},
		{"/stats", commands.Command{Handler: a.command(a.onStats), Description: "request statistics", AdminOnly: true, Hidden: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}

	buttons := map[string]tele.HandlerFunc{
		presenter.BtnHoroscope: a.ctrl.Begin,
		presenter.BtnMenu:      a.ctrl.Begin,
		presenter.BtnHelp:      a.onHelp,
		presenter.BtnInfo:      a.onInfo,
	}
	for label, h := range buttons {
		if err := reg.RegisterButton(label, h); err != nil {
			return err
		}
	}
	return nil
}

// command wraps a top-level command so it drops any step still pending for
// the chat before running.
func (a *App) command(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		a.ctrl.Reset(c)
		return h(c)
	}
}

func (a *App) onStart(c tele.Context) error {
	return tghelpers.SendMarkup(c, presenter.TextWelcome, presenter.MainMenu())
}

func (a *App) onHelp(c tele.Context) error {
	return tghelpers.SendMarkup(c, presenter.TextHelp, presenter.MainMenu())
}

func (a *App) onInfo(c tele.Context) error {
	return tghelpers.SendMarkup(c, presenter.TextInfo, presenter.MainMenu())
}

func (a *App) onStats(c tele.Context) error {
	ctx := tghelpers.Context(c)
	sum, err := a.store.Summary(ctx, statsTopSigns)
	if err != nil {
		logger.Error(ctx, "service.stats", "summary",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
		return tghelpers.SendText(c, presenter.TextFailure)
	}
	return tghelpers.SendText(c, presenter.FormatStats(sum, a.sessions.Active()))
}

func (a *App) onAdminReject(c tele.Context) error {
	return tghelpers.SendText(c, presenter.TextAdminOnly)
}

// UnknownText nudges the user towards /horoscope.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendMarkup(c, presenter.TextFallback, presenter.MainMenu())
	}
}

// UnknownDocument answers files the same way as unknown text.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return a.UnknownText()
}
