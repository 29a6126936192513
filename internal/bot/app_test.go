package bot

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	coretelegram "github.com/m3rciful/horoscopebot/core/telegram"
	"github.com/m3rciful/horoscopebot/core/telegram/keyboard"
	"github.com/m3rciful/horoscopebot/core/telegram/router"
	"github.com/m3rciful/horoscopebot/core/telegram/teletest"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/internal/presenter"

	tele "gopkg.in/telebot.v4"
)

type stubProvider struct {
	err   error
	calls int
}

func (p *stubProvider) Daily(_ context.Context, sign horoscope.Sign, day horoscope.Day, _ string) (horoscope.Result, error) {
	p.calls++
	if p.err != nil {
		return horoscope.Result{}, p.err
	}
	return horoscope.Result{Text: "Stars align", Date: "2024-03-01", Sign: sign}, nil
}

type botHarness struct {
	t    *testing.T
	app  *App
	text tele.HandlerFunc
	prov *stubProvider
}

func newBot(t *testing.T, cfg *Config) *botHarness {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	prov := &stubProvider{}
	app, err := New(cfg, Deps{Provider: prov})
	require.NoError(t, err)
	return &botHarness{
		t:    t,
		app:  app,
		prov: prov,
		text: router.TextHandler(app.Sessions(), app.Registry(), router.TextOptionsFrom(app)),
	}
}

// send delivers text the way telebot would: known commands hit their own
// endpoint, everything else goes through the text router.
func (h *botHarness) send(c *teletest.Context) {
	h.t.Helper()
	if _, cmd, ok := h.app.Registry().LookupCommand(c.Text()); ok && c.Text()[0] == '/' {
		require.NoError(h.t, cmd.Handler(c))
		return
	}
	require.NoError(h.t, h.text(c))
}

func (h *botHarness) say(prev *teletest.Context, text string) *teletest.Context {
	c := prev.WithText(text)
	h.send(c)
	return c
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New(&Config{}, Deps{})
	require.Error(t, err)
	_, err = New(nil, Deps{Provider: &stubProvider{}})
	require.Error(t, err)
}

func TestCommandMenu(t *testing.T) {
	h := newBot(t, nil)
	var names []string
	for _, c := range h.app.Registry().ListCommands(true) {
		names = append(names, c.Text)
	}
	require.Equal(t, []string{"/help", "/horoscope", "/info", "/start"}, names)
	require.Equal(t, []string{"HELP", "HOROSCOPE", "INFO", "MENU"}, h.app.Registry().ListButtons())
}

func TestStartAndHello(t *testing.T) {
	h := newBot(t, nil)
	for _, cmd := range []string{"/start", "/hello", "/hello@horoscope_bot"} {
		c := teletest.NewText(1, 1, cmd)
		h.send(c)
		require.Equal(t, presenter.TextWelcome, c.Last().Text, cmd)
		require.Equal(t, keyboard.Labels(presenter.MainMenu()), keyboard.Labels(c.Last().Markup))
	}
}

func TestButtonsDriveFullFlow(t *testing.T) {
	h := newBot(t, nil)
	c := teletest.NewText(5, 5, presenter.BtnHoroscope)
	h.send(c)
	c = h.say(c, "Virgo")
	c = h.say(c, "tomorrow")

	require.Equal(t, []string{
		presenter.TextChooseSign,
		presenter.TextChooseDay,
		presenter.TextResultIntro,
		"*Horoscope:* Stars align\n*Sign:* Virgo\n*Day:* 2024-03-01",
	}, c.Texts())
	require.Equal(t, 1, h.prov.calls)
	require.False(t, h.app.Sessions().InProgress(5))
}

func TestHelpInfoAndMenuButtons(t *testing.T) {
	h := newBot(t, nil)
	c := teletest.NewText(1, 1, presenter.BtnHelp)
	h.send(c)
	require.Equal(t, presenter.TextHelp, c.Last().Text)

	c = h.say(c, presenter.BtnInfo)
	require.Equal(t, presenter.TextInfo, c.Last().Text)

	c = h.say(c, presenter.BtnMenu)
	require.Equal(t, presenter.TextChooseSign, c.Last().Text)
	require.True(t, h.app.Sessions().InProgress(1))
}

func TestCommandClearsPendingFlow(t *testing.T) {
	h := newBot(t, nil)
	c := teletest.NewText(1, 1, "/horoscope")
	h.send(c)
	c = h.say(c, "Leo")
	require.True(t, h.app.Sessions().InProgress(1))

	c = h.say(c, "/help")
	require.Equal(t, presenter.TextHelp, c.Last().Text)
	require.False(t, h.app.Sessions().InProgress(1))

	// TODAY is no longer a day answer once the flow was dropped.
	c = h.say(c, "TODAY")
	require.Equal(t, presenter.TextFallback, c.Last().Text)
	require.Zero(t, h.prov.calls)
}

func TestFallbackAndUnknownCommands(t *testing.T) {
	h := newBot(t, nil)
	c := teletest.NewText(1, 1, "what is my fortune")
	h.send(c)
	require.Equal(t, []string{presenter.TextFallback}, c.Texts())

	c = h.say(c, "/unknown")
	require.Len(t, c.Texts(), 1)

	d := teletest.NewText(2, 2, "report.pdf")
	require.NoError(t, h.app.UnknownDocument()(d))
	require.Equal(t, presenter.TextFallback, d.Last().Text)
}

func TestPendingFlowOwnsButtonLabels(t *testing.T) {
	h := newBot(t, nil)
	c := teletest.NewText(1, 1, "/horoscope")
	h.send(c)
	c = h.say(c, presenter.BtnHelp)
	require.Equal(t, presenter.TextInvalidSign, c.Last().Text)
	require.True(t, h.app.Sessions().InProgress(1))
}

func TestProviderFailure(t *testing.T) {
	h := newBot(t, nil)
	h.prov.err = &horoscope.ProviderError{Kind: horoscope.KindStatus, StatusCode: http.StatusBadGateway, Err: horoscope.ErrStatus}
	c := teletest.NewText(1, 1, "/horoscope")
	h.send(c)
	c = h.say(h.say(c, "Pisces"), "YESTERDAY")
	require.Equal(t, presenter.TextFailure, c.Last().Text)
	require.False(t, h.app.Sessions().InProgress(1))
}

func TestStatsSummary(t *testing.T) {
	h := newBot(t, &Config{})
	c := teletest.NewText(1, 1, "/horoscope")
	h.send(c)
	c = h.say(h.say(c, "Leo"), "TODAY")

	h.prov.err = errors.New("down")
	c = h.say(c, "/horoscope")
	c = h.say(h.say(c, "Leo"), "TODAY")

	other := teletest.NewText(2, 2, "/horoscope")
	h.send(other)

	s := teletest.NewText(1, 1, "/stats")
	_, cmd, ok := h.app.Registry().LookupCommand("/stats")
	require.True(t, ok)
	require.True(t, cmd.AdminOnly)
	require.NoError(t, cmd.Handler(s))
	require.Equal(t, "Horoscope requests: 2\nSucceeded: 1\nFailed: 1\nChats: 1\nFlows in progress: 1\nTop signs:\nLeo: 1", s.Last().Text)
}

func TestAdminReject(t *testing.T) {
	h := newBot(t, nil)
	c := teletest.NewText(1, 1, "/stats")
	require.NoError(t, h.app.onAdminReject(c))
	require.Equal(t, presenter.TextAdminOnly, c.Last().Text)
}

func TestTelegramRunOptions(t *testing.T) {
	cfg := &Config{Health: HealthConfig{Listen: "127.0.0.1:0"}}
	h := newBot(t, cfg)

	opts, err := h.app.TelegramRunOptions()
	require.NoError(t, err)
	require.Same(t, &cfg.Config, opts.Config)
	require.NotEmpty(t, opts.Routes)

	var mws []string
	for _, mw := range opts.Middlewares {
		mws = append(mws, mw.Name)
	}
	require.Contains(t, mws, "serialize_chat")

	ctx := context.Background()
	require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
	resp, err := http.Get("http://" + h.app.health.Addr() + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
}
