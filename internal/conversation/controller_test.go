package conversation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/horoscopebot/core/telegram/keyboard"
	"github.com/m3rciful/horoscopebot/core/telegram/state"
	"github.com/m3rciful/horoscopebot/core/telegram/teletest"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/internal/presenter"

	tele "gopkg.in/telebot.v4"
)

type call struct {
	sign horoscope.Sign
	day  horoscope.Day
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, sign horoscope.Sign, day horoscope.Day) (horoscope.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{sign, day})
	if f.err != nil {
		return horoscope.Result{}, f.err
	}
	return horoscope.Result{Text: "Good day ahead", Date: string(day), Sign: sign}, nil
}

type harness struct {
	t    *testing.T
	mgr  state.Manager
	ctrl *Controller
}

func newHarness(t *testing.T, f Fetcher) *harness {
	mgr := state.NewMemoryManager()
	return &harness{t: t, mgr: mgr, ctrl: New(mgr, f)}
}

// begin starts the flow for chat.
func (h *harness) begin(chatID int64) *teletest.Context {
	c := teletest.NewText(chatID, chatID, "/horoscope")
	require.NoError(h.t, h.ctrl.Begin(c))
	return c
}

// say routes text the way the text router does for a pending chat.
func (h *harness) say(prev *teletest.Context, text string) *teletest.Context {
	c := prev.WithText(text)
	require.True(h.t, h.mgr.InProgress(c.Chat().ID), "no pending step for %q", text)
	require.NoError(h.t, h.mgr.ManagerHandler(c))
	return c
}

func TestFullFlowAgainstProvider(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":{"date":"2024-01-15","horoscope_data":"Good day ahead"}}`))
	}))
	defer srv.Close()

	svc := horoscope.NewService(horoscope.NewClient(srv.Client(), srv.URL), nil)
	h := newHarness(t, svc)

	c := h.begin(1)
	c = h.say(c, "Leo")
	c = h.say(c, "TODAY")

	require.Equal(t, "day=TODAY&sign=leo", gotQuery)
	require.False(t, h.mgr.InProgress(1))

	sent := c.Sent()
	require.Equal(t, []string{
		presenter.TextChooseSign,
		presenter.TextChooseDay,
		presenter.TextResultIntro,
		"*Horoscope:* Good day ahead\n*Sign:* Leo\n*Day:* 2024-01-15",
	}, c.Texts())
	require.Equal(t, keyboard.Labels(presenter.SignKeyboard()), keyboard.Labels(sent[0].Markup))
	require.Equal(t, keyboard.Labels(presenter.DayKeyboard()), keyboard.Labels(sent[1].Markup))
	require.Equal(t, keyboard.Labels(presenter.MainMenu()), keyboard.Labels(sent[2].Markup))
	require.Equal(t, tele.ModeMarkdown, sent[3].ParseMode)
}

func TestSignInputIsCaseInsensitive(t *testing.T) {
	for _, in := range []string{"leo", "LEO", " Leo "} {
		f := &fakeFetcher{}
		h := newHarness(t, f)
		c := h.say(h.begin(1), in)
		h.say(c, "today")
		require.Equal(t, []call{{horoscope.Leo, horoscope.Today}}, f.calls, in)
	}
}

func TestCancelAtEveryStepSkipsProvider(t *testing.T) {
	for _, word := range []string{"CANCEL", "cancel"} {
		f := &fakeFetcher{}
		h := newHarness(t, f)

		c := h.say(h.begin(1), word)
		require.False(t, h.mgr.InProgress(1))
		require.Equal(t, presenter.TextCancelled, c.Last().Text)
		require.Equal(t, keyboard.Labels(presenter.MainMenu()), keyboard.Labels(c.Last().Markup))

		c = h.say(h.say(h.begin(2), "Aries"), word)
		require.False(t, h.mgr.InProgress(2))
		require.Equal(t, presenter.TextCancelled, c.Last().Text)

		require.Empty(t, f.calls)
	}
}

func TestMenuEscapesBothSteps(t *testing.T) {
	f := &fakeFetcher{}
	h := newHarness(t, f)

	c := h.say(h.begin(1), "MENU")
	require.Equal(t, presenter.TextMenu, c.Last().Text)
	require.False(t, h.mgr.InProgress(1))

	c = h.say(h.say(h.begin(1), "Gemini"), "menu")
	require.Equal(t, presenter.TextMenu, c.Last().Text)
	require.False(t, h.mgr.InProgress(1))
	require.Empty(t, f.calls)
}

func TestInvalidInputReprompts(t *testing.T) {
	f := &fakeFetcher{}
	h := newHarness(t, f)

	c := h.say(h.begin(1), "Ophiuchus")
	require.Equal(t, presenter.TextInvalidSign, c.Last().Text)
	require.Equal(t, keyboard.Labels(presenter.SignKeyboard()), keyboard.Labels(c.Last().Markup))
	require.Equal(t, StateAwaitingSign, h.mgr.Get(1).State)

	c = h.say(c, "Scorpio")
	c = h.say(c, "someday")
	require.Equal(t, presenter.TextInvalidDay, c.Last().Text)
	require.Equal(t, keyboard.Labels(presenter.DayKeyboard()), keyboard.Labels(c.Last().Markup))
	sess := h.mgr.Get(1)
	require.Equal(t, StateAwaitingDay, sess.State)
	require.Equal(t, "scorpio", sess.Value(keySign))

	c = h.say(c, "2024/01/15")
	require.Equal(t, presenter.TextInvalidDay, c.Last().Text)
	h.say(c, "2024-01-15")
	require.Equal(t, []call{{horoscope.Scorpio, "2024-01-15"}}, f.calls)
}

func TestProviderFailureShowsGenericMessage(t *testing.T) {
	f := &fakeFetcher{err: &horoscope.ProviderError{Kind: horoscope.KindStatus, StatusCode: 502, Err: errors.New("bad gateway")}}
	h := newHarness(t, f)

	c := h.say(h.say(h.begin(1), "Leo"), "TOMORROW")
	require.Equal(t, "Something went wrong. Please try again later.", c.Last().Text)
	require.NotContains(t, c.Texts(), presenter.TextResultIntro)
	require.False(t, h.mgr.InProgress(1))
}

func TestRepeatedFlowsFetchIndependently(t *testing.T) {
	f := &fakeFetcher{}
	h := newHarness(t, f)

	h.say(h.say(h.begin(1), "Leo"), "TODAY")
	h.say(h.say(h.begin(1), "Pisces"), "YESTERDAY")
	require.Equal(t, []call{
		{horoscope.Leo, horoscope.Today},
		{horoscope.Pisces, horoscope.Yesterday},
	}, f.calls)
}

func TestChatsAreIsolated(t *testing.T) {
	f := &fakeFetcher{}
	h := newHarness(t, f)

	a := h.say(h.begin(100), "Leo")
	b := h.begin(200)
	require.Equal(t, StateAwaitingDay, h.mgr.Get(100).State)
	require.Equal(t, StateAwaitingSign, h.mgr.Get(200).State)

	h.say(b, "CANCEL")
	require.Equal(t, "leo", h.mgr.Get(100).Value(keySign))

	h.say(a, "TODAY")
	require.Equal(t, []call{{horoscope.Leo, horoscope.Today}}, f.calls)
}

func TestBeginReplacesPendingSessionAndResetClears(t *testing.T) {
	f := &fakeFetcher{}
	h := newHarness(t, f)

	c := h.say(h.begin(1), "Leo")
	require.NoError(t, h.ctrl.Begin(c.WithText("HOROSCOPE")))
	require.Equal(t, StateAwaitingSign, h.mgr.Get(1).State)
	require.Empty(t, h.mgr.Get(1).Value(keySign))

	require.True(t, h.ctrl.Reset(c))
	require.False(t, h.ctrl.Reset(c))
	require.False(t, h.mgr.InProgress(1))
}

func TestDayStepWithoutSignRestarts(t *testing.T) {
	f := &fakeFetcher{}
	h := newHarness(t, f)
	h.mgr.Set(1, state.Session{State: StateAwaitingDay})

	c := teletest.NewText(1, 1, "TODAY")
	require.NoError(t, h.mgr.ManagerHandler(c))
	require.Equal(t, presenter.TextChooseSign, c.Last().Text)
	require.Equal(t, StateAwaitingSign, h.mgr.Get(1).State)
	require.Empty(t, f.calls)
}
