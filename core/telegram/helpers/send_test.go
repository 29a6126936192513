package helpers

import (
	"testing"

	"github.com/m3rciful/horoscopebot/core/logger"
	"github.com/m3rciful/horoscopebot/core/telegram/sender"
	"github.com/m3rciful/horoscopebot/core/telegram/teletest"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestSendHelpersWithoutDispatcher(t *testing.T) {
	c := teletest.NewText(1, 2, "hi")
	kb := &tele.ReplyMarkup{ResizeKeyboard: true}

	require.NoError(t, SendText(c, "plain"))
	require.NoError(t, SendMarkup(c, "with kb", kb))
	require.NoError(t, SendMD(c, "*bold*"))

	sent := c.Sent()
	require.Len(t, sent, 3)
	require.Equal(t, "plain", sent[0].Text)
	require.Same(t, kb, sent[1].Markup)
	require.Equal(t, tele.ModeMarkdown, sent[2].ParseMode)
}

func TestSendHelpersThroughDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2})
	SetDispatcher(d)
	t.Cleanup(func() { SetDispatcher(nil) })

	c := teletest.NewText(9, 9, "hi")
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, SendText(c, text))
	}
	d.Close()
	require.Equal(t, []string{"a", "b", "c"}, c.Texts())
}

func TestContextIsDerivedOnceAndAmended(t *testing.T) {
	c := teletest.NewText(5, 6, "hi")
	ctx := Context(c)
	require.Equal(t, int64(5), logger.ChatIDFrom(ctx))
	require.Equal(t, int64(6), logger.UserIDFrom(ctx))
	require.NotEmpty(t, logger.RIDFrom(ctx))
	require.Equal(t, ctx, Context(c))

	WithHandler(c, "command.start")
	WithFlow(c, "horoscope.awaiting_day")
	got := Context(c)
	require.Equal(t, "command.start", logger.HandlerFrom(got))
	require.Equal(t, "horoscope.awaiting_day", logger.FlowFrom(got))

	require.Empty(t, logger.HandlerFrom(Fresh(c)))
}
