// Package presenter holds the user-facing texts and reply keyboards.
package presenter

import (
	"fmt"
	"strings"

	"github.com/m3rciful/horoscopebot/core/telegram/format"
	"github.com/m3rciful/horoscopebot/core/telegram/keyboard"
	"github.com/m3rciful/horoscopebot/internal/horoscope"
	"github.com/m3rciful/horoscopebot/internal/stats"

	tele "gopkg.in/telebot.v4"
)

// Button labels. They double as the text a button press sends back.
const (
	BtnHoroscope = "HOROSCOPE"
	BtnHelp      = "HELP"
	BtnInfo      = "INFO"
	BtnMenu      = "MENU"
	BtnCancel    = "CANCEL"
)

// Message texts.
const (
	TextWelcome     = "I am Baibacci and horoscope believer. Choose an option:"
	TextChooseSign  = "Choose your zodiac sign:"
	TextInvalidSign = "Please choose a zodiac sign using the buttons."
	TextChooseDay   = "Choose the day:"
	TextInvalidDay  = "Please choose TODAY / TOMORROW / YESTERDAY or enter a date in YYYY-MM-DD format."
	TextCancelled   = "Cancelled. Choose an option:"
	TextMenu        = "Choose an option:"
	TextResultIntro = "Here's your horoscope!"
	TextFailure     = "Something went wrong. Please try again later."
	TextFallback    = "Type /horoscope to get a horoscope."
	TextInfo        = "This Bot is made for educational purposes only and has no relation to any real person"
	TextAdminOnly   = "This command is available to the bot admin only."
	TextHelp        = "Available commands:\n" +
		"/start - greeting\n" +
		"/horoscope - get daily horoscope\n" +
		"/help - show this help message\n" +
		"/info - info about the bot\n\n" +
		"Tip: use the buttons to choose sign and day"
)

const signsPerRow = 3

// MainMenu is the persistent keyboard shown outside a conversation.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{BtnHoroscope},
		[]string{BtnHelp},
		[]string{BtnInfo},
	)
}

// SignKeyboard lists the twelve signs, three per row, then MENU and CANCEL.
func SignKeyboard() *tele.ReplyMarkup {
	signs := horoscope.Signs()
	labels := make([]string, 0, len(signs))
	for _, s := range signs {
		labels = append(labels, s.Title())
	}
	rows := keyboard.Chunk(labels, signsPerRow)
	rows = append(rows, []string{BtnMenu, BtnCancel})
	return keyboard.OneTimeButtons(rows...)
}

// DayKeyboard offers the relative days, then MENU and CANCEL.
func DayKeyboard() *tele.ReplyMarkup {
	days := horoscope.Days()
	labels := make([]string, 0, len(days))
	for _, d := range days {
		labels = append(labels, string(d))
	}
	return keyboard.OneTimeButtons(labels, []string{BtnMenu, BtnCancel})
}

// FormatResult renders a horoscope as Telegram Markdown. Provider text is
// escaped so stray asterisks or underscores cannot break the message.
func FormatResult(res horoscope.Result) string {
	return fmt.Sprintf("*Horoscope:* %s\n*Sign:* %s\n*Day:* %s",
		format.Markdown(res.Text), res.Sign.Title(), format.Markdown(res.Date))
}

// FormatStats renders the admin summary as plain text.
func FormatStats(sum stats.Summary, activeFlows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Horoscope requests: %d\n", sum.Total)
	fmt.Fprintf(&b, "Succeeded: %d\n", sum.OK)
	fmt.Fprintf(&b, "Failed: %d\n", sum.Failed)
	fmt.Fprintf(&b, "Chats: %d\n", sum.Chats)
	fmt.Fprintf(&b, "Flows in progress: %d", activeFlows)
	if len(sum.TopSigns) > 0 {
		b.WriteString("\nTop signs:")
		for _, sc := range sum.TopSigns {
			title := sc.Sign
			if s, ok := horoscope.ParseSign(sc.Sign); ok {
				title = s.Title()
			}
			fmt.Fprintf(&b, "\n%s: %d", title, sc.Count)
		}
	}
	return b.String()
}
